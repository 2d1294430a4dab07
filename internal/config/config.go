package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	Slack     SlackConfig
	PostHog   PostHogConfig
	RateLimit RateLimitConfig
	Retention RetentionConfig
}

// SlackConfig carries the secrets used to call and verify Slack.
type SlackConfig struct {
	SigningSecret string
	BotToken      string
	CommandSuffix string
}

// CommandName returns the slash command this deployment serves:
// /drawnames in production, /drawnamesdev on other stages.
func (c SlackConfig) CommandName() string {
	return "/drawnames" + c.CommandSuffix
}

// PostHogConfig configures the product analytics sink.
type PostHogConfig struct {
	APIKey   string
	Endpoint string
}

// RateLimitConfig configures the redis-backed slash command throttle.
type RateLimitConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CommandRate   float64
	CommandBurst  int
}

// RetentionConfig configures the optional usage-row pruning job.
type RetentionConfig struct {
	Enabled         bool
	KeepPeriods     int
	SweepIntervalHr int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	environment := getenv("ENVIRONMENT", "development")

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "namedraw"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: environment,
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),

		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "namedraw"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),

		Slack: SlackConfig{
			SigningSecret: strings.TrimSpace(getenv("SLACK_SIGNING_SECRET", "")),
			BotToken:      strings.TrimSpace(getenv("SLACK_BOT_TOKEN", "")),
			CommandSuffix: commandSuffix(environment),
		},
		PostHog: PostHogConfig{
			APIKey:   strings.TrimSpace(getenv("POSTHOG_API_KEY", "")),
			Endpoint: getenv("POSTHOG_HOST", "https://app.posthog.com"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getenvBool("RATE_LIMIT_ENABLED", false),
			RedisAddr:     strings.TrimSpace(getenv("RATE_LIMIT_REDIS_ADDR", "")),
			RedisPassword: strings.TrimSpace(getenv("RATE_LIMIT_REDIS_PASSWORD", "")),
			RedisDB:       getenvInt("RATE_LIMIT_REDIS_DB", 0),
			CommandRate:   getenvFloat("RATE_LIMIT_COMMAND_RATE", 1),
			CommandBurst:  getenvInt("RATE_LIMIT_COMMAND_BURST", 5),
		},
		Retention: RetentionConfig{
			Enabled:         getenvBool("USAGE_RETENTION_ENABLED", false),
			KeepPeriods:     getenvInt("USAGE_RETENTION_KEEP_PERIODS", 12),
			SweepIntervalHr: getenvInt("USAGE_RETENTION_SWEEP_HOURS", 24),
		},
	}

	return cfg
}

// commandSuffix mirrors the slash command registered per stage:
// /drawnames in production, /drawnamesdev everywhere else.
func commandSuffix(environment string) string {
	switch strings.ToLower(strings.TrimSpace(environment)) {
	case "production", "prod":
		return ""
	default:
		return "dev"
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}
