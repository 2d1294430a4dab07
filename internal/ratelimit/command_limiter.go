package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pelshen/namedraw/internal/config"
	redis "github.com/redis/go-redis/v9"
)

const (
	keyCommand     = "draw:cmd:%s:%s"
	keyJanitorLock = "draw:retention:lock"
)

// CommandLimiter caps how fast a single user can fire draw commands.
// Disabled (nil) when no redis address is configured; callers treat a
// nil limiter as always-allow.
type CommandLimiter struct {
	enabled bool

	bucket  *TokenBucket
	janitor *lease

	rate  float64
	burst int
}

func NewCommandLimiter(cfg config.Config) (*CommandLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.CommandRate <= 0 || limitCfg.CommandBurst <= 0 {
		return nil, errors.New("command rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})

	return &CommandLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		janitor: newLease(client, keyJanitorLock),
		rate:    limitCfg.CommandRate,
		burst:   limitCfg.CommandBurst,
	}, nil
}

func (l *CommandLimiter) Enabled() bool {
	return l != nil && l.enabled
}

// AllowCommand takes a token from the (team, user) bucket. Errors are
// for the caller to fail open on: a redis outage must not take draws
// down with it.
func (l *CommandLimiter) AllowCommand(ctx context.Context, teamID, userID string) (Result, error) {
	if !l.Enabled() {
		return Result{Allowed: true}, nil
	}
	key := fmt.Sprintf(keyCommand, strings.TrimSpace(teamID), strings.TrimSpace(userID))
	return l.bucket.Allow(ctx, key, l.rate, l.burst)
}

// TryLockJanitor elects one replica to run the retention sweep.
func (l *CommandLimiter) TryLockJanitor(ctx context.Context, ttl time.Duration) (string, bool, error) {
	if !l.Enabled() {
		return "", true, nil
	}
	return l.janitor.Acquire(ctx, ttl)
}

func (l *CommandLimiter) ReleaseJanitor(ctx context.Context, token string) error {
	if !l.Enabled() {
		return nil
	}
	return l.janitor.Release(ctx, token)
}
