package config

import (
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// PlanTier describes one subscription tier. A MonthlyLimit of 0 means
// the tier is uncapped.
type PlanTier struct {
	Name         string `mapstructure:"name"`
	MonthlyLimit int    `mapstructure:"monthlyLimit"`
}

// PlansConfig lists the tiers the service knows about.
type PlansConfig struct {
	Tiers []PlanTier `mapstructure:"tiers"`
}

func DefaultPlansConfig() PlansConfig {
	return PlansConfig{
		Tiers: []PlanTier{
			{Name: "FREE", MonthlyLimit: 5},
			{Name: "PAID", MonthlyLimit: 0},
		},
	}
}

// PlansConfigHolder serves the current plan tiers and hot-reloads them
// when the config file changes on disk.
type PlansConfigHolder struct {
	current atomic.Value // holds PlansConfig
}

func NewPlansConfigHolder() (*PlansConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("plans")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/namedraw/config")
	v.AddConfigPath("/etc/namedraw")
	v.AddConfigPath(".")

	v.SetEnvPrefix("NAMEDRAW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultPlansConfig()
		v.SetDefault("plans.tiers", defaults.Tiers)
	}

	holder := &PlansConfigHolder{}
	if err := holder.load(v); err != nil {
		return nil, err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if err := holder.load(v); err != nil {
			log.Printf("reload plans config: %v", err)
		}
	})
	v.WatchConfig()

	return holder, nil
}

func (h *PlansConfigHolder) load(v *viper.Viper) error {
	var cfg PlansConfig
	if err := v.UnmarshalKey("plans", &cfg); err != nil {
		return err
	}
	if len(cfg.Tiers) == 0 {
		cfg = DefaultPlansConfig()
	}
	h.current.Store(cfg)
	return nil
}

// Current returns the active plan tiers.
func (h *PlansConfigHolder) Current() PlansConfig {
	if cfg, ok := h.current.Load().(PlansConfig); ok {
		return cfg
	}
	return DefaultPlansConfig()
}

// MonthlyLimit returns the cap for the named tier, or 0 when the tier
// is uncapped or unknown.
func (h *PlansConfigHolder) MonthlyLimit(tier string) int {
	for _, t := range h.Current().Tiers {
		if strings.EqualFold(t.Name, tier) {
			return t.MonthlyLimit
		}
	}
	return 0
}
