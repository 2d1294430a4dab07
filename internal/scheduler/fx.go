package scheduler

import (
	"context"
	"time"

	"github.com/pelshen/namedraw/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("scheduler",
	fx.Provide(ProvideConfig),
	fx.Provide(New),
	fx.Invoke(Start),
)

func ProvideConfig(cfg config.Config) Config {
	return Config{
		Enabled:       cfg.Retention.Enabled,
		KeepPeriods:   cfg.Retention.KeepPeriods,
		SweepInterval: time.Duration(cfg.Retention.SweepIntervalHr) * time.Hour,
	}
}

func Start(lc fx.Lifecycle, cfg Config, janitor *Janitor) {
	if !cfg.Enabled {
		return
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())

			go janitor.RunForever(ctx)

			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})

			return nil
		},
	})
}
