// Package scheduler runs the usage retention janitor: a ticker job
// that prunes ledger rows older than the configured number of billing
// periods.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/pelshen/namedraw/internal/clock"
	"github.com/pelshen/namedraw/internal/ratelimit"
	usagedomain "github.com/pelshen/namedraw/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("scheduler: invalid configuration")

// janitorLockTTL covers one sweep; a crashed holder frees the lock by
// expiry.
const janitorLockTTL = 10 * time.Minute

type Config struct {
	Enabled       bool
	KeepPeriods   int
	SweepInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.KeepPeriods <= 0 {
		c.KeepPeriods = 12
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = 24 * time.Hour
	}
	return c
}

type Params struct {
	fx.In

	Log     *zap.Logger
	Clock   clock.Clock
	Repo    usagedomain.Repository
	Limiter *ratelimit.CommandLimiter `optional:"true"`
	Config  Config                    `optional:"true"`
}

type Janitor struct {
	log     *zap.Logger
	cfg     Config
	clock   clock.Clock
	repo    usagedomain.Repository
	limiter *ratelimit.CommandLimiter
}

func New(p Params) (*Janitor, error) {
	if p.Log == nil || p.Clock == nil || p.Repo == nil {
		return nil, ErrInvalidConfig
	}
	return &Janitor{
		log:     p.Log.Named("scheduler").With(zap.String("component", "retention")),
		cfg:     p.Config.withDefaults(),
		clock:   p.Clock,
		repo:    p.Repo,
		limiter: p.Limiter,
	}, nil
}

func (j *Janitor) RunForever(ctx context.Context) {
	ticker := time.NewTicker(j.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := j.RunOnce(ctx); err != nil {
				j.log.Error("retention sweep failed", zap.Error(err))
			}
		}
	}
}

// RunOnce prunes rows older than the retention window. With redis
// configured only one replica sweeps per interval.
func (j *Janitor) RunOnce(ctx context.Context) error {
	token, ok, err := j.limiter.TryLockJanitor(ctx, janitorLockTTL)
	if err != nil {
		return err
	}
	if !ok {
		j.log.Debug("retention sweep held by another replica")
		return nil
	}
	defer func() {
		if err := j.limiter.ReleaseJanitor(ctx, token); err != nil {
			j.log.Debug("releasing janitor lock failed", zap.Error(err))
		}
	}()

	cutoff := j.cutoffPeriod()
	deleted, err := j.repo.DeletePeriodsBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if deleted > 0 {
		j.log.Info("pruned usage rows",
			zap.String("cutoff_period", cutoff),
			zap.Int64("deleted", deleted))
	}
	return nil
}

// cutoffPeriod returns the oldest period key to keep: the current
// period counts as the first of KeepPeriods.
func (j *Janitor) cutoffPeriod() string {
	now := j.clock.Now().UTC()
	year, month, _ := now.Date()
	cut := time.Date(year, month-time.Month(j.cfg.KeepPeriods-1), 1, 0, 0, 0, 0, time.UTC)
	return cut.Format("2006-01")
}
