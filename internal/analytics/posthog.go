package analytics

import (
	"context"

	"github.com/pelshen/namedraw/internal/config"
	"github.com/posthog/posthog-go"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// PostHogTracker sends events to PostHog. Enqueue failures are logged
// at debug and dropped.
type PostHogTracker struct {
	client      posthog.Client
	log         *zap.Logger
	appVersion  string
	environment string
}

func NewPostHogTracker(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (Tracker, error) {
	if cfg.PostHog.APIKey == "" {
		log.Info("posthog not configured, analytics disabled")
		return NewNoOpTracker(), nil
	}

	client, err := posthog.NewWithConfig(cfg.PostHog.APIKey, posthog.Config{
		Endpoint: cfg.PostHog.Endpoint,
	})
	if err != nil {
		return nil, err
	}

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				_ = ctx
				return client.Close()
			},
		})
	}

	return &PostHogTracker{
		client:      client,
		log:         log.Named("analytics"),
		appVersion:  cfg.AppVersion,
		environment: cfg.Environment,
	}, nil
}

func (t *PostHogTracker) Track(id Identity, event string, properties map[string]any) {
	props := posthog.NewProperties().
		Set("slack_user_id", id.UserID).
		Set("slack_team_id", id.TeamID).
		Set("plan_type", id.PlanType).
		Set("app_version", t.appVersion).
		Set("environment", t.environment)
	for key, value := range properties {
		props = props.Set(key, value)
	}

	err := t.client.Enqueue(posthog.Capture{
		DistinctId: id.DistinctID(),
		Event:      event,
		Properties: props,
	})
	if err != nil {
		t.log.Debug("dropped analytics event",
			zap.String("event", event),
			zap.Error(err),
		)
	}
}

// NoOpTracker discards every event.
type NoOpTracker struct{}

func NewNoOpTracker() *NoOpTracker { return &NoOpTracker{} }

func (*NoOpTracker) Track(Identity, string, map[string]any) {}
