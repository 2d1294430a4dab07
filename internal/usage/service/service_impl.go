package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/pelshen/namedraw/internal/analytics"
	"github.com/pelshen/namedraw/internal/cache"
	"github.com/pelshen/namedraw/internal/clock"
	"github.com/pelshen/namedraw/internal/config"
	obsmetrics "github.com/pelshen/namedraw/internal/observability/metrics"
	usagedomain "github.com/pelshen/namedraw/internal/usage/domain"
	"github.com/pelshen/namedraw/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// denialNotifyWindow throttles post-limit analytics per (user, team).
// The map behind it is process-local and loss-tolerant; losing it on
// restart only means one extra analytics event.
const denialNotifyWindow = time.Hour

// maxDenialEntries bounds the throttle map; expired entries are swept
// once it grows past this.
const maxDenialEntries = 1024

type ServiceParam struct {
	fx.In

	Repo    usagedomain.Repository
	Log     *zap.Logger
	Clock   clock.Clock
	Tracker analytics.Tracker
	Plans   *config.PlansConfigHolder `optional:"true"`
	Metrics *obsmetrics.Metrics       `optional:"true"`
}

type Service struct {
	repo    usagedomain.Repository
	log     *zap.Logger
	clock   clock.Clock
	tracker analytics.Tracker
	plans   *config.PlansConfigHolder
	metrics *obsmetrics.Metrics

	denials cache.Cache[string, time.Time]
}

func NewService(p ServiceParam) usagedomain.Service {
	clk := p.Clock
	return &Service{
		repo:    p.Repo,
		log:     p.Log.Named("usage.service"),
		clock:   clk,
		tracker: p.Tracker,
		plans:   p.Plans,
		metrics: p.Metrics,
		denials: cache.NewTTLCacheWithNow[string, time.Time](clk.Now),
	}
}

func (s *Service) GetUsage(ctx context.Context, userID, teamID string) (usagedomain.UsageRecord, error) {
	userID, teamID, err := validateIdentity(userID, teamID)
	if err != nil {
		return usagedomain.UsageRecord{}, err
	}

	period := s.periodKey()
	record, err := s.repo.Get(ctx, userID, teamID, period)
	if err != nil {
		return usagedomain.UsageRecord{}, err
	}
	if record == nil {
		return usagedomain.NewDefaultUsage(userID, teamID, period), nil
	}
	if record.PlanType == "" {
		record.PlanType = usagedomain.PlanFree
	}
	return *record, nil
}

func (s *Service) CanDraw(ctx context.Context, userID, teamID string) (usagedomain.EntitlementDecision, error) {
	usage, err := s.GetUsage(ctx, userID, teamID)
	if err != nil {
		return usagedomain.EntitlementDecision{}, err
	}

	if usage.PlanType == usagedomain.PlanPaid {
		return usagedomain.EntitlementDecision{Allowed: true, Usage: usage}, nil
	}

	limit := s.freeLimit()
	decision := usagedomain.EntitlementDecision{
		Allowed: usage.UsageCount < limit,
		Usage:   usage,
		Limit:   limit,
	}
	if !decision.Allowed {
		s.notifyDenied(ctx, usage, limit)
	}
	return decision, nil
}

func (s *Service) Increment(ctx context.Context, userID, teamID string, plan usagedomain.PlanType) (usagedomain.UsageRecord, error) {
	userID, teamID, err := validateIdentity(userID, teamID)
	if err != nil {
		return usagedomain.UsageRecord{}, err
	}
	if plan == "" {
		plan = usagedomain.PlanFree
	}
	if plan != usagedomain.PlanFree && plan != usagedomain.PlanPaid {
		return usagedomain.UsageRecord{}, usagedomain.ErrInvalidPlanType
	}

	now := s.clock.Now()
	period := s.periodKey()

	// Pre-read feeds the same-day/returning classification only; the
	// counter itself is updated atomically server-side.
	previous, preErr := s.repo.Get(ctx, userID, teamID, period)
	if preErr != nil {
		s.log.Debug("usage pre-read failed", zap.Error(preErr))
		previous = nil
	}

	created := false
	updated, err := s.repo.Increment(ctx, userID, teamID, period, plan, now)
	if errors.Is(err, usagedomain.ErrUsageNotFound) {
		record := &usagedomain.UsageRecord{
			UserID:     userID,
			TeamID:     teamID,
			Period:     period,
			UsageCount: 1,
			PlanType:   plan,
			LastUsedAt: &now,
			CreatedAt:  now,
		}
		switch createErr := s.repo.Create(ctx, record); {
		case createErr == nil:
			updated = record
			created = true
		case db.IsDuplicateKeyErr(createErr):
			// A concurrent first draw won the insert; the row exists
			// now, so the increment must succeed.
			updated, err = s.repo.Increment(ctx, userID, teamID, period, plan, now)
			if err != nil {
				return usagedomain.UsageRecord{}, err
			}
		default:
			return usagedomain.UsageRecord{}, createErr
		}
	} else if err != nil {
		return usagedomain.UsageRecord{}, err
	}

	s.metrics.RecordUsageIncrement(ctx, created)
	s.classify(previous, *updated, created, now)

	return *updated, nil
}

// classify emits post-update analytics. The branches are independent:
// a single draw can be a returning use, a warning and a limit hit at
// once. Emission never gates the returned record.
func (s *Service) classify(previous *usagedomain.UsageRecord, updated usagedomain.UsageRecord, created bool, now time.Time) {
	id := analytics.Identity{
		UserID:   updated.UserID,
		TeamID:   updated.TeamID,
		PlanType: string(updated.PlanType),
	}

	if created && updated.UsageCount == 1 {
		analytics.FirstTimeUser(s.tracker, id)
	}

	if updated.UsageCount > 1 && previous != nil && previous.LastUsedAt != nil {
		if sameDay(*previous.LastUsedAt, now) {
			analytics.RepeatUsageSameDay(s.tracker, id, updated.UsageCount)
		} else {
			days := int(now.Sub(*previous.LastUsedAt) / (24 * time.Hour))
			analytics.ReturningUser(s.tracker, id, days)
		}
	}

	limit := s.freeLimit()
	if usagedomain.IsApproachingLimit(updated, limit) {
		analytics.UsageLimitWarning(s.tracker, id, updated.UsageCount, limit)
	}
	if updated.PlanType == usagedomain.PlanFree && updated.UsageCount >= limit {
		analytics.UsageLimitReached(s.tracker, id, updated.UsageCount, limit)
	}
}

func (s *Service) notifyDenied(ctx context.Context, usage usagedomain.UsageRecord, limit int) {
	key := usage.UserID + "|" + usage.TeamID
	if _, seen := s.denials.Get(key); seen {
		return
	}
	s.denials.Set(key, s.clock.Now(), denialNotifyWindow)
	if s.denials.Len() > maxDenialEntries {
		s.denials.Sweep()
	}

	s.metrics.RecordDenial(ctx, string(usage.PlanType))
	analytics.PostLimitAttempt(s.tracker, analytics.Identity{
		UserID:   usage.UserID,
		TeamID:   usage.TeamID,
		PlanType: string(usage.PlanType),
	}, usage.UsageCount, limit)
}

// periodKey derives the billing period from the wall clock, UTC,
// zero-padded month.
func (s *Service) periodKey() string {
	return s.clock.Now().UTC().Format("2006-01")
}

func (s *Service) freeLimit() int {
	if s.plans != nil {
		if limit := s.plans.MonthlyLimit(string(usagedomain.PlanFree)); limit > 0 {
			return limit
		}
	}
	return usagedomain.FreePlanMonthlyLimit
}

func validateIdentity(userID, teamID string) (string, string, error) {
	userID = strings.TrimSpace(userID)
	teamID = strings.TrimSpace(teamID)
	if userID == "" {
		return "", "", usagedomain.ErrInvalidUser
	}
	if teamID == "" {
		return "", "", usagedomain.ErrInvalidTeam
	}
	return userID, teamID, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
