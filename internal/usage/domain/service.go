package domain

import (
	"context"
	"errors"
)

// Service is the usage ledger: the only component that reads or writes
// usage rows.
type Service interface {
	// GetUsage returns the current-period record, or the synthesized
	// zero view when no row exists. It never writes.
	GetUsage(ctx context.Context, userID, teamID string) (UsageRecord, error)

	// CanDraw composes GetUsage with the admission decision. Denials
	// may emit a throttled analytics event; emission never affects the
	// returned decision.
	CanDraw(ctx context.Context, userID, teamID string) (EntitlementDecision, error)

	// Increment adds one draw to the current-period record, creating
	// it when absent, and returns the post-update row.
	Increment(ctx context.Context, userID, teamID string, plan PlanType) (UsageRecord, error)
}

var (
	ErrInvalidUser     = errors.New("invalid_user")
	ErrInvalidTeam     = errors.New("invalid_team")
	ErrUsageNotFound   = errors.New("usage_record_not_found")
	ErrInvalidPlanType = errors.New("invalid_plan_type")
)
