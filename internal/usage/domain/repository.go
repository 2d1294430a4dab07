package domain

import (
	"context"
	"time"
)

// Repository is the store adapter for usage rows. Implementations must
// make Increment a genuinely atomic server-side add, and must report a
// missing row as ErrUsageNotFound rather than a generic failure.
type Repository interface {
	// Get returns the row for the composite key, or (nil, nil) when
	// absent. Absence is distinct from a row with count zero.
	Get(ctx context.Context, userID, teamID, period string) (*UsageRecord, error)

	// Increment atomically adds one to usage_count, stamps last_used_at
	// and mirrors the plan, returning the post-update row. Returns
	// ErrUsageNotFound when no row matches the key.
	Increment(ctx context.Context, userID, teamID, period string, plan PlanType, now time.Time) (*UsageRecord, error)

	// Create inserts a brand-new row. A duplicate-key failure means a
	// concurrent first draw won the insert race.
	Create(ctx context.Context, record *UsageRecord) error

	// DeletePeriodsBefore removes rows with a period key strictly
	// before the given one. Used only by the retention job.
	DeletePeriodsBefore(ctx context.Context, period string) (int64, error)
}
