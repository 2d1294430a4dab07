// Package domain holds the usage ledger model: one row per
// (user, team, billing period) counting draws performed that month.
package domain

import "time"

// PlanType is the billing tier attached to a team at last write.
type PlanType string

const (
	PlanFree PlanType = "FREE"
	PlanPaid PlanType = "PAID"
)

// FreePlanMonthlyLimit caps draws per user per team per calendar month
// on the free tier.
const FreePlanMonthlyLimit = 5

// UsageRecord counts draws for one user in one team during one period.
// A row does not exist until the user's first draw of the period; reads
// before that see a synthesized zero view that is never persisted.
type UsageRecord struct {
	UserID     string     `gorm:"primaryKey;type:text" json:"user_id"`
	TeamID     string     `gorm:"primaryKey;type:text" json:"team_id"`
	Period     string     `gorm:"primaryKey;type:text" json:"period"`
	UsageCount int        `gorm:"not null;default:0" json:"usage_count"`
	PlanType   PlanType   `gorm:"type:text;not null;default:FREE" json:"plan_type"`
	LastUsedAt *time.Time `json:"last_used_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

// TableName sets the database table name.
func (UsageRecord) TableName() string { return "usage_records" }

// EntitlementDecision is the admission verdict for one draw attempt.
// Limit is zero for uncapped plans.
type EntitlementDecision struct {
	Allowed bool        `json:"allowed"`
	Usage   UsageRecord `json:"usage"`
	Limit   int         `json:"limit,omitempty"`
}

// IsApproachingLimit reports whether the record is within one draw of
// the cap. Uncapped plans never approach a limit.
func IsApproachingLimit(usage UsageRecord, limit int) bool {
	if usage.PlanType == PlanPaid {
		return false
	}
	return usage.UsageCount >= limit-1
}

// NewDefaultUsage returns the synthesized view for a user with no row
// this period.
func NewDefaultUsage(userID, teamID, period string) UsageRecord {
	return UsageRecord{
		UserID:     userID,
		TeamID:     teamID,
		Period:     period,
		UsageCount: 0,
		PlanType:   PlanFree,
		LastUsedAt: nil,
	}
}
