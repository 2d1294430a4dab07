package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsApproachingLimit(t *testing.T) {
	tests := []struct {
		name string
		rec  UsageRecord
		want bool
	}{
		{"well under", UsageRecord{UsageCount: 2, PlanType: PlanFree}, false},
		{"one before last", UsageRecord{UsageCount: 3, PlanType: PlanFree}, false},
		{"second to last", UsageRecord{UsageCount: 4, PlanType: PlanFree}, true},
		{"at limit", UsageRecord{UsageCount: 5, PlanType: PlanFree}, true},
		{"over limit", UsageRecord{UsageCount: 8, PlanType: PlanFree}, true},
		{"paid never approaches", UsageRecord{UsageCount: 4, PlanType: PlanPaid}, false},
		{"paid over limit", UsageRecord{UsageCount: 500, PlanType: PlanPaid}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsApproachingLimit(tt.rec, FreePlanMonthlyLimit))
		})
	}
}

func TestUsageMessage(t *testing.T) {
	tests := []struct {
		name string
		rec  UsageRecord
		want string
	}{
		{
			"paid plan",
			UsageRecord{UsageCount: 42, PlanType: PlanPaid},
			"You have unlimited draws with your paid plan! 🎉",
		},
		{
			"untouched month",
			UsageRecord{UsageCount: 0, PlanType: PlanFree},
			"You have 5 draws remaining this month (0/5 used).",
		},
		{
			"plural remaining",
			UsageRecord{UsageCount: 2, PlanType: PlanFree},
			"You have 3 draws remaining this month (2/5 used).",
		},
		{
			"singular remaining",
			UsageRecord{UsageCount: 4, PlanType: PlanFree},
			"You have 1 draw remaining this month. Paid plans with unlimited draws coming soon!",
		},
		{
			"exhausted",
			UsageRecord{UsageCount: 5, PlanType: PlanFree},
			"You've used all 5 of your free draws this month. Paid plans with unlimited draws coming soon!",
		},
		{
			"over limit clamps to exhausted",
			UsageRecord{UsageCount: 9, PlanType: PlanFree},
			"You've used all 5 of your free draws this month. Paid plans with unlimited draws coming soon!",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UsageMessage(tt.rec, FreePlanMonthlyLimit))
		})
	}
}
