package domain

import "fmt"

// UsageMessage renders the user-facing quota summary. Wording and the
// pluralization boundary at exactly one remaining draw are load-bearing:
// the bot surfaces these strings verbatim in modals and channel posts.
func UsageMessage(usage UsageRecord, limit int) string {
	if usage.PlanType == PlanPaid {
		return "You have unlimited draws with your paid plan! 🎉"
	}

	remaining := limit - usage.UsageCount

	if remaining <= 0 {
		return fmt.Sprintf("You've used all %d of your free draws this month. Paid plans with unlimited draws coming soon!", limit)
	}

	if remaining == 1 {
		return "You have 1 draw remaining this month. Paid plans with unlimited draws coming soon!"
	}

	return fmt.Sprintf("You have %d draws remaining this month (%d/%d used).", remaining, usage.UsageCount, limit)
}
