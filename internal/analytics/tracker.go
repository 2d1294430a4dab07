// Package analytics emits product events to PostHog. Every emission is
// fire-and-forget: failures are swallowed and must never influence the
// operation that triggered them.
package analytics

import "fmt"

// Event names. These are the stable identifiers the product dashboards
// query by; renaming one orphans its history.
const (
	EventSlashCommandInitiated = "slash_command_initiated"
	EventShortcutTriggered     = "shortcut_triggered"
	EventModalOpened           = "modal_opened"
	EventInputMethodSwitched   = "input_method_switched"
	EventDrawExecuted          = "draw_executed"
	EventDrawFailed            = "draw_failed"

	EventFirstTimeUser      = "first_time_user"
	EventReturningUser      = "returning_user"
	EventRepeatUsageSameDay = "repeat_usage_same_day"

	EventUsageLimitWarning = "usage_limit_warning"
	EventUsageLimitReached = "usage_limit_reached"
	EventPostLimitAttempt  = "post_limit_attempt"
)

// Identity ties an event to a Slack user within a workspace.
type Identity struct {
	UserID   string
	TeamID   string
	PlanType string
}

// DistinctID builds the stable cross-event id for a user.
func (id Identity) DistinctID() string {
	return fmt.Sprintf("%s-%s", id.TeamID, id.UserID)
}

// Tracker is the analytics sink consumed by the ledger and handlers.
type Tracker interface {
	Track(id Identity, event string, properties map[string]any)
}

// Lifecycle and usage-limit helpers so call sites stay one-liners.

func FirstTimeUser(t Tracker, id Identity) {
	t.Track(id, EventFirstTimeUser, nil)
}

func ReturningUser(t Tracker, id Identity, daysSinceLastUse int) {
	t.Track(id, EventReturningUser, map[string]any{
		"days_since_last_use": daysSinceLastUse,
	})
}

func RepeatUsageSameDay(t Tracker, id Identity, usageCountToday int) {
	t.Track(id, EventRepeatUsageSameDay, map[string]any{
		"usage_count_today": usageCountToday,
	})
}

func UsageLimitWarning(t Tracker, id Identity, usageCount, limit int) {
	t.Track(id, EventUsageLimitWarning, map[string]any{
		"usage_count": usageCount,
		"limit":       limit,
		"remaining":   limit - usageCount,
	})
}

func UsageLimitReached(t Tracker, id Identity, usageCount, limit int) {
	t.Track(id, EventUsageLimitReached, map[string]any{
		"usage_count": usageCount,
		"limit":       limit,
	})
}

func PostLimitAttempt(t Tracker, id Identity, usageCount, limit int) {
	t.Track(id, EventPostLimitAttempt, map[string]any{
		"usage_count":         usageCount,
		"limit":               limit,
		"attempts_over_limit": usageCount - limit,
	})
}
