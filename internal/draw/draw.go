// Package draw picks a random winner from a participant list and
// formats the channel messages announcing it.
package draw

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// randIntN is swapped in tests to make picks deterministic.
var randIntN = rand.IntN

// Result is the rendered outcome of one draw.
type Result struct {
	Winner  string
	Message string
	Context string
}

// Users draws from Slack user ids; the winner and participants render
// as <@id> mentions.
func Users(userIDs []string, reason, performedBy, warning string) (Result, error) {
	if len(userIDs) == 0 {
		return Result{}, fmt.Errorf("draw: no participants")
	}

	winner := userIDs[randIntN(len(userIDs))]
	mentions := make([]string, len(userIDs))
	for i, id := range userIDs {
		mentions[i] = "<@" + id + ">"
	}

	return Result{
		Winner:  winner,
		Message: resultMessage("<@"+winner+">", reason),
		Context: contextMessage(mentions, performedBy, warning),
	}, nil
}

// Manual draws from free-text names; the winner renders bold-italic.
func Manual(names []string, reason, performedBy, warning string) (Result, error) {
	if len(names) == 0 {
		return Result{}, fmt.Errorf("draw: no participants")
	}

	winner := names[randIntN(len(names))]
	return Result{
		Winner:  winner,
		Message: resultMessage("_*"+winner+"*_", reason),
		Context: contextMessage(names, performedBy, warning),
	}, nil
}

// SplitNames turns the manual modal's multiline input into a clean
// participant list.
func SplitNames(raw string) []string {
	var names []string
	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			names = append(names, line)
		}
	}
	return names
}

func resultMessage(winner, reason string) string {
	if reason = strings.TrimSpace(reason); reason != "" {
		return fmt.Sprintf("%s was chosen at random *%s*!", winner, reason)
	}
	return fmt.Sprintf("%s was chosen at random!", winner)
}

func contextMessage(participants []string, performedBy, warning string) string {
	msg := fmt.Sprintf("%s were included in the draw. Draw performed by <@%s>.", FormatList(participants), performedBy)
	if warning != "" {
		msg += "\n\n⚠️ " + warning
	}
	return msg
}

// FormatList joins items Oxford-comma-free: "a", "a and b",
// "a, b and c".
func FormatList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}
