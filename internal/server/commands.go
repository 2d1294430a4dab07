package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pelshen/namedraw/internal/analytics"
	"github.com/pelshen/namedraw/internal/slack"
	usagedomain "github.com/pelshen/namedraw/internal/usage/domain"
	"go.uber.org/zap"
)

// HandleSlashCommand processes /drawnames: the command text prefills
// the draw modal, with bare words forcing the manual variant.
func (s *Server) HandleSlashCommand(c *gin.Context) {
	cmd := slack.SlashCommand{
		Command:     c.PostForm("command"),
		Text:        strings.TrimSpace(c.PostForm("text")),
		TriggerID:   c.PostForm("trigger_id"),
		UserID:      c.PostForm("user_id"),
		TeamID:      c.PostForm("team_id"),
		ChannelID:   c.PostForm("channel_id"),
		ResponseURL: c.PostForm("response_url"),
	}
	if cmd.UserID == "" || cmd.TeamID == "" || cmd.TriggerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid command payload"})
		return
	}
	if cmd.Command != "" && cmd.Command != s.cfg.Slack.CommandName() {
		// Another stage's command routed here; ack and drop.
		s.log.Warn("ignoring unexpected slash command", zap.String("command", cmd.Command))
		c.Status(http.StatusOK)
		return
	}
	c.Set("team_id", cmd.TeamID)

	ctx := c.Request.Context()

	if s.limiter.Enabled() {
		result, err := s.limiter.AllowCommand(ctx, cmd.TeamID, cmd.UserID)
		if err != nil {
			// Redis being down must not block draws.
			s.log.Warn("command rate limit check failed", zap.Error(err))
		} else if !result.Allowed {
			c.String(http.StatusOK, "⏳ Easy there! Try again in a few seconds.")
			return
		}
	}

	s.tracker.Track(analytics.Identity{UserID: cmd.UserID, TeamID: cmd.TeamID},
		analytics.EventSlashCommandInitiated, map[string]any{
			"has_text": cmd.Text != "",
		})

	prefill, manual := s.parseCommandText(ctx, cmd.Text)
	s.openDrawModal(ctx, cmd.TriggerID, cmd.UserID, cmd.TeamID, prefill, manual)

	// Slash commands want an empty 200 ack; errors while opening the
	// modal are logged, not surfaced here.
	c.Status(http.StatusOK)
}

// parseCommandText splits the command text into modal prefill values.
// `<@U…|name>` mentions prefill the user picker, `<!subteam^ID|handle>`
// groups expand to their members, and any bare word switches the modal
// to manual mode with the word as a name.
func (s *Server) parseCommandText(ctx context.Context, text string) (prefill []string, manual bool) {
	if text == "" {
		return nil, false
	}

	tokens := strings.Fields(text)
	if tokens[0] == "manual" {
		manual = true
		tokens = tokens[1:]
	}

	for _, token := range tokens {
		switch {
		case strings.HasPrefix(token, "<@U"):
			if id := mentionID(token); id != "" {
				prefill = append(prefill, id)
			}
		case strings.HasPrefix(token, "<!subteam"):
			group := subteamID(token)
			if group == "" {
				continue
			}
			members, err := s.slack.ListUserGroupMembers(ctx, group)
			if err != nil {
				s.log.Error("expanding user group failed", zap.String("usergroup", group), zap.Error(err))
				continue
			}
			prefill = append(prefill, members...)
		default:
			manual = true
			prefill = append(prefill, token)
		}
	}
	return prefill, manual
}

// mentionID extracts U123 from "<@U123|name>" or "<@U123>".
func mentionID(token string) string {
	at := strings.Index(token, "@")
	if at < 0 {
		return ""
	}
	rest := token[at+1:]
	if end := strings.IndexAny(rest, "|>"); end >= 0 {
		return rest[:end]
	}
	return ""
}

// subteamID extracts S123 from "<!subteam^S123|@handle>".
func subteamID(token string) string {
	caret := strings.Index(token, "^")
	if caret < 0 {
		return ""
	}
	rest := token[caret+1:]
	if end := strings.IndexAny(rest, "|>"); end >= 0 {
		return rest[:end]
	}
	return ""
}

// openDrawModal runs the entitlement gate and opens the right modal
// variant. A failed usage check fails open: blocking legitimate draws
// over a store hiccup is worse than an occasional free extra.
func (s *Server) openDrawModal(ctx context.Context, triggerID, userID, teamID string, prefill []string, manual bool) {
	var warning string

	decision, err := s.usageSvc.CanDraw(ctx, userID, teamID)
	switch {
	case err != nil:
		s.log.Warn("usage check failed, opening modal anyway",
			zap.String("user_id", userID), zap.String("team_id", teamID), zap.Error(err))
	case !decision.Allowed:
		s.sendDenial(ctx, userID, decision)
		return
	case usagedomain.IsApproachingLimit(decision.Usage, decision.Limit):
		warning = usagedomain.UsageMessage(decision.Usage, decision.Limit)
	}

	view := slack.UserInputModal(prefill, warning)
	if manual {
		view = slack.ManualInputModal(prefill, warning)
	}

	if err := s.slack.OpenView(ctx, triggerID, view); err != nil {
		s.log.Error("opening draw modal failed", zap.Error(err))
		return
	}
	s.tracker.Track(analytics.Identity{UserID: userID, TeamID: teamID},
		analytics.EventModalOpened, map[string]any{
			"manual": manual,
		})
}

// sendDenial DMs the user their usage stats. The denial metric and
// post_limit_attempt event are already emitted by the gate.
func (s *Server) sendDenial(ctx context.Context, userID string, decision usagedomain.EntitlementDecision) {
	blocks := []slack.Block{
		{
			Type: "section",
			Text: &slack.TextObject{
				Type: "mrkdwn",
				Text: fmt.Sprintf("🚫 *You've reached your limit of %d draws this month!*\n\nPaid plans with unlimited draws coming soon! 🎉", decision.Limit),
			},
		},
		{
			Type: "section",
			Text: &slack.TextObject{
				Type: "mrkdwn",
				Text: fmt.Sprintf("📊 *Usage this month:* %d/%d draws used", decision.Usage.UsageCount, decision.Limit),
			},
		},
	}
	text := fmt.Sprintf("🚫 You've reached your limit of %d draws this month!", decision.Limit)

	if err := s.slack.PostEphemeral(ctx, userID, userID, text, blocks); err != nil {
		s.log.Error("sending denial message failed", zap.Error(err))
	}
}
