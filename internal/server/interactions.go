package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pelshen/namedraw/internal/analytics"
	"github.com/pelshen/namedraw/internal/draw"
	"github.com/pelshen/namedraw/internal/slack"
	usagedomain "github.com/pelshen/namedraw/internal/usage/domain"
	"go.uber.org/zap"
)

// postTimeout bounds the post-ack Slack calls made off the request
// goroutine.
const postTimeout = 15 * time.Second

// HandleInteraction routes shortcuts, block actions and view
// submissions from Slack's interactivity endpoint.
func (s *Server) HandleInteraction(c *gin.Context) {
	var payload slack.InteractionPayload
	if err := json.Unmarshal([]byte(c.PostForm("payload")), &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid interaction payload"})
		return
	}
	c.Set("team_id", payload.Team.ID)

	switch payload.Type {
	case slack.InteractionShortcut:
		s.handleShortcut(c, payload)
	case slack.InteractionBlockActions:
		s.handleBlockAction(c, payload)
	case slack.InteractionViewSubmission:
		s.handleViewSubmission(c, payload)
	default:
		c.Status(http.StatusOK)
	}
}

func (s *Server) handleShortcut(c *gin.Context, payload slack.InteractionPayload) {
	manual := false
	switch payload.CallbackID {
	case slack.UserChooseShortcutID:
	case slack.ManualInputShortcutID:
		manual = true
	default:
		c.Status(http.StatusOK)
		return
	}

	s.tracker.Track(analytics.Identity{UserID: payload.User.ID, TeamID: payload.Team.ID},
		analytics.EventShortcutTriggered, map[string]any{
			"shortcut": payload.CallbackID,
		})

	s.openDrawModal(c.Request.Context(), payload.TriggerID, payload.User.ID, payload.Team.ID, nil, manual)
	c.Status(http.StatusOK)
}

// handleBlockAction swaps the open modal between its two variants when
// a switch button is pressed.
func (s *Server) handleBlockAction(c *gin.Context, payload slack.InteractionPayload) {
	if len(payload.Actions) == 0 {
		c.Status(http.StatusOK)
		return
	}

	var view slack.View
	switch payload.Actions[0].ActionID {
	case slack.SwitchToManualActionID:
		view = slack.ManualInputModal(nil, "")
	case slack.SwitchToUserActionID:
		view = slack.UserInputModal(nil, "")
	default:
		c.Status(http.StatusOK)
		return
	}

	if err := s.slack.UpdateView(c.Request.Context(), payload.View.ID, payload.View.Hash, view); err != nil {
		s.log.Error("switching modal variant failed", zap.Error(err))
	} else {
		s.tracker.Track(analytics.Identity{UserID: payload.User.ID, TeamID: payload.Team.ID},
			analytics.EventInputMethodSwitched, map[string]any{
				"action": payload.Actions[0].ActionID,
			})
	}
	c.Status(http.StatusOK)
}

func (s *Server) handleViewSubmission(c *gin.Context, payload slack.InteractionPayload) {
	state := payload.View.State.Values
	reason := state[slack.ReasonInputBlockID][slack.ReasonInputActionID].Value
	channel := state[slack.ConversationSelectBlockID][slack.ConversationSelectActionID].SelectedConversation
	userID := payload.User.ID
	teamID := payload.Team.ID

	var (
		participants []string
		mentions     bool
		inputBlockID string
	)
	switch payload.View.CallbackID {
	case slack.UserInputViewID:
		participants = state[slack.UserSelectBlockID][slack.UserSelectActionID].SelectedUsers
		mentions = true
		inputBlockID = slack.UserSelectBlockID
	case slack.ManualInputViewID:
		participants = draw.SplitNames(state[slack.ManualInputBlockID][slack.ManualInputActionID].Value)
		inputBlockID = slack.ManualInputBlockID
	default:
		c.Status(http.StatusOK)
		return
	}

	if len(participants) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"response_action": "errors",
			"errors": gin.H{
				inputBlockID: "Please add at least one name to the draw.",
			},
		})
		return
	}

	ctx := c.Request.Context()
	plan := s.planForTeam(ctx, teamID)

	// A failed increment undercounts rather than losing the result.
	var warning string
	updated, err := s.usageSvc.Increment(ctx, userID, teamID, plan)
	if err != nil {
		s.log.Error("usage increment failed, delivering result anyway",
			zap.String("user_id", userID), zap.String("team_id", teamID), zap.Error(err))
	} else if limit := s.freeLimit(); usagedomain.IsApproachingLimit(updated, limit) {
		warning = usagedomain.UsageMessage(updated, limit)
	}

	var result draw.Result
	if mentions {
		result, err = draw.Users(participants, reason, userID, warning)
	} else {
		result, err = draw.Manual(participants, reason, userID, warning)
	}
	if err != nil {
		c.JSON(http.StatusOK, gin.H{
			"response_action": "errors",
			"errors": gin.H{
				inputBlockID: "An error occurred. Please try again.",
			},
		})
		return
	}

	// Ack within Slack's deadline; deliver the result off-request.
	c.Status(http.StatusOK)

	go s.deliverResult(userID, teamID, channel, string(plan), mentions, len(participants), result)
}

func (s *Server) deliverResult(userID, teamID, channel, plan string, mentions bool, participantCount int, result draw.Result) {
	ctx, cancel := context.WithTimeout(context.Background(), postTimeout)
	defer cancel()

	// Joining first lets the bot post to public channels it was never
	// invited to; failure is non-fatal.
	if err := s.slack.JoinConversation(ctx, channel); err != nil {
		s.log.Debug("joining conversation failed", zap.String("channel", channel), zap.Error(err))
	}

	msg := slack.Message{
		Channel: channel,
		Text:    result.Message,
		Blocks: []slack.Block{
			{Type: "section", Text: &slack.TextObject{Type: "mrkdwn", Text: result.Message}},
			{Type: "context", Elements: []slack.TextObject{{Type: "mrkdwn", Text: result.Context}}},
		},
	}
	if err := s.slack.PostMessage(ctx, msg); err != nil {
		s.log.Error("posting draw result failed", zap.String("channel", channel), zap.Error(err))
		s.tracker.Track(analytics.Identity{UserID: userID, TeamID: teamID, PlanType: plan},
			analytics.EventDrawFailed, map[string]any{
				"reason": "post_message_failed",
			})
		return
	}

	s.metrics.RecordDraw(ctx, plan)
	s.tracker.Track(analytics.Identity{UserID: userID, TeamID: teamID, PlanType: plan},
		analytics.EventDrawExecuted, map[string]any{
			"participants": participantCount,
			"manual":       !mentions,
		})
}

func (s *Server) planForTeam(ctx context.Context, teamID string) usagedomain.PlanType {
	plan, err := s.installSvc.PlanForTeam(ctx, teamID)
	if err != nil {
		s.log.Warn("plan lookup failed, assuming free", zap.String("team_id", teamID), zap.Error(err))
		return usagedomain.PlanFree
	}
	return plan
}
