package server

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pelshen/namedraw/internal/analytics"
	"github.com/pelshen/namedraw/internal/clock"
	"github.com/pelshen/namedraw/internal/config"
	installdomain "github.com/pelshen/namedraw/internal/installation/domain"
	"github.com/pelshen/namedraw/internal/slack"
	usagedomain "github.com/pelshen/namedraw/internal/usage/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSigningSecret = "test-signing-secret"

var testNow = time.Date(2025, time.August, 14, 12, 0, 0, 0, time.UTC)

type fakeUsageService struct {
	decision usagedomain.EntitlementDecision
	canErr   error
	updated  usagedomain.UsageRecord
	incErr   error

	mu       sync.Mutex
	canCalls int
	incCalls int
	gotPlan  usagedomain.PlanType
}

func (f *fakeUsageService) GetUsage(ctx context.Context, userID, teamID string) (usagedomain.UsageRecord, error) {
	return f.decision.Usage, nil
}

func (f *fakeUsageService) CanDraw(ctx context.Context, userID, teamID string) (usagedomain.EntitlementDecision, error) {
	f.mu.Lock()
	f.canCalls++
	f.mu.Unlock()
	return f.decision, f.canErr
}

func (f *fakeUsageService) Increment(ctx context.Context, userID, teamID string, plan usagedomain.PlanType) (usagedomain.UsageRecord, error) {
	f.mu.Lock()
	f.incCalls++
	f.gotPlan = plan
	f.mu.Unlock()
	return f.updated, f.incErr
}

type fakeInstallService struct {
	plan usagedomain.PlanType
}

func (f *fakeInstallService) Save(ctx context.Context, req installdomain.SaveInstallationRequest) (installdomain.Installation, error) {
	return installdomain.Installation{}, nil
}

func (f *fakeInstallService) GetByTeamID(ctx context.Context, teamID string) (installdomain.Installation, error) {
	return installdomain.Installation{}, installdomain.ErrNotFound
}

func (f *fakeInstallService) PlanForTeam(ctx context.Context, teamID string) (usagedomain.PlanType, error) {
	if f.plan == "" {
		return usagedomain.PlanFree, nil
	}
	return f.plan, nil
}

func (f *fakeInstallService) SetPlan(ctx context.Context, teamID string, plan usagedomain.PlanType) error {
	return nil
}

func (f *fakeInstallService) Remove(ctx context.Context, teamID string) error {
	return nil
}

type trackerRecorder struct {
	mu     sync.Mutex
	events []string
}

func (r *trackerRecorder) Track(id analytics.Identity, event string, props map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *trackerRecorder) has(event string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e == event {
			return true
		}
	}
	return false
}

// slackAPIRecorder fakes the Slack Web API and records every call.
type slackAPIRecorder struct {
	mu    sync.Mutex
	calls []apiCall
}

type apiCall struct {
	Method string
	Body   map[string]any
}

func (r *slackAPIRecorder) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		method := strings.TrimPrefix(req.URL.Path, "/")

		body := map[string]any{}
		if req.Method == http.MethodPost {
			_ = json.NewDecoder(req.Body).Decode(&body)
		}

		r.mu.Lock()
		r.calls = append(r.calls, apiCall{Method: method, Body: body})
		r.mu.Unlock()

		if method == "usergroups.users.list" {
			w.Write([]byte(`{"ok":true,"users":["U7","U8"]}`))
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}
}

func (r *slackAPIRecorder) find(method string) (apiCall, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, call := range r.calls {
		if call.Method == method {
			return call, true
		}
	}
	return apiCall{}, false
}

func newTestServer(t *testing.T, usageSvc *fakeUsageService, installSvc *fakeInstallService) (*Server, *slackAPIRecorder, *trackerRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	api := &slackAPIRecorder{}
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	client, err := slack.New("xoxb-test", slack.WithEndpoint(srv.URL), slack.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	tracker := &trackerRecorder{}
	s := &Server{
		engine: gin.New(),
		cfg: config.Config{
			Slack: config.SlackConfig{SigningSecret: testSigningSecret, BotToken: "xoxb-test"},
		},
		log:        zap.NewNop(),
		clock:      clock.NewFakeClock(testNow),
		usageSvc:   usageSvc,
		installSvc: installSvc,
		slack:      client,
		tracker:    tracker,
	}
	s.registerSlackRoutes()
	return s, api, tracker
}

func signRequest(timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(testSigningSecret))
	fmt.Fprintf(mac, "v0:%s:%s", timestamp, body)
	return "v0=" + hex.EncodeToString(mac.Sum(nil))
}

func postSigned(s *Server, path string, form url.Values) *httptest.ResponseRecorder {
	body := form.Encode()
	ts := fmt.Sprintf("%d", testNow.Unix())

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Slack-Request-Timestamp", ts)
	req.Header.Set("X-Slack-Signature", signRequest(ts, []byte(body)))

	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

func allowedDecision() usagedomain.EntitlementDecision {
	return usagedomain.EntitlementDecision{
		Allowed: true,
		Usage:   usagedomain.UsageRecord{UsageCount: 1, PlanType: usagedomain.PlanFree},
		Limit:   5,
	}
}

func commandForm(text string) url.Values {
	return url.Values{
		"command":    {"/drawnames"},
		"text":       {text},
		"trigger_id": {"trig-1"},
		"user_id":    {"U1"},
		"team_id":    {"T1"},
		"channel_id": {"C1"},
	}
}

func TestSlashCommand_RejectsBadSignature(t *testing.T) {
	s, api, _ := newTestServer(t, &fakeUsageService{decision: allowedDecision()}, &fakeInstallService{})

	body := commandForm("").Encode()
	req := httptest.NewRequest(http.MethodPost, "/slack/commands", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Slack-Request-Timestamp", fmt.Sprintf("%d", testNow.Unix()))
	req.Header.Set("X-Slack-Signature", "v0=deadbeef")

	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	_, called := api.find("views.open")
	assert.False(t, called)
}

func TestSlashCommand_OpensUserModal(t *testing.T) {
	usageSvc := &fakeUsageService{decision: allowedDecision()}
	s, api, tracker := newTestServer(t, usageSvc, &fakeInstallService{})

	w := postSigned(s, "/slack/commands", commandForm(""))
	require.Equal(t, http.StatusOK, w.Code)

	call, ok := api.find("views.open")
	require.True(t, ok)
	assert.Equal(t, "trig-1", call.Body["trigger_id"])

	view := call.Body["view"].(map[string]any)
	assert.Equal(t, slack.UserInputViewID, view["callback_id"])
	assert.Equal(t, 1, usageSvc.canCalls)
	assert.True(t, tracker.has(analytics.EventSlashCommandInitiated))
	assert.True(t, tracker.has(analytics.EventModalOpened))
}

func TestSlashCommand_ManualTextPrefillsManualModal(t *testing.T) {
	s, api, _ := newTestServer(t, &fakeUsageService{decision: allowedDecision()}, &fakeInstallService{})

	w := postSigned(s, "/slack/commands", commandForm("manual Alice Bob"))
	require.Equal(t, http.StatusOK, w.Code)

	call, ok := api.find("views.open")
	require.True(t, ok)
	view := call.Body["view"].(map[string]any)
	assert.Equal(t, slack.ManualInputViewID, view["callback_id"])

	blocks := view["blocks"].([]any)
	element := blocks[0].(map[string]any)["element"].(map[string]any)
	assert.Equal(t, "Alice\r\nBob", element["initial_value"])
}

func TestSlashCommand_MentionsPrefillUserModal(t *testing.T) {
	s, api, _ := newTestServer(t, &fakeUsageService{decision: allowedDecision()}, &fakeInstallService{})

	w := postSigned(s, "/slack/commands", commandForm("<@U2|alice> <@U3|bob>"))
	require.Equal(t, http.StatusOK, w.Code)

	call, ok := api.find("views.open")
	require.True(t, ok)
	view := call.Body["view"].(map[string]any)
	assert.Equal(t, slack.UserInputViewID, view["callback_id"])

	blocks := view["blocks"].([]any)
	element := blocks[0].(map[string]any)["element"].(map[string]any)
	assert.Equal(t, []any{"U2", "U3"}, element["initial_users"])
}

func TestSlashCommand_UserGroupExpansion(t *testing.T) {
	s, api, _ := newTestServer(t, &fakeUsageService{decision: allowedDecision()}, &fakeInstallService{})

	w := postSigned(s, "/slack/commands", commandForm("<!subteam^S1|@oncall>"))
	require.Equal(t, http.StatusOK, w.Code)

	_, listed := api.find("usergroups.users.list")
	assert.True(t, listed)

	call, ok := api.find("views.open")
	require.True(t, ok)
	view := call.Body["view"].(map[string]any)
	blocks := view["blocks"].([]any)
	element := blocks[0].(map[string]any)["element"].(map[string]any)
	assert.Equal(t, []any{"U7", "U8"}, element["initial_users"])
}

func TestSlashCommand_DeniedSendsEphemeral(t *testing.T) {
	usageSvc := &fakeUsageService{decision: usagedomain.EntitlementDecision{
		Allowed: false,
		Usage:   usagedomain.UsageRecord{UsageCount: 5, PlanType: usagedomain.PlanFree},
		Limit:   5,
	}}
	s, api, _ := newTestServer(t, usageSvc, &fakeInstallService{})

	w := postSigned(s, "/slack/commands", commandForm(""))
	require.Equal(t, http.StatusOK, w.Code)

	_, opened := api.find("views.open")
	assert.False(t, opened, "no modal for a denied user")

	call, ok := api.find("chat.postEphemeral")
	require.True(t, ok)
	assert.Equal(t, "U1", call.Body["user"])
	assert.Contains(t, call.Body["text"], "limit of 5 draws")
}

func TestSlashCommand_GateErrorFailsOpen(t *testing.T) {
	usageSvc := &fakeUsageService{canErr: assert.AnError}
	s, api, _ := newTestServer(t, usageSvc, &fakeInstallService{})

	w := postSigned(s, "/slack/commands", commandForm(""))
	require.Equal(t, http.StatusOK, w.Code)

	_, opened := api.find("views.open")
	assert.True(t, opened, "store failure must not block the modal")
}

func TestSlashCommand_ApproachingLimitAddsWarning(t *testing.T) {
	usageSvc := &fakeUsageService{decision: usagedomain.EntitlementDecision{
		Allowed: true,
		Usage:   usagedomain.UsageRecord{UsageCount: 4, PlanType: usagedomain.PlanFree},
		Limit:   5,
	}}
	s, api, _ := newTestServer(t, usageSvc, &fakeInstallService{})

	postSigned(s, "/slack/commands", commandForm(""))

	call, ok := api.find("views.open")
	require.True(t, ok)
	view := call.Body["view"].(map[string]any)
	blocks := view["blocks"].([]any)

	last := blocks[len(blocks)-1].(map[string]any)
	text := last["text"].(map[string]any)["text"].(string)
	assert.Contains(t, text, "⚠️ You have 1 draw remaining")
}

func interactionForm(t *testing.T, payload map[string]any) url.Values {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return url.Values{"payload": {string(raw)}}
}

func TestInteraction_ShortcutOpensModal(t *testing.T) {
	s, api, tracker := newTestServer(t, &fakeUsageService{decision: allowedDecision()}, &fakeInstallService{})

	form := interactionForm(t, map[string]any{
		"type":        slack.InteractionShortcut,
		"callback_id": slack.ManualInputShortcutID,
		"trigger_id":  "trig-2",
		"user":        map[string]any{"id": "U1"},
		"team":        map[string]any{"id": "T1"},
	})
	w := postSigned(s, "/slack/interactions", form)
	require.Equal(t, http.StatusOK, w.Code)

	call, ok := api.find("views.open")
	require.True(t, ok)
	view := call.Body["view"].(map[string]any)
	assert.Equal(t, slack.ManualInputViewID, view["callback_id"])
	assert.True(t, tracker.has(analytics.EventShortcutTriggered))
}

func TestInteraction_SwitchButtonUpdatesView(t *testing.T) {
	s, api, tracker := newTestServer(t, &fakeUsageService{decision: allowedDecision()}, &fakeInstallService{})

	form := interactionForm(t, map[string]any{
		"type": slack.InteractionBlockActions,
		"user": map[string]any{"id": "U1"},
		"team": map[string]any{"id": "T1"},
		"view": map[string]any{"id": "V1", "hash": "h1"},
		"actions": []map[string]any{
			{"action_id": slack.SwitchToManualActionID},
		},
	})
	w := postSigned(s, "/slack/interactions", form)
	require.Equal(t, http.StatusOK, w.Code)

	call, ok := api.find("views.update")
	require.True(t, ok)
	assert.Equal(t, "V1", call.Body["view_id"])
	assert.Equal(t, "h1", call.Body["hash"])
	view := call.Body["view"].(map[string]any)
	assert.Equal(t, slack.ManualInputViewID, view["callback_id"])
	assert.True(t, tracker.has(analytics.EventInputMethodSwitched))
}

func submissionPayload(callbackID string, values map[string]any) map[string]any {
	state := map[string]any{
		slack.ReasonInputBlockID: map[string]any{
			slack.ReasonInputActionID: map[string]any{"value": "to run the next meeting"},
		},
		slack.ConversationSelectBlockID: map[string]any{
			slack.ConversationSelectActionID: map[string]any{"selected_conversation": "C9"},
		},
	}
	for k, v := range values {
		state[k] = v
	}
	return map[string]any{
		"type": slack.InteractionViewSubmission,
		"user": map[string]any{"id": "U1"},
		"team": map[string]any{"id": "T1"},
		"view": map[string]any{
			"callback_id": callbackID,
			"state":       map[string]any{"values": state},
		},
	}
}

func TestInteraction_UserViewSubmissionPostsResult(t *testing.T) {
	usageSvc := &fakeUsageService{
		decision: allowedDecision(),
		updated:  usagedomain.UsageRecord{UsageCount: 2, PlanType: usagedomain.PlanPaid},
	}
	installSvc := &fakeInstallService{plan: usagedomain.PlanPaid}
	s, api, tracker := newTestServer(t, usageSvc, installSvc)

	payload := submissionPayload(slack.UserInputViewID, map[string]any{
		slack.UserSelectBlockID: map[string]any{
			slack.UserSelectActionID: map[string]any{"selected_users": []string{"U2", "U3"}},
		},
	})
	w := postSigned(s, "/slack/interactions", interactionForm(t, payload))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String(), "submission acks with an empty body")

	require.Eventually(t, func() bool {
		_, ok := api.find("chat.postMessage")
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	_, joined := api.find("conversations.join")
	assert.True(t, joined)

	call, _ := api.find("chat.postMessage")
	assert.Equal(t, "C9", call.Body["channel"])
	text := call.Body["text"].(string)
	assert.Contains(t, text, "was chosen at random *to run the next meeting*!")
	assert.Regexp(t, `^<@U[23]>`, text)

	assert.Equal(t, 1, usageSvc.incCalls)
	assert.Equal(t, usagedomain.PlanPaid, usageSvc.gotPlan, "plan comes from the installation record")
	assert.True(t, tracker.has(analytics.EventDrawExecuted))
}

func TestInteraction_ManualViewSubmission(t *testing.T) {
	usageSvc := &fakeUsageService{
		decision: allowedDecision(),
		updated:  usagedomain.UsageRecord{UsageCount: 2, PlanType: usagedomain.PlanFree},
	}
	s, api, _ := newTestServer(t, usageSvc, &fakeInstallService{})

	payload := submissionPayload(slack.ManualInputViewID, map[string]any{
		slack.ManualInputBlockID: map[string]any{
			slack.ManualInputActionID: map[string]any{"value": "Mabel\nHugo"},
		},
	})
	w := postSigned(s, "/slack/interactions", interactionForm(t, payload))
	require.Equal(t, http.StatusOK, w.Code)

	require.Eventually(t, func() bool {
		_, ok := api.find("chat.postMessage")
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	call, _ := api.find("chat.postMessage")
	assert.Regexp(t, `^_\*(Mabel|Hugo)\*_ was chosen at random`, call.Body["text"])
}

func TestInteraction_EmptySubmissionReturnsBlockError(t *testing.T) {
	s, api, _ := newTestServer(t, &fakeUsageService{decision: allowedDecision()}, &fakeInstallService{})

	payload := submissionPayload(slack.ManualInputViewID, map[string]any{
		slack.ManualInputBlockID: map[string]any{
			slack.ManualInputActionID: map[string]any{"value": "  \n "},
		},
	})
	w := postSigned(s, "/slack/interactions", interactionForm(t, payload))
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "errors", resp["response_action"])

	_, posted := api.find("chat.postMessage")
	assert.False(t, posted)
}

func TestInteraction_IncrementFailureStillDelivers(t *testing.T) {
	usageSvc := &fakeUsageService{
		decision: allowedDecision(),
		incErr:   assert.AnError,
	}
	s, api, _ := newTestServer(t, usageSvc, &fakeInstallService{})

	payload := submissionPayload(slack.ManualInputViewID, map[string]any{
		slack.ManualInputBlockID: map[string]any{
			slack.ManualInputActionID: map[string]any{"value": "Mabel"},
		},
	})
	w := postSigned(s, "/slack/interactions", interactionForm(t, payload))
	require.Equal(t, http.StatusOK, w.Code)

	require.Eventually(t, func() bool {
		_, ok := api.find("chat.postMessage")
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	call, _ := api.find("chat.postMessage")
	raw, err := json.Marshal(call.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "⚠️", "no usage warning when the count is unknown")
}

func TestMentionParsing(t *testing.T) {
	assert.Equal(t, "U123", mentionID("<@U123|alice>"))
	assert.Equal(t, "U123", mentionID("<@U123>"))
	assert.Equal(t, "", mentionID("plainword"))

	assert.Equal(t, "S123", subteamID("<!subteam^S123|@oncall>"))
	assert.Equal(t, "S123", subteamID("<!subteam^S123>"))
	assert.Equal(t, "", subteamID("<!here>"))
}

func TestSlashCommand_IgnoresOtherStagesCommand(t *testing.T) {
	s, api, tracker := newTestServer(t, &fakeUsageService{decision: allowedDecision()}, &fakeInstallService{})

	form := commandForm("")
	form.Set("command", "/drawnamesdev")
	w := postSigned(s, "/slack/commands", form)

	assert.Equal(t, http.StatusOK, w.Code)
	_, opened := api.find("views.open")
	assert.False(t, opened, "mismatched command must not open a modal")
	assert.False(t, tracker.has(analytics.EventSlashCommandInitiated))
}
