// Package slack is a minimal Slack Web API client covering the handful
// of methods the draw flow calls, plus the Block Kit payload types and
// the request signature verifier.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultEndpoint = "https://slack.com/api"

// HTTPClient is the slice of *http.Client the Client needs.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// APIError is a Slack Web API "ok": false response.
type APIError struct {
	Method string
	Reason string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("slack %s: %s", e.Method, e.Reason)
}

type Client struct {
	c        HTTPClient
	endpoint string
	token    string
}

type Option func(*Client)

// WithHTTPClient swaps the transport, mainly for tests.
func WithHTTPClient(c HTTPClient) Option {
	return func(cl *Client) { cl.c = c }
}

// WithEndpoint points the client at a different API base URL.
func WithEndpoint(endpoint string) Option {
	return func(cl *Client) { cl.endpoint = strings.TrimRight(endpoint, "/") }
}

func New(botToken string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(botToken) == "" {
		return nil, fmt.Errorf("slack: bot token is required")
	}

	client := &Client{
		c:        &http.Client{Timeout: 10 * time.Second},
		endpoint: defaultEndpoint,
		token:    botToken,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type apiResponse struct {
	OK    bool            `json:"ok"`
	Error string          `json:"error"`
	Users []string        `json:"users"`
	View  json.RawMessage `json:"view"`
}

// OpenView opens a modal against the interaction's trigger id.
func (c *Client) OpenView(ctx context.Context, triggerID string, view View) error {
	_, err := c.postJSON(ctx, "views.open", map[string]any{
		"trigger_id": triggerID,
		"view":       view,
	})
	return err
}

// UpdateView replaces an open modal in place. The hash guards against
// racing a stale copy of the view.
func (c *Client) UpdateView(ctx context.Context, viewID, hash string, view View) error {
	_, err := c.postJSON(ctx, "views.update", map[string]any{
		"view_id": viewID,
		"hash":    hash,
		"view":    view,
	})
	return err
}

func (c *Client) PostMessage(ctx context.Context, msg Message) error {
	_, err := c.postJSON(ctx, "chat.postMessage", msg)
	return err
}

// PostEphemeral sends a message only the given user can see.
func (c *Client) PostEphemeral(ctx context.Context, channel, user, text string, blocks []Block) error {
	_, err := c.postJSON(ctx, "chat.postEphemeral", map[string]any{
		"channel": channel,
		"user":    user,
		"text":    text,
		"blocks":  blocks,
	})
	return err
}

// JoinConversation joins the bot to a public channel so it can post
// there. Callers treat failures as best-effort.
func (c *Client) JoinConversation(ctx context.Context, channel string) error {
	_, err := c.postJSON(ctx, "conversations.join", map[string]any{
		"channel": channel,
	})
	return err
}

// ListUserGroupMembers expands a user group handle into its member ids.
func (c *Client) ListUserGroupMembers(ctx context.Context, usergroup string) ([]string, error) {
	resp, err := c.getForm(ctx, "usergroups.users.list", url.Values{
		"usergroup": {usergroup},
	})
	if err != nil {
		return nil, err
	}
	return resp.Users, nil
}

func (c *Client) postJSON(ctx context.Context, method string, body any) (*apiResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("slack %s: encode request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/"+method, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("slack %s: build request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+c.token)

	return c.do(req, method)
}

func (c *Client) getForm(ctx context.Context, method string, vals url.Values) (*apiResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/"+method+"?"+vals.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("slack %s: build request: %w", method, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	return c.do(req, method)
}

func (c *Client) do(req *http.Request, method string) (*apiResponse, error) {
	resp, err := c.c.Do(req)
	if err != nil {
		return nil, fmt.Errorf("slack %s: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("slack %s: read response: %w", method, err)
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("slack %s: decode response: %w", method, err)
	}
	if !parsed.OK {
		reason := parsed.Error
		if reason == "" {
			reason = fmt.Sprintf("http status %d", resp.StatusCode)
		}
		return nil, &APIError{Method: method, Reason: reason}
	}
	return &parsed, nil
}
