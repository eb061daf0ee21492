// Package api implements the HTTP client for the legal-assistant
// service: authentication, the conversation directory, and the
// answering endpoint. All failures are classified at this boundary
// (see error.go); callers never inspect status codes.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TokenSource supplies the current session credential. The client reads
// it on every authenticated call; it never caches a token.
type TokenSource interface {
	Token() string
}

// Client talks to one legal-assistant server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	logger     *slog.Logger
}

// NewClient creates a client for the server at baseURL. A zero timeout
// leaves requests unbounded (the transport's own behavior applies).
func NewClient(baseURL string, timeout time.Duration, tokens TokenSource, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
		logger:     logger,
	}
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var resp authResponse
	err := c.do(ctx, http.MethodPost, "/api/login/", LoginRequest{Email: email, Password: password}, &resp, false)
	if err != nil {
		return "", err
	}
	return resp.Token, nil
}

// Signup creates an account and returns its session token.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (string, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/api/signup/", req, &resp, false); err != nil {
		return "", err
	}
	return resp.Token, nil
}

// Logout invalidates the current session server-side.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/logout/", struct{}{}, nil, true)
}

// Conversations fetches the authenticated user's conversations in
// server order (most recently updated first).
func (c *Client) Conversations(ctx context.Context) ([]Conversation, error) {
	var convs []Conversation
	if err := c.do(ctx, http.MethodGet, "/api/conversation-history/", nil, &convs, true); err != nil {
		return nil, err
	}
	return convs, nil
}

// CreateConversation allocates a new empty conversation.
func (c *Client) CreateConversation(ctx context.Context) (Conversation, error) {
	var conv Conversation
	if err := c.do(ctx, http.MethodPost, "/api/create-conversation/", struct{}{}, &conv, true); err != nil {
		return Conversation{}, err
	}
	return conv, nil
}

// DeleteConversation removes a conversation server-side. Irreversible.
func (c *Client) DeleteConversation(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/delete-conversation/%d/", id), nil, nil, true)
}

// Ask submits one prompt and returns the resolved answer.
func (c *Client) Ask(ctx context.Context, req AskRequest) (AskResponse, error) {
	var resp AskResponse
	if err := c.do(ctx, http.MethodPost, "/api/legal-assistant/", req, &resp, true); err != nil {
		return AskResponse{}, err
	}
	return resp, nil
}

// do performs one round trip: marshal, send, classify, decode.
func (c *Client) do(ctx context.Context, method, path string, body, out any, authed bool) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if authed {
		req.Header.Set("Authorization", "Token "+c.tokens.Token())
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("request done",
		"method", method, "path", path,
		"status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classify(resp.StatusCode, respBody)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return nil
}
