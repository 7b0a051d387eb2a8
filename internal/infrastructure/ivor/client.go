package ivor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"StoryCurator/internal/config"
	"StoryCurator/internal/domain"
	"StoryCurator/internal/ports"
)

// Client implements ports.ChatClient against the IVOR chat backend.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

var _ ports.ChatClient = (*Client)(nil)

// NewClient builds a client from configuration.
func NewClient(cfg config.ServiceConfig, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		endpoint: strings.TrimRight(cfg.URL, "/"),
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type chatRequest struct {
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
}

// Send posts one user message and returns IVOR's reply.
func (c *Client) Send(ctx context.Context, message string, chatContext map[string]any) (domain.ChatReply, error) {
	if c == nil || c.endpoint == "" {
		return domain.ChatReply{}, fmt.Errorf("ivor client misconfigured")
	}

	body, err := json.Marshal(chatRequest{Message: message, Context: chatContext})
	if err != nil {
		return domain.ChatReply{}, fmt.Errorf("marshal chat payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return domain.ChatReply{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.ChatReply{}, fmt.Errorf("send chat: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.ChatReply{}, fmt.Errorf("ivor error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var reply domain.ChatReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return domain.ChatReply{}, fmt.Errorf("decode chat reply: %w", err)
	}
	if reply.Service == "" {
		reply.Service = "ivor"
	}
	return reply, nil
}

// Health probes GET /health.
func (c *Client) Health(ctx context.Context) error {
	if c == nil || c.endpoint == "" {
		return fmt.Errorf("ivor client misconfigured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/health", nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ivor health: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ivor unhealthy: %s", resp.Status)
	}
	return nil
}
