package amplify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"StoryCurator/internal/config"
	"StoryCurator/internal/domain"
	"StoryCurator/internal/ports"
)

const source = "blkout-newsroom"

// Client pushes shareable content to the social amplification service.
type Client struct {
	endpoint string
	apiKey   string
	client   *http.Client
	now      func() time.Time
}

var _ ports.Amplifier = (*Client)(nil)

// NewClient registers the amplification endpoint.
func NewClient(cfg config.ServiceConfig, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		endpoint: strings.TrimRight(cfg.URL, "/"),
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: timeout},
		now:      time.Now,
	}
}

type amplifyContent struct {
	domain.ShareContent
	CustomMessage string   `json:"customMessage,omitempty"`
	CommunityTags []string `json:"communityTags,omitempty"`
}

type amplifyRequest struct {
	Content      amplifyContent `json:"content"`
	Platforms    []string       `json:"platforms"`
	ScheduledFor *time.Time     `json:"scheduledFor,omitempty"`
	Source       string         `json:"source"`
}

// Amplify posts content and returns the amplification id the service assigned.
func (c *Client) Amplify(ctx context.Context, content domain.ShareContent, r domain.AmplificationRequest) (string, error) {
	if c.endpoint == "" || c.client == nil {
		return "", fmt.Errorf("amplify client misconfigured")
	}

	body, err := json.Marshal(amplifyRequest{
		Content: amplifyContent{
			ShareContent:  content,
			CustomMessage: r.CustomMessage,
			CommunityTags: r.CommunityTags,
		},
		Platforms:    r.Platforms,
		ScheduledFor: r.ScheduledFor,
		Source:       source,
	})
	if err != nil {
		return "", fmt.Errorf("marshal amplify payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/amplify", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("amplify error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var result struct {
		AmplificationID string `json:"amplificationId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("decode amplify response: %w", err)
	}
	if result.AmplificationID == "" {
		result.AmplificationID = fmt.Sprintf("amp-%d", c.now().UnixMilli())
	}
	return result.AmplificationID, nil
}
