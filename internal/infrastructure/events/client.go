package events

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"StoryCurator/internal/config"
	"StoryCurator/internal/domain"
	"StoryCurator/internal/ports"
)

const dateLayout = "2006-01-02"

// Client reads the community events calendar.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ ports.EventsCalendar = (*Client)(nil)

// NewClient creates a reusable HTTP client.
func NewClient(cfg config.ServiceConfig, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		endpoint: strings.TrimRight(cfg.URL, "/"),
		apiKey:   cfg.APIKey,
		http:     &http.Client{Timeout: timeout},
	}
}

// Events fetches one page of calendar entries matching filter.
func (c *Client) Events(ctx context.Context, filter domain.EventFilter) (domain.EventPage, error) {
	if c.endpoint == "" {
		return domain.EventPage{}, fmt.Errorf("events client misconfigured")
	}

	var page domain.EventPage
	if err := c.get(ctx, "/events", eventsQuery(filter), &page); err != nil {
		return domain.EventPage{}, err
	}
	return page, nil
}

func eventsQuery(f domain.EventFilter) url.Values {
	q := url.Values{}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if !f.DateFrom.IsZero() {
		q.Set("date_from", f.DateFrom.Format(dateLayout))
	}
	if !f.DateTo.IsZero() {
		q.Set("date_to", f.DateTo.Format(dateLayout))
	}
	if f.Location != "" {
		q.Set("location", f.Location)
	}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.FreeOnly {
		q.Set("free_only", "true")
	}
	return q
}

func (c *Client) get(ctx context.Context, path string, query url.Values, v any) error {
	target := c.endpoint + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			return fmt.Errorf("unexpected status %s, close body: %v", resp.Status, closeErr)
		}
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		_ = resp.Body.Close()
		return fmt.Errorf("decode response: %w", err)
	}

	if err := resp.Body.Close(); err != nil {
		return fmt.Errorf("close response body: %w", err)
	}
	return nil
}
