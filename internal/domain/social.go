package domain

import "time"

// Event is a community calendar entry.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location"`
	URL         string    `json:"url,omitempty"`
	Category    string    `json:"category,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Free        bool      `json:"free"`
}

// EventFilter maps onto the calendar's query string.
type EventFilter struct {
	Limit    int
	Page     int
	DateFrom time.Time
	DateTo   time.Time
	Location string
	Category string
	FreeOnly bool
}

// EventPage is one page from the calendar backend.
type EventPage struct {
	Events  []Event `json:"events"`
	Total   int     `json:"total"`
	Page    int     `json:"page"`
	HasMore bool    `json:"hasMore"`
}

// ShareKind classifies shareable content.
type ShareKind string

const (
	ShareStory       ShareKind = "story"
	ShareAchievement ShareKind = "achievement"
	ShareEvent       ShareKind = "event"
	ShareOrganizing  ShareKind = "organizing"
)

// ShareContent is a story or event prepared for social amplification.
type ShareContent struct {
	ID           string      `json:"id"`
	Kind         ShareKind   `json:"type"`
	Title        string      `json:"title"`
	Content      string      `json:"content"`
	Tags         []string    `json:"tags"`
	Source       string      `json:"source"`
	ShareableURL string      `json:"shareableUrl,omitempty"`
	ImageURL     string      `json:"imageUrl,omitempty"`
	Location     string      `json:"location,omitempty"`
	Impact       ImpactLevel `json:"impact"`
	Timestamp    time.Time   `json:"timestamp"`
}

// AmplificationRequest selects target platforms for a piece of content.
type AmplificationRequest struct {
	Platforms     []string   `json:"platforms"`
	CustomMessage string     `json:"customMessage,omitempty"`
	ScheduledFor  *time.Time `json:"scheduledFor,omitempty"`
	CommunityTags []string   `json:"communityTags,omitempty"`
}
