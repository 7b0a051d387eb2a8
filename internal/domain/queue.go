package domain

import "time"

// QueueStatus enumerates capture queue milestones.
type QueueStatus string

const (
	QueuePending    QueueStatus = "pending"
	QueueProcessing QueueStatus = "processing"
	QueueCaptured   QueueStatus = "captured"
	QueuePublished  QueueStatus = "published"
	QueueRejected   QueueStatus = "rejected"
)

// Priority buckets the auto-validation score.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rank orders priorities; higher is processed first.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Rejection reasons recorded on terminal queue entries.
const (
	RejectConsentExpired = "consent_expired"
	RejectMaxAttempts    = "max_attempts_exceeded"
)

// QueueMetadata carries the guesses made at enqueue time plus processing notes.
type QueueMetadata struct {
	UserLocation     string      `json:"user_location,omitempty"`
	CommunityImpact  ImpactLevel `json:"community_impact"`
	Keywords         []string    `json:"keywords"`
	ConfidenceScore  float64     `json:"confidence_score"`
	ProcessingTimeMS int64       `json:"processing_time_ms,omitempty"`
	LastError        string      `json:"last_error,omitempty"`
	RejectReason     string      `json:"reject_reason,omitempty"`
}

// QueueEntry is the unit of work tracked from capture through publication.
type QueueEntry struct {
	ID                   string        `json:"id"`
	Conversation         Conversation  `json:"conversation"`
	Analysis             StoryAnalysis `json:"analysis"`
	Status               QueueStatus   `json:"status"`
	Priority             Priority      `json:"priority"`
	AutoValidationScore  float64       `json:"autoValidationScore"`
	UserConsent          bool          `json:"userConsent"`
	Attempts             int           `json:"attempts"`
	CreatedAt            time.Time     `json:"createdAt"`
	ProcessedAt          *time.Time    `json:"processedAt,omitempty"`
	ArticleID            string        `json:"articleId,omitempty"`
	GovernanceDecisionID string        `json:"governanceDecisionId,omitempty"`
	Metadata             QueueMetadata `json:"metadata"`
}

// QueueStatusReport summarises the queue for operators.
type QueueStatusReport struct {
	Pending       int        `json:"pending"`
	Processing    int        `json:"processing"`
	Captured      int        `json:"captured"`
	Published     int        `json:"published"`
	Rejected      int        `json:"rejected"`
	Total         int        `json:"total"`
	OldestPending *time.Time `json:"oldest_pending"`
}

// CaptureMetrics summarises capture activity over a timeframe.
type CaptureMetrics struct {
	TotalAnalyzed        int     `json:"total_conversations_analyzed"`
	StoriesDetected      int     `json:"stories_detected"`
	StoriesCaptured      int     `json:"stories_captured"`
	StoriesPublished     int     `json:"stories_published"`
	DetectionAccuracy    float64 `json:"detection_accuracy"`
	ProcessingTimeAvgMS  float64 `json:"processing_time_avg_ms"`
	CommunityConsentRate float64 `json:"community_consent_rate"`
}

// Timeframe selects a reporting window.
type Timeframe string

const (
	TimeframeDay   Timeframe = "day"
	TimeframeWeek  Timeframe = "week"
	TimeframeMonth Timeframe = "month"
)

// Since returns the window start relative to now; unknown values mean a week.
func (t Timeframe) Since(now time.Time) time.Time {
	days := 7
	switch t {
	case TimeframeDay:
		days = 1
	case TimeframeMonth:
		days = 30
	}
	return now.AddDate(0, 0, -days)
}
