package domain

import "time"

// RuleCriteria is the bag of conditions a curation rule checks.
// Zero values mean "not checked".
type RuleCriteria struct {
	MinCommunityVotes   int         `json:"min_community_votes,omitempty"`
	MinValidationScore  float64     `json:"min_validation_score,omitempty"`
	RequiredImpactLevel ImpactLevel `json:"required_impact_level,omitempty"`
	RequiredCategories  []string    `json:"required_categories,omitempty"`
	GeographicDiversity bool        `json:"geographic_diversity,omitempty"`
	RecencyWeight       float64     `json:"recency_weight,omitempty"`
}

// CurationRule is read-only input to the rule engine.
type CurationRule struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Criteria    RuleCriteria `json:"criteria"`
	Priority    int          `json:"priority"`
	Active      bool         `json:"active"`
	CreatedBy   string       `json:"created_by"`
	CreatedAt   time.Time    `json:"created_at"`
}

// CurationResult is the per-story audit row of one session.
type CurationResult struct {
	SessionID          string      `json:"session_id"`
	StoryID            string      `json:"story_id"`
	Article            Article     `json:"-"`
	CurationScore      float64     `json:"curation_score"`
	AppliedRules       []string    `json:"applied_rules"`
	FeaturedReason     string      `json:"featured_reason"`
	CommunityVotes     int         `json:"community_votes"`
	ValidationScore    float64     `json:"validation_score"`
	GeographicLocation string      `json:"geographic_location,omitempty"`
	ImpactLevel        ImpactLevel `json:"impact_level"`
	CreatedAt          time.Time   `json:"created_at"`
}

// SessionStatus tracks a curation session.
type SessionStatus string

const (
	SessionRunning   SessionStatus = "running"
	SessionCompleted SessionStatus = "completed"
	SessionFailed    SessionStatus = "failed"
)

// Distribution counts featured stories per bucket.
type Distribution map[string]int

// SessionMetadata holds the distribution breakdowns of a session.
type SessionMetadata struct {
	Geographic Distribution `json:"geographic_distribution"`
	Category   Distribution `json:"category_distribution"`
	Impact     Distribution `json:"impact_distribution"`
}

// CurationSession is the write-once summary of one curation pass.
type CurationSession struct {
	ID              string          `json:"id"`
	Name            string          `json:"session_name"`
	StartedAt       time.Time       `json:"started_at"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
	Status          SessionStatus   `json:"status"`
	StoriesReviewed int             `json:"stories_reviewed"`
	StoriesFeatured int             `json:"stories_featured"`
	AppliedRules    []string        `json:"applied_rules"`
	SuccessRate     float64         `json:"success_rate"`
	Outcome         string          `json:"outcome"`
	Metadata        SessionMetadata `json:"metadata"`
}

// CurationMetrics summarises sessions over a timeframe.
type CurationMetrics struct {
	TotalSessions            int     `json:"total_sessions_run"`
	TotalStoriesCurated      int     `json:"total_stories_curated"`
	AvgCurationScore         float64 `json:"avg_curation_score"`
	GeographicDiversityScore float64 `json:"geographic_diversity_score"`
}
