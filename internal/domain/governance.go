package domain

import "time"

// DecisionType scopes a governance decision. Only story validation is produced here.
type DecisionType string

const (
	DecisionStoryValidation DecisionType = "story_validation"
)

// DecisionStatus tracks a decision through the voting workflow.
type DecisionStatus string

const (
	DecisionProposed    DecisionStatus = "proposed"
	DecisionVoting      DecisionStatus = "voting"
	DecisionApproved    DecisionStatus = "approved"
	DecisionRejected    DecisionStatus = "rejected"
	DecisionImplemented DecisionStatus = "implemented"
)

// SubmissionType says where a story under validation came from.
type SubmissionType string

const (
	SubmissionCommunity        SubmissionType = "community"
	SubmissionIVORConversation SubmissionType = "ivor_conversation"
	SubmissionExternal         SubmissionType = "external"
)

// VoteValue is a single community vote.
type VoteValue string

const (
	VoteFor     VoteValue = "for"
	VoteAgainst VoteValue = "against"
	VoteAbstain VoteValue = "abstain"
)

// Valid reports whether v is one of the three accepted values.
func (v VoteValue) Valid() bool {
	return v == VoteFor || v == VoteAgainst || v == VoteAbstain
}

// Counter returns the decision column the vote increments.
func (v VoteValue) Counter() string {
	switch v {
	case VoteFor:
		return "votes_for"
	case VoteAgainst:
		return "votes_against"
	default:
		return "votes_abstain"
	}
}

// DecisionMetadata links a decision to its story.
type DecisionMetadata struct {
	StoryID       string      `json:"story_id,omitempty"`
	ImpactLevel   ImpactLevel `json:"impact_level,omitempty"`
	CommunityTags []string    `json:"community_tags,omitempty"`
}

// Decision is a votable proposal.
type Decision struct {
	ID           string           `json:"id"`
	Type         DecisionType     `json:"type"`
	Title        string           `json:"title"`
	Description  string           `json:"description"`
	ProposedBy   string           `json:"proposed_by"`
	Status       DecisionStatus   `json:"status"`
	VotesFor     int              `json:"votes_for"`
	VotesAgainst int              `json:"votes_against"`
	VotesAbstain int              `json:"votes_abstain"`
	CreatedAt    time.Time        `json:"created_at"`
	VotingEndsAt *time.Time       `json:"voting_ends_at,omitempty"`
	Metadata     DecisionMetadata `json:"metadata"`
}

// TotalVotes sums all three counters.
func (d Decision) TotalVotes() int {
	return d.VotesFor + d.VotesAgainst + d.VotesAbstain
}

// Vote is one stored ballot.
type Vote struct {
	ID         string    `json:"id"`
	DecisionID string    `json:"decision_id"`
	UserID     string    `json:"user_id"`
	Value      VoteValue `json:"vote_type"`
	Comment    string    `json:"comments,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// FeaturingReport summarises one governance featuring pass.
type FeaturingReport struct {
	Featured       []Article `json:"featured_stories"`
	TotalReviewed  int       `json:"total_reviewed"`
	FeaturedCount  int       `json:"featured_count"`
	CriteriaMet    []string  `json:"criteria_met"`
	CommunityInput int       `json:"community_input"`
}

// GovernanceDashboard is the overview shown to moderators.
type GovernanceDashboard struct {
	ActiveDecisions  []Decision `json:"active_decisions"`
	ValidationQueue  int        `json:"validation_queue"`
	TotalVoters      int        `json:"total_voters"`
	RecentActivity   int        `json:"recent_activity"`
	EngagementRate   float64    `json:"engagement_rate"`
	StoriesValidated int        `json:"stories_validated"`
	ApprovedThisWeek int        `json:"featured_this_week"`
	RejectionRate    float64    `json:"rejection_rate"`
}
