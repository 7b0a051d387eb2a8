package domain

import "time"

// Conversation is one IVOR chat exchange fed into the capture pipeline.
type Conversation struct {
	Message   string    `json:"message"`
	Response  string    `json:"response"`
	Service   string    `json:"service"`
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"userId"`
	SessionID string    `json:"sessionId"`
}

// Combined joins message and response the way every text heuristic reads them.
func (c Conversation) Combined() string {
	return c.Message + " " + c.Response
}

// StoryType tags the kind of story a conversation hints at.
type StoryType string

const (
	StoryAchievement StoryType = "achievement"
	StoryOrganizing  StoryType = "organizing"
	StoryHealth      StoryType = "health"
	StoryCultural    StoryType = "cultural"
	StoryMixed       StoryType = "mixed"
)

// StoryAnalysis is derived from a Conversation and never stored on its own.
type StoryAnalysis struct {
	HasStoryPotential bool      `json:"hasStoryPotential"`
	StoryType         StoryType `json:"storyType,omitempty"`
	SuggestedTitle    string    `json:"suggestedTitle,omitempty"`
	KeyElements       []string  `json:"keyElements,omitempty"`
}

// ImpactLevel estimates how far a story reaches.
type ImpactLevel string

const (
	ImpactIndividual ImpactLevel = "individual"
	ImpactLocal      ImpactLevel = "local"
	ImpactNational   ImpactLevel = "national"
)

// StoryCategory is the capture-side category before newsroom mapping.
type StoryCategory string

const (
	CategoryAchievement StoryCategory = "achievement"
	CategoryOrganizing  StoryCategory = "organizing"
	CategoryMutualAid   StoryCategory = "mutual-aid"
	CategoryCultural    StoryCategory = "cultural"
	CategoryHealth      StoryCategory = "health"
	CategoryHousing     StoryCategory = "housing"
)

// StoryCapture is the narrative built from a conversation before it becomes an article.
type StoryCapture struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Content  string        `json:"content"`
	Source   string        `json:"source"`
	Category StoryCategory `json:"category"`
	Location string        `json:"location,omitempty"`
	Impact   ImpactLevel   `json:"impact"`
}

// ChatReply is what the IVOR backend answers to a message.
type ChatReply struct {
	Response    string           `json:"response"`
	Service     string           `json:"service,omitempty"`
	Suggestions []string         `json:"suggestions,omitempty"`
	Resources   []map[string]any `json:"resources,omitempty"`
}
