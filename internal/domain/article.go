package domain

import "time"

// ArticleStatus is the newsroom lifecycle of an article.
type ArticleStatus string

const (
	ArticleDraft     ArticleStatus = "draft"
	ArticlePublished ArticleStatus = "published"
	ArticleArchived  ArticleStatus = "archived"
)

// Valid reports whether s is a known status.
func (s ArticleStatus) Valid() bool {
	return s == ArticleDraft || s == ArticlePublished || s == ArticleArchived
}

// Article sources used by the validation scorer.
const (
	SourceCommunitySubmission = "community-submission"
	SourcePartnerOrganization = "partner-organization"
	SourceIVORConversation    = "ivor-conversation"
)

// Article is the pipeline's view of a newsroom article.
type Article struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Excerpt      string        `json:"excerpt"`
	Content      string        `json:"content"`
	Author       string        `json:"author"`
	Category     string        `json:"category"`
	Tags         []string      `json:"tags"`
	Status       ArticleStatus `json:"status"`
	Featured     bool          `json:"featured"`
	Priority     string        `json:"priority"`
	ImageURL     string        `json:"imageUrl,omitempty"`
	SourceURL    string        `json:"sourceUrl,omitempty"`
	Source       string        `json:"source,omitempty"`
	SubmittedVia string        `json:"submittedVia,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
	PublishedAt  *time.Time    `json:"publishedAt,omitempty"`
}

// ArticlePatch lists the fields the pipeline is allowed to change after creation.
// Nil pointers leave the stored value untouched.
type ArticlePatch struct {
	Status   *ArticleStatus
	Featured *bool
	Priority *string
}

// Apply copies the set fields of p onto a and stamps timestamps.
func (p ArticlePatch) Apply(a *Article, now time.Time) {
	if p.Status != nil {
		if *p.Status == ArticlePublished && a.Status != ArticlePublished {
			published := now
			a.PublishedAt = &published
		}
		a.Status = *p.Status
	}
	if p.Featured != nil {
		a.Featured = *p.Featured
	}
	if p.Priority != nil {
		a.Priority = *p.Priority
	}
	a.UpdatedAt = now
}

// ArticleFilter narrows list reads.
type ArticleFilter struct {
	Category string
	Status   ArticleStatus
	Featured *bool
	Limit    int
	Page     int
}

// ArticlePage is one page of a list read.
type ArticlePage struct {
	Articles []Article `json:"articles"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	HasMore  bool      `json:"hasMore"`
}
