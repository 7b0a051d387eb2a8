package ports

import (
	"context"
	"time"

	"StoryCurator/internal/domain"
)

// ArticleStore is CRUD over newsroom articles in the content database.
type ArticleStore interface {
	Create(ctx context.Context, article domain.Article) (domain.Article, error)
	Get(ctx context.Context, id string) (domain.Article, error)
	List(ctx context.Context, filter domain.ArticleFilter) (domain.ArticlePage, error)
	Update(ctx context.Context, id string, patch domain.ArticlePatch) (domain.Article, error)
	Delete(ctx context.Context, id string) error
}

// QueueRepository persists story capture queue entries.
type QueueRepository interface {
	Insert(ctx context.Context, entry domain.QueueEntry) error
	Get(ctx context.Context, id string) (domain.QueueEntry, error)
	Update(ctx context.Context, entry domain.QueueEntry) error
	// Pending returns up to limit pending entries, highest priority then oldest first.
	Pending(ctx context.Context, limit int) ([]domain.QueueEntry, error)
	CountByStatus(ctx context.Context) (map[domain.QueueStatus]int, error)
	OldestPending(ctx context.Context) (*time.Time, error)
	ListSince(ctx context.Context, since time.Time) ([]domain.QueueEntry, error)
}

// DecisionRepository persists governance decisions and their votes.
type DecisionRepository interface {
	Insert(ctx context.Context, decision domain.Decision) error
	Get(ctx context.Context, id string) (domain.Decision, error)
	SetStatus(ctx context.Context, id string, status domain.DecisionStatus) error
	// List returns decisions of the given type in any of statuses, newest first. limit <= 0 means all.
	List(ctx context.Context, decisionType domain.DecisionType, statuses []domain.DecisionStatus, limit int) ([]domain.Decision, error)
	ListSince(ctx context.Context, decisionType domain.DecisionType, since time.Time) ([]domain.Decision, error)
	FindByStory(ctx context.Context, storyID string) (domain.Decision, error)

	HasVoted(ctx context.Context, decisionID, userID string) (bool, error)
	InsertVote(ctx context.Context, vote domain.Vote) error
	IncrementVote(ctx context.Context, decisionID string, value domain.VoteValue) error
	VotesSince(ctx context.Context, since time.Time) ([]domain.Vote, error)
}

// RuleRepository reads curation rules and seeds defaults.
type RuleRepository interface {
	Active(ctx context.Context) ([]domain.CurationRule, error)
	Names(ctx context.Context) ([]string, error)
	Insert(ctx context.Context, rules []domain.CurationRule) error
}

// CurationLog is the append-only audit trail of curation passes.
type CurationLog interface {
	InsertResults(ctx context.Context, results []domain.CurationResult) error
	InsertSession(ctx context.Context, session domain.CurationSession) error
	SessionsSince(ctx context.Context, since time.Time) ([]domain.CurationSession, error)
	ResultsSince(ctx context.Context, since time.Time) ([]domain.CurationResult, error)
}

// ChatClient talks to the IVOR chat backend.
type ChatClient interface {
	Send(ctx context.Context, message string, chatContext map[string]any) (domain.ChatReply, error)
	Health(ctx context.Context) error
}

// EventsCalendar reads the community events calendar.
type EventsCalendar interface {
	Events(ctx context.Context, filter domain.EventFilter) (domain.EventPage, error)
}

// Amplifier pushes shareable content to the social amplification service.
type Amplifier interface {
	Amplify(ctx context.Context, content domain.ShareContent, req domain.AmplificationRequest) (string, error)
}

// EventPublisher announces pipeline transitions to subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

// Scheduler controls when recurring jobs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
