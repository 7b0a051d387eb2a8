package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"StoryCurator/internal/domain"
	"StoryCurator/internal/infrastructure/storage"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (p *recordingPublisher) Publish(ctx context.Context, subject string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	return nil
}

func (p *recordingPublisher) count(subject string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, s := range p.subjects {
		if s == subject {
			n++
		}
	}
	return n
}

// failingCreates rejects every Create and delegates everything else.
type failingCreates struct {
	*storage.MemoryArticles
}

func (f failingCreates) Create(ctx context.Context, a domain.Article) (domain.Article, error) {
	return domain.Article{}, errors.New("content database unavailable")
}

// contextQueue fails writes on a done context the way database/sql does.
type contextQueue struct {
	*storage.MemoryQueue
}

func (q contextQueue) Update(ctx context.Context, e domain.QueueEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return q.MemoryQueue.Update(ctx, e)
}

// cancellingCreates cancels the batch context while the draft is being written.
type cancellingCreates struct {
	*storage.MemoryArticles
	cancel context.CancelFunc
}

func (c cancellingCreates) Create(ctx context.Context, a domain.Article) (domain.Article, error) {
	c.cancel()
	return domain.Article{}, ctx.Err()
}

// flakyValidator fails the first submission and delegates afterwards.
type flakyValidator struct {
	next  Validator
	mu    sync.Mutex
	calls int
}

func (v *flakyValidator) SubmitForValidation(ctx context.Context, storyID string, submissionType domain.SubmissionType, submittedBy string) (domain.Decision, error) {
	v.mu.Lock()
	v.calls++
	first := v.calls == 1
	v.mu.Unlock()
	if first {
		return domain.Decision{}, errors.New("governance database unavailable")
	}
	return v.next.SubmitForValidation(ctx, storyID, submissionType, submittedBy)
}

type fixture struct {
	clock      *clock
	queue      *storage.MemoryQueue
	articles   *storage.MemoryArticles
	decisions  *storage.MemoryDecisions
	curationDB *storage.MemoryCuration
	events     *recordingPublisher

	governance *Governance
	capture    *CaptureQueue
	curation   *Curation
}

func newFixture(t *testing.T, opts CaptureOptions) *fixture {
	t.Helper()

	f := &fixture{
		clock:      newClock(),
		queue:      storage.NewMemoryQueue(),
		articles:   storage.NewMemoryArticles(),
		decisions:  storage.NewMemoryDecisions(),
		curationDB: storage.NewMemoryCuration(),
		events:     &recordingPublisher{},
	}
	f.governance = NewGovernance(GovernanceDeps{
		Decisions: f.decisions,
		Articles:  f.articles,
		Events:    f.events,
		Now:       f.clock.Now,
	})
	f.capture = NewCaptureQueue(CaptureDeps{
		Queue:     f.queue,
		Articles:  f.articles,
		Validator: f.governance,
		Events:    f.events,
		Now:       f.clock.Now,
		Options:   opts,
	})
	f.curation = NewCuration(CurationDeps{
		Rules:     f.curationDB,
		Log:       f.curationDB,
		Decisions: f.decisions,
		Articles:  f.articles,
		Events:    f.events,
		Now:       f.clock.Now,
		Options:   DefaultCurationOptions(),
	})
	return f
}

func (f *fixture) createArticle(t *testing.T, a domain.Article) domain.Article {
	t.Helper()
	created, err := f.articles.Create(context.Background(), a)
	if err != nil {
		t.Fatalf("create article: %v", err)
	}
	return created
}

func housingConversation() domain.Conversation {
	return domain.Conversation{
		Message:   "I just got housing through the community cooperative in Manchester!",
		Response:  "That's wonderful! Community projects like this cooperative show mutual aid in action.",
		Service:   "ivor",
		UserID:    "user-1",
		SessionID: "session-1",
	}
}

// organizingConversation scores at the 5.0 ceiling.
func organizingConversation() domain.Conversation {
	return domain.Conversation{
		Message: "Our collective organized a housing campaign in London with black, queer and trans neighbours.",
		Response: "That is what community liberation looks like. Mutual aid and solidarity across the whole " +
			"network kept people housed, and the campaign showed how much power we have when we move together.",
		Service:   "ivor",
		UserID:    "user-2",
		SessionID: "session-2",
	}
}

func smallTalk() domain.Conversation {
	return domain.Conversation{
		Message:  "What's the weather like today?",
		Response: "I can't check the weather, but I hope it's a good one.",
		Service:  "ivor",
	}
}
