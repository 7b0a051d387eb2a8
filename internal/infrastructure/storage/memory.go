package storage

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"StoryCurator/internal/domain"
	"StoryCurator/internal/ports"
)

// MemoryArticles keeps articles in a map, for local runs and tests.
type MemoryArticles struct {
	mu       sync.RWMutex
	articles map[string]domain.Article
	now      func() time.Time
}

var _ ports.ArticleStore = (*MemoryArticles)(nil)

func NewMemoryArticles() *MemoryArticles {
	return &MemoryArticles{
		articles: make(map[string]domain.Article),
		now:      time.Now,
	}
}

func (s *MemoryArticles) Create(ctx context.Context, article domain.Article) (domain.Article, error) {
	article = prepareNewArticle(article, s.now())
	if _, err := toArticleRow(article); err != nil {
		return domain.Article{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.articles[article.ID]; exists {
		return domain.Article{}, fmt.Errorf("article %s already exists", article.ID)
	}
	s.articles[article.ID] = cloneArticle(article)
	return article, nil
}

func (s *MemoryArticles) Get(ctx context.Context, id string) (domain.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.articles[id]
	if !ok {
		return domain.Article{}, fmt.Errorf("article %s: %w", id, domain.ErrNotFound)
	}
	return cloneArticle(a), nil
}

func (s *MemoryArticles) List(ctx context.Context, filter domain.ArticleFilter) (domain.ArticlePage, error) {
	limit, page := pageBounds(filter)

	s.mu.RLock()
	matched := make([]domain.Article, 0, len(s.articles))
	for _, a := range s.articles {
		if matchesFilter(a, filter) {
			matched = append(matched, cloneArticle(a))
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	start := min((page-1)*limit, len(matched))
	end := min(start+limit, len(matched))

	return domain.ArticlePage{
		Articles: matched[start:end],
		Total:    len(matched),
		Page:     page,
		HasMore:  end < len(matched),
	}, nil
}

func (s *MemoryArticles) Update(ctx context.Context, id string, patch domain.ArticlePatch) (domain.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.articles[id]
	if !ok {
		return domain.Article{}, fmt.Errorf("article %s: %w", id, domain.ErrNotFound)
	}
	patch.Apply(&a, s.now())
	if _, err := toArticleRow(a); err != nil {
		return domain.Article{}, err
	}
	s.articles[id] = a
	return cloneArticle(a), nil
}

func (s *MemoryArticles) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.articles[id]; !ok {
		return fmt.Errorf("article %s: %w", id, domain.ErrNotFound)
	}
	delete(s.articles, id)
	return nil
}

func matchesFilter(a domain.Article, f domain.ArticleFilter) bool {
	if f.Category != "" && !strings.EqualFold(a.Category, f.Category) {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.Featured != nil && a.Featured != *f.Featured {
		return false
	}
	return true
}

func cloneArticle(a domain.Article) domain.Article {
	a.Tags = slices.Clone(a.Tags)
	if a.PublishedAt != nil {
		published := *a.PublishedAt
		a.PublishedAt = &published
	}
	return a
}

// MemoryQueue is the in-process capture queue.
type MemoryQueue struct {
	mu      sync.RWMutex
	entries map[string]domain.QueueEntry
}

var _ ports.QueueRepository = (*MemoryQueue)(nil)

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{entries: make(map[string]domain.QueueEntry)}
}

func (q *MemoryQueue) Insert(ctx context.Context, entry domain.QueueEntry) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if entry.ID == "" {
		return fmt.Errorf("queue entry without id")
	}
	if _, exists := q.entries[entry.ID]; exists {
		return fmt.Errorf("queue entry %s already exists", entry.ID)
	}
	q.entries[entry.ID] = entry
	return nil
}

func (q *MemoryQueue) Get(ctx context.Context, id string) (domain.QueueEntry, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	e, ok := q.entries[id]
	if !ok {
		return domain.QueueEntry{}, fmt.Errorf("queue entry %s: %w", id, domain.ErrNotFound)
	}
	return e, nil
}

func (q *MemoryQueue) Update(ctx context.Context, entry domain.QueueEntry) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.entries[entry.ID]; !ok {
		return fmt.Errorf("queue entry %s: %w", entry.ID, domain.ErrNotFound)
	}
	q.entries[entry.ID] = entry
	return nil
}

func (q *MemoryQueue) Pending(ctx context.Context, limit int) ([]domain.QueueEntry, error) {
	q.mu.RLock()
	var pending []domain.QueueEntry
	for _, e := range q.entries {
		if e.Status == domain.QueuePending {
			pending = append(pending, e)
		}
	}
	q.mu.RUnlock()

	sort.Slice(pending, func(i, j int) bool {
		ri, rj := pending[i].Priority.Rank(), pending[j].Priority.Rank()
		if ri != rj {
			return ri > rj
		}
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (q *MemoryQueue) CountByStatus(ctx context.Context) (map[domain.QueueStatus]int, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	counts := make(map[domain.QueueStatus]int)
	for _, e := range q.entries {
		counts[e.Status]++
	}
	return counts, nil
}

func (q *MemoryQueue) OldestPending(ctx context.Context) (*time.Time, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	var oldest *time.Time
	for _, e := range q.entries {
		if e.Status != domain.QueuePending {
			continue
		}
		if oldest == nil || e.CreatedAt.Before(*oldest) {
			created := e.CreatedAt
			oldest = &created
		}
	}
	return oldest, nil
}

func (q *MemoryQueue) ListSince(ctx context.Context, since time.Time) ([]domain.QueueEntry, error) {
	q.mu.RLock()
	var out []domain.QueueEntry
	for _, e := range q.entries {
		if !e.CreatedAt.Before(since) {
			out = append(out, e)
		}
	}
	q.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// MemoryDecisions holds governance decisions and votes in process.
type MemoryDecisions struct {
	mu        sync.RWMutex
	decisions map[string]domain.Decision
	votes     []domain.Vote
}

var _ ports.DecisionRepository = (*MemoryDecisions)(nil)

func NewMemoryDecisions() *MemoryDecisions {
	return &MemoryDecisions{decisions: make(map[string]domain.Decision)}
}

func (m *MemoryDecisions) Insert(ctx context.Context, d domain.Decision) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	m.decisions[d.ID] = d
	return nil
}

func (m *MemoryDecisions) Get(ctx context.Context, id string) (domain.Decision, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.decisions[id]
	if !ok {
		return domain.Decision{}, fmt.Errorf("decision %s: %w", id, domain.ErrNotFound)
	}
	return d, nil
}

func (m *MemoryDecisions) SetStatus(ctx context.Context, id string, status domain.DecisionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.decisions[id]
	if !ok {
		return fmt.Errorf("decision %s: %w", id, domain.ErrNotFound)
	}
	d.Status = status
	m.decisions[id] = d
	return nil
}

func (m *MemoryDecisions) List(ctx context.Context, decisionType domain.DecisionType, statuses []domain.DecisionStatus, limit int) ([]domain.Decision, error) {
	out := m.filter(func(d domain.Decision) bool {
		return d.Type == decisionType && (len(statuses) == 0 || slices.Contains(statuses, d.Status))
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryDecisions) ListSince(ctx context.Context, decisionType domain.DecisionType, since time.Time) ([]domain.Decision, error) {
	return m.filter(func(d domain.Decision) bool {
		return d.Type == decisionType && !d.CreatedAt.Before(since)
	}), nil
}

func (m *MemoryDecisions) FindByStory(ctx context.Context, storyID string) (domain.Decision, error) {
	matches := m.filter(func(d domain.Decision) bool { return d.Metadata.StoryID == storyID })
	if len(matches) == 0 {
		return domain.Decision{}, fmt.Errorf("decision for story %s: %w", storyID, domain.ErrNotFound)
	}
	return matches[0], nil
}

// filter returns matching decisions, newest first.
func (m *MemoryDecisions) filter(keep func(domain.Decision) bool) []domain.Decision {
	m.mu.RLock()
	var out []domain.Decision
	for _, d := range m.decisions {
		if keep(d) {
			out = append(out, d)
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *MemoryDecisions) HasVoted(ctx context.Context, decisionID, userID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, v := range m.votes {
		if v.DecisionID == decisionID && v.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryDecisions) InsertVote(ctx context.Context, v domain.Vote) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	m.votes = append(m.votes, v)
	return nil
}

func (m *MemoryDecisions) IncrementVote(ctx context.Context, decisionID string, value domain.VoteValue) error {
	if !value.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidVote, value)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.decisions[decisionID]
	if !ok {
		return fmt.Errorf("decision %s: %w", decisionID, domain.ErrNotFound)
	}
	switch value {
	case domain.VoteFor:
		d.VotesFor++
	case domain.VoteAgainst:
		d.VotesAgainst++
	default:
		d.VotesAbstain++
	}
	m.decisions[decisionID] = d
	return nil
}

func (m *MemoryDecisions) VotesSince(ctx context.Context, since time.Time) ([]domain.Vote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.Vote
	for _, v := range m.votes {
		if !v.CreatedAt.Before(since) {
			out = append(out, v)
		}
	}
	return out, nil
}

// MemoryCuration keeps rules, results and sessions in process.
type MemoryCuration struct {
	mu       sync.RWMutex
	rules    []domain.CurationRule
	results  []domain.CurationResult
	sessions []domain.CurationSession
}

var (
	_ ports.RuleRepository = (*MemoryCuration)(nil)
	_ ports.CurationLog    = (*MemoryCuration)(nil)
)

func NewMemoryCuration() *MemoryCuration {
	return &MemoryCuration{}
}

func (m *MemoryCuration) Active(ctx context.Context) ([]domain.CurationRule, error) {
	m.mu.RLock()
	var out []domain.CurationRule
	for _, r := range m.rules {
		if r.Active {
			out = append(out, r)
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out, nil
}

func (m *MemoryCuration) Names(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.rules))
	for _, r := range m.rules {
		names = append(names, r.Name)
	}
	return names, nil
}

func (m *MemoryCuration) Insert(ctx context.Context, rules []domain.CurationRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range rules {
		exists := slices.ContainsFunc(m.rules, func(have domain.CurationRule) bool { return have.Name == r.Name })
		if exists {
			continue
		}
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		m.rules = append(m.rules, r)
	}
	return nil
}

func (m *MemoryCuration) InsertResults(ctx context.Context, results []domain.CurationResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.results = append(m.results, results...)
	return nil
}

func (m *MemoryCuration) InsertSession(ctx context.Context, s domain.CurationSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions = append(m.sessions, s)
	return nil
}

func (m *MemoryCuration) SessionsSince(ctx context.Context, since time.Time) ([]domain.CurationSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.CurationSession
	for _, s := range m.sessions {
		if !s.StartedAt.Before(since) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MemoryCuration) ResultsSince(ctx context.Context, since time.Time) ([]domain.CurationResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.CurationResult
	for _, r := range m.results {
		if !r.CreatedAt.Before(since) {
			out = append(out, r)
		}
	}
	return out, nil
}
