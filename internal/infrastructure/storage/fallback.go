package storage

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"StoryCurator/internal/domain"
	"StoryCurator/internal/ports"
)

// Fallback serves a fixed set of sample articles when reads against the
// wrapped store fail for reasons other than a missing row. Writes are passed
// through untouched so callers still see database errors.
type Fallback struct {
	store  ports.ArticleStore
	logger *slog.Logger
}

var _ ports.ArticleStore = (*Fallback)(nil)

func NewFallback(store ports.ArticleStore, logger *slog.Logger) *Fallback {
	return &Fallback{store: store, logger: logger}
}

func (f *Fallback) Create(ctx context.Context, article domain.Article) (domain.Article, error) {
	return f.store.Create(ctx, article)
}

func (f *Fallback) Get(ctx context.Context, id string) (domain.Article, error) {
	a, err := f.store.Get(ctx, id)
	if err == nil || errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidArticle) {
		return a, err
	}

	f.warn("article read failed, serving sample", "article_id", id, "error", err)
	for _, sample := range SampleArticles() {
		if sample.ID == id {
			return sample, nil
		}
	}
	return domain.Article{}, err
}

func (f *Fallback) List(ctx context.Context, filter domain.ArticleFilter) (domain.ArticlePage, error) {
	page, err := f.store.List(ctx, filter)
	if err == nil {
		return page, nil
	}

	f.warn("article list failed, serving samples", "error", err)
	var matched []domain.Article
	for _, sample := range SampleArticles() {
		if matchesFilter(sample, filter) {
			matched = append(matched, sample)
		}
	}
	limit, n := pageBounds(filter)
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return domain.ArticlePage{
		Articles: matched,
		Total:    len(matched),
		Page:     n,
	}, nil
}

func (f *Fallback) Update(ctx context.Context, id string, patch domain.ArticlePatch) (domain.Article, error) {
	return f.store.Update(ctx, id, patch)
}

func (f *Fallback) Delete(ctx context.Context, id string) error {
	return f.store.Delete(ctx, id)
}

func (f *Fallback) warn(msg string, args ...any) {
	if f.logger == nil {
		return
	}
	f.logger.Warn(msg, args...)
}

var sampleEpoch = time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC)

// SampleArticles returns the static newsroom content shown while the content
// database is unreachable.
func SampleArticles() []domain.Article {
	published := func(daysAgo int) (time.Time, *time.Time) {
		t := sampleEpoch.AddDate(0, 0, -daysAgo)
		return t, &t
	}

	c1, p1 := published(0)
	c2, p2 := published(2)
	c3, p3 := published(5)
	c4, p4 := published(9)

	return []domain.Article{
		{
			ID:          "sample-housing-cooperative",
			Title:       "Manchester Housing Cooperative Celebrates First Year",
			Excerpt:     "Black queer residents in Manchester mark a year of collective ownership and mutual aid.",
			Content:     "A community-led housing cooperative in Manchester has completed its first year, housing twelve members and running a weekly mutual aid pantry.",
			Author:      "Community Stories",
			Category:    "Community News",
			Tags:        []string{"Housing", "Manchester", "Mutual Aid"},
			Status:      domain.ArticlePublished,
			Featured:    true,
			Priority:    "high",
			Source:      domain.SourceCommunitySubmission,
			CreatedAt:   c1,
			UpdatedAt:   c1,
			PublishedAt: p1,
		},
		{
			ID:          "sample-policy-analysis",
			Title:       "What the New Equality Guidance Means for QTIPOC Workers",
			Excerpt:     "A plain-language reading of national workplace guidance and where it falls short.",
			Content:     "Organizers across the UK break down the latest equality guidance and outline the protections trans and queer workers still lack.",
			Author:      "BLKOUT Editorial",
			Category:    "Organizing",
			Tags:        []string{"Policy", "Workers", "National"},
			Status:      domain.ArticlePublished,
			Featured:    true,
			Priority:    "medium",
			Source:      domain.SourcePartnerOrganization,
			CreatedAt:   c2,
			UpdatedAt:   c2,
			PublishedAt: p2,
		},
		{
			ID:          "sample-birmingham-pride",
			Title:       "Birmingham Black Pride Returns with Community Stage",
			Excerpt:     "Local artists and collectives take over the community stage for a day of celebration.",
			Content:     "Birmingham Black Pride is back, with a community stage programmed by local collectives, poets and DJs.",
			Author:      "Community Stories",
			Category:    "Culture & Arts",
			Tags:        []string{"Pride", "Birmingham", "Culture"},
			Status:      domain.ArticlePublished,
			Featured:    false,
			Priority:    "medium",
			Source:      domain.SourceCommunitySubmission,
			CreatedAt:   c3,
			UpdatedAt:   c3,
			PublishedAt: p3,
		},
		{
			ID:          "sample-mental-health-network",
			Title:       "Peer Support Network Expands Mental Health Circles",
			Excerpt:     "A peer-run network for Black queer men opens new wellbeing circles across three cities.",
			Content:     "The peer support network now runs monthly mental health circles in London, Leeds and Bristol, led by trained community facilitators.",
			Author:      "Community Stories",
			Category:    "Health & Wellness",
			Tags:        []string{"Mental Health", "Peer Support", "Wellbeing"},
			Status:      domain.ArticlePublished,
			Featured:    false,
			Priority:    "medium",
			Source:      domain.SourceIVORConversation,
			CreatedAt:   c4,
			UpdatedAt:   c4,
			PublishedAt: p4,
		},
	}
}
