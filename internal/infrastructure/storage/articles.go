package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"StoryCurator/internal/domain"
	"StoryCurator/internal/ports"
)

const defaultPageSize = 10

var articleColumns = []string{
	"id", "title", "excerpt", "content", "author", "category", "tags", "status",
	"featured", "priority", "image_url", "source_url", "source", "submitted_via",
	"created_at", "updated_at", "published_at",
}

// articleRow mirrors the articles table.
type articleRow struct {
	ID           string
	Title        string
	Excerpt      string
	Content      string
	Author       string
	Category     string
	Tags         pq.StringArray
	Status       string
	Featured     bool
	Priority     string
	ImageURL     sql.NullString
	SourceURL    sql.NullString
	Source       sql.NullString
	SubmittedVia sql.NullString
	CreatedAt    time.Time
	UpdatedAt    time.Time
	PublishedAt  sql.NullTime
}

func (r *articleRow) scan(s rowScanner) error {
	return s.Scan(
		&r.ID, &r.Title, &r.Excerpt, &r.Content, &r.Author, &r.Category, &r.Tags, &r.Status,
		&r.Featured, &r.Priority, &r.ImageURL, &r.SourceURL, &r.Source, &r.SubmittedVia,
		&r.CreatedAt, &r.UpdatedAt, &r.PublishedAt,
	)
}

func (r articleRow) values() []any {
	return []any{
		r.ID, r.Title, r.Excerpt, r.Content, r.Author, r.Category, r.Tags, r.Status,
		r.Featured, r.Priority, r.ImageURL, r.SourceURL, r.Source, r.SubmittedVia,
		r.CreatedAt, r.UpdatedAt, r.PublishedAt,
	}
}

// toArticleRow validates a domain article before it crosses into the database.
func toArticleRow(a domain.Article) (articleRow, error) {
	if strings.TrimSpace(a.Title) == "" {
		return articleRow{}, fmt.Errorf("%w: title is required", domain.ErrInvalidArticle)
	}
	if !a.Status.Valid() {
		return articleRow{}, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidArticle, a.Status)
	}
	return articleRow{
		ID:           a.ID,
		Title:        a.Title,
		Excerpt:      a.Excerpt,
		Content:      a.Content,
		Author:       a.Author,
		Category:     a.Category,
		Tags:         textArray(a.Tags),
		Status:       string(a.Status),
		Featured:     a.Featured,
		Priority:     a.Priority,
		ImageURL:     nullString(a.ImageURL),
		SourceURL:    nullString(a.SourceURL),
		Source:       nullString(a.Source),
		SubmittedVia: nullString(a.SubmittedVia),
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
		PublishedAt:  nullTime(a.PublishedAt),
	}, nil
}

// toArticle validates a stored row on its way back into the pipeline.
func toArticle(r articleRow) (domain.Article, error) {
	status := domain.ArticleStatus(r.Status)
	if !status.Valid() {
		return domain.Article{}, fmt.Errorf("%w: article %s has status %q", domain.ErrInvalidArticle, r.ID, r.Status)
	}
	return domain.Article{
		ID:           r.ID,
		Title:        r.Title,
		Excerpt:      r.Excerpt,
		Content:      r.Content,
		Author:       r.Author,
		Category:     r.Category,
		Tags:         []string(r.Tags),
		Status:       status,
		Featured:     r.Featured,
		Priority:     r.Priority,
		ImageURL:     r.ImageURL.String,
		SourceURL:    r.SourceURL.String,
		Source:       r.Source.String,
		SubmittedVia: r.SubmittedVia.String,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		PublishedAt:  timePtr(r.PublishedAt),
	}, nil
}

// ArticleRepository stores newsroom articles in Postgres.
type ArticleRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ ports.ArticleStore = (*ArticleRepository)(nil)

// NewArticleRepository wires a sql.DB implementation.
func NewArticleRepository(db *sql.DB) *ArticleRepository {
	return &ArticleRepository{db: db, now: time.Now}
}

// Create inserts a new article, filling id and timestamps when absent.
func (r *ArticleRepository) Create(ctx context.Context, article domain.Article) (domain.Article, error) {
	article = prepareNewArticle(article, r.now())

	row, err := toArticleRow(article)
	if err != nil {
		return domain.Article{}, err
	}

	if _, err := exec(ctx, r.db, insertArticle(row)); err != nil {
		return domain.Article{}, fmt.Errorf("insert article: %w", err)
	}
	return article, nil
}

// Get loads one article.
func (r *ArticleRepository) Get(ctx context.Context, id string) (domain.Article, error) {
	row, err := queryRow(ctx, r.db, psql.Select(articleColumns...).From("articles").Where(sq.Eq{"id": id}))
	if err != nil {
		return domain.Article{}, err
	}

	var ar articleRow
	if err := ar.scan(row); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Article{}, fmt.Errorf("article %s: %w", id, domain.ErrNotFound)
		}
		return domain.Article{}, fmt.Errorf("select article: %w", err)
	}
	return toArticle(ar)
}

// List returns one page of articles, newest first.
func (r *ArticleRepository) List(ctx context.Context, filter domain.ArticleFilter) (domain.ArticlePage, error) {
	limit, page := pageBounds(filter)

	var total int
	countRow, err := queryRow(ctx, r.db, applyArticleFilter(psql.Select("COUNT(*)").From("articles"), filter))
	if err != nil {
		return domain.ArticlePage{}, err
	}
	if err := countRow.Scan(&total); err != nil {
		return domain.ArticlePage{}, fmt.Errorf("count articles: %w", err)
	}

	rows, err := query(ctx, r.db, listArticles(filter))
	if err != nil {
		return domain.ArticlePage{}, fmt.Errorf("list articles: %w", err)
	}

	articles, err := collect(rows, func(s rowScanner) (domain.Article, error) {
		var ar articleRow
		if err := ar.scan(s); err != nil {
			return domain.Article{}, fmt.Errorf("scan article: %w", err)
		}
		return toArticle(ar)
	})
	if err != nil {
		return domain.ArticlePage{}, err
	}

	return domain.ArticlePage{
		Articles: articles,
		Total:    total,
		Page:     page,
		HasMore:  (page-1)*limit+len(articles) < total,
	}, nil
}

// Update applies patch and returns the stored article.
func (r *ArticleRepository) Update(ctx context.Context, id string, patch domain.ArticlePatch) (domain.Article, error) {
	current, err := r.Get(ctx, id)
	if err != nil {
		return domain.Article{}, err
	}
	patch.Apply(&current, r.now())

	row, err := toArticleRow(current)
	if err != nil {
		return domain.Article{}, err
	}

	stmt := psql.Update("articles").
		Set("status", row.Status).
		Set("featured", row.Featured).
		Set("priority", row.Priority).
		Set("updated_at", row.UpdatedAt).
		Set("published_at", row.PublishedAt).
		Where(sq.Eq{"id": id})

	res, err := exec(ctx, r.db, stmt)
	if err != nil {
		return domain.Article{}, fmt.Errorf("update article: %w", err)
	}
	if err := expectAffected(res, "article", id); err != nil {
		return domain.Article{}, err
	}
	return current, nil
}

// Delete removes an article.
func (r *ArticleRepository) Delete(ctx context.Context, id string) error {
	res, err := exec(ctx, r.db, psql.Delete("articles").Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	return expectAffected(res, "article", id)
}

func insertArticle(row articleRow) sq.InsertBuilder {
	return psql.Insert("articles").Columns(articleColumns...).Values(row.values()...)
}

func listArticles(filter domain.ArticleFilter) sq.SelectBuilder {
	limit, page := pageBounds(filter)
	return applyArticleFilter(psql.Select(articleColumns...).From("articles"), filter).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64((page - 1) * limit))
}

func applyArticleFilter(b sq.SelectBuilder, filter domain.ArticleFilter) sq.SelectBuilder {
	if filter.Category != "" {
		b = b.Where(sq.Eq{"category": filter.Category})
	}
	if filter.Status != "" {
		b = b.Where(sq.Eq{"status": string(filter.Status)})
	}
	if filter.Featured != nil {
		b = b.Where(sq.Eq{"featured": *filter.Featured})
	}
	return b
}

func pageBounds(filter domain.ArticleFilter) (limit, page int) {
	limit, page = filter.Limit, filter.Page
	if limit <= 0 {
		limit = defaultPageSize
	}
	if page <= 0 {
		page = 1
	}
	return limit, page
}

func prepareNewArticle(a domain.Article, now time.Time) domain.Article {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = domain.ArticleDraft
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = a.CreatedAt
	if a.Status == domain.ArticlePublished && a.PublishedAt == nil {
		published := a.CreatedAt
		a.PublishedAt = &published
	}
	return a
}

func expectAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)
	}
	return nil
}
