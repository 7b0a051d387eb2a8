package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"StoryCurator/internal/domain"
	"StoryCurator/internal/ports"
)

var queueColumns = []string{
	"id", "conversation_data", "story_analysis", "status", "priority",
	"auto_validation_score", "user_consent", "attempts", "created_at",
	"processed_at", "newsroom_article_id", "governance_decision_id", "metadata",
}

// priorityRank orders pending work urgent > high > medium > low.
const priorityRank = "CASE priority WHEN 'urgent' THEN 4 WHEN 'high' THEN 3 WHEN 'medium' THEN 2 ELSE 1 END DESC"

type queueRow struct {
	ID                   string
	Conversation         []byte
	Analysis             []byte
	Status               string
	Priority             string
	Score                float64
	UserConsent          bool
	Attempts             int
	CreatedAt            time.Time
	ProcessedAt          sql.NullTime
	ArticleID            sql.NullString
	GovernanceDecisionID sql.NullString
	Metadata             []byte
}

func (r *queueRow) scan(s rowScanner) error {
	return s.Scan(
		&r.ID, &r.Conversation, &r.Analysis, &r.Status, &r.Priority,
		&r.Score, &r.UserConsent, &r.Attempts, &r.CreatedAt,
		&r.ProcessedAt, &r.ArticleID, &r.GovernanceDecisionID, &r.Metadata,
	)
}

func toQueueRow(e domain.QueueEntry) (queueRow, error) {
	conv, err := json.Marshal(e.Conversation)
	if err != nil {
		return queueRow{}, fmt.Errorf("encode conversation: %w", err)
	}
	analysis, err := json.Marshal(e.Analysis)
	if err != nil {
		return queueRow{}, fmt.Errorf("encode analysis: %w", err)
	}
	meta, err := json.Marshal(e.Metadata)
	if err != nil {
		return queueRow{}, fmt.Errorf("encode metadata: %w", err)
	}
	return queueRow{
		ID:                   e.ID,
		Conversation:         conv,
		Analysis:             analysis,
		Status:               string(e.Status),
		Priority:             string(e.Priority),
		Score:                e.AutoValidationScore,
		UserConsent:          e.UserConsent,
		Attempts:             e.Attempts,
		CreatedAt:            e.CreatedAt,
		ProcessedAt:          nullTime(e.ProcessedAt),
		ArticleID:            nullString(e.ArticleID),
		GovernanceDecisionID: nullString(e.GovernanceDecisionID),
		Metadata:             meta,
	}, nil
}

func toQueueEntry(r queueRow) (domain.QueueEntry, error) {
	e := domain.QueueEntry{
		ID:                   r.ID,
		Status:               domain.QueueStatus(r.Status),
		Priority:             domain.Priority(r.Priority),
		AutoValidationScore:  r.Score,
		UserConsent:          r.UserConsent,
		Attempts:             r.Attempts,
		CreatedAt:            r.CreatedAt,
		ProcessedAt:          timePtr(r.ProcessedAt),
		ArticleID:            r.ArticleID.String,
		GovernanceDecisionID: r.GovernanceDecisionID.String,
	}
	if err := json.Unmarshal(r.Conversation, &e.Conversation); err != nil {
		return domain.QueueEntry{}, fmt.Errorf("decode conversation of %s: %w", r.ID, err)
	}
	if err := json.Unmarshal(r.Analysis, &e.Analysis); err != nil {
		return domain.QueueEntry{}, fmt.Errorf("decode analysis of %s: %w", r.ID, err)
	}
	if len(r.Metadata) > 0 {
		if err := json.Unmarshal(r.Metadata, &e.Metadata); err != nil {
			return domain.QueueEntry{}, fmt.Errorf("decode metadata of %s: %w", r.ID, err)
		}
	}
	return e, nil
}

func scanQueueEntry(s rowScanner) (domain.QueueEntry, error) {
	var r queueRow
	if err := r.scan(s); err != nil {
		return domain.QueueEntry{}, fmt.Errorf("scan queue entry: %w", err)
	}
	return toQueueEntry(r)
}

// QueueRepository stores the story capture queue in Postgres.
type QueueRepository struct {
	db *sql.DB
}

var _ ports.QueueRepository = (*QueueRepository)(nil)

func NewQueueRepository(db *sql.DB) *QueueRepository {
	return &QueueRepository{db: db}
}

func (r *QueueRepository) Insert(ctx context.Context, entry domain.QueueEntry) error {
	row, err := toQueueRow(entry)
	if err != nil {
		return err
	}
	stmt := psql.Insert("story_capture_queue").Columns(queueColumns...).Values(
		row.ID, string(row.Conversation), string(row.Analysis), row.Status, row.Priority,
		row.Score, row.UserConsent, row.Attempts, row.CreatedAt,
		row.ProcessedAt, row.ArticleID, row.GovernanceDecisionID, string(row.Metadata),
	)
	if _, err := exec(ctx, r.db, stmt); err != nil {
		return fmt.Errorf("insert queue entry: %w", err)
	}
	return nil
}

func (r *QueueRepository) Get(ctx context.Context, id string) (domain.QueueEntry, error) {
	row, err := queryRow(ctx, r.db, psql.Select(queueColumns...).From("story_capture_queue").Where(sq.Eq{"id": id}))
	if err != nil {
		return domain.QueueEntry{}, err
	}
	entry, err := scanQueueEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.QueueEntry{}, fmt.Errorf("queue entry %s: %w", id, domain.ErrNotFound)
	}
	return entry, err
}

// Update rewrites the mutable columns of an entry.
func (r *QueueRepository) Update(ctx context.Context, entry domain.QueueEntry) error {
	row, err := toQueueRow(entry)
	if err != nil {
		return err
	}
	stmt := psql.Update("story_capture_queue").
		Set("status", row.Status).
		Set("priority", row.Priority).
		Set("auto_validation_score", row.Score).
		Set("user_consent", row.UserConsent).
		Set("attempts", row.Attempts).
		Set("processed_at", row.ProcessedAt).
		Set("newsroom_article_id", row.ArticleID).
		Set("governance_decision_id", row.GovernanceDecisionID).
		Set("metadata", string(row.Metadata)).
		Where(sq.Eq{"id": row.ID})

	res, err := exec(ctx, r.db, stmt)
	if err != nil {
		return fmt.Errorf("update queue entry: %w", err)
	}
	return expectAffected(res, "queue entry", row.ID)
}

func (r *QueueRepository) Pending(ctx context.Context, limit int) ([]domain.QueueEntry, error) {
	rows, err := query(ctx, r.db, pendingQueue(limit))
	if err != nil {
		return nil, fmt.Errorf("select pending: %w", err)
	}
	return collect(rows, scanQueueEntry)
}

func (r *QueueRepository) CountByStatus(ctx context.Context) (map[domain.QueueStatus]int, error) {
	rows, err := query(ctx, r.db, psql.Select("status", "COUNT(*)").From("story_capture_queue").GroupBy("status"))
	if err != nil {
		return nil, fmt.Errorf("count queue: %w", err)
	}

	type bucket struct {
		status string
		n      int
	}
	buckets, err := collect(rows, func(s rowScanner) (bucket, error) {
		var b bucket
		err := s.Scan(&b.status, &b.n)
		return b, err
	})
	if err != nil {
		return nil, err
	}

	counts := make(map[domain.QueueStatus]int, len(buckets))
	for _, b := range buckets {
		counts[domain.QueueStatus(b.status)] = b.n
	}
	return counts, nil
}

func (r *QueueRepository) OldestPending(ctx context.Context) (*time.Time, error) {
	row, err := queryRow(ctx, r.db, psql.Select("MIN(created_at)").From("story_capture_queue").
		Where(sq.Eq{"status": string(domain.QueuePending)}))
	if err != nil {
		return nil, err
	}
	var oldest sql.NullTime
	if err := row.Scan(&oldest); err != nil {
		return nil, fmt.Errorf("oldest pending: %w", err)
	}
	return timePtr(oldest), nil
}

func (r *QueueRepository) ListSince(ctx context.Context, since time.Time) ([]domain.QueueEntry, error) {
	rows, err := query(ctx, r.db, psql.Select(queueColumns...).From("story_capture_queue").
		Where(sq.GtOrEq{"created_at": since}).
		OrderBy("created_at ASC"))
	if err != nil {
		return nil, fmt.Errorf("list queue: %w", err)
	}
	return collect(rows, scanQueueEntry)
}

func pendingQueue(limit int) sq.SelectBuilder {
	b := psql.Select(queueColumns...).From("story_capture_queue").
		Where(sq.Eq{"status": string(domain.QueuePending)}).
		OrderBy(priorityRank, "created_at ASC")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	return b
}
