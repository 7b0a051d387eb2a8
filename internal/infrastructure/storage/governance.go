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

var decisionColumns = []string{
	"id", "type", "title", "description", "proposed_by", "status",
	"votes_for", "votes_against", "votes_abstain", "created_at", "voting_ends_at", "metadata",
}

var voteColumns = []string{"id", "decision_id", "user_id", "vote_type", "comments", "created_at"}

func scanDecision(s rowScanner) (domain.Decision, error) {
	var (
		d        domain.Decision
		typ      string
		status   string
		endsAt   sql.NullTime
		metadata []byte
	)
	if err := s.Scan(
		&d.ID, &typ, &d.Title, &d.Description, &d.ProposedBy, &status,
		&d.VotesFor, &d.VotesAgainst, &d.VotesAbstain, &d.CreatedAt, &endsAt, &metadata,
	); err != nil {
		return domain.Decision{}, fmt.Errorf("scan decision: %w", err)
	}
	d.Type = domain.DecisionType(typ)
	d.Status = domain.DecisionStatus(status)
	d.VotingEndsAt = timePtr(endsAt)
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &d.Metadata); err != nil {
			return domain.Decision{}, fmt.Errorf("decode decision metadata of %s: %w", d.ID, err)
		}
	}
	return d, nil
}

func scanVote(s rowScanner) (domain.Vote, error) {
	var (
		v       domain.Vote
		value   string
		comment sql.NullString
	)
	if err := s.Scan(&v.ID, &v.DecisionID, &v.UserID, &value, &comment, &v.CreatedAt); err != nil {
		return domain.Vote{}, fmt.Errorf("scan vote: %w", err)
	}
	v.Value = domain.VoteValue(value)
	v.Comment = comment.String
	return v, nil
}

// DecisionRepository stores governance decisions and votes in Postgres.
type DecisionRepository struct {
	db *sql.DB
}

var _ ports.DecisionRepository = (*DecisionRepository)(nil)

func NewDecisionRepository(db *sql.DB) *DecisionRepository {
	return &DecisionRepository{db: db}
}

func (r *DecisionRepository) Insert(ctx context.Context, d domain.Decision) error {
	metadata, err := json.Marshal(d.Metadata)
	if err != nil {
		return fmt.Errorf("encode decision metadata: %w", err)
	}
	stmt := psql.Insert("governance_decisions").Columns(decisionColumns...).Values(
		d.ID, string(d.Type), d.Title, d.Description, d.ProposedBy, string(d.Status),
		d.VotesFor, d.VotesAgainst, d.VotesAbstain, d.CreatedAt, nullTime(d.VotingEndsAt), string(metadata),
	)
	if _, err := exec(ctx, r.db, stmt); err != nil {
		return fmt.Errorf("insert decision: %w", err)
	}
	return nil
}

func (r *DecisionRepository) Get(ctx context.Context, id string) (domain.Decision, error) {
	return r.one(ctx, sq.Eq{"id": id}, "decision "+id)
}

// FindByStory returns the newest decision created for a story.
func (r *DecisionRepository) FindByStory(ctx context.Context, storyID string) (domain.Decision, error) {
	return r.one(ctx, sq.Expr("metadata->>'story_id' = ?", storyID), "decision for story "+storyID)
}

func (r *DecisionRepository) one(ctx context.Context, pred sq.Sqlizer, what string) (domain.Decision, error) {
	row, err := queryRow(ctx, r.db, psql.Select(decisionColumns...).From("governance_decisions").
		Where(pred).OrderBy("created_at DESC").Limit(1))
	if err != nil {
		return domain.Decision{}, err
	}
	d, err := scanDecision(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Decision{}, fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return d, err
}

func (r *DecisionRepository) SetStatus(ctx context.Context, id string, status domain.DecisionStatus) error {
	res, err := exec(ctx, r.db, psql.Update("governance_decisions").
		Set("status", string(status)).
		Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("update decision status: %w", err)
	}
	return expectAffected(res, "decision", id)
}

func (r *DecisionRepository) List(ctx context.Context, decisionType domain.DecisionType, statuses []domain.DecisionStatus, limit int) ([]domain.Decision, error) {
	rows, err := query(ctx, r.db, listDecisions(decisionType, statuses, limit))
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	return collect(rows, scanDecision)
}

func (r *DecisionRepository) ListSince(ctx context.Context, decisionType domain.DecisionType, since time.Time) ([]domain.Decision, error) {
	rows, err := query(ctx, r.db, psql.Select(decisionColumns...).From("governance_decisions").
		Where(sq.Eq{"type": string(decisionType)}).
		Where(sq.GtOrEq{"created_at": since}).
		OrderBy("created_at DESC"))
	if err != nil {
		return nil, fmt.Errorf("list decisions since: %w", err)
	}
	return collect(rows, scanDecision)
}

// HasVoted reports whether userID already voted on decisionID.
func (r *DecisionRepository) HasVoted(ctx context.Context, decisionID, userID string) (bool, error) {
	row, err := queryRow(ctx, r.db, psql.Select("id").From("governance_votes").
		Where(sq.Eq{"decision_id": decisionID, "user_id": userID}).Limit(1))
	if err != nil {
		return false, err
	}
	var id string
	switch err := row.Scan(&id); {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("check vote: %w", err)
	}
	return true, nil
}

func (r *DecisionRepository) InsertVote(ctx context.Context, v domain.Vote) error {
	stmt := psql.Insert("governance_votes").Columns(voteColumns...).Values(
		v.ID, v.DecisionID, v.UserID, string(v.Value), nullString(v.Comment), v.CreatedAt,
	)
	if _, err := exec(ctx, r.db, stmt); err != nil {
		return fmt.Errorf("insert vote: %w", err)
	}
	return nil
}

// IncrementVote bumps the decision counter matching value through increment_vote_count.
func (r *DecisionRepository) IncrementVote(ctx context.Context, decisionID string, value domain.VoteValue) error {
	if !value.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidVote, value)
	}
	stmt := psql.Select().Column(sq.Expr("increment_vote_count(?, ?)", decisionID, value.Counter()))
	if _, err := exec(ctx, r.db, stmt); err != nil {
		return fmt.Errorf("increment vote: %w", err)
	}
	return nil
}

func (r *DecisionRepository) VotesSince(ctx context.Context, since time.Time) ([]domain.Vote, error) {
	rows, err := query(ctx, r.db, psql.Select(voteColumns...).From("governance_votes").
		Where(sq.GtOrEq{"created_at": since}))
	if err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}
	return collect(rows, scanVote)
}

func listDecisions(decisionType domain.DecisionType, statuses []domain.DecisionStatus, limit int) sq.SelectBuilder {
	b := psql.Select(decisionColumns...).From("governance_decisions").
		Where(sq.Eq{"type": string(decisionType)}).
		OrderBy("created_at DESC")
	if len(statuses) > 0 {
		values := make([]string, len(statuses))
		for i, s := range statuses {
			values[i] = string(s)
		}
		b = b.Where(sq.Eq{"status": values})
	}
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	return b
}
