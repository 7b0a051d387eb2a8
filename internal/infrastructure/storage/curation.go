package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"StoryCurator/internal/domain"
	"StoryCurator/internal/ports"
)

var ruleColumns = []string{"id", "name", "description", "criteria", "priority", "active", "created_by", "created_at"}

var resultColumns = []string{
	"session_id", "story_id", "curation_score", "applied_rules", "featured_reason",
	"community_votes", "validation_score", "geographic_location", "impact_level", "created_at",
}

var sessionColumns = []string{
	"id", "session_name", "started_at", "completed_at", "status", "stories_reviewed",
	"stories_featured", "applied_rules", "success_rate", "outcome", "metadata",
}

// CurationRepository keeps curation rules plus the session audit trail.
type CurationRepository struct {
	db *sql.DB
}

var (
	_ ports.RuleRepository = (*CurationRepository)(nil)
	_ ports.CurationLog    = (*CurationRepository)(nil)
)

func NewCurationRepository(db *sql.DB) *CurationRepository {
	return &CurationRepository{db: db}
}

// Active returns enabled rules, highest priority first.
func (r *CurationRepository) Active(ctx context.Context) ([]domain.CurationRule, error) {
	rows, err := query(ctx, r.db, psql.Select(ruleColumns...).From("curation_rules").
		Where(sq.Eq{"active": true}).
		OrderBy("priority DESC"))
	if err != nil {
		return nil, fmt.Errorf("select rules: %w", err)
	}
	return collect(rows, func(s rowScanner) (domain.CurationRule, error) {
		var (
			rule     domain.CurationRule
			criteria []byte
		)
		if err := s.Scan(&rule.ID, &rule.Name, &rule.Description, &criteria, &rule.Priority,
			&rule.Active, &rule.CreatedBy, &rule.CreatedAt); err != nil {
			return domain.CurationRule{}, fmt.Errorf("scan rule: %w", err)
		}
		if err := json.Unmarshal(criteria, &rule.Criteria); err != nil {
			return domain.CurationRule{}, fmt.Errorf("decode criteria of rule %s: %w", rule.Name, err)
		}
		return rule, nil
	})
}

func (r *CurationRepository) Names(ctx context.Context) ([]string, error) {
	rows, err := query(ctx, r.db, psql.Select("name").From("curation_rules"))
	if err != nil {
		return nil, fmt.Errorf("select rule names: %w", err)
	}
	return collect(rows, func(s rowScanner) (string, error) {
		var name string
		err := s.Scan(&name)
		return name, err
	})
}

// Insert adds rules, skipping names that already exist.
func (r *CurationRepository) Insert(ctx context.Context, rules []domain.CurationRule) error {
	if len(rules) == 0 {
		return nil
	}
	stmt := psql.Insert("curation_rules").Columns(ruleColumns...).Suffix("ON CONFLICT (name) DO NOTHING")
	for _, rule := range rules {
		criteria, err := json.Marshal(rule.Criteria)
		if err != nil {
			return fmt.Errorf("encode criteria of rule %s: %w", rule.Name, err)
		}
		stmt = stmt.Values(rule.ID, rule.Name, rule.Description, string(criteria), rule.Priority,
			rule.Active, rule.CreatedBy, rule.CreatedAt)
	}
	if _, err := exec(ctx, r.db, stmt); err != nil {
		return fmt.Errorf("insert rules: %w", err)
	}
	return nil
}

func (r *CurationRepository) InsertResults(ctx context.Context, results []domain.CurationResult) error {
	if len(results) == 0 {
		return nil
	}
	stmt := psql.Insert("curation_results").Columns(resultColumns...)
	for _, res := range results {
		stmt = stmt.Values(res.SessionID, res.StoryID, res.CurationScore, textArray(res.AppliedRules),
			res.FeaturedReason, res.CommunityVotes, res.ValidationScore,
			nullString(res.GeographicLocation), string(res.ImpactLevel), res.CreatedAt)
	}
	if _, err := exec(ctx, r.db, stmt); err != nil {
		return fmt.Errorf("insert curation results: %w", err)
	}
	return nil
}

func (r *CurationRepository) InsertSession(ctx context.Context, s domain.CurationSession) error {
	metadata, err := json.Marshal(s.Metadata)
	if err != nil {
		return fmt.Errorf("encode session metadata: %w", err)
	}
	stmt := psql.Insert("curation_sessions").Columns(sessionColumns...).Values(
		s.ID, s.Name, s.StartedAt, nullTime(s.CompletedAt), string(s.Status), s.StoriesReviewed,
		s.StoriesFeatured, textArray(s.AppliedRules), s.SuccessRate, s.Outcome, string(metadata),
	)
	if _, err := exec(ctx, r.db, stmt); err != nil {
		return fmt.Errorf("insert curation session: %w", err)
	}
	return nil
}

func (r *CurationRepository) SessionsSince(ctx context.Context, since time.Time) ([]domain.CurationSession, error) {
	rows, err := query(ctx, r.db, psql.Select(sessionColumns...).From("curation_sessions").
		Where(sq.GtOrEq{"started_at": since}).
		OrderBy("started_at DESC"))
	if err != nil {
		return nil, fmt.Errorf("select sessions: %w", err)
	}
	return collect(rows, func(sc rowScanner) (domain.CurationSession, error) {
		var (
			s           domain.CurationSession
			completedAt sql.NullTime
			status      string
			rules       pq.StringArray
			metadata    []byte
		)
		if err := sc.Scan(&s.ID, &s.Name, &s.StartedAt, &completedAt, &status, &s.StoriesReviewed,
			&s.StoriesFeatured, &rules, &s.SuccessRate, &s.Outcome, &metadata); err != nil {
			return domain.CurationSession{}, fmt.Errorf("scan session: %w", err)
		}
		s.CompletedAt = timePtr(completedAt)
		s.Status = domain.SessionStatus(status)
		s.AppliedRules = []string(rules)
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &s.Metadata); err != nil {
				return domain.CurationSession{}, fmt.Errorf("decode session metadata of %s: %w", s.ID, err)
			}
		}
		return s, nil
	})
}

func (r *CurationRepository) ResultsSince(ctx context.Context, since time.Time) ([]domain.CurationResult, error) {
	rows, err := query(ctx, r.db, psql.Select(resultColumns...).From("curation_results").
		Where(sq.GtOrEq{"created_at": since}))
	if err != nil {
		return nil, fmt.Errorf("select curation results: %w", err)
	}
	return collect(rows, func(s rowScanner) (domain.CurationResult, error) {
		var (
			res      domain.CurationResult
			rules    pq.StringArray
			location sql.NullString
			impact   string
		)
		if err := s.Scan(&res.SessionID, &res.StoryID, &res.CurationScore, &rules, &res.FeaturedReason,
			&res.CommunityVotes, &res.ValidationScore, &location, &impact, &res.CreatedAt); err != nil {
			return domain.CurationResult{}, fmt.Errorf("scan curation result: %w", err)
		}
		res.AppliedRules = []string(rules)
		res.GeographicLocation = location.String
		res.ImpactLevel = domain.ImpactLevel(impact)
		return res, nil
	})
}
