package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"StoryCurator/internal/analysis"
	"StoryCurator/internal/domain"
	"StoryCurator/internal/metrics"
	"StoryCurator/internal/ports"
	"StoryCurator/internal/scoring"
)

const (
	curationCandidateLimit = 50
	diversitySampleSize    = 20
	defaultFeaturedReason  = "Community curation"
	unknownLocation        = "Unknown"
	// trackedRegions is the number of major UK regions the diversity metric expects.
	trackedRegions = 6
)

// DefaultRules are seeded into an empty rule table and used whenever rules
// cannot be read.
func DefaultRules() []domain.CurationRule {
	return []domain.CurationRule{
		{
			Name:        "Community Consensus Priority",
			Description: "Stories with strong community validation get priority featuring",
			Criteria:    domain.RuleCriteria{MinCommunityVotes: 5, MinValidationScore: 4.0},
			Priority:    10,
		},
		{
			Name:        "National Impact Stories",
			Description: "Stories with national significance get automatic featuring",
			Criteria:    domain.RuleCriteria{RequiredImpactLevel: domain.ImpactNational, MinValidationScore: 3.5},
			Priority:    9,
		},
		{
			Name:        "Organizing Wins Priority",
			Description: "Community organizing victories get priority placement",
			Criteria: domain.RuleCriteria{
				RequiredCategories: []string{"Organizing", "Community News"},
				MinCommunityVotes:  3,
				MinValidationScore: 3.8,
			},
			Priority: 8,
		},
		{
			Name:        "Geographic Diversity",
			Description: "Ensure featured stories represent different UK regions",
			Criteria:    domain.RuleCriteria{GeographicDiversity: true, MinValidationScore: 3.5},
			Priority:    7,
		},
		{
			Name:        "Recent Community Wins",
			Description: "Recent community achievements get boosted visibility",
			Criteria: domain.RuleCriteria{
				RequiredCategories: []string{"Community News"},
				RecencyWeight:      0.8,
				MinValidationScore: 3.7,
			},
			Priority: 6,
		},
	}
}

// CurationOptions tunes featuring sessions.
type CurationOptions struct {
	MaxFeatured         int
	ScoreFloor          float64
	GeographicDiversity bool
}

// DefaultCurationOptions mirrors the shipped configuration.
func DefaultCurationOptions() CurationOptions {
	return CurationOptions{MaxFeatured: 8, ScoreFloor: 5.0, GeographicDiversity: true}
}

// SessionOptions overrides the defaults for one session.
type SessionOptions struct {
	Name        string
	MaxFeatured int
	// GeographicDiversity nil keeps the configured behaviour.
	GeographicDiversity *bool
}

// CurationDeps wires the rule engine.
type CurationDeps struct {
	Rules     ports.RuleRepository
	Log       ports.CurationLog
	Decisions ports.DecisionRepository
	Articles  ports.ArticleStore
	Events    ports.EventPublisher
	Logger    *slog.Logger
	Now       func() time.Time
	Options   CurationOptions
}

// Curation ranks approved stories against weighted rules and features the best.
type Curation struct {
	rules     ports.RuleRepository
	log       ports.CurationLog
	decisions ports.DecisionRepository
	articles  ports.ArticleStore
	events    ports.EventPublisher
	logger    *slog.Logger
	now       func() time.Time
	opts      CurationOptions
}

// NewCuration constructs the rule engine.
func NewCuration(deps CurationDeps) *Curation {
	opts := deps.Options
	def := DefaultCurationOptions()
	if opts.MaxFeatured <= 0 {
		opts.MaxFeatured = def.MaxFeatured
	}
	if opts.ScoreFloor <= 0 {
		opts.ScoreFloor = def.ScoreFloor
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Curation{
		rules:     deps.Rules,
		log:       deps.Log,
		decisions: deps.Decisions,
		articles:  deps.Articles,
		events:    deps.Events,
		logger:    orDiscard(deps.Logger),
		now:       now,
		opts:      opts,
	}
}

// EnsureDefaultRules inserts the default rules whose names are missing.
func (c *Curation) EnsureDefaultRules(ctx context.Context) (int, error) {
	names, err := c.rules.Names(ctx)
	if err != nil {
		return 0, fmt.Errorf("list rule names: %w", err)
	}
	existing := make(map[string]bool, len(names))
	for _, n := range names {
		existing[n] = true
	}

	now := c.now()
	var missing []domain.CurationRule
	for _, rule := range DefaultRules() {
		if existing[rule.Name] {
			continue
		}
		rule.ID = uuid.NewString()
		rule.Active = true
		rule.CreatedBy = "system"
		rule.CreatedAt = now
		missing = append(missing, rule)
	}
	if len(missing) == 0 {
		return 0, nil
	}
	if err := c.rules.Insert(ctx, missing); err != nil {
		return 0, fmt.Errorf("insert default rules: %w", err)
	}
	c.logger.Info("default curation rules created", "count", len(missing))
	return len(missing), nil
}

// candidate is one article under evaluation together with its signals.
type candidate struct {
	article  domain.Article
	votes    int
	score    float64
	location string
	impact   domain.ImpactLevel
}

// RunSession scores approved stories against the active rules, features the
// best ones and appends the session to the audit log.
func (c *Curation) RunSession(ctx context.Context, opts SessionOptions) (domain.CurationSession, error) {
	started := c.now()
	session := domain.CurationSession{
		ID:           uuid.NewString(),
		Name:         opts.Name,
		StartedAt:    started,
		Status:       domain.SessionRunning,
		AppliedRules: []string{},
		Metadata: domain.SessionMetadata{
			Geographic: domain.Distribution{},
			Category:   domain.Distribution{},
			Impact:     domain.Distribution{},
		},
	}
	if session.Name == "" {
		session.Name = "Automated Curation " + started.UTC().Format(time.RFC3339)
	}
	maxFeatured := opts.MaxFeatured
	if maxFeatured <= 0 {
		maxFeatured = c.opts.MaxFeatured
	}
	diversity := c.opts.GeographicDiversity
	if opts.GeographicDiversity != nil {
		diversity = *opts.GeographicDiversity
	}

	candidates, err := c.candidates(ctx)
	if err != nil {
		session.Status = domain.SessionFailed
		session.Outcome = "Error: " + err.Error()
		c.finish(ctx, &session)
		return session, fmt.Errorf("load curation candidates: %w", err)
	}
	if len(candidates) == 0 {
		session.Outcome = "No stories available"
		c.finish(ctx, &session)
		return session, nil
	}

	rules := c.activeRules(ctx)
	bonus := c.diversityBonus(ctx)

	var ranked []domain.CurationResult
	for _, cand := range candidates {
		session.StoriesReviewed++
		if result, ok := c.evaluate(cand, rules, bonus); ok {
			result.SessionID = session.ID
			ranked = append(ranked, result)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].CurationScore > ranked[j].CurationScore })
	if diversity {
		ranked = capPerLocation(ranked, maxFeatured)
	}
	if len(ranked) > maxFeatured {
		ranked = ranked[:maxFeatured]
	}

	featured := make([]domain.CurationResult, 0, len(ranked))
	seenRules := map[string]bool{}
	for _, result := range ranked {
		flag := true
		priority := "medium"
		if result.ImpactLevel == domain.ImpactNational {
			priority = "high"
		}
		updated, err := c.articles.Update(ctx, result.StoryID, domain.ArticlePatch{Featured: &flag, Priority: &priority})
		if err != nil {
			c.logger.Warn("feature curated story", "story_id", result.StoryID, "error", err)
			continue
		}
		result.Article = updated
		featured = append(featured, result)
		metrics.StoriesFeatured.WithLabelValues("curation").Inc()
		announce(ctx, c.events, c.logger, domain.SubjectArticleUpdated, updated)

		location := result.GeographicLocation
		if location == "" {
			location = unknownLocation
		}
		session.Metadata.Geographic[location]++
		session.Metadata.Category[updated.Category]++
		session.Metadata.Impact[string(result.ImpactLevel)]++
		session.StoriesFeatured++
		for _, name := range result.AppliedRules {
			if !seenRules[name] {
				seenRules[name] = true
				session.AppliedRules = append(session.AppliedRules, name)
			}
		}
	}

	if len(featured) > 0 {
		if err := c.log.InsertResults(ctx, featured); err != nil {
			c.logger.Error("store curation results", "session_id", session.ID, "error", err)
		}
	}

	session.SuccessRate = percent(session.StoriesFeatured, session.StoriesReviewed)
	session.Outcome = "Success"
	c.finish(ctx, &session)

	c.logger.Info("curation session complete", "session_id", session.ID, "featured", session.StoriesFeatured, "reviewed", session.StoriesReviewed)
	return session, nil
}

func (c *Curation) finish(ctx context.Context, session *domain.CurationSession) {
	completed := c.now()
	session.CompletedAt = &completed
	if session.Status != domain.SessionFailed {
		session.Status = domain.SessionCompleted
	}
	if err := c.log.InsertSession(ctx, *session); err != nil {
		c.logger.Error("store curation session", "session_id", session.ID, "error", err)
	}
	announce(ctx, c.events, c.logger, domain.SubjectCurationCompleted, session)
}

// candidates loads the articles behind approved validation decisions.
func (c *Curation) candidates(ctx context.Context) ([]candidate, error) {
	approved, err := c.decisions.List(ctx, domain.DecisionStoryValidation, []domain.DecisionStatus{domain.DecisionApproved}, curationCandidateLimit)
	if err != nil {
		return nil, err
	}

	out := make([]candidate, 0, len(approved))
	seen := map[string]bool{}
	for _, d := range approved {
		id := d.Metadata.StoryID
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		article, err := c.articles.Get(ctx, id)
		if err != nil {
			c.logger.Warn("load story for curation", "story_id", id, "error", err)
			continue
		}
		text := article.Title + " " + article.Excerpt + " " + article.Content
		out = append(out, candidate{
			article:  article,
			votes:    d.TotalVotes(),
			score:    scoring.Score(scoring.CurationSubject(article), scoring.CurationProfile),
			location: analysis.DetectLocation(text),
			impact:   analysis.AssessImpact(text),
		})
	}
	return out, nil
}

// activeRules returns the active rules, highest priority first, falling back
// to the defaults when the store fails or is empty.
func (c *Curation) activeRules(ctx context.Context) []domain.CurationRule {
	rules, err := c.rules.Active(ctx)
	if err != nil {
		c.logger.Warn("load curation rules, using defaults", "error", err)
	}
	if err != nil || len(rules) == 0 {
		rules = DefaultRules()
		for i := range rules {
			rules[i].ID = "default-" + strings.ReplaceAll(strings.ToLower(rules[i].Name), " ", "-")
			rules[i].Active = true
		}
	}
	active := rules[:0:0]
	for _, r := range rules {
		if r.Active {
			active = append(active, r)
		}
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].Priority > active[j].Priority })
	return active
}

// diversityBonus samples the currently featured stories once per session and
// returns a bonus that favours locations they under-represent.
func (c *Curation) diversityBonus(ctx context.Context) func(location string) float64 {
	featured := true
	page, err := c.articles.List(ctx, domain.ArticleFilter{
		Featured: &featured,
		Status:   domain.ArticlePublished,
		Limit:    diversitySampleSize,
	})
	if err != nil {
		c.logger.Warn("sample featured stories", "error", err)
		return func(string) float64 { return 0.5 }
	}

	counts := map[string]int{}
	for _, a := range page.Articles {
		loc := analysis.DetectLocation(a.Title + " " + a.Excerpt + " " + a.Content)
		if loc == "" {
			loc = unknownLocation
		}
		counts[loc]++
	}
	total := len(page.Articles)

	return func(location string) float64 {
		if total == 0 {
			return 1.0
		}
		share := float64(counts[location]) / float64(total)
		switch {
		case share < 0.1:
			return 1.0
		case share < 0.2:
			return 0.5
		case share < 0.3:
			return 0.2
		default:
			return 0
		}
	}
}

func (c *Curation) evaluate(cand candidate, rules []domain.CurationRule, bonus func(string) float64) (domain.CurationResult, bool) {
	total := 0.0
	applied := []string{}
	reason := defaultFeaturedReason

	for _, rule := range rules {
		points := c.rulePoints(rule.Criteria, cand, bonus)
		if points <= 0 {
			continue
		}
		total += points * float64(rule.Priority) / 10
		applied = append(applied, rule.Name)
		if rule.Priority >= 9 {
			reason = rule.Description
		}
	}

	if total < c.opts.ScoreFloor {
		return domain.CurationResult{}, false
	}
	return domain.CurationResult{
		StoryID:            cand.article.ID,
		Article:            cand.article,
		CurationScore:      scoring.Round1(total),
		AppliedRules:       applied,
		FeaturedReason:     reason,
		CommunityVotes:     cand.votes,
		ValidationScore:    cand.score,
		GeographicLocation: cand.location,
		ImpactLevel:        cand.impact,
		CreatedAt:          c.now(),
	}, true
}

func (c *Curation) rulePoints(criteria domain.RuleCriteria, cand candidate, bonus func(string) float64) float64 {
	points := 0.0
	if criteria.MinCommunityVotes > 0 && cand.votes >= criteria.MinCommunityVotes {
		points += 2.0
	}
	if criteria.MinValidationScore > 0 && cand.score >= criteria.MinValidationScore {
		points += 1.5
	}
	if criteria.RequiredImpactLevel != "" && cand.impact == criteria.RequiredImpactLevel {
		switch criteria.RequiredImpactLevel {
		case domain.ImpactNational:
			points += 3.0
		case domain.ImpactLocal:
			points += 2.0
		default:
			points += 1.0
		}
	}
	for _, category := range criteria.RequiredCategories {
		if category == cand.article.Category {
			points += 1.5
			break
		}
	}
	if criteria.GeographicDiversity && cand.location != "" {
		points += bonus(cand.location)
	}
	if criteria.RecencyWeight > 0 && cand.article.PublishedAt != nil {
		days := c.now().Sub(*cand.article.PublishedAt).Hours() / 24
		points += math.Max(0, (7-days)/7) * criteria.RecencyWeight
	}
	return points
}

// capPerLocation keeps at most a quarter of maxFeatured per location. It only
// applies when there are enough candidates to fill every slot.
func capPerLocation(ranked []domain.CurationResult, maxFeatured int) []domain.CurationResult {
	if len(ranked) < maxFeatured {
		return ranked
	}
	perLocation := max(1, maxFeatured/4)

	counts := map[string]int{}
	out := make([]domain.CurationResult, 0, maxFeatured)
	for _, r := range ranked {
		loc := r.GeographicLocation
		if loc == "" {
			loc = unknownLocation
		}
		if counts[loc] >= perLocation {
			continue
		}
		counts[loc]++
		out = append(out, r)
		if len(out) == maxFeatured {
			break
		}
	}
	return out
}

// Metrics summarises sessions and results in the timeframe.
func (c *Curation) Metrics(ctx context.Context, timeframe domain.Timeframe) (domain.CurationMetrics, error) {
	since := timeframe.Since(c.now())
	sessions, err := c.log.SessionsSince(ctx, since)
	if err != nil {
		return domain.CurationMetrics{}, fmt.Errorf("list sessions: %w", err)
	}
	results, err := c.log.ResultsSince(ctx, since)
	if err != nil {
		return domain.CurationMetrics{}, fmt.Errorf("list results: %w", err)
	}

	m := domain.CurationMetrics{
		TotalSessions:       len(sessions),
		TotalStoriesCurated: len(results),
	}
	locations := map[string]struct{}{}
	sum := 0.0
	for _, r := range results {
		sum += r.CurationScore
		if r.GeographicLocation != "" {
			locations[r.GeographicLocation] = struct{}{}
		}
	}
	if len(results) > 0 {
		m.AvgCurationScore = scoring.Round1(sum / float64(len(results)))
	}
	m.GeographicDiversityScore = math.Round(math.Min(float64(len(locations))/trackedRegions*100, 100))
	return m, nil
}
