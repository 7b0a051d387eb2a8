package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"StoryCurator/internal/domain"
	"StoryCurator/internal/metrics"
	"StoryCurator/internal/ports"
	"StoryCurator/internal/scoring"
)

const (
	activeDecisionLimit   = 10
	fallbackFeaturedLimit = 5
	minFeaturingCriteria  = 3
	maxAverageWordLength  = 6.0
	dashboardWindow       = 7 * 24 * time.Hour
)

// Featuring criteria names reported by CurateForFeaturing.
const (
	CriterionCommunityApproval  = "community_approval"
	CriterionValidationScore    = "validation_score"
	CriterionRequiredTags       = "required_tags"
	CriterionEditorialStandards = "editorial_standards"
)

var (
	liberationKeywords     = []string{"liberation", "freedom", "justice", "organizing", "community power"}
	communityCentreMarkers = []string{"community", "collective", "mutual aid", "solidarity", "grassroots"}

	decisionNationalMarkers = []string{"national", "uk-wide", "britain"}
	decisionLocalMarkers    = []string{"community", "local", "city"}
)

// GovernanceOptions tunes validation and featuring.
type GovernanceOptions struct {
	AutoApproveScore float64
	VotingPeriod     time.Duration
	Quorum           int
	CurationLimit    int
	MinFeatureVotes  int
	MinFeatureScore  float64
	RequiredTags     []string
}

// DefaultGovernanceOptions mirrors the shipped configuration.
func DefaultGovernanceOptions() GovernanceOptions {
	return GovernanceOptions{
		AutoApproveScore: 4.0,
		VotingPeriod:     7 * 24 * time.Hour,
		Quorum:           3,
		CurationLimit:    20,
		MinFeatureVotes:  3,
		MinFeatureScore:  4.0,
		RequiredTags:     []string{"BlackQueer", "CommunityPower"},
	}
}

// GovernanceDeps wires the gateway.
type GovernanceDeps struct {
	Decisions ports.DecisionRepository
	Articles  ports.ArticleStore
	Events    ports.EventPublisher
	Logger    *slog.Logger
	Now       func() time.Time
	Options   GovernanceOptions
}

// Governance routes drafts through community validation and featuring.
type Governance struct {
	decisions ports.DecisionRepository
	articles  ports.ArticleStore
	events    ports.EventPublisher
	logger    *slog.Logger
	now       func() time.Time
	opts      GovernanceOptions
}

var _ Validator = (*Governance)(nil)

// NewGovernance constructs the gateway.
func NewGovernance(deps GovernanceDeps) *Governance {
	opts := deps.Options
	def := DefaultGovernanceOptions()
	if opts.AutoApproveScore <= 0 {
		opts.AutoApproveScore = def.AutoApproveScore
	}
	if opts.VotingPeriod <= 0 {
		opts.VotingPeriod = def.VotingPeriod
	}
	if opts.Quorum <= 0 {
		opts.Quorum = def.Quorum
	}
	if opts.CurationLimit <= 0 {
		opts.CurationLimit = def.CurationLimit
	}
	if opts.MinFeatureVotes <= 0 {
		opts.MinFeatureVotes = def.MinFeatureVotes
	}
	if opts.MinFeatureScore <= 0 {
		opts.MinFeatureScore = def.MinFeatureScore
	}
	if len(opts.RequiredTags) == 0 {
		opts.RequiredTags = def.RequiredTags
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Governance{
		decisions: deps.Decisions,
		articles:  deps.Articles,
		events:    deps.Events,
		logger:    orDiscard(deps.Logger),
		now:       now,
		opts:      opts,
	}
}

// SubmitForValidation scores an article and opens a validation decision for it.
// Articles scoring at or above the auto-approve threshold are approved at once.
// A story that already has an open or approved decision gets that decision
// back; only a rejected story can be resubmitted.
func (g *Governance) SubmitForValidation(ctx context.Context, storyID string, submissionType domain.SubmissionType, submittedBy string) (domain.Decision, error) {
	article, err := g.articles.Get(ctx, storyID)
	if err != nil {
		return domain.Decision{}, fmt.Errorf("load story %s: %w", storyID, err)
	}

	existing, err := g.decisions.FindByStory(ctx, storyID)
	switch {
	case err == nil && existing.Status != domain.DecisionRejected:
		g.logger.Debug("story already under validation", "story_id", storyID, "decision_id", existing.ID)
		return existing, nil
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return domain.Decision{}, fmt.Errorf("find decision for story %s: %w", storyID, err)
	}

	score := scoring.Score(scoring.GovernanceSubject(article), scoring.GovernanceProfile)
	now := g.now()

	decision := domain.Decision{
		ID:          uuid.NewString(),
		Type:        domain.DecisionStoryValidation,
		Title:       fmt.Sprintf("Validate Community Story: \"%s\"", article.Title),
		Description: fmt.Sprintf("Community validation requested for story submitted via %s. Auto-validation score: %.1f/5.0", submissionType, score),
		ProposedBy:  submittedBy,
		CreatedAt:   now,
		Metadata: domain.DecisionMetadata{
			StoryID:       storyID,
			ImpactLevel:   decisionImpact(article),
			CommunityTags: slices.Clone(article.Tags),
		},
	}
	if score >= g.opts.AutoApproveScore {
		decision.Status = domain.DecisionApproved
		decision.VotesFor = 1
	} else {
		ends := now.Add(g.opts.VotingPeriod)
		decision.Status = domain.DecisionVoting
		decision.VotingEndsAt = &ends
	}

	if err := g.decisions.Insert(ctx, decision); err != nil {
		return domain.Decision{}, fmt.Errorf("insert decision: %w", err)
	}

	g.logger.Info("story submitted for validation", "story_id", storyID, "decision_id", decision.ID, "score", score, "status", decision.Status)
	announce(ctx, g.events, g.logger, domain.SubjectDecisionCreated, decision)
	if decision.Status == domain.DecisionApproved {
		metrics.DecisionsClosed.WithLabelValues(string(domain.DecisionApproved)).Inc()
	}
	return decision, nil
}

// CastVote records one vote per user and decision. It returns false without
// touching the counters when the user has already voted. The duplicate check
// and the insert are separate steps, so two simultaneous votes by the same
// user can both land.
func (g *Governance) CastVote(ctx context.Context, decisionID, userID string, value domain.VoteValue, comment string) (bool, error) {
	if !value.Valid() {
		return false, fmt.Errorf("vote %q: %w", value, domain.ErrInvalidVote)
	}
	if _, err := g.decisions.Get(ctx, decisionID); err != nil {
		return false, fmt.Errorf("load decision: %w", err)
	}

	voted, err := g.decisions.HasVoted(ctx, decisionID, userID)
	if err != nil {
		return false, fmt.Errorf("check existing vote: %w", err)
	}
	if voted {
		g.logger.Debug("duplicate vote ignored", "decision_id", decisionID, "user_id", userID)
		return false, nil
	}

	vote := domain.Vote{
		ID:         uuid.NewString(),
		DecisionID: decisionID,
		UserID:     userID,
		Value:      value,
		Comment:    comment,
		CreatedAt:  g.now(),
	}
	if err := g.decisions.InsertVote(ctx, vote); err != nil {
		return false, fmt.Errorf("insert vote: %w", err)
	}
	if err := g.decisions.IncrementVote(ctx, decisionID, value); err != nil {
		return false, fmt.Errorf("increment vote count: %w", err)
	}
	metrics.VotesCast.WithLabelValues(string(value)).Inc()

	if _, err := g.CheckCompletion(ctx, decisionID); err != nil {
		g.logger.Warn("check voting completion", "decision_id", decisionID, "error", err)
	}
	return true, nil
}

// CheckCompletion closes a voting decision once quorum is reached or its
// deadline has passed. Approval needs strictly more votes for than against.
func (g *Governance) CheckCompletion(ctx context.Context, decisionID string) (domain.Decision, error) {
	decision, err := g.decisions.Get(ctx, decisionID)
	if err != nil {
		return domain.Decision{}, fmt.Errorf("load decision: %w", err)
	}
	return g.complete(ctx, decision)
}

func (g *Governance) complete(ctx context.Context, decision domain.Decision) (domain.Decision, error) {
	if decision.Status != domain.DecisionVoting {
		return decision, nil
	}

	expired := decision.VotingEndsAt != nil && g.now().After(*decision.VotingEndsAt)
	if decision.TotalVotes() < g.opts.Quorum && !expired {
		return decision, nil
	}

	status := domain.DecisionRejected
	if decision.VotesFor > decision.VotesAgainst {
		status = domain.DecisionApproved
	}
	if err := g.decisions.SetStatus(ctx, decision.ID, status); err != nil {
		return domain.Decision{}, fmt.Errorf("close decision %s: %w", decision.ID, err)
	}
	decision.Status = status

	metrics.DecisionsClosed.WithLabelValues(string(status)).Inc()
	g.logger.Info("voting completed", "decision_id", decision.ID, "status", status, "votes", decision.TotalVotes())
	announce(ctx, g.events, g.logger, domain.SubjectDecisionDecided, decision)
	return decision, nil
}

// CloseExpired runs the completion check over every open vote and returns
// how many decisions it closed.
func (g *Governance) CloseExpired(ctx context.Context) (int, error) {
	open, err := g.decisions.List(ctx, domain.DecisionStoryValidation, []domain.DecisionStatus{domain.DecisionVoting}, 0)
	if err != nil {
		return 0, fmt.Errorf("list open decisions: %w", err)
	}

	closed := 0
	for _, d := range open {
		updated, err := g.complete(ctx, d)
		if err != nil {
			g.logger.Warn("close decision", "decision_id", d.ID, "error", err)
			continue
		}
		if updated.Status != domain.DecisionVoting {
			closed++
		}
	}
	return closed, nil
}

// CurateForFeaturing features approved stories that meet at least three of
// the four featuring criteria. With no approved decisions, or when decisions
// cannot be read, it reports the currently featured published articles.
func (g *Governance) CurateForFeaturing(ctx context.Context) (domain.FeaturingReport, error) {
	approved, err := g.decisions.List(ctx, domain.DecisionStoryValidation, []domain.DecisionStatus{domain.DecisionApproved}, g.opts.CurationLimit)
	if err != nil {
		g.logger.Warn("load approved decisions", "error", err)
		return g.fallbackFeaturing(ctx, domain.FeaturingReport{})
	}

	report := domain.FeaturingReport{
		TotalReviewed: len(approved),
		Featured:      []domain.Article{},
		CriteriaMet:   []string{},
	}
	if len(approved) == 0 {
		return g.fallbackFeaturing(ctx, report)
	}

	for _, decision := range approved {
		storyID := decision.Metadata.StoryID
		if storyID == "" {
			continue
		}
		article, err := g.articles.Get(ctx, storyID)
		if err != nil {
			g.logger.Warn("load story for featuring", "story_id", storyID, "error", err)
			continue
		}

		met := g.featuringCriteria(article, decision)
		if len(met) >= minFeaturingCriteria {
			featured := true
			priority := "medium"
			if decision.Metadata.ImpactLevel == domain.ImpactNational {
				priority = "high"
			}
			updated, err := g.articles.Update(ctx, storyID, domain.ArticlePatch{Featured: &featured, Priority: &priority})
			if err != nil {
				g.logger.Warn("feature story", "story_id", storyID, "error", err)
			} else {
				report.Featured = append(report.Featured, updated)
				report.FeaturedCount++
				report.CriteriaMet = append(report.CriteriaMet, met...)
				metrics.StoriesFeatured.WithLabelValues("governance").Inc()
				announce(ctx, g.events, g.logger, domain.SubjectArticleUpdated, updated)
			}
		}

		report.CommunityInput += decision.TotalVotes()
	}

	g.logger.Info("story featuring complete", "featured", report.FeaturedCount, "reviewed", report.TotalReviewed)
	return report, nil
}

func (g *Governance) fallbackFeaturing(ctx context.Context, report domain.FeaturingReport) (domain.FeaturingReport, error) {
	featured := true
	page, err := g.articles.List(ctx, domain.ArticleFilter{
		Featured: &featured,
		Status:   domain.ArticlePublished,
		Limit:    fallbackFeaturedLimit,
	})
	if err != nil {
		return report, fmt.Errorf("load featured articles: %w", err)
	}
	report.Featured = page.Articles
	if report.CriteriaMet == nil {
		report.CriteriaMet = []string{}
	}
	return report, nil
}

func (g *Governance) featuringCriteria(article domain.Article, decision domain.Decision) []string {
	var met []string
	if decision.VotesFor >= g.opts.MinFeatureVotes {
		met = append(met, CriterionCommunityApproval)
	}
	if scoring.Score(scoring.GovernanceSubject(article), scoring.GovernanceProfile) >= g.opts.MinFeatureScore {
		met = append(met, CriterionValidationScore)
	}
	if slices.ContainsFunc(g.opts.RequiredTags, func(tag string) bool { return slices.Contains(article.Tags, tag) }) {
		met = append(met, CriterionRequiredTags)
	}
	if meetsEditorialStandards(article) {
		met = append(met, CriterionEditorialStandards)
	}
	return met
}

// meetsEditorialStandards wants a liberation focus, a community focus and an
// average word length of at most six characters across title and excerpt.
func meetsEditorialStandards(article domain.Article) bool {
	text := strings.ToLower(article.Title + " " + article.Excerpt)
	if !containsAnyOf(text, liberationKeywords) || !containsAnyOf(text, communityCentreMarkers) {
		return false
	}

	words := strings.Split(text, " ")
	letters := 0
	for _, w := range words {
		letters += utf8.RuneCountInString(w)
	}
	return float64(letters)/float64(len(words)) <= maxAverageWordLength
}

func decisionImpact(article domain.Article) domain.ImpactLevel {
	text := strings.ToLower(article.Title + " " + article.Excerpt + " " + article.Content)
	switch {
	case containsAnyOf(text, decisionNationalMarkers):
		return domain.ImpactNational
	case containsAnyOf(text, decisionLocalMarkers):
		return domain.ImpactLocal
	default:
		return domain.ImpactIndividual
	}
}

func containsAnyOf(text string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

// Dashboard gathers open decisions plus a week of voting and validation activity.
func (g *Governance) Dashboard(ctx context.Context) (domain.GovernanceDashboard, error) {
	active, err := g.decisions.List(ctx, domain.DecisionStoryValidation,
		[]domain.DecisionStatus{domain.DecisionProposed, domain.DecisionVoting}, activeDecisionLimit)
	if err != nil {
		return domain.GovernanceDashboard{}, fmt.Errorf("list active decisions: %w", err)
	}
	voting, err := g.decisions.List(ctx, domain.DecisionStoryValidation, []domain.DecisionStatus{domain.DecisionVoting}, 0)
	if err != nil {
		return domain.GovernanceDashboard{}, fmt.Errorf("list validation queue: %w", err)
	}

	since := g.now().Add(-dashboardWindow)
	votes, err := g.decisions.VotesSince(ctx, since)
	if err != nil {
		return domain.GovernanceDashboard{}, fmt.Errorf("list recent votes: %w", err)
	}
	recent, err := g.decisions.ListSince(ctx, domain.DecisionStoryValidation, since)
	if err != nil {
		return domain.GovernanceDashboard{}, fmt.Errorf("list recent decisions: %w", err)
	}

	voters := map[string]struct{}{}
	for _, v := range votes {
		voters[v.UserID] = struct{}{}
	}
	var approved, rejected int
	for _, d := range recent {
		switch d.Status {
		case domain.DecisionApproved:
			approved++
		case domain.DecisionRejected:
			rejected++
		}
	}

	if active == nil {
		active = []domain.Decision{}
	}
	return domain.GovernanceDashboard{
		ActiveDecisions:  active,
		ValidationQueue:  len(voting),
		TotalVoters:      len(voters),
		RecentActivity:   len(votes),
		EngagementRate:   percent(len(votes), len(recent)),
		StoriesValidated: len(recent),
		ApprovedThisWeek: approved,
		RejectionRate:    percent(rejected, len(recent)),
	}, nil
}
