package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"StoryCurator/internal/domain"
)

func strongArticle() domain.Article {
	return domain.Article{
		Title:   "Black queer community organizing for liberation in London",
		Excerpt: "Trans and QTIPOC mutual aid solidarity across the UK, with LGBTQ elders.",
		Content: strings.Repeat("Neighbours kept each other housed and fed all winter. ", 12),
		Source:  domain.SourceCommunitySubmission,
		Tags:    []string{"Organizing", "London", "BlackQueer"},
		Status:  domain.ArticlePublished,
	}
}

func weakArticle() domain.Article {
	return domain.Article{
		Title:   "A quiet afternoon",
		Excerpt: "Notes from a garden.",
		Content: "Short piece.",
	}
}

func TestSubmitForValidationAutoApprovesStrongStories(t *testing.T) {
	t.Parallel()
	f := newFixture(t, DefaultCaptureOptions())
	ctx := context.Background()
	article := f.createArticle(t, strongArticle())

	d, err := f.governance.SubmitForValidation(ctx, article.ID, domain.SubmissionCommunity, "editor-1")
	if err != nil {
		t.Fatalf("SubmitForValidation: %v", err)
	}
	if d.Status != domain.DecisionApproved || d.VotesFor != 1 || d.VotingEndsAt != nil {
		t.Fatalf("unexpected decision: %+v", d)
	}
	if d.Title != `Validate Community Story: "`+article.Title+`"` {
		t.Fatalf("unexpected title: %s", d.Title)
	}
	if d.Metadata.StoryID != article.ID || d.Metadata.ImpactLevel != domain.ImpactLocal {
		t.Fatalf("unexpected metadata: %+v", d.Metadata)
	}
	if diff := cmp.Diff(article.Tags, d.Metadata.CommunityTags); diff != "" {
		t.Fatalf("community tags mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmitForValidationOpensSevenDayVote(t *testing.T) {
	t.Parallel()
	f := newFixture(t, DefaultCaptureOptions())
	ctx := context.Background()
	article := f.createArticle(t, weakArticle())

	d, err := f.governance.SubmitForValidation(ctx, article.ID, domain.SubmissionIVORConversation, "story-capture-1")
	if err != nil {
		t.Fatalf("SubmitForValidation: %v", err)
	}
	if d.Status != domain.DecisionVoting || d.VotesFor != 0 {
		t.Fatalf("unexpected decision: %+v", d)
	}
	if d.VotingEndsAt == nil || !d.VotingEndsAt.Equal(d.CreatedAt.Add(7*24*time.Hour)) {
		t.Fatalf("deadline should be exactly seven days out: %v", d.VotingEndsAt)
	}
	if f.events.count(domain.SubjectDecisionCreated) != 1 {
		t.Fatalf("expected a submitted event, got %v", f.events.subjects)
	}

	if _, err := f.governance.SubmitForValidation(ctx, "missing", domain.SubmissionCommunity, "x"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSubmitForValidationReusesLiveDecision(t *testing.T) {
	t.Parallel()
	f := newFixture(t, DefaultCaptureOptions())
	ctx := context.Background()
	article := f.createArticle(t, weakArticle())

	first, err := f.governance.SubmitForValidation(ctx, article.ID, domain.SubmissionCommunity, "editor-1")
	if err != nil {
		t.Fatalf("first SubmitForValidation: %v", err)
	}
	again, err := f.governance.SubmitForValidation(ctx, article.ID, domain.SubmissionCommunity, "editor-2")
	if err != nil {
		t.Fatalf("second SubmitForValidation: %v", err)
	}
	if again.ID != first.ID {
		t.Fatalf("open vote should be reused: %s != %s", again.ID, first.ID)
	}
	if f.events.count(domain.SubjectDecisionCreated) != 1 {
		t.Fatalf("expected one created event, got %v", f.events.subjects)
	}

	if err := f.decisions.SetStatus(ctx, first.ID, domain.DecisionRejected); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	f.clock.Advance(time.Minute)
	resubmitted, err := f.governance.SubmitForValidation(ctx, article.ID, domain.SubmissionCommunity, "editor-1")
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if resubmitted.ID == first.ID || resubmitted.Status != domain.DecisionVoting {
		t.Fatalf("rejected story should get a fresh vote: %+v", resubmitted)
	}
}

func TestZeroOptionsKeepDefaultRequiredTags(t *testing.T) {
	t.Parallel()

	g := NewGovernance(GovernanceDeps{})
	if diff := cmp.Diff(DefaultGovernanceOptions().RequiredTags, g.opts.RequiredTags); diff != "" {
		t.Fatalf("required tags mismatch (-want +got):\n%s", diff)
	}

	custom := NewGovernance(GovernanceDeps{Options: GovernanceOptions{RequiredTags: []string{"Leeds"}}})
	if diff := cmp.Diff([]string{"Leeds"}, custom.opts.RequiredTags); diff != "" {
		t.Fatalf("configured tags overridden (-want +got):\n%s", diff)
	}
}

func openVote(t *testing.T, f *fixture) domain.Decision {
	t.Helper()
	article := f.createArticle(t, weakArticle())
	d, err := f.governance.SubmitForValidation(context.Background(), article.ID, domain.SubmissionCommunity, "tester")
	if err != nil {
		t.Fatalf("SubmitForValidation: %v", err)
	}
	return d
}

func TestCastVoteIgnoresSecondVoteFromSameUser(t *testing.T) {
	t.Parallel()
	f := newFixture(t, DefaultCaptureOptions())
	ctx := context.Background()
	d := openVote(t, f)

	ok, err := f.governance.CastVote(ctx, d.ID, "user-1", domain.VoteFor, "yes")
	if err != nil || !ok {
		t.Fatalf("first vote: %v %v", ok, err)
	}
	ok, err = f.governance.CastVote(ctx, d.ID, "user-1", domain.VoteAgainst, "changed my mind")
	if err != nil || ok {
		t.Fatalf("second vote should return false: %v %v", ok, err)
	}

	got, _ := f.decisions.Get(ctx, d.ID)
	if got.VotesFor != 1 || got.VotesAgainst != 0 {
		t.Fatalf("counts changed: %+v", got)
	}
}

func TestCastVoteValidatesInput(t *testing.T) {
	t.Parallel()
	f := newFixture(t, DefaultCaptureOptions())
	ctx := context.Background()
	d := openVote(t, f)

	if _, err := f.governance.CastVote(ctx, d.ID, "user-1", domain.VoteValue("maybe"), ""); !errors.Is(err, domain.ErrInvalidVote) {
		t.Fatalf("expected ErrInvalidVote, got %v", err)
	}
	if _, err := f.governance.CastVote(ctx, "missing", "user-1", domain.VoteFor, ""); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestVotingClosesAtQuorum(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		votes []domain.VoteValue
		want  domain.DecisionStatus
	}{
		{name: "majority for", votes: []domain.VoteValue{domain.VoteFor, domain.VoteFor, domain.VoteAgainst}, want: domain.DecisionApproved},
		{name: "tie rejects", votes: []domain.VoteValue{domain.VoteFor, domain.VoteAgainst, domain.VoteAbstain}, want: domain.DecisionRejected},
		{name: "below quorum stays open", votes: []domain.VoteValue{domain.VoteFor, domain.VoteFor}, want: domain.DecisionVoting},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, DefaultCaptureOptions())
			ctx := context.Background()
			d := openVote(t, f)

			for i, v := range tt.votes {
				if ok, err := f.governance.CastVote(ctx, d.ID, "user-"+string(rune('a'+i)), v, ""); err != nil || !ok {
					t.Fatalf("vote %d: %v %v", i, ok, err)
				}
			}
			got, _ := f.decisions.Get(ctx, d.ID)
			if got.Status != tt.want {
				t.Fatalf("status = %s, want %s", got.Status, tt.want)
			}
		})
	}
}

func TestCloseExpiredSettlesPastDeadline(t *testing.T) {
	t.Parallel()
	f := newFixture(t, DefaultCaptureOptions())
	ctx := context.Background()
	d := openVote(t, f)

	if _, err := f.governance.CastVote(ctx, d.ID, "user-1", domain.VoteFor, ""); err != nil {
		t.Fatalf("CastVote: %v", err)
	}
	if n, _ := f.governance.CloseExpired(ctx); n != 0 {
		t.Fatalf("nothing should close before the deadline, closed %d", n)
	}

	f.clock.Advance(8 * 24 * time.Hour)
	n, err := f.governance.CloseExpired(ctx)
	if err != nil || n != 1 {
		t.Fatalf("CloseExpired: %d %v", n, err)
	}
	got, _ := f.decisions.Get(ctx, d.ID)
	if got.Status != domain.DecisionApproved {
		t.Fatalf("expected approval, got %s", got.Status)
	}
	if f.events.count(domain.SubjectDecisionDecided) != 1 {
		t.Fatalf("expected a decided event, got %v", f.events.subjects)
	}
}

func TestCurateForFeaturingNeedsThreeCriteria(t *testing.T) {
	t.Parallel()
	f := newFixture(t, DefaultCaptureOptions())
	ctx := context.Background()

	qualifying := f.createArticle(t, domain.Article{
		Title:   "Community justice win in Leeds",
		Excerpt: "Our community won the fight for fair rent.",
		Content: "Tenants met every week.",
		Tags:    []string{"BlackQueer"},
		Status:  domain.ArticlePublished,
	})
	missing := f.createArticle(t, domain.Article{
		Title:   "An extraordinarily comprehensive retrospective",
		Excerpt: "Considerations regarding institutional transformation.",
		Content: "Long read.",
		Status:  domain.ArticlePublished,
	})

	for _, a := range []domain.Article{qualifying, missing} {
		err := f.decisions.Insert(ctx, domain.Decision{
			ID:        "decision-" + a.ID,
			Type:      domain.DecisionStoryValidation,
			Status:    domain.DecisionApproved,
			VotesFor:  3,
			CreatedAt: f.clock.Now(),
			Metadata:  domain.DecisionMetadata{StoryID: a.ID, ImpactLevel: domain.ImpactNational},
		})
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	report, err := f.governance.CurateForFeaturing(ctx)
	if err != nil {
		t.Fatalf("CurateForFeaturing: %v", err)
	}
	if report.TotalReviewed != 2 || report.FeaturedCount != 1 || report.CommunityInput != 6 {
		t.Fatalf("unexpected report: %+v", report)
	}
	want := []string{CriterionCommunityApproval, CriterionRequiredTags, CriterionEditorialStandards}
	if diff := cmp.Diff(want, report.CriteriaMet); diff != "" {
		t.Fatalf("criteria mismatch (-want +got):\n%s", diff)
	}

	got, _ := f.articles.Get(ctx, qualifying.ID)
	if !got.Featured || got.Priority != "high" {
		t.Fatalf("qualifying story not featured: %+v", got)
	}
	other, _ := f.articles.Get(ctx, missing.ID)
	if other.Featured {
		t.Fatal("story meeting one criterion must not be featured")
	}
}

func TestCurateForFeaturingFallsBackToFeaturedArticles(t *testing.T) {
	t.Parallel()
	f := newFixture(t, DefaultCaptureOptions())
	ctx := context.Background()

	featured := strongArticle()
	featured.Featured = true
	created := f.createArticle(t, featured)
	f.createArticle(t, weakArticle())

	report, err := f.governance.CurateForFeaturing(ctx)
	if err != nil {
		t.Fatalf("CurateForFeaturing: %v", err)
	}
	if report.TotalReviewed != 0 || len(report.Featured) != 1 || report.Featured[0].ID != created.ID {
		t.Fatalf("unexpected fallback report: %+v", report)
	}
}

func TestDashboardSummarisesWeek(t *testing.T) {
	t.Parallel()
	f := newFixture(t, DefaultCaptureOptions())
	ctx := context.Background()

	open := openVote(t, f)
	f.createArticle(t, strongArticle())
	approved := f.createArticle(t, strongArticle())
	if _, err := f.governance.SubmitForValidation(ctx, approved.ID, domain.SubmissionCommunity, "editor"); err != nil {
		t.Fatalf("SubmitForValidation: %v", err)
	}
	f.governance.CastVote(ctx, open.ID, "user-1", domain.VoteFor, "")
	f.governance.CastVote(ctx, open.ID, "user-2", domain.VoteAgainst, "")

	dash, err := f.governance.Dashboard(ctx)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if len(dash.ActiveDecisions) != 1 || dash.ValidationQueue != 1 {
		t.Fatalf("unexpected active decisions: %+v", dash)
	}
	if dash.TotalVoters != 2 || dash.RecentActivity != 2 {
		t.Fatalf("unexpected participation: %+v", dash)
	}
	if dash.StoriesValidated != 2 || dash.ApprovedThisWeek != 1 || dash.RejectionRate != 0 {
		t.Fatalf("unexpected curation stats: %+v", dash)
	}
	if dash.EngagementRate != 100 {
		t.Fatalf("engagement = %v, want 100", dash.EngagementRate)
	}
}
