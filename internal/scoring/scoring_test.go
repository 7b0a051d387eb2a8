package scoring

import (
	"math"
	"strings"
	"testing"

	"StoryCurator/internal/domain"
)

func TestConversationScoreForHousingStory(t *testing.T) {
	t.Parallel()

	conv := domain.Conversation{
		Message:  "I just got housing through the community cooperative in Manchester!",
		Response: "That's wonderful! Community projects like this cooperative show mutual aid in action.",
	}
	analysis := domain.StoryAnalysis{HasStoryPotential: true, StoryType: domain.StoryMixed}

	// 1.0 potential + 1.8 mixed + 2 keywords * 0.2 + 0.5 manchester
	got := Score(ConversationSubject(conv, analysis), ConversationProfile)
	if got != 3.7 {
		t.Fatalf("expected 3.7, got %v", got)
	}
	if p := PriorityFor(got); p != domain.PriorityMedium {
		t.Fatalf("expected medium priority, got %s", p)
	}
}

func TestConversationScoreIsClampedAndRounded(t *testing.T) {
	t.Parallel()

	bodies := []string{
		"",
		"hello",
		strings.Repeat("community organizing mutual aid liberation collective black queer qtipoc trans solidarity uk ", 8),
		strings.Repeat("a", 250),
		"trans solidarity in glasgow",
	}
	types := []domain.StoryType{"", domain.StoryAchievement, domain.StoryOrganizing, domain.StoryHealth, domain.StoryCultural, domain.StoryMixed}

	for _, body := range bodies {
		for _, st := range types {
			for _, potential := range []bool{false, true} {
				subject := ConversationSubject(
					domain.Conversation{Message: body},
					domain.StoryAnalysis{HasStoryPotential: potential, StoryType: st},
				)
				got := Score(subject, ConversationProfile)
				if got < 0 || got > MaxScore {
					t.Fatalf("score %v out of range for type=%q potential=%v", got, st, potential)
				}
				if math.Abs(got*10-math.Round(got*10)) > 1e-9 {
					t.Fatalf("score %v not rounded to one decimal", got)
				}
			}
		}
	}

	maxed := ConversationSubject(
		domain.Conversation{Message: bodies[2]},
		domain.StoryAnalysis{HasStoryPotential: true, StoryType: domain.StoryOrganizing},
	)
	if got := Score(maxed, ConversationProfile); got != MaxScore {
		t.Fatalf("expected clamp to %v, got %v", MaxScore, got)
	}
}

func sampleArticle() domain.Article {
	return domain.Article{
		Title:   "Manchester community housing win",
		Excerpt: "Black queer organizing in the UK",
		Content: strings.Repeat("x", 600),
		Source:  domain.SourceIVORConversation,
		Tags:    []string{"Housing", "Community", "Manchester"},
	}
}

func TestGovernanceScore(t *testing.T) {
	t.Parallel()

	// 4 keywords * 0.15 + 1.0 uk + 0.6 source + 0.5 length + 0.5 tags
	if got := Score(GovernanceSubject(sampleArticle()), GovernanceProfile); got != 3.2 {
		t.Fatalf("expected 3.2, got %v", got)
	}

	featured := sampleArticle()
	featured.Featured = true
	featured.Source = domain.SourceCommunitySubmission
	if got := Score(GovernanceSubject(featured), GovernanceProfile); got != 4.1 {
		t.Fatalf("expected 4.1, got %v", got)
	}
}

func TestGovernanceKeywordContributionIsCapped(t *testing.T) {
	t.Parallel()

	a := domain.Article{Title: "black queer qtipoc lgbtq trans community organizing liberation mutual aid solidarity"}
	if got := Score(GovernanceSubject(a), GovernanceProfile); got != 1.5 {
		t.Fatalf("expected capped 1.5, got %v", got)
	}
}

func TestCurationScore(t *testing.T) {
	t.Parallel()

	// 3.0 base + 0.5 length + 0.3 tags + 4 keywords * 0.1 + 0.5 uk
	if got := Score(CurationSubject(sampleArticle()), CurationProfile); got != 4.7 {
		t.Fatalf("expected 4.7, got %v", got)
	}
	if got := Score(CurationSubject(domain.Article{}), CurationProfile); got != 3.0 {
		t.Fatalf("expected base score 3.0, got %v", got)
	}
}

func TestPriorityFor(t *testing.T) {
	t.Parallel()

	cases := map[float64]domain.Priority{
		5.0: domain.PriorityUrgent,
		4.5: domain.PriorityUrgent,
		4.4: domain.PriorityHigh,
		4.0: domain.PriorityHigh,
		3.0: domain.PriorityMedium,
		2.9: domain.PriorityLow,
		0:   domain.PriorityLow,
	}
	for score, want := range cases {
		if got := PriorityFor(score); got != want {
			t.Fatalf("PriorityFor(%v) = %s, want %s", score, got, want)
		}
	}
}
