// Package analysis holds the pure text heuristics of the story pipeline:
// story detection, location and impact guesses, keyword extraction and
// the narrative/excerpt builders used when a conversation becomes an article.
package analysis

import (
	"strings"

	"StoryCurator/internal/domain"
)

// Matching is plain substring containment over lower-cased text, so a
// keyword inside a longer word also counts ("created" in "recreated").
var (
	achievementPatterns = []string{
		"got a job", "found housing", "started therapy", "completed course",
		"organized", "campaign successful", "raised money", "protest",
		"community project", "mutual aid", "helped someone", "created",
	}

	organizingPatterns = []string{
		"organized", "campaign", "protest", "mutual aid", "collective action",
		"tenant organizing", "housing campaign", "community meeting", "coalition",
	}

	healthPatterns = []string{
		"found therapist", "nhs", "clinic", "support group", "mental health",
		"healthcare access", "medication", "treatment",
	}

	culturalPatterns = []string{
		"pride event", "community gathering", "cultural celebration", "art project",
		"performance", "exhibition", "festival", "celebration",
	}
)

type storySignal struct {
	storyType domain.StoryType
	patterns  []string
	element   string
}

var storySignals = []storySignal{
	{storyType: domain.StoryAchievement, patterns: achievementPatterns, element: "personal achievement"},
	{storyType: domain.StoryOrganizing, patterns: organizingPatterns, element: "community organizing"},
	{storyType: domain.StoryHealth, patterns: healthPatterns, element: "healthcare access"},
	{storyType: domain.StoryCultural, patterns: culturalPatterns, element: "cultural celebration"},
}

var suggestedTitles = map[domain.StoryType]string{
	domain.StoryAchievement: "Community Member Shares Recent Achievement",
	domain.StoryOrganizing:  "Local Organizing Campaign Update",
	domain.StoryHealth:      "Healthcare Access Success Story",
	domain.StoryCultural:    "Community Cultural Celebration Highlight",
	domain.StoryMixed:       "Community Story: Liberation in Action",
}

// Analyze scans a conversation for story potential. It performs no I/O.
func Analyze(conv domain.Conversation) domain.StoryAnalysis {
	combined := strings.ToLower(conv.Combined())

	var analysis domain.StoryAnalysis
	for _, signal := range storySignals {
		if !containsAny(combined, signal.patterns) {
			continue
		}
		if analysis.HasStoryPotential {
			analysis.StoryType = domain.StoryMixed
		} else {
			analysis.StoryType = signal.storyType
		}
		analysis.HasStoryPotential = true
		analysis.KeyElements = append(analysis.KeyElements, signal.element)
	}

	if analysis.HasStoryPotential {
		analysis.SuggestedTitle = suggestedTitles[analysis.StoryType]
	}
	return analysis
}

func containsAny(text string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

func matching(text string, patterns []string) []string {
	var out []string
	for _, p := range patterns {
		if strings.Contains(text, p) {
			out = append(out, p)
		}
	}
	return out
}
