package analysis

import (
	"fmt"
	"strings"
	"time"

	"StoryCurator/internal/domain"
)

const maxArticleTags = 8

// BuildStoryCapture turns an analyzed conversation into a story narrative.
// It returns false when the analysis found no story.
func BuildStoryCapture(conv domain.Conversation, analysis domain.StoryAnalysis, now time.Time) (domain.StoryCapture, bool) {
	if !analysis.HasStoryPotential {
		return domain.StoryCapture{}, false
	}

	title := analysis.SuggestedTitle
	if title == "" {
		title = "Community Story"
	}

	return domain.StoryCapture{
		ID:       fmt.Sprintf("story-%d-%s", now.UnixMilli(), conv.SessionID),
		Title:    title,
		Content:  storyContent(conv, analysis),
		Source:   domain.SourceIVORConversation,
		Category: CategoryForStory(analysis.StoryType),
		Location: DetectLocation(conv.Combined()),
		Impact:   AssessImpact(conv.Combined()),
	}, true
}

func storyContent(conv domain.Conversation, analysis domain.StoryAnalysis) string {
	var b strings.Builder
	b.WriteString("**Community Member Experience**\n\n")
	fmt.Fprintf(&b, "A community member shared: \"%s\"\n\n", conv.Message)
	b.WriteString("**Community Support Response**\n\n")
	b.WriteString(conv.Response)
	b.WriteString("\n\n")
	if len(analysis.KeyElements) > 0 {
		fmt.Fprintf(&b, "**Key Themes**: %s\n\n", strings.Join(analysis.KeyElements, ", "))
	}
	b.WriteString("*This story was captured from a community conversation and shared with permission to inspire and connect our community.*")
	return b.String()
}

// ArticleTags builds the newsroom tags for a captured story: fixed pipeline
// tags, category, location, impact and up to three conversation keywords.
func ArticleTags(story domain.StoryCapture, keywords []string) []string {
	tags := []string{"Community Stories", "IVOR Generated", TitleCase(string(story.Category))}
	if story.Location != "" {
		tags = append(tags, story.Location)
	}
	switch story.Impact {
	case domain.ImpactNational:
		tags = append(tags, "National Impact")
	case domain.ImpactLocal:
		tags = append(tags, "Local Community")
	}
	if len(keywords) > 3 {
		keywords = keywords[:3]
	}
	tags = append(tags, keywords...)

	seen := map[string]bool{}
	unique := make([]string, 0, len(tags))
	for _, tag := range tags {
		if seen[tag] {
			continue
		}
		seen[tag] = true
		unique = append(unique, tag)
	}
	if len(unique) > maxArticleTags {
		unique = unique[:maxArticleTags]
	}
	return unique
}
