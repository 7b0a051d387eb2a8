package analysis

import (
	"strings"

	"StoryCurator/internal/domain"
)

// UKCities is the ordered list of cities location detection looks for.
var UKCities = []string{
	"london", "manchester", "birmingham", "glasgow", "cardiff", "bristol",
	"leeds", "sheffield", "liverpool", "newcastle", "brighton", "nottingham",
}

var (
	nationalMarkers = []string{"national", "uk-wide", "britain"}
	localMarkers    = []string{"community", "local", "campaign", "neighborhood"}

	communityTerms = []string{"organizing", "mutual aid", "collective action", "community", "liberation"}
	identityTerms  = []string{"black", "queer", "trans", "qtipoc", "lgbtq"}
	activityTerms  = []string{"housing", "healthcare", "education", "arts", "culture", "protest", "campaign"}
)

// DetectLocation returns the first UK city mentioned in text, or "".
func DetectLocation(text string) string {
	lower := strings.ToLower(text)
	for _, city := range UKCities {
		if strings.Contains(lower, city) {
			return city
		}
	}
	return ""
}

// AssessImpact guesses how far a story reaches from marker words.
func AssessImpact(text string) domain.ImpactLevel {
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, nationalMarkers):
		return domain.ImpactNational
	case containsAny(lower, localMarkers):
		return domain.ImpactLocal
	default:
		return domain.ImpactIndividual
	}
}

// ExtractKeywords returns the community, identity and activity terms found in
// text, in list order and without duplicates.
func ExtractKeywords(text string) []string {
	lower := strings.ToLower(text)

	seen := map[string]bool{}
	keywords := []string{}
	for _, group := range [][]string{communityTerms, identityTerms, activityTerms} {
		for _, term := range matching(lower, group) {
			if seen[term] {
				continue
			}
			seen[term] = true
			keywords = append(keywords, term)
		}
	}
	return keywords
}

var newsroomCategories = map[domain.StoryCategory]string{
	domain.CategoryAchievement: "Community News",
	domain.CategoryOrganizing:  "Organizing",
	domain.CategoryMutualAid:   "Community News",
	domain.CategoryCultural:    "Culture & Arts",
	domain.CategoryHealth:      "Health & Wellness",
	domain.CategoryHousing:     "Housing Justice",
}

// NewsroomCategory maps a capture category to the newsroom's category label.
func NewsroomCategory(category domain.StoryCategory) string {
	if label, ok := newsroomCategories[category]; ok {
		return label
	}
	return "Community News"
}

// CategoryForStory maps an analyzer story type onto a capture category.
// Mixed stories are filed as achievements.
func CategoryForStory(t domain.StoryType) domain.StoryCategory {
	switch t {
	case domain.StoryOrganizing:
		return domain.CategoryOrganizing
	case domain.StoryHealth:
		return domain.CategoryHealth
	case domain.StoryCultural:
		return domain.CategoryCultural
	default:
		return domain.CategoryAchievement
	}
}

// TitleCase upper-cases the first letter of s.
func TitleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
