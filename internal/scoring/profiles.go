package scoring

import "StoryCurator/internal/domain"

var (
	communityKeywords = []string{
		"community", "organizing", "mutual aid", "liberation", "collective",
		"black", "queer", "qtipoc", "trans", "solidarity",
	}

	validationKeywords = []string{
		"black", "queer", "qtipoc", "lgbtq", "trans", "community",
		"organizing", "liberation", "mutual aid", "solidarity",
	}

	ukMarkers         = []string{"uk", "britain", "london", "manchester", "birmingham", "glasgow"}
	ukMarkersExtended = []string{"uk", "britain", "london", "manchester", "birmingham", "glasgow", "cardiff", "bristol"}
)

// ConversationProfile scores a chat exchange when it enters the capture queue.
var ConversationProfile = Profile{
	PotentialBonus: 1.0,
	TypeScores: map[domain.StoryType]float64{
		domain.StoryAchievement: 1.5,
		domain.StoryOrganizing:  2.0,
		domain.StoryHealth:      1.5,
		domain.StoryCultural:    1.0,
		domain.StoryMixed:       1.8,
	},
	TypeDefault:   0.5,
	LengthSteps:   []LengthStep{{Over: 200, Bonus: 0.5}, {Over: 500, Bonus: 0.5}},
	Keywords:      communityKeywords,
	KeywordWeight: 0.2,
	Locations:     ukMarkers,
	LocationBonus: 0.5,
}

// GovernanceProfile is the auto-validation score of an article submitted for a vote.
var GovernanceProfile = Profile{
	Keywords:      validationKeywords,
	KeywordWeight: 0.15,
	KeywordCap:    1.5,
	Locations:     ukMarkersExtended,
	LocationBonus: 1.0,
	SourceScores: map[string]float64{
		domain.SourceCommunitySubmission: 1.0,
		domain.SourcePartnerOrganization: 0.8,
		domain.SourceIVORConversation:    0.6,
	},
	LengthSteps:   []LengthStep{{Over: 500, Bonus: 0.5}},
	MinTags:       3,
	TagsBonus:     0.5,
	FeaturedBonus: 0.5,
}

// CurationProfile is the validation score the curation engine feeds its rules.
var CurationProfile = Profile{
	Base:          3.0,
	LengthSteps:   []LengthStep{{Over: 500, Bonus: 0.5}},
	MinTags:       3,
	TagsBonus:     0.3,
	MinExcerpt:    50,
	ExcerptBonus:  0.2,
	Keywords:      communityKeywords,
	KeywordWeight: 0.1,
	KeywordCap:    1.0,
	Locations:     ukMarkers,
	LocationBonus: 0.5,
}

// ConversationSubject builds the scoring input for a queued conversation.
func ConversationSubject(conv domain.Conversation, analysis domain.StoryAnalysis) Subject {
	combined := conv.Combined()
	return Subject{
		Text:         combined,
		BodyLength:   Length(combined),
		HasPotential: analysis.HasStoryPotential,
		StoryType:    analysis.StoryType,
	}
}

// GovernanceSubject builds the scoring input for an article under validation.
// Keywords and locations are read from title and excerpt only.
func GovernanceSubject(a domain.Article) Subject {
	return Subject{
		Text:       a.Title + " " + a.Excerpt,
		BodyLength: Length(a.Content),
		Source:     a.Source,
		Tags:       a.Tags,
		Featured:   a.Featured,
	}
}

// CurationSubject builds the scoring input for an article under curation.
func CurationSubject(a domain.Article) Subject {
	return Subject{
		Text:          a.Title + " " + a.Excerpt + " " + a.Content,
		BodyLength:    Length(a.Content),
		Tags:          a.Tags,
		ExcerptLength: Length(a.Excerpt),
	}
}
