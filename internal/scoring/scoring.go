// Package scoring is the single weighted-keyword scorer shared by the capture
// queue, the governance gateway and the curation engine. Each caller picks a
// Profile; the arithmetic lives only here.
package scoring

import (
	"math"
	"strings"
	"unicode/utf8"

	"StoryCurator/internal/domain"
)

// MaxScore is the upper clamp of every profile.
const MaxScore = 5.0

// Subject is the capability set a scorer reads.
type Subject struct {
	// Text is scanned for keywords and locations, case-insensitively.
	Text          string
	BodyLength    int
	HasPotential  bool
	StoryType     domain.StoryType
	Source        string
	Tags          []string
	Featured      bool
	ExcerptLength int
}

// LengthStep awards Bonus when the body is longer than Over characters.
type LengthStep struct {
	Over  int
	Bonus float64
}

// Profile weights the signals of a Subject.
type Profile struct {
	Base           float64
	PotentialBonus float64

	TypeScores  map[domain.StoryType]float64
	TypeDefault float64

	LengthSteps []LengthStep

	Keywords      []string
	KeywordWeight float64
	// KeywordCap bounds the keyword contribution; zero means uncapped.
	KeywordCap float64

	Locations     []string
	LocationBonus float64

	SourceScores map[string]float64

	MinTags   int
	TagsBonus float64

	FeaturedBonus float64

	MinExcerpt   int
	ExcerptBonus float64
}

// Score applies p to s, clamps to [0, MaxScore] and rounds to one decimal.
func Score(s Subject, p Profile) float64 {
	text := strings.ToLower(s.Text)
	score := p.Base

	if s.HasPotential {
		score += p.PotentialBonus
	}

	if p.TypeScores != nil {
		if v, ok := p.TypeScores[s.StoryType]; ok {
			score += v
		} else {
			score += p.TypeDefault
		}
	}

	for _, step := range p.LengthSteps {
		if s.BodyLength > step.Over {
			score += step.Bonus
		}
	}

	if len(p.Keywords) > 0 {
		matches := 0
		for _, kw := range p.Keywords {
			if strings.Contains(text, kw) {
				matches++
			}
		}
		contribution := float64(matches) * p.KeywordWeight
		if p.KeywordCap > 0 && contribution > p.KeywordCap {
			contribution = p.KeywordCap
		}
		score += contribution
	}

	for _, loc := range p.Locations {
		if strings.Contains(text, loc) {
			score += p.LocationBonus
			break
		}
	}

	score += p.SourceScores[s.Source]

	if p.MinTags > 0 && len(s.Tags) >= p.MinTags {
		score += p.TagsBonus
	}
	if s.Featured {
		score += p.FeaturedBonus
	}
	if p.MinExcerpt > 0 && s.ExcerptLength > p.MinExcerpt {
		score += p.ExcerptBonus
	}

	return Clamp(Round1(score))
}

// Round1 rounds to one decimal place, halves away from zero.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Clamp bounds v to [0, MaxScore].
func Clamp(v float64) float64 {
	return math.Max(0, math.Min(v, MaxScore))
}

// PriorityFor buckets a score into a queue priority.
func PriorityFor(score float64) domain.Priority {
	switch {
	case score >= 4.5:
		return domain.PriorityUrgent
	case score >= 4.0:
		return domain.PriorityHigh
	case score >= 3.0:
		return domain.PriorityMedium
	default:
		return domain.PriorityLow
	}
}

// Length counts characters the way a reader would, not bytes.
func Length(s string) int {
	return utf8.RuneCountInString(s)
}
