package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"StoryCurator/internal/analysis"
	"StoryCurator/internal/domain"
	"StoryCurator/internal/ports"
)

// ErrAmplifierUnavailable is returned when no amplification service is configured.
var ErrAmplifierUnavailable = errors.New("amplification service not configured")

const (
	socialContentLimit = 250
	socialTagLimit     = 8
	trendingLimit      = 8
	trendingStories    = 5
	trendingEvents     = 3
	defaultShareLimit  = 10
	sourceNewsroom     = "newsroom"
	sourceEvent        = "community-event"
)

var (
	baseSocialTags     = []string{"BlackQueer", "CommunityPower", "QTIPOC", "UKCommunity"}
	categorySocialTags = map[string][]string{
		"Community News":    {"CommunityNews", "BlackJoy"},
		"Organizing":        {"CommunityOrganizing", "CollectiveAction", "Liberation"},
		"Health & Wellness": {"HealthEquity", "Wellness", "CommunityHealth"},
		"Culture & Arts":    {"BlackArt", "QueerArt", "CulturalCelebration"},
	}
	categoryLeads = map[string]string{
		"Community News":    "Community Update: ",
		"Organizing":        "Organizing Win: ",
		"Health & Wellness": "Health Update: ",
		"Culture & Arts":    "Cultural Celebration: ",
	}
	categoryKinds = map[string]domain.ShareKind{
		"Community News":    domain.ShareStory,
		"Organizing":        domain.ShareOrganizing,
		"Health & Wellness": domain.ShareAchievement,
		"Culture & Arts":    domain.ShareEvent,
		"Housing Justice":   domain.ShareOrganizing,
	}
)

// ShareableOptions filters the stories offered for sharing.
type ShareableOptions struct {
	Limit    int
	Category string
	Featured bool
}

// SocialDeps wires the amplification use case.
type SocialDeps struct {
	Articles  ports.ArticleStore
	Calendar  ports.EventsCalendar
	Amplifier ports.Amplifier
	Logger    *slog.Logger
	Now       func() time.Time
	// PublicURL prefixes article share links.
	PublicURL string
}

// Social prepares newsroom stories and events for social amplification.
type Social struct {
	articles  ports.ArticleStore
	calendar  ports.EventsCalendar
	amplifier ports.Amplifier
	logger    *slog.Logger
	now       func() time.Time
	publicURL string
}

// NewSocial constructs the social use case.
func NewSocial(deps SocialDeps) *Social {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	publicURL := strings.TrimRight(deps.PublicURL, "/")
	if publicURL == "" {
		publicURL = "https://blkout.org"
	}
	return &Social{
		articles:  deps.Articles,
		calendar:  deps.Calendar,
		amplifier: deps.Amplifier,
		logger:    orDiscard(deps.Logger),
		now:       now,
		publicURL: publicURL,
	}
}

// Shareable converts published articles into share content. When nothing is
// published, or the store fails, two standing platform posts are returned.
func (s *Social) Shareable(ctx context.Context, opts ShareableOptions) ([]domain.ShareContent, error) {
	if opts.Limit <= 0 {
		opts.Limit = defaultShareLimit
	}
	filter := domain.ArticleFilter{
		Category: opts.Category,
		Status:   domain.ArticlePublished,
		Limit:    opts.Limit,
	}
	if opts.Featured {
		featured := true
		filter.Featured = &featured
	}

	page, err := s.articles.List(ctx, filter)
	if err != nil {
		s.logger.Warn("load shareable stories", "error", err)
		return s.fallbackContent(), nil
	}
	if len(page.Articles) == 0 {
		return s.fallbackContent(), nil
	}

	out := make([]domain.ShareContent, 0, len(page.Articles))
	for _, a := range page.Articles {
		out = append(out, s.shareArticle(a))
	}
	return out, nil
}

func (s *Social) shareArticle(a domain.Article) domain.ShareContent {
	kind, ok := categoryKinds[a.Category]
	if !ok {
		kind = domain.ShareStory
	}
	return domain.ShareContent{
		ID:           a.ID,
		Kind:         kind,
		Title:        a.Title,
		Content:      socialCopy(a),
		Tags:         socialTags(a),
		Source:       sourceNewsroom,
		ShareableURL: s.publicURL + "/newsroom/article/" + a.ID,
		ImageURL:     a.ImageURL,
		Location:     analysis.TitleCase(analysis.DetectLocation(a.Title + " " + a.Content + " " + a.Excerpt)),
		Impact:       shareImpact(a),
		Timestamp:    a.CreatedAt,
	}
}

func socialCopy(a domain.Article) string {
	text := a.Excerpt
	if text == "" {
		text = analysis.Truncate(a.Content, 200)
	}
	text = categoryLeads[a.Category] + analysis.PlainText(text)
	if len(text) > socialContentLimit {
		text = analysis.Truncate(text, socialContentLimit-3) + "..."
	}
	return text
}

func socialTags(a domain.Article) []string {
	tags := append([]string{}, baseSocialTags...)
	tags = append(tags, categorySocialTags[a.Category]...)
	storyTags := a.Tags
	if len(storyTags) > 3 {
		storyTags = storyTags[:3]
	}
	tags = append(tags, storyTags...)
	if len(tags) > socialTagLimit {
		tags = tags[:socialTagLimit]
	}
	return tags
}

func shareImpact(a domain.Article) domain.ImpactLevel {
	text := strings.ToLower(a.Title + " " + a.Content)
	switch {
	case containsAnyOf(text, decisionNationalMarkers):
		return domain.ImpactNational
	case containsAnyOf(text, decisionLocalMarkers):
		return domain.ImpactLocal
	default:
		return domain.ImpactIndividual
	}
}

// Trending merges featured stories with upcoming events, newest first.
func (s *Social) Trending(ctx context.Context) ([]domain.ShareContent, error) {
	items, err := s.Shareable(ctx, ShareableOptions{Limit: trendingStories, Featured: true})
	if err != nil {
		return nil, err
	}

	if s.calendar != nil {
		page, err := s.calendar.Events(ctx, domain.EventFilter{Limit: trendingEvents, Page: 1, DateFrom: s.now()})
		if err != nil {
			s.logger.Warn("load upcoming events", "error", err)
		} else {
			events := page.Events
			if len(events) > trendingEvents {
				events = events[:trendingEvents]
			}
			for _, e := range events {
				items = append(items, shareEvent(e))
			}
		}
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].Timestamp.After(items[j].Timestamp) })
	if len(items) > trendingLimit {
		items = items[:trendingLimit]
	}
	return items, nil
}

func shareEvent(e domain.Event) domain.ShareContent {
	location := e.Location
	if location == "" {
		location = "UK"
	}
	description := e.Description
	if description == "" {
		description = e.Title
	}
	return domain.ShareContent{
		ID:           "event-" + e.ID,
		Kind:         domain.ShareEvent,
		Title:        e.Title,
		Content:      fmt.Sprintf("Upcoming Event: %s in %s.", analysis.PlainText(description), location),
		Tags:         []string{"CommunityEvents", "BlackQueer", "UKEvents", location},
		Source:       sourceEvent,
		ShareableURL: e.URL,
		Location:     e.Location,
		Impact:       domain.ImpactLocal,
		Timestamp:    e.Date,
	}
}

// Amplify sends content to the amplification service and returns its id.
func (s *Social) Amplify(ctx context.Context, content domain.ShareContent, req domain.AmplificationRequest) (string, error) {
	if s.amplifier == nil {
		return "", ErrAmplifierUnavailable
	}
	if len(req.Platforms) == 0 {
		return "", errors.New("at least one platform is required")
	}
	id, err := s.amplifier.Amplify(ctx, content, req)
	if err != nil {
		return "", fmt.Errorf("amplify %s: %w", content.ID, err)
	}
	s.logger.Info("content amplified", "content_id", content.ID, "amplification_id", id, "platforms", req.Platforms)
	return id, nil
}

func (s *Social) fallbackContent() []domain.ShareContent {
	now := s.now()
	return []domain.ShareContent{
		{
			ID:           "fallback-1",
			Kind:         domain.ShareStory,
			Title:        "BLKOUT Community Platform Launch",
			Content:      "Community Update: The BLKOUT platform is connecting Black queer communities across the UK with stories, events, and mutual aid. Join us in building community-owned liberation technology.",
			Tags:         []string{"BlackQueer", "CommunityPower", "QTIPOC", "UKCommunity", "TechForGood"},
			Source:       sourceNewsroom,
			ShareableURL: s.publicURL,
			Impact:       domain.ImpactNational,
			Timestamp:    now,
		},
		{
			ID:           "fallback-2",
			Kind:         domain.ShareOrganizing,
			Title:        "Community Organizing Toolkit Available",
			Content:      "Organizing Win: New community organizing resources now available through the BLKOUT platform. Tools for housing campaigns, mutual aid coordination, and collective action.",
			Tags:         []string{"CommunityOrganizing", "CollectiveAction", "Liberation", "BlackQueer"},
			Source:       sourceNewsroom,
			ShareableURL: s.publicURL + "/organizing",
			Impact:       domain.ImpactLocal,
			Timestamp:    now,
		},
	}
}
