package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"StoryCurator/internal/analysis"
	"StoryCurator/internal/domain"
	"StoryCurator/internal/ports"
)

// ErrChatUnavailable is returned when no chat backend is configured.
var ErrChatUnavailable = errors.New("chat backend not configured")

const (
	anonymousUser  = "anonymous"
	defaultSession = "default"
)

// ChatRequest is one message sent through the IVOR proxy.
type ChatRequest struct {
	Message   string   `json:"message"`
	UserID    string   `json:"userId,omitempty"`
	SessionID string   `json:"sessionId,omitempty"`
	Services  []string `json:"services,omitempty"`
	// DetectStories runs the analyzer on the exchange.
	DetectStories bool `json:"detectStories,omitempty"`
	// Consent lets a detected story enter the capture queue.
	Consent bool `json:"consent,omitempty"`
}

// ChatResult is IVOR's reply plus whatever the story analyzer made of it.
type ChatResult struct {
	Reply     domain.ChatReply      `json:"reply"`
	Analysis  *domain.StoryAnalysis `json:"analysis,omitempty"`
	Suggested *domain.StoryCapture  `json:"suggestedCapture,omitempty"`
	Capture   *EnqueueResult        `json:"capture,omitempty"`
}

// ConversationDeps wires the chat proxy.
type ConversationDeps struct {
	Chat    ports.ChatClient
	Capture *CaptureQueue
	Logger  *slog.Logger
	Now     func() time.Time
}

// Conversations proxies chat to IVOR and feeds promising exchanges to the queue.
type Conversations struct {
	chat    ports.ChatClient
	capture *CaptureQueue
	logger  *slog.Logger
	now     func() time.Time
}

// NewConversations constructs the chat proxy.
func NewConversations(deps ConversationDeps) *Conversations {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Conversations{
		chat:    deps.Chat,
		capture: deps.Capture,
		logger:  orDiscard(deps.Logger),
		now:     now,
	}
}

// Chat sends the message to IVOR. With DetectStories set, the exchange is
// analysed; a story is suggested and, when the user consented, queued.
func (c *Conversations) Chat(ctx context.Context, req ChatRequest) (ChatResult, error) {
	if c.chat == nil {
		return ChatResult{}, ErrChatUnavailable
	}
	if req.UserID == "" {
		req.UserID = anonymousUser
	}
	if req.SessionID == "" {
		req.SessionID = defaultSession
	}

	chatContext := map[string]any{
		"userId":    req.UserID,
		"sessionId": req.SessionID,
	}
	if len(req.Services) > 0 {
		chatContext["services"] = req.Services
	}

	reply, err := c.chat.Send(ctx, req.Message, chatContext)
	if err != nil {
		return ChatResult{}, fmt.Errorf("send to ivor: %w", err)
	}

	result := ChatResult{Reply: reply}
	if !req.DetectStories || reply.Response == "" {
		return result, nil
	}

	conv := domain.Conversation{
		Message:   req.Message,
		Response:  reply.Response,
		Service:   reply.Service,
		Timestamp: c.now(),
		UserID:    req.UserID,
		SessionID: req.SessionID,
	}
	story := analysis.Analyze(conv)
	result.Analysis = &story
	if !story.HasStoryPotential {
		return result, nil
	}
	if suggested, ok := analysis.BuildStoryCapture(conv, story, conv.Timestamp); ok {
		result.Suggested = &suggested
	}

	if req.Consent && c.capture != nil {
		queued, err := c.capture.Enqueue(ctx, conv, true)
		if err != nil {
			c.logger.Warn("queue chat story", "session_id", req.SessionID, "error", err)
		} else {
			result.Capture = &queued
		}
	}
	return result, nil
}

// Health probes the chat backend.
func (c *Conversations) Health(ctx context.Context) error {
	if c.chat == nil {
		return ErrChatUnavailable
	}
	return c.chat.Health(ctx)
}
