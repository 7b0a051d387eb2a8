package usecase

import (
	"context"
	"errors"
	"testing"

	"StoryCurator/internal/domain"
)

type stubChat struct {
	reply   domain.ChatReply
	err     error
	context map[string]any
}

func (s *stubChat) Send(ctx context.Context, message string, chatContext map[string]any) (domain.ChatReply, error) {
	s.context = chatContext
	return s.reply, s.err
}

func (s *stubChat) Health(ctx context.Context) error { return s.err }

func TestChatQueuesConsentedStory(t *testing.T) {
	t.Parallel()
	f := newFixture(t, DefaultCaptureOptions())
	conv := housingConversation()
	chat := &stubChat{reply: domain.ChatReply{Response: conv.Response, Service: "ivor"}}
	c := NewConversations(ConversationDeps{Chat: chat, Capture: f.capture, Now: f.clock.Now})

	res, err := c.Chat(context.Background(), ChatRequest{
		Message:       conv.Message,
		DetectStories: true,
		Consent:       true,
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if chat.context["userId"] != "anonymous" || chat.context["sessionId"] != "default" {
		t.Fatalf("unexpected chat context: %v", chat.context)
	}
	if res.Analysis == nil || !res.Analysis.HasStoryPotential {
		t.Fatalf("expected story analysis: %+v", res)
	}
	if res.Suggested == nil || res.Suggested.Location != "manchester" {
		t.Fatalf("expected suggested capture: %+v", res.Suggested)
	}
	if res.Capture == nil || !res.Capture.Queued {
		t.Fatalf("expected queued capture: %+v", res.Capture)
	}
	entry, err := f.queue.Get(context.Background(), res.Capture.QueueID)
	if err != nil || !entry.UserConsent {
		t.Fatalf("queued entry missing consent: %+v %v", entry, err)
	}
}

func TestChatWithoutConsentOnlySuggests(t *testing.T) {
	t.Parallel()
	f := newFixture(t, DefaultCaptureOptions())
	conv := housingConversation()
	c := NewConversations(ConversationDeps{
		Chat:    &stubChat{reply: domain.ChatReply{Response: conv.Response}},
		Capture: f.capture,
	})

	res, err := c.Chat(context.Background(), ChatRequest{Message: conv.Message, DetectStories: true})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if res.Suggested == nil || res.Capture != nil {
		t.Fatalf("expected suggestion only: %+v", res)
	}
	status, _ := f.capture.Status(context.Background())
	if status.Total != 0 {
		t.Fatalf("nothing should be queued, got %+v", status)
	}
}

func TestChatErrors(t *testing.T) {
	t.Parallel()

	if _, err := NewConversations(ConversationDeps{}).Chat(context.Background(), ChatRequest{Message: "hi"}); !errors.Is(err, ErrChatUnavailable) {
		t.Fatalf("expected ErrChatUnavailable, got %v", err)
	}

	boom := errors.New("ivor down")
	c := NewConversations(ConversationDeps{Chat: &stubChat{err: boom}})
	if _, err := c.Chat(context.Background(), ChatRequest{Message: "hi"}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped backend error, got %v", err)
	}
	if err := c.Health(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected health error, got %v", err)
	}
}
