package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"StoryCurator/internal/config"
	"StoryCurator/internal/domain"
)

type fakeConn struct {
	subjects []string
	payloads [][]byte
	err      error
	closed   bool
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data)
	return nil
}

func (f *fakeConn) Close() { f.closed = true }

func TestPublishWrapsEnvelope(t *testing.T) {
	t.Parallel()

	fc := &fakeConn{}
	p := newPublisher(fc, config.BrokerConfig{SubjectPrefix: "blkout.", Source: "story-curator"})
	p.now = func() time.Time { return time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC) }

	if err := p.Publish(context.Background(), domain.SubjectStoryQueued, map[string]string{"queue_id": "q1"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(fc.subjects) != 1 || fc.subjects[0] != "blkout.stories.queued" {
		t.Fatalf("unexpected subjects %v", fc.subjects)
	}

	var msg struct {
		Subject   string            `json:"subject"`
		Payload   map[string]string `json:"payload"`
		Timestamp time.Time         `json:"timestamp"`
		Source    string            `json:"source"`
		Version   string            `json:"version"`
	}
	if err := json.Unmarshal(fc.payloads[0], &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Payload["queue_id"] != "q1" || msg.Source != "story-curator" || msg.Version != messageVersion {
		t.Fatalf("unexpected envelope %+v", msg)
	}

	p.Close()
	if !fc.closed {
		t.Fatalf("Close must close the connection")
	}
}

func TestPublishErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("nats: connection closed")
	p := newPublisher(&fakeConn{err: boom}, config.BrokerConfig{})
	if err := p.Publish(context.Background(), domain.SubjectCurationCompleted, nil); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped publish error, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Publish(ctx, domain.SubjectCurationCompleted, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}
