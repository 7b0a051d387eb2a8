package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"StoryCurator/internal/config"
	"StoryCurator/internal/ports"
)

const messageVersion = "1.0"

// Message is the envelope every pipeline event is wrapped in.
type Message struct {
	Subject   string    `json:"subject"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Version   string    `json:"version"`
}

type conn interface {
	Publish(subject string, data []byte) error
	Close()
}

// Publisher announces pipeline transitions on NATS.
type Publisher struct {
	conn   conn
	prefix string
	source string
	now    func() time.Time
}

var _ ports.EventPublisher = (*Publisher)(nil)

// Connect dials NATS and returns a publisher.
func Connect(cfg config.BrokerConfig) (*Publisher, error) {
	nc, err := nats.Connect(cfg.URL, nats.Name(cfg.Source), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return newPublisher(nc, cfg), nil
}

func newPublisher(c conn, cfg config.BrokerConfig) *Publisher {
	return &Publisher{
		conn:   c,
		prefix: strings.TrimSuffix(cfg.SubjectPrefix, "."),
		source: cfg.Source,
		now:    time.Now,
	}
}

// Publish wraps payload in a Message and sends it on prefix.subject.
func (p *Publisher) Publish(ctx context.Context, subject string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	full := subject
	if p.prefix != "" {
		full = p.prefix + "." + subject
	}

	data, err := json.Marshal(Message{
		Subject:   full,
		Payload:   payload,
		Timestamp: p.now().UTC(),
		Source:    p.source,
		Version:   messageVersion,
	})
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", subject, err)
	}

	if err := p.conn.Publish(full, data); err != nil {
		return fmt.Errorf("publish %s: %w", full, err)
	}
	return nil
}

// Close closes the NATS connection.
func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}

// Noop drops every event; used when no broker is configured.
type Noop struct{}

var _ ports.EventPublisher = Noop{}

func (Noop) Publish(context.Context, string, any) error { return nil }
