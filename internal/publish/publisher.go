// Package publish forwards normalized messages to a NATS subject for
// downstream consumers. Forwarding is optional; a nil Publisher is a
// no-op.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/mattjoyce/linegate/internal/line"
	"github.com/mattjoyce/linegate/internal/log"
)

const defaultFlushTimeout = 2 * time.Second

// payload is the forwarded message format.
type payload struct {
	MessageID  string    `json:"messageId"`
	Type       string    `json:"type"`
	Text       string    `json:"text,omitempty"`
	Filename   string    `json:"filename,omitempty"`
	UserID     string    `json:"userId"`
	Timestamp  time.Time `json:"timestamp"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// Publisher sends normalized messages to one NATS subject.
type Publisher struct {
	conn    *nats.Conn
	subject string
	logger  *slog.Logger
}

// Connect dials NATS and returns a Publisher. Returns (nil, nil) when url
// is empty: forwarding disabled.
func Connect(url, subject string) (*Publisher, error) {
	if url == "" {
		return nil, nil
	}
	if subject == "" {
		return nil, fmt.Errorf("publish subject is empty")
	}

	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	return &Publisher{
		conn:    conn,
		subject: subject,
		logger:  log.WithComponent("publish"),
	}, nil
}

// Publish forwards one normalized message. A nil receiver is a no-op.
func (p *Publisher) Publish(ctx context.Context, msg line.Message) error {
	if p == nil {
		return nil
	}

	data, err := json.Marshal(payload{
		MessageID:  msg.ID,
		Type:       string(msg.Type),
		Text:       msg.Text,
		Filename:   msg.Filename,
		UserID:     msg.OwnerID,
		Timestamp:  msg.Timestamp,
		ReceivedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("nats publish failed: %w", err)
	}
	if err := p.conn.FlushTimeout(p.flushTimeout(ctx)); err != nil {
		return fmt.Errorf("nats flush failed: %w", err)
	}

	p.logger.Debug("message forwarded", "subject", p.subject, "message_id", msg.ID)
	return nil
}

// Close drains the connection. A nil receiver is a no-op.
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	_ = p.conn.Drain()
}

func (p *Publisher) flushTimeout(ctx context.Context) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return defaultFlushTimeout
	}
	remaining := time.Until(deadline)
	if remaining <= 0 || remaining > defaultFlushTimeout {
		return defaultFlushTimeout
	}
	return remaining
}
