package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/noah-isme/scoped-query-api/internal/middleware"
)

// QueryEvent is the audit record emitted after every answered query.
type QueryEvent struct {
	AdminID       string    `json:"admin_id"`
	Query         string    `json:"query"`
	Intent        string    `json:"intent"`
	Count         int       `json:"count"`
	Degraded      bool      `json:"degraded"`
	Warnings      int       `json:"warnings"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// QueryEventPublisher delivers query audit events.
type QueryEventPublisher interface {
	Publish(ctx context.Context, event QueryEvent) error
}

type natsQueryPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSQueryPublisher publishes events as JSON on subject.
func NewNATSQueryPublisher(conn *nats.Conn, subject string) QueryEventPublisher {
	return &natsQueryPublisher{conn: conn, subject: subject}
}

func (p *natsQueryPublisher) Publish(ctx context.Context, event QueryEvent) error {
	if event.CorrelationID == "" {
		event.CorrelationID = middleware.CorrelationIDFromContext(ctx)
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode query event: %w", err)
	}
	if err := p.conn.Publish(p.subject, payload); err != nil {
		return fmt.Errorf("publish query event: %w", err)
	}
	return nil
}
