package queue

import (
	"context"
	"fmt"
	"sync"

	"hrms-backend/internal/hr"
)

// Client sends messages to a queue backend.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

// Publisher fans committed activity entries out to a Client in ID order.
type Publisher struct {
	Client Client
}

func NewPublisher(c Client) *Publisher {
	return &Publisher{Client: c}
}

// Publish sends one message per entry and stops at the first failure.
func (p *Publisher) Publish(ctx context.Context, entries []hr.ActivityEntry) error {
	for _, e := range entries {
		if err := p.Client.Send(ctx, FromEntry(e)); err != nil {
			return fmt.Errorf("publish activity %d: %w", e.ID, err)
		}
	}
	return nil
}

// MemoryClient keeps sent messages in process.
type MemoryClient struct {
	mu   sync.Mutex
	sent []Message
}

func (m *MemoryClient) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

// Sent returns a copy of every message sent so far.
func (m *MemoryClient) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}

var _ Client = (*MemoryClient)(nil)
