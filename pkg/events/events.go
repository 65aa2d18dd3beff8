// Package events announces committed listing changes to downstream consumers such as a
// search indexer.
package events

import (
	"context"
	"sync"
	"time"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// PropertyMessage is the body published for every committed property mutation.
type PropertyMessage struct {
	Action     Action    `json:"action"`
	PropertyID uint      `json:"property_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, msg PropertyMessage) error
	Close() error
}

// Nop discards messages. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, PropertyMessage) error { return nil }
func (Nop) Close() error                                   { return nil }

// Recorder keeps published messages in memory.
type Recorder struct {
	mu       sync.Mutex
	messages []PropertyMessage
}

func (r *Recorder) Publish(_ context.Context, msg PropertyMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return nil
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Messages() []PropertyMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]PropertyMessage(nil), r.messages...)
}
