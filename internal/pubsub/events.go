// Package pubsub provides a generic publish/subscribe event system used to
// fan registry changes, watcher signals and log lines out to the dashboard.
package pubsub

import (
	"context"
	"time"
)

// EventType represents the type of event being published.
type EventType string

const (
	// CreatedEvent announces a new item, e.g. a log line.
	CreatedEvent EventType = "created"
	// ReplacedEvent announces that a collection was swapped wholesale (full reload).
	ReplacedEvent EventType = "replaced"
	// MergedEvent announces that entries were added or overwritten (upload).
	MergedEvent EventType = "merged"
	// UpdatedEvent announces that a single entry was stored or overwritten.
	UpdatedEvent EventType = "updated"
	// ChangedEvent announces that a watched source changed on disk.
	ChangedEvent EventType = "changed"
)

// Event is one published payload. Seq increases by one per Publish on the
// same broker.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Seq       uint64
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher allows publishing events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
