package pubsub

import (
	"context"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
)

// ListenCmd returns a command that delivers the next event from ch as a
// tea.Msg, or nil when ctx ends or ch closes.
func ListenCmd[T any](ctx context.Context, ch <-chan Event[T]) tea.Cmd {
	return func() tea.Msg {
		ev, ok := next(ctx, ch)
		if !ok {
			return nil
		}
		return ev
	}
}

func next[T any](ctx context.Context, ch <-chan Event[T]) (Event[T], bool) {
	select {
	case <-ctx.Done():
		return Event[T]{}, false
	case ev, ok := <-ch:
		return ev, ok
	}
}

// ContinuousListener holds one subscription for an Update loop and counts
// the events the broker dropped for it, read from gaps in Seq.
type ContinuousListener[T any] struct {
	ctx    context.Context
	ch     <-chan Event[T]
	last   atomic.Uint64
	missed atomic.Uint64
}

// NewContinuousListener subscribes to broker until ctx ends.
func NewContinuousListener[T any](ctx context.Context, broker *Broker[T]) *ContinuousListener[T] {
	return &ContinuousListener[T]{ctx: ctx, ch: broker.Subscribe(ctx)}
}

// Listen waits for the next event. Call it again after each one.
func (l *ContinuousListener[T]) Listen() tea.Cmd {
	return func() tea.Msg {
		ev, ok := next(l.ctx, l.ch)
		if !ok {
			return nil
		}
		if prev := l.last.Swap(ev.Seq); prev != 0 && ev.Seq > prev+1 {
			l.missed.Add(ev.Seq - prev - 1)
		}
		return ev
	}
}

// Missed returns how many events were lost between delivered ones.
func (l *ContinuousListener[T]) Missed() uint64 {
	return l.missed.Load()
}
