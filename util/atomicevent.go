package util

import (
	"sync"
)

// AtomicEvent is a latest-value mailbox. Senders never block and only
// the most recent value is retained; the receiver gets one pending
// notification no matter how many sends happened in between. Used to
// hand state snapshots to the TUI goroutine without ever stalling the
// event loop behind a redraw.
type AtomicEvent[T any] struct {
	mu     sync.Mutex
	value  T
	notify chan struct{}
}

// NewAtomicEvent creates a new AtomicEvent instance.
func NewAtomicEvent[T any]() *AtomicEvent[T] {
	return &AtomicEvent[T]{
		notify: make(chan struct{}, 1),
	}
}

// Send stores the latest value. It is non-blocking.
func (ae *AtomicEvent[T]) Send(value T) {
	ae.mu.Lock()
	defer ae.mu.Unlock()

	ae.value = value
	select {
	case ae.notify <- struct{}{}:
	default:
		// A notification is already pending.
	}
}

// Channel returns the notification channel for use in select statements.
func (ae *AtomicEvent[T]) Channel() <-chan struct{} {
	return ae.notify
}

// Value returns the most recently sent value.
func (ae *AtomicEvent[T]) Value() T {
	ae.mu.Lock()
	defer ae.mu.Unlock()
	return ae.value
}

// HasPending reports whether a notification is waiting to be
// consumed, without consuming it.
func (ae *AtomicEvent[T]) HasPending() bool {
	return len(ae.notify) > 0
}
