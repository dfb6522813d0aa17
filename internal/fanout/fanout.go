// Package fanout broadcasts a value that many readers poll at their own pace.
//
// A Sender folds events into a value and publishes it; receivers only ever see
// the latest value, so a slow reader gets one merged value rather than a
// backlog of events.
package fanout

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Wait once the sender is closed and the receiver
// has seen the final value.
var ErrClosed = errors.New("fanout: sender closed")

type slot[T any] struct {
	mu      sync.RWMutex
	front   *T
	version uint64
	notify  chan struct{}
	closed  bool
}

// Sender owns the value. Send and Close may be called from any goroutine.
type Sender[T, E any] struct {
	mu    sync.Mutex
	back  *T
	merge func(*T, E)
	slot  *slot[T]
}

// New returns a sender publishing initial(). initial is called twice and must
// return equal, independent values: one is published while the other
// collects the next event.
func New[T, E any](initial func() T, merge func(*T, E)) *Sender[T, E] {
	front, back := initial(), initial()
	return &Sender[T, E]{
		back:  &back,
		merge: merge,
		slot:  &slot[T]{front: &front, notify: make(chan struct{})},
	}
}

// Send merges e into the value and publishes the result.
func (s *Sender[T, E]) Send(e E) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.merge(s.back, e)

	s.slot.mu.Lock()
	if s.slot.closed {
		s.slot.mu.Unlock()
		return
	}
	retired := s.slot.front
	s.slot.front = s.back
	s.slot.version++
	close(s.slot.notify)
	s.slot.notify = make(chan struct{})
	s.slot.mu.Unlock()

	// Nobody can borrow the retired buffer any more; catch it up.
	s.merge(retired, e)
	s.back = retired
}

// Close wakes every waiting receiver. Receivers can still borrow the last
// value.
func (s *Sender[T, E]) Close() {
	s.slot.mu.Lock()
	defer s.slot.mu.Unlock()
	if s.slot.closed {
		return
	}
	s.slot.closed = true
	close(s.slot.notify)
}

// Subscribe returns a receiver that has not seen the current value yet.
func (s *Sender[T, E]) Subscribe() *Receiver[T] {
	return &Receiver[T]{slot: s.slot}
}

// Receiver observes a sender's value. A receiver is not safe for concurrent
// use; give each reader its own.
type Receiver[T any] struct {
	slot *slot[T]
	seen uint64
	read bool
}

// Borrow calls fn with the current value and marks it seen. fn must not keep
// the pointer or call back into the sender.
func (r *Receiver[T]) Borrow(fn func(*T)) {
	r.slot.mu.RLock()
	defer r.slot.mu.RUnlock()
	r.seen = r.slot.version
	r.read = true
	fn(r.slot.front)
}

// Version is the number of values published so far.
func (r *Receiver[T]) Version() uint64 {
	r.slot.mu.RLock()
	defer r.slot.mu.RUnlock()
	return r.slot.version
}

// Changed reports whether a value has been published since the last Borrow.
func (r *Receiver[T]) Changed() bool {
	r.slot.mu.RLock()
	defer r.slot.mu.RUnlock()
	return !r.read || r.slot.version != r.seen
}

// Wait blocks until there is a value the receiver has not borrowed yet.
func (r *Receiver[T]) Wait(ctx context.Context) error {
	for {
		r.slot.mu.RLock()
		changed := !r.read || r.slot.version != r.seen
		closed := r.slot.closed
		notify := r.slot.notify
		r.slot.mu.RUnlock()

		if changed {
			return nil
		}
		if closed {
			return ErrClosed
		}
		select {
		case <-notify:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
