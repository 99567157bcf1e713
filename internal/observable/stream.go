package observable

import (
	"context"
	"sync"
)

// Stream publishes events to the subscribers present at publish time.
// Nothing is replayed to late subscribers.
type Stream[T any] struct {
	mu   sync.Mutex
	subs subscribers[T]
}

// NewStream creates an empty Stream.
func NewStream[T any]() *Stream[T] {
	return &Stream[T]{}
}

// Publish delivers ev to every subscriber in subscription order.
func (s *Stream[T]) Publish(ev T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, fn := range s.subs.snapshot() {
		fn(ev)
	}
}

// Subscribe registers fn. The returned function removes the subscription.
func (s *Stream[T]) Subscribe(fn func(T)) (cancel func()) {
	id := s.subs.add(fn)
	return func() { s.subs.remove(id) }
}

// Len returns the number of active subscribers.
func (s *Stream[T]) Len() int {
	return s.subs.len()
}

// Source is anything that can be subscribed to.
type Source[T any] interface {
	Subscribe(fn func(T)) (cancel func())
}

// Chan adapts a Source to a buffered channel. Sends never block the
// publisher; events are dropped while the buffer is full. The channel is
// closed when ctx is done.
func Chan[T any](ctx context.Context, src Source[T], buffer int) <-chan T {
	ch := make(chan T, buffer)
	var mu sync.Mutex
	closed := false

	cancel := src.Subscribe(func(v T) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- v:
		default:
		}
	})

	go func() {
		<-ctx.Done()
		cancel()
		mu.Lock()
		closed = true
		close(ch)
		mu.Unlock()
	}()
	return ch
}
