// Package observable provides push-based state holders for binding service
// state to the UI. Subscribers run synchronously on the publishing goroutine,
// in subscription order.
package observable

import (
	"sync"
)

// Value holds the latest value and replays it to every new subscriber.
type Value[T any] struct {
	mu   sync.Mutex // serializes emissions
	subs subscribers[T]

	valMu sync.RWMutex
	val   T
}

// NewValue creates a Value holding initial.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{val: initial}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.valMu.RLock()
	defer v.valMu.RUnlock()
	return v.val
}

// Set stores val and emits it to all subscribers.
func (v *Value[T]) Set(val T) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.valMu.Lock()
	v.val = val
	v.valMu.Unlock()

	for _, fn := range v.subs.snapshot() {
		fn(val)
	}
}

// Update applies fn to the current value and emits the result.
func (v *Value[T]) Update(fn func(T) T) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.valMu.Lock()
	v.val = fn(v.val)
	val := v.val
	v.valMu.Unlock()

	for _, sub := range v.subs.snapshot() {
		sub(val)
	}
}

// Subscribe registers fn and immediately calls it with the current value.
// The returned function removes the subscription. fn must not call Set on
// the same Value.
func (v *Value[T]) Subscribe(fn func(T)) (cancel func()) {
	v.mu.Lock()
	defer v.mu.Unlock()

	id := v.subs.add(fn)
	fn(v.Get())
	return func() { v.subs.remove(id) }
}

// Len returns the number of active subscribers.
func (v *Value[T]) Len() int {
	return v.subs.len()
}

type subscribers[T any] struct {
	mu    sync.Mutex
	next  int
	order []int
	fns   map[int]func(T)
}

func (s *subscribers[T]) add(fn func(T)) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fns == nil {
		s.fns = make(map[int]func(T))
	}
	id := s.next
	s.next++
	s.fns[id] = fn
	s.order = append(s.order, id)
	return id
}

func (s *subscribers[T]) remove(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.fns[id]; !ok {
		return
	}
	delete(s.fns, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *subscribers[T]) snapshot() []func(T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]func(T), 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.fns[id])
	}
	return out
}

func (s *subscribers[T]) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.fns)
}
