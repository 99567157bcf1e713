package service

import (
	"sync"
	"sync/atomic"

	"github.com/seplag/discoteca/internal/domain"
	"github.com/seplag/discoteca/internal/observable"
)

// Sequence hands out increasing tokens so a service can tell whether a
// response belongs to the most recent call.
type Sequence struct {
	n atomic.Uint64
}

// Next starts a new call and returns its token
func (s *Sequence) Next() uint64 {
	return s.n.Add(1)
}

// IsLatest reports whether no call started after tok
func (s *Sequence) IsLatest(tok uint64) bool {
	return s.n.Load() == tok
}

// Busy drives a loading flag from the number of calls in flight.
type Busy struct {
	mu       sync.Mutex
	inFlight int
	flag     *observable.Value[bool]
}

func NewBusy() *Busy {
	return &Busy{flag: observable.NewValue(false)}
}

// Start marks a call as running. The returned func marks it done.
// Transitions are published under the counter lock so they cannot reorder;
// subscribers of the flag must not start or finish calls.
func (b *Busy) Start() (done func()) {
	b.mu.Lock()
	b.inFlight++
	if b.inFlight == 1 {
		b.flag.Set(true)
	}
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			b.inFlight--
			if b.inFlight == 0 {
				b.flag.Set(false)
			}
			b.mu.Unlock()
		})
	}
}

// Flag returns the observable loading flag
func (b *Busy) Flag() *observable.Value[bool] {
	return b.flag
}

// ListState is the observable state of a paginated list.
type ListState[T any] struct {
	Items         *observable.Value[[]T]
	Page          *observable.Value[int]
	PageSize      *observable.Value[int]
	TotalPages    *observable.Value[int]
	TotalElements *observable.Value[int]
}

func NewListState[T any](pageSize int) *ListState[T] {
	return &ListState[T]{
		Items:         observable.NewValue([]T{}),
		Page:          observable.NewValue(0),
		PageSize:      observable.NewValue(pageSize),
		TotalPages:    observable.NewValue(0),
		TotalElements: observable.NewValue(0),
	}
}

// Publish emits a fetched page. The requested page and size win over what
// the backend echoes back.
func (s *ListState[T]) Publish(q domain.ListQuery, page *domain.Page[T]) {
	s.Page.Set(q.Page)
	s.PageSize.Set(q.Size)
	s.TotalPages.Set(page.TotalPages)
	s.TotalElements.Set(page.TotalElements)
	s.Items.Set(page.Content)
}

// Reset empties the list
func (s *ListState[T]) Reset(pageSize int) {
	s.Items.Set([]T{})
	s.Page.Set(0)
	s.PageSize.Set(pageSize)
	s.TotalPages.Set(0)
	s.TotalElements.Set(0)
}
