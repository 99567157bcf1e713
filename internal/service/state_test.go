package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/seplag/discoteca/internal/domain"
)

func TestSequence(t *testing.T) {
	var s Sequence
	first := s.Next()
	assert.True(t, s.IsLatest(first))

	second := s.Next()
	assert.False(t, s.IsLatest(first))
	assert.True(t, s.IsLatest(second))
}

func TestBusyTracksOverlappingCalls(t *testing.T) {
	b := NewBusy()
	var seen []bool
	b.Flag().Subscribe(func(v bool) { seen = append(seen, v) })

	done1 := b.Start()
	done2 := b.Start()
	done1()
	done1()
	assert.True(t, b.Flag().Get())

	done2()
	assert.False(t, b.Flag().Get())
	assert.Equal(t, []bool{false, true, false}, seen)
}

func TestBusyFlagMatchesCallsUnderContention(t *testing.T) {
	b := NewBusy()
	for i := 0; i < 50; i++ {
		var wg sync.WaitGroup
		for j := 0; j < 8; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				done := b.Start()
				done()
			}()
		}
		wg.Wait()
		// every call finished, so the last published transition is false
		assert.False(t, b.Flag().Get())

		done := b.Start()
		assert.True(t, b.Flag().Get())
		done()
	}
}

func TestListStatePublish(t *testing.T) {
	s := NewListState[string](10)
	s.Publish(domain.ListQuery{Page: 2, Size: 5}, &domain.Page[string]{
		Content:       []string{"a", "b"},
		TotalPages:    4,
		TotalElements: 17,
	})

	assert.Equal(t, []string{"a", "b"}, s.Items.Get())
	assert.Equal(t, 2, s.Page.Get())
	assert.Equal(t, 5, s.PageSize.Get())
	assert.Equal(t, 4, s.TotalPages.Get())

	s.Reset(10)
	assert.Empty(t, s.Items.Get())
	assert.Equal(t, 0, s.TotalPages.Get())
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "list:page=0", ListKey("page=0"))
	assert.Equal(t, "list:artist=7:page=0", ScopedListKey("artist", 7, "page=0"))
	assert.Equal(t, "id:42", IDKey(42))
}
