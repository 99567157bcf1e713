package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCache(ttl time.Duration) (*Cache[string], *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	return New[string](ttl, WithClock(clock.Now)), clock
}

func TestGetHonorsTTL(t *testing.T) {
	c, clock := newTestCache(60 * time.Second)
	c.Set("k", "v")

	clock.Advance(59 * time.Second)
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)

	clock.Advance(time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok, "entry must expire once now-storedAt reaches the TTL")
	assert.Equal(t, 0, c.Len())
}

func TestDeletePrefixAndClear(t *testing.T) {
	c, _ := newTestCache(time.Minute)
	c.Set("list:1", "a")
	c.Set("list:2", "b")
	c.Set("id:1", "c")

	c.DeletePrefix("list:")
	_, ok := c.Get("list:1")
	assert.False(t, ok)
	_, ok = c.Get("id:1")
	assert.True(t, ok)

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestFetchReadsThrough(t *testing.T) {
	c, clock := newTestCache(time.Minute)
	calls := 0
	fn := func(context.Context) (string, error) {
		calls++
		return "fresh", nil
	}

	v, hit, err := Fetch(context.Background(), c, "k", fn)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "fresh", v)

	v, hit, err = Fetch(context.Background(), c, "k", fn)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "fresh", v)
	assert.Equal(t, 1, calls)

	clock.Advance(time.Minute)
	_, hit, err = Fetch(context.Background(), c, "k", fn)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, calls)
}

func TestFetchDoesNotCacheErrors(t *testing.T) {
	c, _ := newTestCache(time.Minute)
	boom := errors.New("boom")

	_, _, err := Fetch(context.Background(), c, "k", func(context.Context) (string, error) {
		return "", boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())
}

func TestFetchSkipsResultOvertakenByInvalidation(t *testing.T) {
	tests := []struct {
		name       string
		invalidate func(*Cache[string])
	}{
		{"clear", func(c *Cache[string]) { c.Clear() }},
		{"prefix", func(c *Cache[string]) { c.DeletePrefix("other:") }},
		{"delete", func(c *Cache[string]) { c.Delete("k") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestCache(time.Minute)
			v, hit, err := Fetch(context.Background(), c, "k", func(context.Context) (string, error) {
				tt.invalidate(c)
				return "old", nil
			})
			require.NoError(t, err)
			assert.False(t, hit)
			assert.Equal(t, "old", v)
			assert.Equal(t, 0, c.Len())
		})
	}

	c, _ := newTestCache(time.Minute)
	gen := c.Generation()
	assert.True(t, c.SetIfGeneration("k", "v", gen))
	c.Clear()
	assert.False(t, c.SetIfGeneration("k", "v", gen))
}

func TestNonPositiveTTLFallsBackToDefault(t *testing.T) {
	c := New[int](0)
	assert.Equal(t, DefaultTTL, c.TTL())
}
