package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seplag/discoteca/internal/domain"
	"github.com/seplag/discoteca/internal/observable"
)

type counter struct{ n int }

func (c *counter) InvalidateCache() { c.n++ }

func TestCenterPublishesToasts(t *testing.T) {
	c := NewCenter(nil)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c.now = func() time.Time { return at }

	var got []Toast
	cancel := c.Toasts().Subscribe(func(t Toast) { got = append(got, t) })
	defer cancel()

	c.Info("saved")
	c.Warn("Too many requests. Retrying in 10s (attempt 1/2)")
	c.Error("")
	c.Error("failed")

	require.Len(t, got, 3)
	assert.Equal(t, LevelInfo, got[0].Level)
	assert.Equal(t, LevelWarn, got[1].Level)
	assert.Equal(t, "failed", got[2].Message)
	assert.Equal(t, "error", got[2].Level.String())
	assert.Equal(t, at, got[0].At)

	assert.False(t, got[0].Expired(at.Add(time.Second)))
	assert.True(t, got[0].Expired(at.Add(DefaultDuration)))
}

func TestRouterRoutesByPrefix(t *testing.T) {
	tests := []struct {
		name        string
		n           domain.Notification
		wantArtists int
		wantAlbums  int
		wantToasts  int
	}{
		{"artist event", domain.Notification{Type: "ARTISTA_CREATED", Message: "Artist created"}, 1, 0, 1},
		{"album event without message", domain.Notification{Type: "ALBUM_DELETED"}, 0, 1, 0},
		{"unrelated event", domain.Notification{Type: "REGIONAL_SYNCED", Message: "Synced"}, 0, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := observable.NewStream[domain.Notification]()
			center := NewCenter(nil)
			artists, albums := &counter{}, &counter{}
			toasts := 0
			cancel := center.Toasts().Subscribe(func(Toast) { toasts++ })
			defer cancel()

			r := NewRouter(src, center, artists, albums, nil)
			r.Start()
			r.Start()
			assert.Equal(t, 1, src.Len())

			src.Publish(tt.n)
			assert.Equal(t, tt.wantArtists, artists.n)
			assert.Equal(t, tt.wantAlbums, albums.n)
			assert.Equal(t, tt.wantToasts, toasts)

			r.Stop()
			src.Publish(tt.n)
			assert.Equal(t, tt.wantArtists, artists.n)
			assert.Equal(t, 0, src.Len())
		})
	}
}
