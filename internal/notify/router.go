package notify

import (
	"log/slog"
	"sync"

	"github.com/seplag/discoteca/internal/domain"
	"github.com/seplag/discoteca/internal/observable"
)

// Invalidator drops a facade's cached data
type Invalidator interface {
	InvalidateCache()
}

// Router reacts to realtime notifications: it shows their message and
// invalidates the cache of the resource family they concern.
type Router struct {
	source   observable.Source[domain.Notification]
	notifier domain.Notifier
	artists  Invalidator
	albums   Invalidator
	logger   *slog.Logger

	mu     sync.Mutex
	cancel func()
}

func NewRouter(source observable.Source[domain.Notification], notifier domain.Notifier, artists, albums Invalidator, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		source:   source,
		notifier: notifier,
		artists:  artists,
		albums:   albums,
		logger:   logger,
	}
}

// Start subscribes to the source. Calling it again while started does nothing.
func (r *Router) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}
	r.cancel = r.source.Subscribe(r.route)
}

// Stop ends the subscription
func (r *Router) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

func (r *Router) route(n domain.Notification) {
	if n.Message != "" && r.notifier != nil {
		r.notifier.Info(n.Message)
	}
	switch {
	case n.IsArtist() && r.artists != nil:
		r.artists.InvalidateCache()
		r.logger.Debug("artist cache invalidated by notification", "type", n.Type)
	case n.IsAlbum() && r.albums != nil:
		r.albums.InvalidateCache()
		r.logger.Debug("album cache invalidated by notification", "type", n.Type)
	}
}
