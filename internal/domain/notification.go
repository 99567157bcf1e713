package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Notification type prefixes per resource family
const (
	ArtistEventPrefix = "ARTISTA_"
	AlbumEventPrefix  = "ALBUM_"
)

// Notification is a change event pushed by the backend over the realtime channel.
// It is consumed once and never persisted.
type Notification struct {
	Type        string          // e.g. ARTISTA_CREATED, ALBUM_UPDATED
	Message     string          // Human-readable text, may be empty
	Timestamp   time.Time       // Zero when the backend did not send one
	Payload     json.RawMessage // Optional event payload
	Destination string          // Topic the message arrived on
}

// IsArtist reports whether the event concerns artists
func (n Notification) IsArtist() bool {
	return strings.HasPrefix(n.Type, ArtistEventPrefix)
}

// IsAlbum reports whether the event concerns albums
func (n Notification) IsAlbum() bool {
	return strings.HasPrefix(n.Type, AlbumEventPrefix)
}

// Action returns the part of the type after the resource prefix
func (n Notification) Action() string {
	if i := strings.IndexByte(n.Type, '_'); i >= 0 {
		return n.Type[i+1:]
	}
	return n.Type
}
