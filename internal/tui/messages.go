package tui

import (
	"github.com/seplag/discoteca/internal/domain"
	"github.com/seplag/discoteca/internal/notify"
	"github.com/seplag/discoteca/internal/realtime"
)

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// ArtistsLoadedMsg carries one page of artists
type ArtistsLoadedMsg struct {
	Page  *domain.Page[domain.Artist]
	Query domain.ArtistQuery
}

// AlbumsLoadedMsg carries one page of albums. ArtistID is 0 for the full list.
type AlbumsLoadedMsg struct {
	Page     *domain.Page[domain.Album]
	Query    domain.ListQuery
	ArtistID int64
}

// RegionalsLoadedMsg carries the regional list
type RegionalsLoadedMsg struct {
	Regionals []domain.Regional
	Synced    bool
}

// ToastMsg shows a transient message in the footer
type ToastMsg struct {
	Toast notify.Toast
}

// ConnStateMsg reports a realtime connection change
type ConnStateMsg struct {
	State realtime.State
}

// NotificationMsg forwards a realtime notification
type NotificationMsg struct {
	Notification domain.Notification
}

// SessionMsg reports the authenticated flag
type SessionMsg struct {
	Authenticated bool
}

// LoggedOutMsg signals that logout finished
type LoggedOutMsg struct{}

// TickMsg expires toasts
type TickMsg struct{}
