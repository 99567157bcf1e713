package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/seplag/discoteca/internal/album"
	"github.com/seplag/discoteca/internal/artist"
	"github.com/seplag/discoteca/internal/auth"
	"github.com/seplag/discoteca/internal/domain"
	"github.com/seplag/discoteca/internal/realtime"
	"github.com/seplag/discoteca/internal/regional"
)

// Command factories for async operations

// requestTimeout bounds one load. It covers the 429 backoff of the client.
const requestTimeout = 90 * time.Second

// LoadArtistsCmd loads one page of artists
func LoadArtistsCmd(svc *artist.Service, q domain.ArtistQuery) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		page, err := svc.List(ctx, q)
		if err != nil {
			return ErrMsg{Err: err, Context: "loading artists"}
		}
		return ArtistsLoadedMsg{Page: page, Query: q}
	}
}

// LoadAlbumsCmd loads one page of albums, scoped to an artist when artistID is set
func LoadAlbumsCmd(svc *album.Service, artistID int64, q domain.ListQuery) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		var (
			page *domain.Page[domain.Album]
			err  error
		)
		if artistID != 0 {
			page, err = svc.ListByArtist(ctx, artistID, q)
		} else {
			page, err = svc.List(ctx, q)
		}
		if err != nil {
			return ErrMsg{Err: err, Context: "loading albums"}
		}
		return AlbumsLoadedMsg{Page: page, Query: q, ArtistID: artistID}
	}
}

// LoadRegionalsCmd loads the regional list
func LoadRegionalsCmd(svc *regional.Service) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		list, err := svc.List(ctx)
		if err != nil {
			return ErrMsg{Err: err, Context: "loading regionals"}
		}
		return RegionalsLoadedMsg{Regionals: list}
	}
}

// SyncRegionalsCmd runs the regional synchronization
func SyncRegionalsCmd(svc *regional.Service) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		list, err := svc.Sync(ctx)
		if err != nil {
			return ErrMsg{Err: err, Context: "syncing regionals"}
		}
		return RegionalsLoadedMsg{Regionals: list, Synced: true}
	}
}

// LogoutCmd closes the realtime channel and ends the session
func LogoutCmd(svc *auth.Service, ch *realtime.Channel) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if ch != nil {
			ch.Disconnect()
		}
		svc.Logout(ctx)
		return LoggedOutMsg{}
	}
}

// TickCmd returns a command that sends a tick after the given duration
func TickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}
