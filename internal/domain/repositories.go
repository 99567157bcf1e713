package domain

import (
	"context"
)

// ArtistRepository provides access to the artist catalog
type ArtistRepository interface {
	// ListArtists returns one page of artists matching the query
	ListArtists(ctx context.Context, q ArtistQuery) (*Page[Artist], error)

	// GetArtist returns a single artist
	GetArtist(ctx context.Context, id int64) (*Artist, error)

	CreateArtist(ctx context.Context, in ArtistInput) (*Artist, error)
	UpdateArtist(ctx context.Context, id int64, in ArtistInput) (*Artist, error)
	DeleteArtist(ctx context.Context, id int64) error

	// UploadArtistPhoto replaces the artist photo and returns the updated artist
	UploadArtistPhoto(ctx context.Context, id int64, file UploadFile) (*Artist, error)
	DeleteArtistPhoto(ctx context.Context, id int64) error

	// ArtistPhotoURL returns a short-lived URL for the artist photo
	ArtistPhotoURL(ctx context.Context, id int64) (string, error)
}

// AlbumRepository provides access to albums and their covers
type AlbumRepository interface {
	ListAlbums(ctx context.Context, q ListQuery) (*Page[Album], error)

	// ListAlbumsByArtist returns one page of albums owned by the artist
	ListAlbumsByArtist(ctx context.Context, artistID int64, q ListQuery) (*Page[Album], error)

	GetAlbum(ctx context.Context, id int64) (*Album, error)
	CreateAlbum(ctx context.Context, in AlbumInput) (*Album, error)
	UpdateAlbum(ctx context.Context, id int64, in AlbumInput) (*Album, error)
	DeleteAlbum(ctx context.Context, id int64) error

	// UploadCovers attaches one or more cover images to the album
	UploadCovers(ctx context.Context, albumID int64, files []UploadFile) ([]Cover, error)
	DeleteCover(ctx context.Context, albumID, coverID int64) error

	// CoverURL returns a short-lived URL for a cover image
	CoverURL(ctx context.Context, albumID, coverID int64) (string, error)
}

// RegionalRepository provides access to regionals
type RegionalRepository interface {
	ListRegionals(ctx context.Context) ([]Regional, error)

	// SyncRegionals triggers the external sync. The second result reports whether
	// the backend answered with the refreshed list.
	SyncRegionals(ctx context.Context) ([]Regional, bool, error)
}

// AuthRepository provides the session endpoints
type AuthRepository interface {
	Login(ctx context.Context, creds Credentials) (*AuthResponse, error)
	Register(ctx context.Context, creds Credentials) (*AuthResponse, error)
	Logout(ctx context.Context) error

	// GetProfile returns the profile of the current access token
	GetProfile(ctx context.Context) (*User, error)
	// GetProfileWithToken returns the profile of accessToken, which need not be stored yet
	GetProfileWithToken(ctx context.Context, accessToken string) (*User, error)
	UpdateProfile(ctx context.Context, in ProfileUpdate) (*User, error)
	ChangePassword(ctx context.Context, in PasswordChange) error
}
