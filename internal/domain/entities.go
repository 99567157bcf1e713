package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ArtistType distinguishes solo singers from bands
type ArtistType string

const (
	ArtistTypeSinger ArtistType = "CANTOR"
	ArtistTypeBand   ArtistType = "BANDA"
)

// Label returns a human-readable name for the artist type
func (t ArtistType) Label() string {
	switch t {
	case ArtistTypeSinger:
		return "Singer"
	case ArtistTypeBand:
		return "Band"
	default:
		return string(t)
	}
}

// User is the profile of the signed-in account
type User struct {
	ID        int64    `json:"id"`
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	Active    bool     `json:"ativo"`
	Roles     []string `json:"roles"`
	CreatedAt string   `json:"createdAt,omitempty"`
	UpdatedAt string   `json:"updatedAt,omitempty"`
	LastLogin string   `json:"lastLogin,omitempty"`
}

// HasRole reports whether the user carries the given role (case-insensitive,
// with or without the ROLE_ prefix).
func (u *User) HasRole(role string) bool {
	if u == nil {
		return false
	}
	want := strings.TrimPrefix(strings.ToUpper(role), "ROLE_")
	for _, r := range u.Roles {
		if strings.TrimPrefix(strings.ToUpper(r), "ROLE_") == want {
			return true
		}
	}
	return false
}

// AuthResponse is returned by the login, register and refresh endpoints
type AuthResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         *User  `json:"usuario,omitempty"`
}

// Credentials for login and registration
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
}

// ProfileUpdate carries editable profile fields
type ProfileUpdate struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

// PasswordChange carries a password change request
type PasswordChange struct {
	CurrentPassword string `json:"senhaAtual"`
	NewPassword     string `json:"novaSenha"`
}

// Artist represents a singer or band in the catalog
type Artist struct {
	ID         int64      // Backend identifier
	Name       string     // Display name
	Genre      string     // Musical genre
	Type       ArtistType // Singer or band
	Bio        string     // Biography / description
	PhotoFile  string     // Object storage reference for the photo
	PhotoURL   string     // Display URL (may be presigned)
	CreatedAt  string     // ISO timestamp
	UpdatedAt  string     // ISO timestamp
	AlbumCount int        // Denormalized album count
}

type artistJSON struct {
	ID          int64      `json:"id"`
	Name        string     `json:"nome"`
	Genre       string     `json:"genero,omitempty"`
	Type        ArtistType `json:"tipoArtista,omitempty"`
	Bio         string     `json:"biografia,omitempty"`
	Description string     `json:"descricao,omitempty"`
	PhotoFile   string     `json:"foto,omitempty"`
	PhotoURL    string     `json:"fotoUrl,omitempty"`
	CreatedAt   string     `json:"createdAt,omitempty"`
	UpdatedAt   string     `json:"updatedAt,omitempty"`
	AlbumCount  *int       `json:"quantidadeAlbuns,omitempty"`
	LegacyCount *int       `json:"albumCount,omitempty"`
}

// UnmarshalJSON accepts both the current and the legacy artist shapes
func (a *Artist) UnmarshalJSON(data []byte) error {
	var raw artistJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*a = Artist{
		ID:        raw.ID,
		Name:      raw.Name,
		Genre:     raw.Genre,
		Type:      raw.Type,
		Bio:       raw.Bio,
		PhotoFile: raw.PhotoFile,
		PhotoURL:  raw.PhotoURL,
		CreatedAt: raw.CreatedAt,
		UpdatedAt: raw.UpdatedAt,
	}
	if a.Bio == "" {
		a.Bio = raw.Description
	}
	switch {
	case raw.AlbumCount != nil:
		a.AlbumCount = *raw.AlbumCount
	case raw.LegacyCount != nil:
		a.AlbumCount = *raw.LegacyCount
	}
	return nil
}

// MarshalJSON writes the backend field names
func (a Artist) MarshalJSON() ([]byte, error) {
	count := a.AlbumCount
	return json.Marshal(artistJSON{
		ID:         a.ID,
		Name:       a.Name,
		Genre:      a.Genre,
		Type:       a.Type,
		Bio:        a.Bio,
		PhotoFile:  a.PhotoFile,
		PhotoURL:   a.PhotoURL,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
		AlbumCount: &count,
	})
}

// ArtistInput is the payload for creating or updating an artist
type ArtistInput struct {
	Name  string     `json:"nome"`
	Genre string     `json:"genero,omitempty"`
	Type  ArtistType `json:"tipoArtista"`
	Bio   string     `json:"biografia,omitempty"`
}

// Normalize fills defaults the backend expects
func (in ArtistInput) Normalize() ArtistInput {
	in.Name = strings.TrimSpace(in.Name)
	if in.Type == "" {
		in.Type = ArtistTypeSinger
	}
	return in
}

// Cover is one image attached to an album
type Cover struct {
	ID          int64  `json:"id"`
	FileName    string `json:"nomeArquivo"`
	ContentType string `json:"contentType,omitempty"`
	Size        int64  `json:"tamanho,omitempty"`
	UploadedAt  string `json:"dataUpload,omitempty"`
	URL         string `json:"presignedUrl,omitempty"`
}

// UnmarshalJSON accepts both presignedUrl and url for the display link
func (c *Cover) UnmarshalJSON(data []byte) error {
	type plain Cover
	var raw struct {
		plain
		LegacyURL string `json:"url,omitempty"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Cover(raw.plain)
	if c.URL == "" {
		c.URL = raw.LegacyURL
	}
	return nil
}

// Album represents a release owned by one artist
type Album struct {
	ID          int64   `json:"id"`
	Title       string  `json:"titulo"`
	ArtistID    int64   `json:"artistaId"`
	ArtistName  string  `json:"artistaNome,omitempty"`
	ReleaseDate string  `json:"dataLancamento,omitempty"`
	CreatedAt   string  `json:"createdAt,omitempty"`
	Covers      []Cover `json:"capas,omitempty"`
}

// Year extracts the release year, or "" when unknown
func (a *Album) Year() string {
	if len(a.ReleaseDate) >= 4 {
		return a.ReleaseDate[:4]
	}
	return ""
}

// AlbumInput is the payload for creating or updating an album
type AlbumInput struct {
	Title       string `json:"titulo"`
	ArtistID    int64  `json:"artistaId"`
	ReleaseDate string `json:"dataLancamento,omitempty"`
}

// Regional is a regional office synchronized from an external system
type Regional struct {
	ID       int64  `json:"id"`
	Name     string `json:"nome"`
	Active   bool   `json:"ativo"`
	LastSync string `json:"dataSincronizacao,omitempty"`
}

// Status returns a display label for the active flag
func (r Regional) Status() string {
	if r.Active {
		return "active"
	}
	return "inactive"
}

// UploadFile is a single file part of a multipart upload
type UploadFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// String implements fmt.Stringer for log output
func (f UploadFile) String() string {
	return fmt.Sprintf("%s (%s, %d bytes)", f.Name, f.ContentType, len(f.Data))
}
