package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/seplag/discoteca/internal/domain"
)

func artistPhotoKey(id int64) string {
	return "artist-photo:" + strconv.FormatInt(id, 10)
}

// ListArtists returns one page of artists
func (c *Client) ListArtists(ctx context.Context, q domain.ArtistQuery) (*domain.Page[domain.Artist], error) {
	var page domain.Page[domain.Artist]
	if err := c.getJSON(ctx, "/artistas", q.Values(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) GetArtist(ctx context.Context, id int64) (*domain.Artist, error) {
	var a domain.Artist
	if err := c.getJSON(ctx, fmt.Sprintf("/artistas/%d", id), nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) CreateArtist(ctx context.Context, in domain.ArtistInput) (*domain.Artist, error) {
	var a domain.Artist
	if err := c.sendJSON(ctx, http.MethodPost, "/artistas", nil, in.Normalize(), &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) UpdateArtist(ctx context.Context, id int64, in domain.ArtistInput) (*domain.Artist, error) {
	var a domain.Artist
	if err := c.sendJSON(ctx, http.MethodPut, fmt.Sprintf("/artistas/%d", id), nil, in.Normalize(), &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) DeleteArtist(ctx context.Context, id int64) error {
	if err := c.sendJSON(ctx, http.MethodDelete, fmt.Sprintf("/artistas/%d", id), nil, nil, nil); err != nil {
		return err
	}
	c.InvalidateCached(artistPhotoKey(id))
	return nil
}

// UploadArtistPhoto sends the photo as the multipart field "file"
func (c *Client) UploadArtistPhoto(ctx context.Context, id int64, file domain.UploadFile) (*domain.Artist, error) {
	req, err := newMultipartRequest(http.MethodPost, fmt.Sprintf("/artistas/%d/foto", id), "file", []domain.UploadFile{file})
	if err != nil {
		return nil, err
	}
	body, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	c.InvalidateCached(artistPhotoKey(id))

	var a domain.Artist
	if err := decode(body, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) DeleteArtistPhoto(ctx context.Context, id int64) error {
	if err := c.sendJSON(ctx, http.MethodDelete, fmt.Sprintf("/artistas/%d/foto", id), nil, nil, nil); err != nil {
		return err
	}
	c.InvalidateCached(artistPhotoKey(id))
	return nil
}

// ArtistPhotoURL returns a presigned URL for the artist photo
func (c *Client) ArtistPhotoURL(ctx context.Context, id int64) (string, error) {
	var resp presignedURL
	if err := c.CachedGet(ctx, artistPhotoKey(id), fmt.Sprintf("/artistas/%d/foto/presigned-url", id), nil, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

type presignedURL struct {
	URL string `json:"url"`
}
