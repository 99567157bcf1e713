package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/seplag/discoteca/internal/domain"
)

func coverKeyPrefix(albumID int64) string {
	return fmt.Sprintf("cover:%d:", albumID)
}

func (c *Client) ListAlbums(ctx context.Context, q domain.ListQuery) (*domain.Page[domain.Album], error) {
	var page domain.Page[domain.Album]
	if err := c.getJSON(ctx, "/albuns", q.Values(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListAlbumsByArtist returns one page of the artist's albums
func (c *Client) ListAlbumsByArtist(ctx context.Context, artistID int64, q domain.ListQuery) (*domain.Page[domain.Album], error) {
	var page domain.Page[domain.Album]
	if err := c.getJSON(ctx, fmt.Sprintf("/albuns/artista/%d", artistID), q.Values(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) GetAlbum(ctx context.Context, id int64) (*domain.Album, error) {
	var a domain.Album
	if err := c.getJSON(ctx, fmt.Sprintf("/albuns/%d", id), nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) CreateAlbum(ctx context.Context, in domain.AlbumInput) (*domain.Album, error) {
	var a domain.Album
	if err := c.sendJSON(ctx, http.MethodPost, "/albuns", nil, in, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) UpdateAlbum(ctx context.Context, id int64, in domain.AlbumInput) (*domain.Album, error) {
	var a domain.Album
	if err := c.sendJSON(ctx, http.MethodPut, fmt.Sprintf("/albuns/%d", id), nil, in, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) DeleteAlbum(ctx context.Context, id int64) error {
	if err := c.sendJSON(ctx, http.MethodDelete, fmt.Sprintf("/albuns/%d", id), nil, nil, nil); err != nil {
		return err
	}
	c.InvalidateCached(coverKeyPrefix(id))
	return nil
}

// UploadCovers sends every file under the multipart field "files"
func (c *Client) UploadCovers(ctx context.Context, albumID int64, files []domain.UploadFile) ([]domain.Cover, error) {
	req, err := newMultipartRequest(http.MethodPost, fmt.Sprintf("/albuns/%d/capa", albumID), "files", files)
	if err != nil {
		return nil, err
	}
	body, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	c.InvalidateCached(coverKeyPrefix(albumID))

	var covers []domain.Cover
	if err := decode(body, &covers); err != nil {
		return nil, err
	}
	return covers, nil
}

func (c *Client) DeleteCover(ctx context.Context, albumID, coverID int64) error {
	path := fmt.Sprintf("/albuns/%d/capa/%d", albumID, coverID)
	if err := c.sendJSON(ctx, http.MethodDelete, path, nil, nil, nil); err != nil {
		return err
	}
	c.InvalidateCached(coverKeyPrefix(albumID))
	return nil
}

// CoverURL returns a presigned URL for one cover
func (c *Client) CoverURL(ctx context.Context, albumID, coverID int64) (string, error) {
	var resp presignedURL
	key := fmt.Sprintf("%s%d", coverKeyPrefix(albumID), coverID)
	path := fmt.Sprintf("/albuns/%d/capa/%d/presigned-url", albumID, coverID)
	if err := c.CachedGet(ctx, key, path, nil, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}
