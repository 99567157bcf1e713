package album

import (
	"context"
	"log/slog"
	"time"

	"github.com/seplag/discoteca/internal/cache"
	"github.com/seplag/discoteca/internal/domain"
	"github.com/seplag/discoteca/internal/observable"
	"github.com/seplag/discoteca/internal/service"
)

const (
	DefaultPageSize = 12
	DefaultSort     = "id"
)

// Service owns the album list, the selected album and their cache.
type Service struct {
	client domain.AlbumRepository
	lists  *cache.Cache[*domain.Page[domain.Album]]
	items  *cache.Cache[*domain.Album]
	logger *slog.Logger

	state    *service.ListState[domain.Album]
	selected *observable.Value[*domain.Album]
	artistID *observable.Value[int64] // 0 when the list is not scoped
	busy     *service.Busy

	listSeq service.Sequence
	getSeq  service.Sequence
}

// NewService creates a new album service
func NewService(client domain.AlbumRepository, ttl time.Duration, logger *slog.Logger, opts ...cache.Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		client:   client,
		lists:    cache.New[*domain.Page[domain.Album]](ttl, opts...),
		items:    cache.New[*domain.Album](ttl, opts...),
		logger:   logger,
		state:    service.NewListState[domain.Album](DefaultPageSize),
		selected: observable.NewValue[*domain.Album](nil),
		artistID: observable.NewValue[int64](0),
		busy:     service.NewBusy(),
	}
}

func (s *Service) Albums() *observable.Value[[]domain.Album]  { return s.state.Items }
func (s *Service) Selected() *observable.Value[*domain.Album] { return s.selected }
func (s *Service) Loading() *observable.Value[bool]           { return s.busy.Flag() }
func (s *Service) Page() *observable.Value[int]               { return s.state.Page }
func (s *Service) PageSize() *observable.Value[int]           { return s.state.PageSize }
func (s *Service) TotalPages() *observable.Value[int]         { return s.state.TotalPages }
func (s *Service) TotalElements() *observable.Value[int]      { return s.state.TotalElements }
func (s *Service) ArtistID() *observable.Value[int64]         { return s.artistID }

// List returns one page of all albums
func (s *Service) List(ctx context.Context, q domain.ListQuery) (*domain.Page[domain.Album], error) {
	q = q.WithDefaults(DefaultPageSize, DefaultSort)
	return s.list(ctx, service.ListKey(q.CacheKey()), 0, q, func(ctx context.Context) (*domain.Page[domain.Album], error) {
		return s.client.ListAlbums(ctx, q)
	})
}

// ListByArtist returns one page of the artist's albums
func (s *Service) ListByArtist(ctx context.Context, artistID int64, q domain.ListQuery) (*domain.Page[domain.Album], error) {
	q = q.WithDefaults(DefaultPageSize, DefaultSort)
	key := service.ScopedListKey("artist", artistID, q.CacheKey())
	return s.list(ctx, key, artistID, q, func(ctx context.Context) (*domain.Page[domain.Album], error) {
		return s.client.ListAlbumsByArtist(ctx, artistID, q)
	})
}

func (s *Service) list(
	ctx context.Context,
	key string,
	artistID int64,
	q domain.ListQuery,
	fetch func(context.Context) (*domain.Page[domain.Album], error),
) (*domain.Page[domain.Album], error) {
	tok := s.listSeq.Next()
	done := s.busy.Start()
	defer done()

	page, hit, err := cache.Fetch(ctx, s.lists, key, fetch)
	if err != nil {
		s.logger.Error("failed to list albums", "error", err, "artistID", artistID, "page", q.Page)
		return nil, err
	}
	if hit {
		s.logger.Debug("album list from cache", "key", key)
	} else {
		s.logger.Debug("fetched albums", "count", len(page.Content), "artistID", artistID, "page", q.Page)
	}

	if s.listSeq.IsLatest(tok) {
		s.artistID.Set(artistID)
		s.state.Publish(q, page)
	}
	return page, nil
}

// GetByID returns one album and publishes it as selected
func (s *Service) GetByID(ctx context.Context, id int64) (*domain.Album, error) {
	tok := s.getSeq.Next()
	done := s.busy.Start()
	defer done()

	a, _, err := cache.Fetch(ctx, s.items, service.IDKey(id), func(ctx context.Context) (*domain.Album, error) {
		return s.client.GetAlbum(ctx, id)
	})
	if err != nil {
		s.logger.Error("failed to get album", "error", err, "albumID", id)
		return nil, err
	}
	if s.getSeq.IsLatest(tok) {
		s.selected.Set(a)
	}
	return a, nil
}

func (s *Service) Create(ctx context.Context, in domain.AlbumInput) (*domain.Album, error) {
	s.InvalidateCache()
	done := s.busy.Start()
	defer done()

	a, err := s.client.CreateAlbum(ctx, in)
	if err != nil {
		s.logger.Error("failed to create album", "error", err, "title", in.Title, "artistID", in.ArtistID)
		return nil, err
	}
	s.InvalidateCache()
	s.logger.Info("created album", "albumID", a.ID, "title", a.Title)
	return a, nil
}

// Update saves the album and republishes it as selected
func (s *Service) Update(ctx context.Context, id int64, in domain.AlbumInput) (*domain.Album, error) {
	s.InvalidateCache()
	done := s.busy.Start()
	defer done()

	a, err := s.client.UpdateAlbum(ctx, id, in)
	if err != nil {
		s.logger.Error("failed to update album", "error", err, "albumID", id)
		return nil, err
	}
	s.InvalidateCache()
	s.getSeq.Next()
	s.selected.Set(a)
	s.logger.Info("updated album", "albumID", id)
	return a, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	s.InvalidateCache()
	done := s.busy.Start()
	defer done()

	if err := s.client.DeleteAlbum(ctx, id); err != nil {
		s.logger.Error("failed to delete album", "error", err, "albumID", id)
		return err
	}
	s.InvalidateCache()
	if cur := s.selected.Get(); cur != nil && cur.ID == id {
		s.selected.Set(nil)
	}
	s.logger.Info("deleted album", "albumID", id)
	return nil
}

// UploadCovers attaches images to the album and returns the stored covers
func (s *Service) UploadCovers(ctx context.Context, albumID int64, files []domain.UploadFile) ([]domain.Cover, error) {
	s.InvalidateCache()
	done := s.busy.Start()
	defer done()

	covers, err := s.client.UploadCovers(ctx, albumID, files)
	if err != nil {
		s.logger.Error("failed to upload covers", "error", err, "albumID", albumID, "files", len(files))
		return nil, err
	}
	s.InvalidateCache()
	s.logger.Info("uploaded covers", "albumID", albumID, "count", len(covers))
	return covers, nil
}

func (s *Service) DeleteCover(ctx context.Context, albumID, coverID int64) error {
	s.InvalidateCache()
	done := s.busy.Start()
	defer done()

	if err := s.client.DeleteCover(ctx, albumID, coverID); err != nil {
		s.logger.Error("failed to delete cover", "error", err, "albumID", albumID, "coverID", coverID)
		return err
	}
	s.InvalidateCache()
	s.logger.Info("deleted cover", "albumID", albumID, "coverID", coverID)
	return nil
}

// CoverURL returns a presigned URL for one cover
func (s *Service) CoverURL(ctx context.Context, albumID, coverID int64) (string, error) {
	url, err := s.client.CoverURL(ctx, albumID, coverID)
	if err != nil {
		s.logger.Error("failed to get cover url", "error", err, "albumID", albumID, "coverID", coverID)
		return "", err
	}
	return url, nil
}

// Reset clears the published list and selection. The cache is kept.
func (s *Service) Reset() {
	s.listSeq.Next()
	s.getSeq.Next()
	s.state.Reset(DefaultPageSize)
	s.artistID.Set(0)
	s.selected.Set(nil)
}

// InvalidateCache drops every cached list and album.
func (s *Service) InvalidateCache() {
	s.lists.Clear()
	s.items.Clear()
	s.logger.Debug("album cache invalidated")
}
