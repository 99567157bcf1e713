package artist

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/seplag/discoteca/internal/cache"
	"github.com/seplag/discoteca/internal/domain"
	"github.com/seplag/discoteca/internal/observable"
	"github.com/seplag/discoteca/internal/service"
)

const (
	DefaultPageSize = 10
	DefaultSort     = "nome"
)

// Service owns the artist list, the selected artist and their cache.
type Service struct {
	client domain.ArtistRepository
	lists  *cache.Cache[*domain.Page[domain.Artist]]
	items  *cache.Cache[*domain.Artist]
	logger *slog.Logger

	state    *service.ListState[domain.Artist]
	selected *observable.Value[*domain.Artist]
	query    *observable.Value[domain.ArtistQuery]
	busy     *service.Busy

	listSeq service.Sequence
	getSeq  service.Sequence
}

// NewService creates a new artist service. A non-positive ttl uses the
// cache default.
func NewService(client domain.ArtistRepository, ttl time.Duration, logger *slog.Logger, opts ...cache.Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		client:   client,
		lists:    cache.New[*domain.Page[domain.Artist]](ttl, opts...),
		items:    cache.New[*domain.Artist](ttl, opts...),
		logger:   logger,
		state:    service.NewListState[domain.Artist](DefaultPageSize),
		selected: observable.NewValue[*domain.Artist](nil),
		query:    observable.NewValue(defaultQuery()),
		busy:     service.NewBusy(),
	}
}

func defaultQuery() domain.ArtistQuery {
	return domain.ArtistQuery{
		ListQuery: domain.ListQuery{Size: DefaultPageSize, Sort: DefaultSort, Direction: domain.Asc},
	}
}

// Observable state

func (s *Service) Artists() *observable.Value[[]domain.Artist]  { return s.state.Items }
func (s *Service) Selected() *observable.Value[*domain.Artist]  { return s.selected }
func (s *Service) Loading() *observable.Value[bool]             { return s.busy.Flag() }
func (s *Service) Page() *observable.Value[int]                 { return s.state.Page }
func (s *Service) PageSize() *observable.Value[int]             { return s.state.PageSize }
func (s *Service) TotalPages() *observable.Value[int]           { return s.state.TotalPages }
func (s *Service) TotalElements() *observable.Value[int]        { return s.state.TotalElements }
func (s *Service) Query() *observable.Value[domain.ArtistQuery] { return s.query }

// List returns one page of artists, from cache when fresh, and publishes it.
func (s *Service) List(ctx context.Context, q domain.ArtistQuery) (*domain.Page[domain.Artist], error) {
	q.ListQuery = q.ListQuery.WithDefaults(DefaultPageSize, DefaultSort)
	key := service.ListKey(q.CacheKey())
	tok := s.listSeq.Next()

	done := s.busy.Start()
	defer done()

	page, hit, err := cache.Fetch(ctx, s.lists, key, func(ctx context.Context) (*domain.Page[domain.Artist], error) {
		return s.client.ListArtists(ctx, q)
	})
	if err != nil {
		s.logger.Error("failed to list artists", "error", err, "page", q.Page, "size", q.Size)
		return nil, err
	}
	if hit {
		s.logger.Debug("artist list from cache", "key", key)
	} else {
		s.logger.Debug("fetched artists", "count", len(page.Content), "page", q.Page, "totalPages", page.TotalPages)
	}
	s.publishList(tok, q, page)
	return page, nil
}

func (s *Service) publishList(tok uint64, q domain.ArtistQuery, page *domain.Page[domain.Artist]) {
	if !s.listSeq.IsLatest(tok) {
		s.logger.Debug("dropping stale artist list", "page", q.Page)
		return
	}
	s.query.Set(q)
	s.state.Publish(q.ListQuery, page)
}

// GetByID returns one artist, from cache when fresh, and publishes it as selected.
func (s *Service) GetByID(ctx context.Context, id int64) (*domain.Artist, error) {
	key := service.IDKey(id)
	tok := s.getSeq.Next()

	done := s.busy.Start()
	defer done()

	a, _, err := cache.Fetch(ctx, s.items, key, func(ctx context.Context) (*domain.Artist, error) {
		return s.client.GetArtist(ctx, id)
	})
	if err != nil {
		s.logger.Error("failed to get artist", "error", err, "artistID", id)
		return nil, err
	}
	s.publishSelected(tok, a)
	return a, nil
}

func (s *Service) publishSelected(tok uint64, a *domain.Artist) {
	if !s.getSeq.IsLatest(tok) {
		return
	}
	s.selected.Set(a)
}

func (s *Service) Create(ctx context.Context, in domain.ArtistInput) (*domain.Artist, error) {
	s.InvalidateCache()
	done := s.busy.Start()
	defer done()

	a, err := s.client.CreateArtist(ctx, in)
	if err != nil {
		s.logger.Error("failed to create artist", "error", err, "name", in.Name)
		return nil, err
	}
	s.InvalidateCache()
	s.logger.Info("created artist", "artistID", a.ID, "name", a.Name)
	return a, nil
}

// Update saves the artist and republishes it as selected.
func (s *Service) Update(ctx context.Context, id int64, in domain.ArtistInput) (*domain.Artist, error) {
	s.InvalidateCache()
	done := s.busy.Start()
	defer done()

	a, err := s.client.UpdateArtist(ctx, id, in)
	if err != nil {
		s.logger.Error("failed to update artist", "error", err, "artistID", id)
		return nil, err
	}
	s.InvalidateCache()
	s.getSeq.Next()
	s.selected.Set(a)
	s.logger.Info("updated artist", "artistID", id)
	return a, nil
}

// Delete removes the artist and clears the selection if it pointed at it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	s.InvalidateCache()
	done := s.busy.Start()
	defer done()

	if err := s.client.DeleteArtist(ctx, id); err != nil {
		s.logger.Error("failed to delete artist", "error", err, "artistID", id)
		return err
	}
	s.InvalidateCache()
	if cur := s.selected.Get(); cur != nil && cur.ID == id {
		s.selected.Set(nil)
	}
	s.logger.Info("deleted artist", "artistID", id)
	return nil
}

// UploadPhoto replaces the photo and republishes the artist as selected.
func (s *Service) UploadPhoto(ctx context.Context, id int64, file domain.UploadFile) (*domain.Artist, error) {
	s.InvalidateCache()
	done := s.busy.Start()
	defer done()

	a, err := s.client.UploadArtistPhoto(ctx, id, file)
	if err != nil {
		s.logger.Error("failed to upload artist photo", "error", err, "artistID", id, "file", file.Name)
		return nil, err
	}
	s.InvalidateCache()
	s.getSeq.Next()
	s.selected.Set(a)
	s.logger.Info("uploaded artist photo", "artistID", id, "size", len(file.Data))
	return a, nil
}

func (s *Service) DeletePhoto(ctx context.Context, id int64) error {
	s.InvalidateCache()
	done := s.busy.Start()
	defer done()

	if err := s.client.DeleteArtistPhoto(ctx, id); err != nil {
		s.logger.Error("failed to delete artist photo", "error", err, "artistID", id)
		return err
	}
	s.InvalidateCache()
	s.logger.Info("deleted artist photo", "artistID", id)
	return nil
}

// PhotoURL returns a presigned photo URL. An artist without a photo yields
// an empty string and no error.
func (s *Service) PhotoURL(ctx context.Context, id int64) (string, error) {
	url, err := s.client.ArtistPhotoURL(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.Debug("artist has no photo", "artistID", id)
		return "", nil
	}
	if err != nil {
		s.logger.Error("failed to get artist photo url", "error", err, "artistID", id)
		return "", err
	}
	return url, nil
}

// InvalidateCache drops every cached list and artist.
func (s *Service) InvalidateCache() {
	s.lists.Clear()
	s.items.Clear()
	s.logger.Debug("artist cache invalidated")
}
