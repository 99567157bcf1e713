package regional

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/seplag/discoteca/internal/cache"
	"github.com/seplag/discoteca/internal/domain"
	"github.com/seplag/discoteca/internal/observable"
	"github.com/seplag/discoteca/internal/service"
)

const listKey = service.PrefixList + "all"

// Service owns the regional list and its last sync time.
type Service struct {
	client domain.RegionalRepository
	cache  *cache.Cache[[]domain.Regional]
	logger *slog.Logger
	now    func() time.Time

	regionals *observable.Value[[]domain.Regional]
	lastSync  *observable.Value[time.Time]
	busy      *service.Busy
	seq       service.Sequence
}

// NewService creates a new regional service
func NewService(client domain.RegionalRepository, ttl time.Duration, logger *slog.Logger, opts ...cache.Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		client:    client,
		cache:     cache.New[[]domain.Regional](ttl, opts...),
		logger:    logger,
		now:       time.Now,
		regionals: observable.NewValue([]domain.Regional{}),
		lastSync:  observable.NewValue(time.Time{}),
		busy:      service.NewBusy(),
	}
}

func (s *Service) Regionals() *observable.Value[[]domain.Regional] { return s.regionals }
func (s *Service) LastSync() *observable.Value[time.Time]          { return s.lastSync }
func (s *Service) Loading() *observable.Value[bool]                { return s.busy.Flag() }

// List returns every regional, from cache when fresh, and publishes them.
func (s *Service) List(ctx context.Context) ([]domain.Regional, error) {
	tok := s.seq.Next()
	done := s.busy.Start()
	defer done()

	list, hit, err := cache.Fetch(ctx, s.cache, listKey, s.client.ListRegionals)
	if err != nil {
		s.logger.Error("failed to list regionals", "error", err)
		return nil, err
	}
	if s.seq.IsLatest(tok) {
		s.regionals.Set(list)
		if !hit {
			s.lastSync.Set(s.now())
		}
	}
	s.logger.Debug("listed regionals", "count", len(list), "cached", hit)
	return list, nil
}

// Sync triggers the external synchronization and publishes the refreshed
// list. When the backend does not answer with the list it is reloaded.
func (s *Service) Sync(ctx context.Context) ([]domain.Regional, error) {
	s.InvalidateCache()
	tok := s.seq.Next()
	done := s.busy.Start()
	defer done()

	list, ok, err := s.client.SyncRegionals(ctx)
	if err != nil {
		s.logger.Error("failed to sync regionals", "error", err)
		return nil, err
	}
	if !ok {
		s.logger.Debug("sync returned no list, reloading")
		return s.List(ctx)
	}

	s.cache.Set(listKey, list)
	if s.seq.IsLatest(tok) {
		s.regionals.Set(list)
		s.lastSync.Set(s.now())
	}
	s.logger.Info("synced regionals", "count", len(list))
	return list, nil
}

// Active returns the published regionals that are active
func (s *Service) Active() []domain.Regional {
	return s.filter(true)
}

// Inactive returns the published regionals that are inactive
func (s *Service) Inactive() []domain.Regional {
	return s.filter(false)
}

func (s *Service) filter(active bool) []domain.Regional {
	var out []domain.Regional
	for _, r := range s.regionals.Get() {
		if r.Active == active {
			out = append(out, r)
		}
	}
	return out
}

// Search ranks the published regionals by fuzzy match on the name.
// An empty query returns everything unchanged.
func (s *Service) Search(query string) []domain.Regional {
	all := s.regionals.Get()
	if query == "" {
		return all
	}

	names := make([]string, len(all))
	for i, r := range all {
		names[i] = r.Name
	}

	ranks := fuzzy.RankFindFold(query, names)
	// Lower distance is a closer match; ties keep list order
	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].Distance != ranks[j].Distance {
			return ranks[i].Distance < ranks[j].Distance
		}
		return ranks[i].OriginalIndex < ranks[j].OriginalIndex
	})

	out := make([]domain.Regional, 0, len(ranks))
	for _, rank := range ranks {
		out = append(out, all[rank.OriginalIndex])
	}
	return out
}

// InvalidateCache drops the cached list
func (s *Service) InvalidateCache() {
	s.cache.Clear()
}
