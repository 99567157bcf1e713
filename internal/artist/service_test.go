package artist

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seplag/discoteca/internal/cache"
	"github.com/seplag/discoteca/internal/domain"
)

type fakeRepo struct {
	mu         sync.Mutex
	listCalls  int
	getCalls   int
	totalPages int
	names      []string
	listErr    error
	photoErr   error

	// block, when set, is waited on by ListArtists calls for the given page
	block map[int]chan struct{}
}

func (f *fakeRepo) ListArtists(ctx context.Context, q domain.ArtistQuery) (*domain.Page[domain.Artist], error) {
	f.mu.Lock()
	f.listCalls++
	ch := f.block[q.Page]
	names := append([]string(nil), f.names...)
	err := f.listErr
	f.mu.Unlock()

	if ch != nil {
		<-ch
	}
	if err != nil {
		return nil, err
	}
	content := make([]domain.Artist, 0, len(names))
	for i, n := range names {
		content = append(content, domain.Artist{ID: int64(q.Page*100 + i + 1), Name: n})
	}
	return &domain.Page[domain.Artist]{Content: content, TotalPages: f.totalPages, Number: q.Page, Size: q.Size}, nil
}

func (f *fakeRepo) GetArtist(ctx context.Context, id int64) (*domain.Artist, error) {
	f.mu.Lock()
	f.getCalls++
	f.mu.Unlock()
	return &domain.Artist{ID: id, Name: fmt.Sprintf("artist-%d", id)}, nil
}

func (f *fakeRepo) CreateArtist(ctx context.Context, in domain.ArtistInput) (*domain.Artist, error) {
	f.mu.Lock()
	f.names = append(f.names, in.Name)
	f.mu.Unlock()
	return &domain.Artist{ID: 99, Name: in.Name, Type: in.Normalize().Type}, nil
}

func (f *fakeRepo) UpdateArtist(ctx context.Context, id int64, in domain.ArtistInput) (*domain.Artist, error) {
	return &domain.Artist{ID: id, Name: in.Name}, nil
}

func (f *fakeRepo) DeleteArtist(ctx context.Context, id int64) error { return nil }

func (f *fakeRepo) UploadArtistPhoto(ctx context.Context, id int64, file domain.UploadFile) (*domain.Artist, error) {
	return &domain.Artist{ID: id, PhotoFile: file.Name}, nil
}

func (f *fakeRepo) DeleteArtistPhoto(ctx context.Context, id int64) error { return nil }

func (f *fakeRepo) ArtistPhotoURL(ctx context.Context, id int64) (string, error) {
	if f.photoErr != nil {
		return "", f.photoErr
	}
	return "https://minio.local/artist.jpg", nil
}

func (f *fakeRepo) calls() (list, get int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls, f.getCalls
}

type notFoundErr struct{}

func (notFoundErr) Error() string        { return "404" }
func (notFoundErr) Is(target error) bool { return target == domain.ErrNotFound }

func firstPage() domain.ArtistQuery {
	return domain.ArtistQuery{ListQuery: domain.ListQuery{Page: 0, Size: 10}}
}

func TestListScenarioCacheAndInvalidation(t *testing.T) {
	repo := &fakeRepo{totalPages: 5, names: []string{"Cazuza", "Titãs"}}
	svc := NewService(repo, time.Minute, nil)
	ctx := context.Background()

	first, err := svc.List(ctx, firstPage())
	require.NoError(t, err)
	assert.Equal(t, 5, first.TotalPages)
	list, _ := repo.calls()
	assert.Equal(t, 1, list)

	second, err := svc.List(ctx, firstPage())
	require.NoError(t, err)
	assert.Equal(t, first.Content, second.Content)
	list, _ = repo.calls()
	assert.Equal(t, 1, list, "identical call within TTL must not hit the network")

	_, err = svc.Create(ctx, domain.ArtistInput{Name: "Legião Urbana", Type: domain.ArtistTypeBand})
	require.NoError(t, err)

	third, err := svc.List(ctx, firstPage())
	require.NoError(t, err)
	list, _ = repo.calls()
	assert.Equal(t, 2, list)
	assert.Len(t, third.Content, 3)
	assert.Equal(t, third.Content, svc.Artists().Get())
	assert.Equal(t, 5, svc.TotalPages().Get())
}

func TestListExpiresAfterTTL(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	repo := &fakeRepo{names: []string{"Cazuza"}}
	svc := NewService(repo, 60*time.Second, nil, cache.WithClock(clock))

	_, err := svc.List(context.Background(), firstPage())
	require.NoError(t, err)

	now = now.Add(60 * time.Second)
	_, err = svc.List(context.Background(), firstPage())
	require.NoError(t, err)

	list, _ := repo.calls()
	assert.Equal(t, 2, list)
}

func TestCacheKeyCoversFilters(t *testing.T) {
	repo := &fakeRepo{names: []string{"Cazuza"}}
	svc := NewService(repo, time.Minute, nil)
	ctx := context.Background()

	q := firstPage()
	_, _ = svc.List(ctx, q)
	q.Name = "caz"
	_, _ = svc.List(ctx, q)
	q.Direction = domain.Desc
	_, _ = svc.List(ctx, q)

	list, _ := repo.calls()
	assert.Equal(t, 3, list)
	assert.Equal(t, "caz", svc.Query().Get().Name)
	assert.Equal(t, DefaultSort, svc.Query().Get().Sort)
}

func TestGetByIDPublishesSelectedAndCaches(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, time.Minute, nil)
	ctx := context.Background()

	var selected []*domain.Artist
	svc.Selected().Subscribe(func(a *domain.Artist) { selected = append(selected, a) })

	_, err := svc.GetByID(ctx, 3)
	require.NoError(t, err)
	_, err = svc.GetByID(ctx, 3)
	require.NoError(t, err)

	_, get := repo.calls()
	assert.Equal(t, 1, get)
	require.Len(t, selected, 3) // initial nil + two publishes
	assert.Equal(t, int64(3), selected[2].ID)

	require.NoError(t, svc.Delete(ctx, 3))
	assert.Nil(t, svc.Selected().Get())

	_, err = svc.GetByID(ctx, 3)
	require.NoError(t, err)
	_, get = repo.calls()
	assert.Equal(t, 2, get, "delete must invalidate by-id entries")
}

func TestUpdateRepublishesSelected(t *testing.T) {
	svc := NewService(&fakeRepo{}, time.Minute, nil)
	a, err := svc.Update(context.Background(), 4, domain.ArtistInput{Name: "Os Paralamas do Sucesso"})
	require.NoError(t, err)
	assert.Same(t, a, svc.Selected().Get())

	a, err = svc.UploadPhoto(context.Background(), 4, domain.UploadFile{Name: "p.jpg", Data: []byte{1}})
	require.NoError(t, err)
	assert.Equal(t, "p.jpg", svc.Selected().Get().PhotoFile)
}

func TestListErrorIsReturnedAndNotCached(t *testing.T) {
	boom := errors.New("boom")
	repo := &fakeRepo{listErr: boom}
	svc := NewService(repo, time.Minute, nil)

	_, err := svc.List(context.Background(), firstPage())
	assert.ErrorIs(t, err, boom)
	assert.False(t, svc.Loading().Get())

	repo.mu.Lock()
	repo.listErr = nil
	repo.mu.Unlock()
	_, err = svc.List(context.Background(), firstPage())
	require.NoError(t, err)
	list, _ := repo.calls()
	assert.Equal(t, 2, list)
}

func TestStaleListResponseIsNotPublished(t *testing.T) {
	release := make(chan struct{})
	repo := &fakeRepo{names: []string{"x"}, block: map[int]chan struct{}{0: release}}
	svc := NewService(repo, time.Minute, nil)
	ctx := context.Background()

	slow := make(chan error, 1)
	go func() {
		_, err := svc.List(ctx, firstPage())
		slow <- err
	}()
	require.Eventually(t, func() bool {
		list, _ := repo.calls()
		return list == 1
	}, time.Second, 5*time.Millisecond)

	newer := firstPage()
	newer.Page = 1
	_, err := svc.List(ctx, newer)
	require.NoError(t, err)
	assert.Equal(t, 1, svc.Page().Get())

	close(release)
	require.NoError(t, <-slow)
	assert.Equal(t, 1, svc.Page().Get(), "older response must not overwrite the newer page")
	assert.Equal(t, int64(101), svc.Artists().Get()[0].ID)
}

func TestListOvertakenByCreateIsNotCached(t *testing.T) {
	release := make(chan struct{})
	repo := &fakeRepo{names: []string{"a"}, block: map[int]chan struct{}{0: release}}
	svc := NewService(repo, time.Minute, nil)
	ctx := context.Background()

	slow := make(chan error, 1)
	go func() {
		_, err := svc.List(ctx, firstPage())
		slow <- err
	}()
	// the slow list has read the backend before the create lands
	require.Eventually(t, func() bool {
		list, _ := repo.calls()
		return list == 1
	}, time.Second, 5*time.Millisecond)

	_, err := svc.Create(ctx, domain.ArtistInput{Name: "b"})
	require.NoError(t, err)

	close(release)
	require.NoError(t, <-slow)

	repo.mu.Lock()
	delete(repo.block, 0)
	repo.mu.Unlock()

	page, err := svc.List(ctx, firstPage())
	require.NoError(t, err)
	list, _ := repo.calls()
	assert.Equal(t, 2, list)
	assert.Len(t, page.Content, 2)
}

func TestPhotoURLNotFoundIsEmpty(t *testing.T) {
	svc := NewService(&fakeRepo{photoErr: notFoundErr{}}, time.Minute, nil)
	url, err := svc.PhotoURL(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, url)

	boom := errors.New("boom")
	svc = NewService(&fakeRepo{photoErr: boom}, time.Minute, nil)
	_, err = svc.PhotoURL(context.Background(), 1)
	assert.ErrorIs(t, err, boom)
}
