package regional

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seplag/discoteca/internal/domain"
)

var sample = []domain.Regional{
	{ID: 1, Name: "Regional Cuiabá", Active: true},
	{ID: 2, Name: "Regional Rondonópolis", Active: false},
	{ID: 3, Name: "Regional Sinop", Active: true},
}

type fakeRepo struct {
	listCalls int
	syncCalls int
	syncList  bool
	err       error
}

func (f *fakeRepo) ListRegionals(ctx context.Context) ([]domain.Regional, error) {
	f.listCalls++
	if f.err != nil {
		return nil, f.err
	}
	return sample, nil
}

func (f *fakeRepo) SyncRegionals(ctx context.Context) ([]domain.Regional, bool, error) {
	f.syncCalls++
	if f.err != nil {
		return nil, false, f.err
	}
	if !f.syncList {
		return nil, false, nil
	}
	return sample[:2], true, nil
}

func newService(repo *fakeRepo) *Service {
	svc := NewService(repo, time.Minute, nil)
	svc.now = func() time.Time { return time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestListCachesAndSetsLastSync(t *testing.T) {
	repo := &fakeRepo{}
	svc := newService(repo)
	ctx := context.Background()

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)
	_, err = svc.List(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, repo.listCalls)
	assert.Equal(t, sample, svc.Regionals().Get())
	assert.Equal(t, 2026, svc.LastSync().Get().Year())
}

func TestSyncPublishesReturnedList(t *testing.T) {
	repo := &fakeRepo{syncList: true}
	svc := newService(repo)

	list, err := svc.Sync(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, 0, repo.listCalls)
	assert.Len(t, svc.Regionals().Get(), 2)
	assert.False(t, svc.LastSync().Get().IsZero())

	// the synced list is served from cache afterwards
	_, err = svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, repo.listCalls)
}

func TestSyncWithoutListReloads(t *testing.T) {
	repo := &fakeRepo{}
	svc := newService(repo)
	ctx := context.Background()

	_, err := svc.List(ctx)
	require.NoError(t, err)

	list, err := svc.Sync(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)
	assert.Equal(t, 1, repo.syncCalls)
	assert.Equal(t, 2, repo.listCalls, "sync must bypass the cached list")
}

func TestActiveInactiveAndSearch(t *testing.T) {
	svc := newService(&fakeRepo{})
	_, err := svc.List(context.Background())
	require.NoError(t, err)

	assert.Len(t, svc.Active(), 2)
	require.Len(t, svc.Inactive(), 1)
	assert.Equal(t, int64(2), svc.Inactive()[0].ID)

	found := svc.Search("sinop")
	require.Len(t, found, 1)
	assert.Equal(t, int64(3), found[0].ID)

	assert.Len(t, svc.Search(""), 3)
	assert.Empty(t, svc.Search("xyz"))
}

func TestSyncErrorIsReturned(t *testing.T) {
	boom := errors.New("boom")
	svc := newService(&fakeRepo{err: boom})
	_, err := svc.Sync(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.False(t, svc.Loading().Get())
}
