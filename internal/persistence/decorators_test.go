package persistence

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/attendance/internal/domain"
	"example.com/attendance/internal/persistence/memory"
)

type countingRepo struct {
	*memory.Repository
	loads    int
	gets     int
	saves    int
	loadErrs []error
	saveErrs []error
}

func (c *countingRepo) Get(ctx context.Context, userID int64, date string) (*domain.ActivityLog, error) {
	c.gets++
	return c.Repository.Get(ctx, userID, date)
}

func (c *countingRepo) LoadOrCreate(ctx context.Context, userID int64, date string) (*domain.ActivityLog, error) {
	c.loads++
	if len(c.loadErrs) > 0 {
		err := c.loadErrs[0]
		c.loadErrs = c.loadErrs[1:]
		return nil, err
	}
	return c.Repository.LoadOrCreate(ctx, userID, date)
}

func (c *countingRepo) Save(ctx context.Context, log *domain.ActivityLog) error {
	c.saves++
	if len(c.saveErrs) > 0 {
		err := c.saveErrs[0]
		c.saveErrs = c.saveErrs[1:]
		return err
	}
	return c.Repository.Save(ctx, log)
}

func TestCachedRepositoryServesFromCache(t *testing.T) {
	ctx := context.Background()
	inner := &countingRepo{Repository: memory.NewRepository()}
	repo := NewCachedRepository(inner, 10, time.Minute)

	log, err := repo.LoadOrCreate(ctx, 1, "2026-10-12")
	require.NoError(t, err)
	log.OpenNew(domain.CategoryWork, "09:00:00")
	require.NoError(t, repo.Save(ctx, log))

	again, err := repo.LoadOrCreate(ctx, 1, "2026-10-12")
	require.NoError(t, err)
	require.Equal(t, 1, inner.loads)
	require.Len(t, again.Activities, 1)
	require.Equal(t, int64(1), again.Version)

	again.CloseOpen("10:00:00")
	reloaded, err := repo.LoadOrCreate(ctx, 1, "2026-10-12")
	require.NoError(t, err)
	require.Empty(t, reloaded.Activities[0].End, "callers must receive copies")
	require.Equal(t, 1, inner.loads)

	_, err = repo.Get(ctx, 1, "2026-10-12")
	require.NoError(t, err)
	require.Equal(t, 1, inner.gets, "reads go to the store")
}

func TestCachedRepositoryGetSeesWritesFromOtherProcesses(t *testing.T) {
	ctx := context.Background()
	shared := memory.NewRepository()
	writer := NewCachedRepository(shared, 10, time.Hour)
	reader := NewCachedRepository(shared, 10, time.Hour)

	// Given: the reader has already cached the empty log
	_, err := reader.LoadOrCreate(ctx, 1, "2026-10-12")
	require.NoError(t, err)

	// When: another instance saves an entry
	log, err := writer.LoadOrCreate(ctx, 1, "2026-10-12")
	require.NoError(t, err)
	log.OpenNew(domain.CategoryWork, "09:00:00")
	require.NoError(t, writer.Save(ctx, log))

	// Then: the reader's Get returns the stored state
	got, err := reader.Get(ctx, 1, "2026-10-12")
	require.NoError(t, err)
	require.Equal(t, []domain.ActivityEntry{{Category: domain.CategoryWork, Start: "09:00:00"}}, got.Activities)
	require.Equal(t, int64(1), got.Version)
}

func TestCachedRepositoryEvictsOnConflict(t *testing.T) {
	ctx := context.Background()
	store := memory.NewRepository()
	repo := NewCachedRepository(store, 10, time.Minute)

	log, err := repo.LoadOrCreate(ctx, 1, "2026-10-12")
	require.NoError(t, err)

	// Another process writes behind the cache's back.
	other, err := store.LoadOrCreate(ctx, 1, "2026-10-12")
	require.NoError(t, err)
	other.OpenNew(domain.CategorySmoke, "08:00:00")
	require.NoError(t, store.Save(ctx, other))

	log.OpenNew(domain.CategoryWork, "09:00:00")
	require.ErrorIs(t, repo.Save(ctx, log), domain.ErrConcurrentUpdate)

	fresh, err := repo.LoadOrCreate(ctx, 1, "2026-10-12")
	require.NoError(t, err)
	require.Equal(t, domain.CategorySmoke, fresh.Activities[0].Category)
}

func TestCachedRepositoryMissingLog(t *testing.T) {
	repo := NewCachedRepository(memory.NewRepository(), 0, 0)
	log, err := repo.Get(context.Background(), 1, "2026-10-12")
	require.NoError(t, err)
	require.Nil(t, log)
}

func TestRetryingRepositoryRetriesTransientLoadErrors(t *testing.T) {
	ctx := context.Background()
	inner := &countingRepo{
		Repository: memory.NewRepository(),
		loadErrs:   []error{errors.New("conn reset"), errors.New("conn reset")},
	}
	repo := NewRetryingRepository(inner, 3, time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))

	log, err := repo.LoadOrCreate(ctx, 1, "2026-10-12")
	require.NoError(t, err)
	require.Equal(t, 3, inner.loads)
	log.OpenNew(domain.CategoryWork, "09:00:00")
	require.NoError(t, repo.Save(ctx, log))

	stored, err := repo.Get(ctx, 1, "2026-10-12")
	require.NoError(t, err)
	require.Len(t, stored.Activities, 1)
}

func TestRetryingRepositoryGivesUp(t *testing.T) {
	inner := &countingRepo{
		Repository: memory.NewRepository(),
		loadErrs:   []error{errors.New("a"), errors.New("b"), errors.New("c")},
	}
	repo := NewRetryingRepository(inner, 2, time.Millisecond, nil)

	_, err := repo.LoadOrCreate(context.Background(), 1, "2026-10-12")
	require.EqualError(t, err, "b")
	require.Len(t, inner.loadErrs, 1)
}

func TestRetryingRepositoryRunsSaveOnce(t *testing.T) {
	inner := &countingRepo{
		Repository: memory.NewRepository(),
		saveErrs:   []error{errors.New("conn reset"), errors.New("unreached")},
	}
	repo := NewRetryingRepository(inner, 5, time.Millisecond, nil)

	err := repo.Save(context.Background(), domain.NewActivityLog(1, "2026-10-12"))
	require.EqualError(t, err, "conn reset")
	require.Equal(t, 1, inner.saves)
	require.Len(t, inner.saveErrs, 1)
}

func TestRetryingRepositoryDoesNotRetryConflicts(t *testing.T) {
	inner := &countingRepo{
		Repository: memory.NewRepository(),
		loadErrs:   []error{domain.ErrConcurrentUpdate, errors.New("unreached")},
	}
	repo := NewRetryingRepository(inner, 5, time.Millisecond, nil)

	_, err := repo.LoadOrCreate(context.Background(), 1, "2026-10-12")
	require.ErrorIs(t, err, domain.ErrConcurrentUpdate)
	require.Len(t, inner.loadErrs, 1)
}
