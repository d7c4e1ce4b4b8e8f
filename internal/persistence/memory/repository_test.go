package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/attendance/internal/domain"
)

func TestGetMissingLog(t *testing.T) {
	repo := NewRepository()
	log, err := repo.Get(context.Background(), 1, "2026-10-12")
	require.NoError(t, err)
	require.Nil(t, log)
}

func TestLoadOrCreateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	first, err := repo.LoadOrCreate(ctx, 1, "2026-10-12")
	require.NoError(t, err)
	first.OpenNew(domain.CategoryWork, "09:00:00")
	require.NoError(t, repo.Save(ctx, first))

	again, err := repo.LoadOrCreate(ctx, 1, "2026-10-12")
	require.NoError(t, err)
	require.Len(t, again.Activities, 1)
	require.Equal(t, int64(1), again.Version)
}

func TestSaveRejectsStaleVersion(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	a, err := repo.LoadOrCreate(ctx, 1, "2026-10-12")
	require.NoError(t, err)
	b, err := repo.LoadOrCreate(ctx, 1, "2026-10-12")
	require.NoError(t, err)

	a.OpenNew(domain.CategoryWork, "09:00:00")
	require.NoError(t, repo.Save(ctx, a))

	b.OpenNew(domain.CategoryEat, "09:00:01")
	require.ErrorIs(t, repo.Save(ctx, b), domain.ErrConcurrentUpdate)

	stored, err := repo.Get(ctx, 1, "2026-10-12")
	require.NoError(t, err)
	require.Equal(t, domain.CategoryWork, stored.Activities[0].Category)
}

func TestReturnedLogsAreCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	log, err := repo.LoadOrCreate(ctx, 1, "2026-10-12")
	require.NoError(t, err)
	log.OpenNew(domain.CategoryWork, "09:00:00")

	stored, err := repo.Get(ctx, 1, "2026-10-12")
	require.NoError(t, err)
	require.Empty(t, stored.Activities)
	require.Empty(t, repo.Changes())
}

func TestSaveDrainsChanges(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	log, err := repo.LoadOrCreate(ctx, 1, "2026-10-12")
	require.NoError(t, err)
	log.OpenNew(domain.CategoryWork, "09:00:00")
	log.CloseOpen("10:00:00")
	require.NoError(t, repo.Save(ctx, log))

	require.Empty(t, log.PendingChanges())
	changes := repo.Changes()
	require.Len(t, changes, 2)
	require.Equal(t, domain.ChangeActivityClosed, changes[1].Kind)
}

func TestListByUserPagesNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()
	for _, date := range []string{"2026-10-10", "2026-10-12", "2026-10-11"} {
		_, err := repo.LoadOrCreate(ctx, 1, date)
		require.NoError(t, err)
	}
	_, err := repo.LoadOrCreate(ctx, 2, "2026-10-13")
	require.NoError(t, err)

	page, next, err := repo.ListByUser(ctx, 1, nil, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, "2026-10-12", page[0].Date)
	require.Equal(t, "2026-10-11", page[1].Date)
	require.NotNil(t, next)

	page, next, err = repo.ListByUser(ctx, 1, next, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, "2026-10-10", page[0].Date)
	require.Nil(t, next)
}
