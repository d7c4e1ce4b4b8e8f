package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/attendance/internal/domain"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(context.Background(), filepath.Join(t.TempDir(), "attendance.db"))
	require.NoError(t, err, "failed to open database")
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestOpenMigratesSchema(t *testing.T) {
	// Given: a fresh database file
	repo := openTestRepo(t)

	// When: the schema version is read
	version, err := repo.Version(context.Background())

	// Then: every migration has been applied
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, version)

	// And: migrating again is a no-op
	require.NoError(t, repo.Migrate(context.Background()))
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "attendance.db")

	// Given: a log saved to disk
	repo, err := Open(ctx, path)
	require.NoError(t, err)
	log, err := repo.LoadOrCreate(ctx, 5, "2026-10-12")
	require.NoError(t, err)
	log.OpenNew(domain.CategoryWork, "09:00:00")
	require.NoError(t, repo.Save(ctx, log))
	require.NoError(t, repo.Close())

	// When: the database is reopened
	repo, err = Open(ctx, path)
	require.NoError(t, err)
	defer repo.Close()

	// Then: the log is still there
	stored, err := repo.Get(ctx, 5, "2026-10-12")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, []domain.ActivityEntry{{Category: domain.CategoryWork, Start: "09:00:00"}}, stored.Activities)
	assert.Equal(t, int64(1), stored.Version)
}

func TestLoadOrCreateDoesNotDuplicate(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	// Given: an existing log with one entry
	log, err := repo.LoadOrCreate(ctx, 5, "2026-10-12")
	require.NoError(t, err)
	log.OpenNew(domain.CategoryEat, "12:00:00")
	require.NoError(t, repo.Save(ctx, log))

	// When: load-or-create runs again
	again, err := repo.LoadOrCreate(ctx, 5, "2026-10-12")

	// Then: the existing log is returned untouched
	require.NoError(t, err)
	assert.Len(t, again.Activities, 1)
}

func TestGetMissing(t *testing.T) {
	repo := openTestRepo(t)
	log, err := repo.Get(context.Background(), 5, "2026-10-12")
	require.NoError(t, err)
	require.Nil(t, log)
}

func TestSaveRejectsStaleVersion(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	// Given: two readers of the same log
	a, err := repo.LoadOrCreate(ctx, 5, "2026-10-12")
	require.NoError(t, err)
	b, err := repo.LoadOrCreate(ctx, 5, "2026-10-12")
	require.NoError(t, err)

	// When: both save
	a.OpenNew(domain.CategoryWork, "09:00:00")
	require.NoError(t, repo.Save(ctx, a))
	b.OpenNew(domain.CategorySmoke, "09:00:01")
	err = repo.Save(ctx, b)

	// Then: the stale writer loses
	require.ErrorIs(t, err, domain.ErrConcurrentUpdate)
	stored, err := repo.Get(ctx, 5, "2026-10-12")
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryWork, stored.Activities[0].Category)
}

func TestSaveWithoutLoadInserts(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	log := domain.NewActivityLog(6, "2026-10-12")
	log.OpenNew(domain.CategoryToilet, "10:00:00")
	require.NoError(t, repo.Save(ctx, log))

	stored, err := repo.Get(ctx, 6, "2026-10-12")
	require.NoError(t, err)
	assert.Len(t, stored.Activities, 1)
}

func TestListByUser(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	for _, date := range []string{"2026-10-12", "2026-10-10", "2026-10-11"} {
		_, err := repo.LoadOrCreate(ctx, 5, date)
		require.NoError(t, err)
	}

	page, next, err := repo.ListByUser(ctx, 5, nil, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "2026-10-12", page[0].Date)
	assert.Equal(t, "2026-10-11", page[1].Date)

	page, next, err = repo.ListByUser(ctx, 5, next, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "2026-10-10", page[0].Date)
	assert.Nil(t, next)
}
