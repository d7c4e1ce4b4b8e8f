// Package storage opens the activity log store selected by configuration.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/attendance/internal/config"
	"example.com/attendance/internal/domain"
	"example.com/attendance/internal/persistence"
	"example.com/attendance/internal/persistence/memory"
	"example.com/attendance/internal/persistence/postgres"
	"example.com/attendance/internal/persistence/sqlite"
)

// ErrUnknownDriver is returned for an unsupported STORAGE_DRIVER.
var ErrUnknownDriver = errors.New("unknown storage driver")

const retryDelay = 50 * time.Millisecond

// Store bundles the decorated repository with the raw driver handles the
// binaries need.
type Store struct {
	// Repository is the cached, retrying repository used by the router.
	Repository domain.Repository
	// History lists logs straight from the driver.
	History domain.HistoryLister
	// Pool is set for the postgres driver only.
	Pool *pgxpool.Pool

	driver string
	ping   func(context.Context) error
	close  func() error
}

// Open connects to the configured driver and wraps it with the retry and
// cache decorators.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	store := &Store{
		driver: cfg.StorageDriver,
		ping:   func(context.Context) error { return nil },
		close:  func() error { return nil },
	}

	var base interface {
		domain.Repository
		domain.HistoryLister
	}
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		repo := postgres.NewRepository(pool)
		base = repo
		store.Pool = pool
		store.ping = repo.Ping
		store.close = func() error { pool.Close(); return nil }
	case config.DriverSQLite:
		repo, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		base = repo
		store.close = repo.Close
	case config.DriverMemory:
		base = memory.NewRepository()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.StorageDriver)
	}

	attempts := cfg.PersistenceAttempts
	if attempts < 1 {
		attempts = 1
	}
	retrying := persistence.NewRetryingRepository(base, uint(attempts), retryDelay, logger)
	store.Repository = persistence.NewCachedRepository(retrying, cfg.CacheSize, cfg.CacheTTL)
	store.History = base

	logger.Info("storage opened", "driver", cfg.StorageDriver)
	return store, nil
}

// Driver reports the driver name.
func (s *Store) Driver() string {
	return s.driver
}

// Ping checks the backing store is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

// Close releases the driver.
func (s *Store) Close() error {
	return s.close()
}
