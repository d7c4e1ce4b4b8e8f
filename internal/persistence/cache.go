// Package persistence holds repository decorators shared by every storage
// driver.
package persistence

import (
	"context"
	"strconv"
	"time"

	"github.com/maypok86/otter/v2"

	"example.com/attendance/internal/domain"
)

// CachedRepository keeps recently used logs in a bounded write-through cache
// for the load-mutate-save path. A stale entry surfaces as a concurrent-update
// failure on save, which evicts it so the next load reads the store again.
type CachedRepository struct {
	next  domain.Repository
	cache *otter.Cache[string, *domain.ActivityLog]
}

// NewCachedRepository wraps next with a cache holding at most size logs for ttl.
func NewCachedRepository(next domain.Repository, size int, ttl time.Duration) *CachedRepository {
	if size <= 0 {
		size = 1_000
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	cache := otter.Must(&otter.Options[string, *domain.ActivityLog]{
		MaximumSize:      size,
		InitialCapacity:  min(size, 128),
		ExpiryCalculator: otter.ExpiryWriting[string, *domain.ActivityLog](ttl),
	})
	return &CachedRepository{next: next, cache: cache}
}

// Get implements domain.LogReader. Reads always go to the store, which other
// processes may have written, and refresh the cached copy.
func (c *CachedRepository) Get(ctx context.Context, userID int64, date string) (*domain.ActivityLog, error) {
	log, err := c.next.Get(ctx, userID, date)
	if err != nil || log == nil {
		return log, err
	}
	c.cache.Set(cacheKey(userID, date), log.Clone())
	return log, nil
}

// LoadOrCreate implements domain.Repository.
func (c *CachedRepository) LoadOrCreate(ctx context.Context, userID int64, date string) (*domain.ActivityLog, error) {
	k := cacheKey(userID, date)
	if log, ok := c.cache.GetIfPresent(k); ok {
		return log.Clone(), nil
	}
	log, err := c.next.LoadOrCreate(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	c.cache.Set(k, log.Clone())
	return log, nil
}

// Save implements domain.Repository.
func (c *CachedRepository) Save(ctx context.Context, log *domain.ActivityLog) error {
	k := cacheKey(log.UserID, log.Date)
	if err := c.next.Save(ctx, log); err != nil {
		c.cache.Invalidate(k)
		return err
	}
	c.cache.Set(k, log.Clone())
	return nil
}

func cacheKey(userID int64, date string) string {
	return strconv.FormatInt(userID, 10) + "/" + date
}
