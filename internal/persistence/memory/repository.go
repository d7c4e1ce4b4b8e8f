// Package memory provides an in-process activity log store for local
// development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"example.com/attendance/internal/domain"
	"example.com/attendance/internal/observability"
)

type key struct {
	userID int64
	date   string
}

// Repository stores activity logs in memory.
type Repository struct {
	mu      sync.RWMutex
	logs    map[key]*domain.ActivityLog
	changes []domain.Change
}

// NewRepository constructs an empty repository.
func NewRepository() *Repository {
	return &Repository{logs: make(map[key]*domain.ActivityLog)}
}

// Get implements domain.LogReader.
func (r *Repository) Get(ctx context.Context, userID int64, date string) (*domain.ActivityLog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.logs[key{userID, date}]
	if !ok {
		return nil, nil
	}
	return stored.Clone(), nil
}

// LoadOrCreate implements domain.Repository.
func (r *Repository) LoadOrCreate(ctx context.Context, userID int64, date string) (*domain.ActivityLog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{userID, date}
	stored, ok := r.logs[k]
	if !ok {
		stored = domain.NewActivityLog(userID, date)
		r.logs[k] = stored
	}
	return stored.Clone(), nil
}

// Save implements domain.Repository.
func (r *Repository) Save(ctx context.Context, log *domain.ActivityLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{log.UserID, log.Date}
	if stored, ok := r.logs[k]; ok && stored.Version != log.Version {
		return domain.ErrConcurrentUpdate
	}

	r.changes = append(r.changes, log.PendingChanges()...)
	log.ClearChanges()
	log.Version++
	r.logs[k] = log.Clone()
	observability.RecordLogSaved(time.Now())
	return nil
}

// ListByUser implements domain.HistoryLister.
func (r *Repository) ListByUser(ctx context.Context, userID int64, cursor *domain.Cursor, limit int) ([]*domain.ActivityLog, *domain.Cursor, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	logs := make([]*domain.ActivityLog, 0)
	for k, log := range r.logs {
		if k.userID != userID {
			continue
		}
		if cursor != nil && k.date >= cursor.Date {
			continue
		}
		logs = append(logs, log.Clone())
	}
	sort.Slice(logs, func(i, j int) bool { return logs[i].Date > logs[j].Date })
	if limit > 0 && len(logs) > limit {
		logs = logs[:limit]
	}

	return logs, domain.NextCursor(logs, limit), nil
}

// Changes returns every change persisted so far, oldest first.
func (r *Repository) Changes() []domain.Change {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Change, len(r.changes))
	copy(out, r.changes)
	return out
}
