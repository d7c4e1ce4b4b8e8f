package domain

import (
	"context"
	"errors"
)

var (
	// ErrPersistenceUnavailable wraps any failure to load or save a log.
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
	// ErrMalformedEvent is returned for inbound events missing a user or command.
	ErrMalformedEvent = errors.New("malformed event")
	// ErrConcurrentUpdate is returned when a save races a newer version.
	ErrConcurrentUpdate = errors.New("activity log modified concurrently")
)

// LogReader fetches a log without creating it. A missing log yields nil, nil.
type LogReader interface {
	Get(ctx context.Context, userID int64, date string) (*ActivityLog, error)
}

// Repository is the storage contract of the command router.
type Repository interface {
	LogReader
	// LoadOrCreate returns the log for the key, creating an empty one if
	// needed. The returned log is a private copy.
	LoadOrCreate(ctx context.Context, userID int64, date string) (*ActivityLog, error)
	// Save persists the full entry list and bumps Version. A stale Version
	// fails with ErrConcurrentUpdate. Pending changes are cleared on success.
	Save(ctx context.Context, log *ActivityLog) error
}

// Cursor marks the last log of a history page.
type Cursor struct {
	UserID int64
	Date   string
}

// HistoryLister pages through a user's logs, newest date first.
type HistoryLister interface {
	ListByUser(ctx context.Context, userID int64, cursor *Cursor, limit int) ([]*ActivityLog, *Cursor, error)
}

// NextCursor returns the cursor following a full page, or nil when the page
// was short.
func NextCursor(logs []*ActivityLog, limit int) *Cursor {
	if limit <= 0 || len(logs) < limit {
		return nil
	}
	last := logs[len(logs)-1]
	return &Cursor{UserID: last.UserID, Date: last.Date}
}
