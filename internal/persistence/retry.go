package persistence

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"example.com/attendance/internal/domain"
)

// RetryingRepository retries transient read failures. Save runs once: a
// commit whose acknowledgement was lost must not be replayed. Concurrent
// update conflicts and cancellations are returned immediately.
type RetryingRepository struct {
	next     domain.Repository
	attempts uint
	delay    time.Duration
	logger   *slog.Logger
}

// NewRetryingRepository wraps next. attempts counts the first call.
func NewRetryingRepository(next domain.Repository, attempts uint, delay time.Duration, logger *slog.Logger) *RetryingRepository {
	if attempts == 0 {
		attempts = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RetryingRepository{next: next, attempts: attempts, delay: delay, logger: logger}
}

// Get implements domain.LogReader.
func (r *RetryingRepository) Get(ctx context.Context, userID int64, date string) (*domain.ActivityLog, error) {
	var log *domain.ActivityLog
	err := r.do(ctx, "get", func() error {
		var err error
		log, err = r.next.Get(ctx, userID, date)
		return err
	})
	return log, err
}

// LoadOrCreate implements domain.Repository.
func (r *RetryingRepository) LoadOrCreate(ctx context.Context, userID int64, date string) (*domain.ActivityLog, error) {
	var log *domain.ActivityLog
	err := r.do(ctx, "load", func() error {
		var err error
		log, err = r.next.LoadOrCreate(ctx, userID, date)
		return err
	})
	return log, err
}

// Save implements domain.Repository.
func (r *RetryingRepository) Save(ctx context.Context, log *domain.ActivityLog) error {
	return r.next.Save(ctx, log)
}

func (r *RetryingRepository) do(ctx context.Context, op string, fn func() error) error {
	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.Attempts(r.attempts),
		retry.Delay(r.delay),
		retry.MaxDelay(5*time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(transient),
		retry.OnRetry(func(n uint, err error) {
			r.logger.Warn("retrying storage operation", "op", op, "attempt", n+1, "error", err)
		}),
		retry.LastErrorOnly(true),
	)
}

func transient(err error) bool {
	switch {
	case errors.Is(err, domain.ErrConcurrentUpdate),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	default:
		return true
	}
}
