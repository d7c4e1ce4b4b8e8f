// Package postgres stores activity logs in PostgreSQL and records their
// changes in the transactional outbox.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/attendance/internal/domain"
	"example.com/attendance/internal/observability"
	"example.com/attendance/internal/outbox"
)

// Repository provides Postgres-backed persistence for activity logs and outbox events.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const selectLog = `SELECT user_id, log_date, activities, version FROM activity_logs`

// Get implements domain.LogReader.
func (r *Repository) Get(ctx context.Context, userID int64, date string) (*domain.ActivityLog, error) {
	row := r.pool.QueryRow(ctx, selectLog+` WHERE user_id=$1 AND log_date=$2`, userID, date)
	log, err := scanLog(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return log, nil
}

// LoadOrCreate implements domain.Repository.
func (r *Repository) LoadOrCreate(ctx context.Context, userID int64, date string) (*domain.ActivityLog, error) {
	const upsert = `INSERT INTO activity_logs (user_id, log_date) VALUES ($1, $2)
        ON CONFLICT (user_id, log_date) DO NOTHING`

	if _, err := r.pool.Exec(ctx, upsert, userID, date); err != nil {
		return nil, err
	}
	log, err := r.Get(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	if log == nil {
		return nil, fmt.Errorf("activity log %d/%s vanished after upsert", userID, date)
	}
	return log, nil
}

// Save writes the log under an optimistic version check and appends its
// pending changes to the outbox in the same transaction.
func (r *Repository) Save(ctx context.Context, log *domain.ActivityLog) (err error) {
	body, err := json.Marshal(log.Activities)
	if err != nil {
		return err
	}
	records, err := outbox.RecordsFromChanges(log.PendingChanges(), time.Now())
	if err != nil {
		return err
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	tag, err := tx.Exec(ctx, `UPDATE activity_logs
        SET activities=$3, version=version+1, updated_at=NOW()
        WHERE user_id=$1 AND log_date=$2 AND version=$4`,
		log.UserID, log.Date, body, log.Version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		tag, err = tx.Exec(ctx, `INSERT INTO activity_logs (user_id, log_date, activities, version)
            VALUES ($1,$2,$3,$4+1) ON CONFLICT (user_id, log_date) DO NOTHING`,
			log.UserID, log.Date, body, log.Version)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			err = domain.ErrConcurrentUpdate
			return err
		}
	}

	for _, rec := range records {
		if err = insertOutbox(ctx, tx, rec); err != nil {
			return err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return err
	}
	log.Version++
	log.ClearChanges()
	observability.RecordLogSaved(time.Now())
	return nil
}

func insertOutbox(ctx context.Context, tx pgx.Tx, rec outbox.Record) error {
	const stmt = `INSERT INTO outbox (aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	_, err := tx.Exec(ctx, stmt,
		rec.AggregateType,
		rec.AggregateID,
		rec.EventType,
		rec.Topic,
		rec.SchemaSubject,
		rec.PartitionKey,
		[]byte(rec.Payload),
		rec.DedupeKey,
	)
	return err
}

// ListByUser implements domain.HistoryLister.
func (r *Repository) ListByUser(ctx context.Context, userID int64, cursor *domain.Cursor, limit int) ([]*domain.ActivityLog, *domain.Cursor, error) {
	args := []any{userID, limit}
	query := selectLog + ` WHERE user_id=$1`
	if cursor != nil {
		query += ` AND log_date < $3`
		args = append(args, cursor.Date)
	}
	query += ` ORDER BY log_date DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	logs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.ActivityLog, error) {
		return scanLog(row)
	})
	if err != nil {
		return nil, nil, err
	}

	return logs, domain.NextCursor(logs, limit), nil
}

// Ping verifies connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func scanLog(row pgx.Row) (*domain.ActivityLog, error) {
	var (
		log  domain.ActivityLog
		body []byte
	)
	if err := row.Scan(&log.UserID, &log.Date, &body, &log.Version); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, &log.Activities); err != nil {
		return nil, fmt.Errorf("decode activities for %d/%s: %w", log.UserID, log.Date, err)
	}
	if log.Activities == nil {
		log.Activities = []domain.ActivityEntry{}
	}
	return &log, nil
}
