// Package sqlite stores activity logs in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"example.com/attendance/internal/domain"
	"example.com/attendance/internal/observability"
)

//go:embed migrations/001_activity_logs.sql
var initialSchemaSQL string

// migrations holds every schema step. Index+1 is the PRAGMA user_version it
// leaves the database at.
var migrations = []string{
	initialSchemaSQL,
}

// SchemaVersion is the user_version of a fully migrated database.
var SchemaVersion = len(migrations)

// Repository is a database/sql backed activity log store.
type Repository struct {
	conn *sql.DB
	path string
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(ctx context.Context, path string) (*Repository, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer keeps SQLITE_BUSY out of the optimistic update path.
	conn.SetMaxOpenConns(1)

	if _, err := conn.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := conn.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	repo := &Repository{conn: conn, path: path}
	if err := repo.Migrate(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.conn.Close()
}

// Path returns the database file path.
func (r *Repository) Path() string {
	return r.path
}

// Version reads PRAGMA user_version.
func (r *Repository) Version(ctx context.Context) (int, error) {
	var version int
	if err := r.conn.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

// Migrate runs pending migrations, each in its own transaction.
func (r *Repository) Migrate(ctx context.Context) error {
	version, err := r.Version(ctx)
	if err != nil {
		return err
	}
	for i := version; i < len(migrations); i++ {
		tx, err := r.conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", i+1, err)
		}
		if _, err := tx.ExecContext(ctx, migrations[i]); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to set schema version to %d: %w", i+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", i+1, err)
		}
	}
	return nil
}

// Get implements domain.LogReader.
func (r *Repository) Get(ctx context.Context, userID int64, date string) (*domain.ActivityLog, error) {
	row := r.conn.QueryRowContext(ctx,
		"SELECT user_id, log_date, activities, version FROM activity_logs WHERE user_id = ? AND log_date = ?",
		userID, date)
	log, err := scanLog(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return log, err
}

// LoadOrCreate implements domain.Repository.
func (r *Repository) LoadOrCreate(ctx context.Context, userID int64, date string) (*domain.ActivityLog, error) {
	now := time.Now().Unix()
	if _, err := r.conn.ExecContext(ctx,
		`INSERT INTO activity_logs (user_id, log_date, activities, version, created_at, updated_at)
		 VALUES (?, ?, '[]', 0, ?, ?)
		 ON CONFLICT (user_id, log_date) DO NOTHING`,
		userID, date, now, now); err != nil {
		return nil, fmt.Errorf("failed to upsert activity log: %w", err)
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

// Save implements domain.Repository.
func (r *Repository) Save(ctx context.Context, log *domain.ActivityLog) error {
	body, err := json.Marshal(log.Activities)
	if err != nil {
		return err
	}
	now := time.Now()

	res, err := r.conn.ExecContext(ctx,
		`UPDATE activity_logs SET activities = ?, version = version + 1, updated_at = ?
		 WHERE user_id = ? AND log_date = ? AND version = ?`,
		string(body), now.Unix(), log.UserID, log.Date, log.Version)
	if err != nil {
		return fmt.Errorf("failed to update activity log: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		res, err = r.conn.ExecContext(ctx,
			`INSERT INTO activity_logs (user_id, log_date, activities, version, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT (user_id, log_date) DO NOTHING`,
			log.UserID, log.Date, string(body), log.Version+1, now.Unix(), now.Unix())
		if err != nil {
			return fmt.Errorf("failed to insert activity log: %w", err)
		}
		if n, err = res.RowsAffected(); err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrConcurrentUpdate
		}
	}

	log.Version++
	log.ClearChanges()
	observability.RecordLogSaved(now)
	return nil
}

// ListByUser implements domain.HistoryLister.
func (r *Repository) ListByUser(ctx context.Context, userID int64, cursor *domain.Cursor, limit int) ([]*domain.ActivityLog, *domain.Cursor, error) {
	query := "SELECT user_id, log_date, activities, version FROM activity_logs WHERE user_id = ?"
	args := []any{userID}
	if cursor != nil {
		query += " AND log_date < ?"
		args = append(args, cursor.Date)
	}
	query += " ORDER BY log_date DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list activity logs: %w", err)
	}
	defer rows.Close()

	var logs []*domain.ActivityLog
	for rows.Next() {
		log, err := scanLog(rows)
		if err != nil {
			return nil, nil, err
		}
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	return logs, domain.NextCursor(logs, limit), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLog(row scanner) (*domain.ActivityLog, error) {
	var (
		log  domain.ActivityLog
		body string
	)
	if err := row.Scan(&log.UserID, &log.Date, &body, &log.Version); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(body), &log.Activities); err != nil {
		return nil, fmt.Errorf("failed to decode activities for %d/%s: %w", log.UserID, log.Date, err)
	}
	if log.Activities == nil {
		log.Activities = []domain.ActivityEntry{}
	}
	return &log, nil
}
