package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store is the tool's own SQLite database: the catalog response cache and
// the rename journal.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

const schema = `
CREATE TABLE IF NOT EXISTS catalog_cache (
    key       TEXT PRIMARY KEY,
    value     BLOB NOT NULL,
    stored_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS rename_journal (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id        TEXT NOT NULL,
    operation_id  TEXT NOT NULL,
    original_path TEXT NOT NULL,
    new_path      TEXT NOT NULL,
    mode          TEXT NOT NULL,
    status        TEXT NOT NULL,
    message       TEXT,
    created_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_rename_journal_created ON rename_journal(created_at);
CREATE INDEX IF NOT EXISTS idx_rename_journal_run ON rename_journal(run_id);
`

// OpenStore opens or creates the store at path and applies the schema.
func OpenStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) exec(ctx context.Context, query string, args ...any) error {
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}

// CacheGet returns the cached value for key when it is younger than maxAge.
// A maxAge of zero accepts any age.
func (s *Store) CacheGet(ctx context.Context, key string, maxAge time.Duration) ([]byte, bool, error) {
	var (
		value    []byte
		storedAt string
	)
	err := s.db.QueryRowContext(ctx, `SELECT value, stored_at FROM catalog_cache WHERE key = ?`, key).
		Scan(&value, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cache: %w", err)
	}
	if maxAge > 0 {
		ts, err := time.Parse(time.RFC3339Nano, storedAt)
		if err != nil || time.Since(ts) > maxAge {
			return nil, false, nil
		}
	}
	return value, true, nil
}

// CachePut stores value under key, replacing any previous value.
func (s *Store) CachePut(ctx context.Context, key string, value []byte) error {
	err := s.exec(ctx,
		`INSERT INTO catalog_cache (key, value, stored_at) VALUES (?, ?, ?)
         ON CONFLICT(key) DO UPDATE SET value = excluded.value, stored_at = excluded.stored_at`,
		key, value, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	return nil
}

// PurgeCache removes entries older than maxAge and returns how many were removed.
func (s *Store) PurgeCache(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-maxAge).Format(time.RFC3339Nano)
	var n int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM catalog_cache WHERE stored_at < ?`, cutoff)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("purge cache: %w", err)
	}
	return n, nil
}

// Record appends an entry to the rename journal.
func (s *Store) Record(ctx context.Context, e JournalEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	err := s.exec(ctx,
		`INSERT INTO rename_journal (
            run_id, operation_id, original_path, new_path, mode, status, message, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, e.OperationID, e.OriginalPath, e.NewPath, e.Mode, string(e.Status),
		nullableString(e.Message), e.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record journal entry: %w", err)
	}
	return nil
}

// History returns the newest journal entries first. A limit of zero returns all.
// When runID is non-empty only that run is listed.
func (s *Store) History(ctx context.Context, runID string, limit int) ([]JournalEntry, error) {
	query := `SELECT id, run_id, operation_id, original_path, new_path, mode, status,
                     COALESCE(message, ''), created_at
              FROM rename_journal`
	var args []any
	if runID != "" {
		query += ` WHERE run_id = ?`
		args = append(args, runID)
	}
	query += ` ORDER BY id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var out []JournalEntry
	for rows.Next() {
		var (
			e       JournalEntry
			status  string
			created string
		)
		if err := rows.Scan(&e.ID, &e.RunID, &e.OperationID, &e.OriginalPath, &e.NewPath,
			&e.Mode, &status, &e.Message, &created); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		e.Status = JournalStatus(status)
		if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
			e.CreatedAt = ts
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullableString(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
