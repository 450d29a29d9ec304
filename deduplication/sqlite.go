package deduplication

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"rewritebot/types"
)

// SQLiteIndex stores dedup records in a table with unique URL and hash
// columns; the constraint does the compare-and-set.
type SQLiteIndex struct {
	db *sql.DB
}

// NewSQLiteIndex creates the tables if needed. The index owns db.
func NewSQLiteIndex(db *sql.DB) (*SQLiteIndex, error) {
	s := &SQLiteIndex{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteIndex) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS dedup_records (
			normalized_url TEXT NOT NULL UNIQUE,
			content_hash   TEXT NOT NULL UNIQUE,
			first_seen_at  DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS run_lock (
			name       TEXT PRIMARY KEY,
			holder     TEXT NOT NULL,
			expires_at INTEGER NOT NULL
		);
	`)
	return err
}

func (s *SQLiteIndex) HasURL(ctx context.Context, normalizedURL string) (bool, error) {
	return s.exists(ctx, `SELECT 1 FROM dedup_records WHERE normalized_url = ?`, normalizedURL)
}

func (s *SQLiteIndex) HasHash(ctx context.Context, contentHash string) (bool, error) {
	return s.exists(ctx, `SELECT 1 FROM dedup_records WHERE content_hash = ?`, contentHash)
}

func (s *SQLiteIndex) exists(ctx context.Context, query, arg string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLiteIndex) Record(ctx context.Context, rec types.DedupRecord) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO dedup_records (normalized_url, content_hash, first_seen_at)
		VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING`,
		rec.NormalizedURL, rec.ContentHash, rec.FirstSeenAt.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("record dedup entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *SQLiteIndex) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dedup_records`).Scan(&n)
	return n, err
}

func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}

// SQLiteLocker keeps the run lock in the index database.
type SQLiteLocker struct {
	db   *sql.DB
	name string
	now  func() time.Time
}

func NewSQLiteLocker(db *sql.DB) *SQLiteLocker {
	return &SQLiteLocker{db: db, name: "run", now: time.Now}
}

func (l *SQLiteLocker) Acquire(ctx context.Context, holder string, ttl time.Duration) (Lock, error) {
	now := l.now()
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM run_lock WHERE name = ? AND expires_at < ?`, l.name, now.UnixNano()); err != nil {
		return nil, err
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO run_lock (name, holder, expires_at) VALUES (?, ?, ?) ON CONFLICT DO NOTHING`,
		l.name, holder, now.Add(ttl).UnixNano())
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, ErrLockHeld
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return lockFunc(func(ctx context.Context) error {
		_, err := l.db.ExecContext(ctx, `DELETE FROM run_lock WHERE name = ? AND holder = ?`, l.name, holder)
		return err
	}), nil
}
