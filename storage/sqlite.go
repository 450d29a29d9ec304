package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLiteStore keeps every collection in one documents table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore migrates db. The store owns db.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			id         TEXT NOT NULL,
			body       TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			PRIMARY KEY (collection, id)
		)`)
	if err != nil {
		return nil, fmt.Errorf("migrate documents: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Create(ctx context.Context, collection, id string, doc Document) error {
	body, err := encodeDocument(doc)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, body, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT DO NOTHING`,
		collection, id, string(body), time.Now().UTC(),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, collection, id string) (Document, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE collection = ? AND id = ?`, collection, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeDocument([]byte(body))
}

// Count returns the number of documents in collection.
func (s *SQLiteStore) Count(ctx context.Context, collection string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE collection = ?`, collection).Scan(&n)
	return n, err
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
