// Package storage persists original and rewritten articles to a
// create-only document store.
package storage

import (
	"context"
	"errors"
)

// Collection names consumed by the forum front-end.
const (
	CollectionFull      = "articles_full"
	CollectionRewritten = "articles_rewritten"
)

var (
	// ErrAlreadyExists is returned by Create when the id is taken.
	ErrAlreadyExists = errors.New("document already exists")
	// ErrNotFound is returned by Get for a missing document.
	ErrNotFound = errors.New("document not found")
)

// Document is one stored record. Values are string, time.Time or []string.
type Document map[string]any

// DocumentStore is a create-only key/document store. Documents are never
// updated in place.
type DocumentStore interface {
	Create(ctx context.Context, collection, id string, doc Document) error
	Get(ctx context.Context, collection, id string) (Document, error)
	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error
	Close() error
}
