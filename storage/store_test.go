package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"rewritebot/common"
)

func stores(t *testing.T) map[string]DocumentStore {
	t.Helper()
	db, err := common.OpenSQLite(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	s, err := NewSQLiteStore(db)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return map[string]DocumentStore{
		"memory": NewMemoryStore(),
		"sqlite": s,
	}
}

func TestStoreCreateIsCreateOnly(t *testing.T) {
	ctx := context.Background()
	ts := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			doc := Document{"title": "Brand in haven", "timestamp": ts, "tags": []string{"Brand", "Haven"}}
			if err := store.Create(ctx, CollectionFull, "a1", doc); err != nil {
				t.Fatalf("Create: %v", err)
			}
			err := store.Create(ctx, CollectionFull, "a1", Document{"title": "overwrite"})
			if !errors.Is(err, ErrAlreadyExists) {
				t.Fatalf("expected ErrAlreadyExists, got %v", err)
			}
			// same id in another collection is independent
			if err := store.Create(ctx, CollectionRewritten, "a1", doc); err != nil {
				t.Fatalf("Create in second collection: %v", err)
			}

			got, err := store.Get(ctx, CollectionFull, "a1")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if got["title"] != "Brand in haven" {
				t.Errorf("title = %v", got["title"])
			}
			if ts2, ok := got["timestamp"].(time.Time); !ok || !ts2.Equal(ts) {
				t.Errorf("timestamp = %#v", got["timestamp"])
			}
			if tags, ok := got["tags"].([]string); !ok || len(tags) != 2 || tags[1] != "Haven" {
				t.Errorf("tags = %#v", got["tags"])
			}

			if _, err := store.Get(ctx, CollectionFull, "missing"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
			if err := store.Ping(ctx); err != nil {
				t.Fatalf("Ping: %v", err)
			}
		})
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "x.db"), "")
	if err != nil {
		t.Fatalf("Open sqlite: %v", err)
	}
	s.Close()

	if _, err := Open(ctx, "memory://", ""); err != nil {
		t.Fatalf("Open memory: %v", err)
	}
	if _, err := Open(ctx, "firestore://", ""); err == nil {
		t.Fatalf("expected error for missing project")
	}
	if _, err := Open(ctx, "firestore://p", filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatalf("expected error for missing key file")
	}
	if _, err := Open(ctx, "mongodb://x", ""); err == nil {
		t.Fatalf("expected error for unknown scheme")
	}
}
