package deduplication

import (
	"context"
	"sync"

	"rewritebot/types"
)

// MemoryIndex is an in-process Index for tests and dry runs.
type MemoryIndex struct {
	mu     sync.Mutex
	urls   map[string]types.DedupRecord
	hashes map[string]types.DedupRecord
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		urls:   make(map[string]types.DedupRecord),
		hashes: make(map[string]types.DedupRecord),
	}
}

func (m *MemoryIndex) HasURL(_ context.Context, normalizedURL string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.urls[normalizedURL]
	return ok, nil
}

func (m *MemoryIndex) HasHash(_ context.Context, contentHash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.hashes[contentHash]
	return ok, nil
}

func (m *MemoryIndex) Record(_ context.Context, rec types.DedupRecord) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.urls[rec.NormalizedURL]; ok {
		return false, nil
	}
	if _, ok := m.hashes[rec.ContentHash]; ok {
		return false, nil
	}
	m.urls[rec.NormalizedURL] = rec
	m.hashes[rec.ContentHash] = rec
	return true, nil
}

func (m *MemoryIndex) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.urls), nil
}

func (m *MemoryIndex) Close() error { return nil }
