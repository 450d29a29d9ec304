package storage

import (
	"context"
	"sync"
)

// MemoryStore keeps documents in process. Used for tests and dry runs.
type MemoryStore struct {
	mu   sync.Mutex
	docs map[string]map[string]Document
	// PingErr and CreateErr let tests simulate an unreachable store.
	PingErr   error
	CreateErr func(collection, id string) error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]map[string]Document)}
}

func (m *MemoryStore) Create(_ context.Context, collection, id string, doc Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		if err := m.CreateErr(collection, id); err != nil {
			return err
		}
	}
	coll, ok := m.docs[collection]
	if !ok {
		coll = make(map[string]Document)
		m.docs[collection] = coll
	}
	if _, exists := coll[id]; exists {
		return ErrAlreadyExists
	}
	coll[id] = copyDocument(doc)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, collection, id string) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyDocument(doc), nil
}

// Count returns the number of documents in collection.
func (m *MemoryStore) Count(collection string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs[collection])
}

// All returns copies of every document in collection.
func (m *MemoryStore) All(collection string) []Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Document, 0, len(m.docs[collection]))
	for _, doc := range m.docs[collection] {
		out = append(out, copyDocument(doc))
	}
	return out
}

func (m *MemoryStore) Ping(context.Context) error { return m.PingErr }

func (m *MemoryStore) Close() error { return nil }
