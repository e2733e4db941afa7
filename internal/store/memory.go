package store

import (
	"context"
	"fmt"
	"sync"
)

// MemoryDocuments is a DocumentStore held in process memory. It backs
// tests and the --ephemeral mode.
type MemoryDocuments struct {
	mu   sync.Mutex
	docs map[string]Document
	hub  *hub
}

// NewMemoryDocuments returns an empty in-memory document store.
func NewMemoryDocuments() *MemoryDocuments {
	return &MemoryDocuments{docs: make(map[string]Document), hub: newHub()}
}

func (m *MemoryDocuments) Get(_ context.Context, key string) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[key]
	if !ok {
		return nil, fmt.Errorf("document %q: %w", key, ErrNotFound)
	}
	return doc.Clone(), nil
}

func (m *MemoryDocuments) Patch(_ context.Context, key string, fields Document) error {
	m.mu.Lock()
	doc, ok := m.docs[key]
	if !ok {
		doc = make(Document, len(fields))
		m.docs[key] = doc
	}
	for path, v := range fields {
		if v == nil {
			delete(doc, path)
			continue
		}
		doc[path] = v
	}
	snapshot := doc.Clone()
	m.mu.Unlock()

	m.hub.publish(key, snapshot)
	return nil
}

func (m *MemoryDocuments) Increment(_ context.Context, key, path string, delta int64) (int64, error) {
	m.mu.Lock()
	doc, ok := m.docs[key]
	if !ok {
		doc = make(Document)
		m.docs[key] = doc
	}
	next := doc.Int(path) + delta
	doc[path] = next
	snapshot := doc.Clone()
	m.mu.Unlock()

	m.hub.publish(key, snapshot)
	return next, nil
}

func (m *MemoryDocuments) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.docs, key)
	m.mu.Unlock()

	m.hub.publish(key, Document{})
	return nil
}

func (m *MemoryDocuments) Subscribe(ctx context.Context, key string) (<-chan Document, error) {
	return m.hub.subscribe(ctx, key)
}

func (m *MemoryDocuments) Top(_ context.Context, path string, limit int) ([]Standing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Standing
	for key, doc := range m.docs {
		if n, ok := toInt64(doc[path]); ok {
			out = append(out, Standing{Key: key, Value: n})
		}
	}
	return rank(out, limit), nil
}

func (m *MemoryDocuments) Close() error {
	m.hub.closeAll()
	return nil
}
