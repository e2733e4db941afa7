package store

import (
	"context"
	"fmt"
)

// Document backends.
const (
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// OpenDocuments returns the DocumentStore for backend. The sqlite backend
// shares the local store; the others connect to url.
func OpenDocuments(ctx context.Context, backend, url string, local *Store) (DocumentStore, error) {
	switch backend {
	case "", BackendSQLite:
		if local == nil {
			return nil, fmt.Errorf("sqlite backend needs a local store")
		}
		return local.Documents(), nil
	case BackendMemory:
		return NewMemoryDocuments(), nil
	case BackendRedis:
		return NewRedisDocuments(ctx, url)
	case BackendPostgres:
		return NewPostgresDocuments(ctx, url, 5, 1)
	default:
		return nil, fmt.Errorf("unknown document backend %q", backend)
	}
}
