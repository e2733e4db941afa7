//go:build integration

package store

import (
	"context"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func TestPostgresDocuments(t *testing.T) {
	ctx := context.Background()

	ctr, err := postgres.Run(ctx, "postgres:17-alpine",
		postgres.WithDatabase("ladder"),
		postgres.WithUsername("ladder"),
		postgres.WithPassword("ladder"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}

	url, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	docs, err := NewPostgresDocuments(ctx, url, 5, 1)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	testDocumentStore(t, docs)
}
