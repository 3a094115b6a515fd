// Package dbtest starts a throwaway PostgreSQL for integration tests.
package dbtest

import (
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/p-n-ai/ganitha/internal/platform/database"
)

// Image is the PostgreSQL image used for tests.
const Image = "postgres:16-alpine"

// New starts a migrated PostgreSQL container and returns a pool connected to
// it. It skips the test in short mode and when no container runtime is
// available.
func New(t *testing.T) *database.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping PostgreSQL integration test in short mode")
	}

	ctx := t.Context()
	ctr, err := postgres.Run(ctx, Image,
		postgres.WithDatabase("ganitha"),
		postgres.WithUsername("ganitha"),
		postgres.WithPassword("ganitha"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}

	url, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("ConnectionString() error = %v", err)
	}

	db, err := database.New(ctx, url, 4, 0)
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(db.Close)

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db
}
