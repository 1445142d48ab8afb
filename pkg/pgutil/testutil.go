package pgutil

import (
	"context"
	"testing"
	"time"

	"github.com/chainsafe/multiasset/pkg/config"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
)

const connectAttempts = 10

// SetupTestDB starts a PostgreSQL testcontainer and returns a connection to it together
// with a cleanup function that closes the connection and terminates the container.
func SetupTestDB(t *testing.T) (*bun.DB, func()) {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("multiasset_test"),
		postgres.WithUsername("test_user"),
		postgres.WithPassword("test_pass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = testcontainers.TerminateContainer(container)
		t.Fatalf("failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		_ = testcontainers.TerminateContainer(container)
		t.Fatalf("failed to get container port: %v", err)
	}

	cfg := &config.DatabaseConfig{
		Host:     host,
		Port:     port.Int(),
		User:     "test_user",
		Password: "test_pass",
		Database: "multiasset_test",
		SSLMode:  "disable",
	}

	var db *bun.DB
	for i := 0; i < connectAttempts; i++ {
		db, err = ConnectDB(ctx, cfg)
		if err == nil {
			break
		}
		if i == connectAttempts-1 {
			_ = testcontainers.TerminateContainer(container)
			t.Fatalf("failed to connect to test database after %d attempts: %v", connectAttempts, err)
		}
		time.Sleep(time.Duration(100*(1<<uint(i))) * time.Millisecond)
	}

	cleanup := func() {
		_ = db.Close()
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return db, cleanup
}

// AssertTableExists fails t unless the public schema has the table.
func AssertTableExists(t *testing.T, db *bun.DB, table string) {
	t.Helper()
	if !catalogHas(t, db, "information_schema.tables", "table_name", table) {
		t.Errorf("table %s does not exist", table)
	}
}

// AssertTableNotExists fails t if the public schema has the table.
func AssertTableNotExists(t *testing.T, db *bun.DB, table string) {
	t.Helper()
	if catalogHas(t, db, "information_schema.tables", "table_name", table) {
		t.Errorf("table %s should not exist", table)
	}
}

// AssertIndexExists fails t unless the public schema has the index.
func AssertIndexExists(t *testing.T, db *bun.DB, index string) {
	t.Helper()
	if !catalogHas(t, db, "pg_indexes", "indexname", index) {
		t.Errorf("index %s does not exist", index)
	}
}

// catalogHas reports whether catalog lists name in column for the public schema.
func catalogHas(t *testing.T, db *bun.DB, catalog, column, name string) bool {
	t.Helper()
	schemaColumn := "table_schema"
	if catalog == "pg_indexes" {
		schemaColumn = "schemaname"
	}

	var exists bool
	err := db.NewSelect().
		ColumnExpr("EXISTS (SELECT 1 FROM ? WHERE ? = 'public' AND ? = ?)",
			bun.Safe(catalog), bun.Ident(schemaColumn), bun.Ident(column), name).
		Scan(context.Background(), &exists)
	if err != nil {
		t.Fatalf("failed to look up %s in %s: %v", name, catalog, err)
	}
	return exists
}
