package migrations

import (
	"context"
	"testing"

	"github.com/uptrace/bun/migrate"

	"github.com/chainsafe/multiasset/pkg/migrations/deploydb"
	"github.com/chainsafe/multiasset/pkg/pgutil"
	mghelper "github.com/chainsafe/multiasset/pkg/pgutil/migrations"
)

func TestDeployDBMigrations_Apply(t *testing.T) {
	db, cleanup := pgutil.SetupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	migrator := migrate.NewMigrator(db, deploydb.Migrations)

	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}
	if group.IsZero() {
		t.Error("Expected migrations to run, but none were applied")
	}

	for _, table := range []string{"deployments", "bun_migrations"} {
		pgutil.AssertTableExists(t, db, table)
	}
	pgutil.AssertIndexExists(t, db, "idx_deployments_deployer")
	pgutil.AssertIndexExists(t, db, "idx_deployments_phase")
}

func TestDeployDBMigrations_RunCommands(t *testing.T) {
	db, cleanup := pgutil.SetupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	migrator := migrate.NewMigrator(db, deploydb.Migrations)

	for _, cmd := range []string{mghelper.CommandInit, mghelper.CommandUp, mghelper.CommandStatus} {
		if err := mghelper.RunMigrations(ctx, migrator, nil, cmd); err != nil {
			t.Fatalf("%s failed: %v", cmd, err)
		}
	}
	pgutil.AssertTableExists(t, db, "deployments")

	if err := mghelper.RunMigrations(ctx, migrator, nil, mghelper.CommandDown); err != nil {
		t.Fatalf("down failed: %v", err)
	}
	pgutil.AssertTableNotExists(t, db, "deployments")
}
