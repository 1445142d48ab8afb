package deployments

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/chainsafe/multiasset/pkg/identity"
	"github.com/chainsafe/multiasset/pkg/pgutil"
	mghelper "github.com/chainsafe/multiasset/pkg/pgutil/migrations"
)

func setupStore(t *testing.T) (context.Context, Store) {
	t.Helper()
	requireDockerAccess(t)

	ctx := context.Background()
	db, cleanup := pgutil.SetupTestDB(t)
	t.Cleanup(cleanup)

	if err := mghelper.CreateSchema(ctx, db, &DeploymentDao{}); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	return ctx, NewStore(db)
}

func requireDockerAccess(t *testing.T) {
	t.Helper()

	candidates := []string{
		"/var/run/docker.sock",
		filepath.Join(os.Getenv("HOME"), ".docker/run/docker.sock"),
	}

	for _, sock := range candidates {
		if _, err := os.Stat(sock); err != nil {
			continue
		}
		conn, err := (&net.Dialer{}).DialContext(context.Background(), "unix", sock)
		if err == nil {
			_ = conn.Close()
			return
		}
	}

	t.Skip("docker is not reachable; skipping postgres journal tests")
}

func TestPGStore_SaveGetList(t *testing.T) {
	ctx, store := setupStore(t)

	rec := testRecord(1)
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if err := store.Save(ctx, testRecord(2)); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	got, err := store.Get(ctx, rec.Contract)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.ID != rec.ID || got.Deployer != rec.Deployer || got.Salt != rec.Salt || got.TxID != rec.TxID {
		t.Fatalf("record mismatch: got %+v want %+v", got, rec)
	}
	if got.RPCURL != "http://localhost:8545" {
		t.Errorf("unexpected rpc url %q", got.RPCURL)
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 records, got %d", len(list))
	}
}

func TestPGStore_ResumeUpdatesPhase(t *testing.T) {
	ctx, store := setupStore(t)

	first := testRecord(7)
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	resumed := &Record{Contract: first.Contract, Deployer: first.Deployer, Phase: "owned"}
	if err := store.Save(ctx, resumed); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if resumed.ID != first.ID {
		t.Errorf("expected the existing id %s, got %s", first.ID, resumed.ID)
	}

	got, err := store.Get(ctx, first.Contract)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.Phase != "owned" {
		t.Errorf("expected phase owned, got %s", got.Phase)
	}
	if got.Salt != first.Salt {
		t.Errorf("salt overwritten: %s", got.Salt)
	}
}

func TestPGStore_GetMissing(t *testing.T) {
	ctx, store := setupStore(t)

	_, err := store.Get(ctx, identity.Fingerprint{9})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
