// Package deployments journals contract deployments and their ownership phase so an
// interrupted deployment can be found and resumed.
package deployments

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/chainsafe/multiasset/pkg/identity"
)

// ErrNotFound is returned when no record exists for a contract.
var ErrNotFound = errors.New("deployment not found")

// Record is one journaled deployment.
type Record struct {
	ID        uuid.UUID
	Contract  identity.Fingerprint
	Deployer  identity.Fingerprint
	Salt      identity.Fingerprint
	TxID      identity.Fingerprint
	Phase     string
	RPCURL    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store persists deployment records keyed by contract address.
type Store interface {
	// Save inserts rec or, when the contract is already journaled, updates its phase.
	// Salt and transaction id of an existing record are kept.
	Save(ctx context.Context, rec *Record) error
	Get(ctx context.Context, contract identity.Fingerprint) (*Record, error)
	// List returns all records, oldest first.
	List(ctx context.Context) ([]*Record, error)
}
