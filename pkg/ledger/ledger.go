// Package ledger defines the narrow interface the contract client consumes from a ledger
// connector: deploying code, submitting signed calls, simulating read-only calls and
// reading balances.
package ledger

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/chainsafe/multiasset/pkg/identity"
)

// Signer holds the signing credential of an account. Implementations are read-only after
// construction and safe to share between goroutines.
type Signer interface {
	// Address returns the account address as a fingerprint.
	Address() identity.Fingerprint
	// Sign signs a 32-byte digest and returns the recoverable signature.
	Sign(digest []byte) ([]byte, error)
}

// Call is a contract invocation: target contract and ABI-encoded call data.
type Call struct {
	To   identity.Fingerprint
	Data []byte
}

// DeployRequest carries the init code (bytecode and constructor arguments) and the salt
// mixed into the derived contract address.
type DeployRequest struct {
	InitCode []byte
	Salt     [32]byte
}

// Log is an event emitted by a transactional call.
type Log struct {
	Address identity.Fingerprint
	Topics  []identity.Fingerprint
	Data    []byte
}

// Receipt is the outcome of a committed transaction.
type Receipt struct {
	TxID       identity.Fingerprint
	ContractID identity.Fingerprint // set by Deploy only
	Logs       []Log
	GasUsed    uint64
}

// Ledger is the consumed connector interface. Connector failures are returned verbatim;
// callers must not retry.
type Ledger interface {
	// BaseAsset returns the id of the asset fees are paid in.
	BaseAsset() identity.Fingerprint

	// Balance reads the balance of owner in asset. Read-only.
	Balance(ctx context.Context, owner identity.Identity, asset identity.Fingerprint) (*big.Int, error)

	// Deploy submits init code and returns the receipt with the new contract id.
	Deploy(ctx context.Context, signer Signer, req DeployRequest) (*Receipt, error)

	// Submit signs and commits a state-mutating call. A contract revert is returned as
	// *RevertError.
	Submit(ctx context.Context, signer Signer, call Call) (*Receipt, error)

	// Simulate executes call in read-only mode from the given address. It never mutates
	// state and never costs the caller.
	Simulate(ctx context.Context, from identity.Fingerprint, call Call) ([]byte, error)
}

// RevertError carries the raw revert payload returned by the contract.
type RevertError struct {
	Data   []byte
	Reason string
}

func (e *RevertError) Error() string {
	if e.Reason != "" {
		return "execution reverted: " + e.Reason
	}
	if len(e.Data) == 0 {
		return "execution reverted"
	}
	return fmt.Sprintf("execution reverted: 0x%s", hex.EncodeToString(e.Data))
}
