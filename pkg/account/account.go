// Package account binds a signing key to a ledger connector.
package account

import (
	"context"
	"fmt"
	"math/big"

	"github.com/chainsafe/multiasset/pkg/identity"
	"github.com/chainsafe/multiasset/pkg/ledger"
)

// Wallet is an authenticated account: a signer plus the connector it talks through.
// A Wallet is read-only after construction and may be shared by many contract clients.
type Wallet struct {
	ledger ledger.Ledger
	signer ledger.Signer
}

// New creates a Wallet. Both arguments are required.
func New(l ledger.Ledger, signer ledger.Signer) (*Wallet, error) {
	if l == nil {
		return nil, fmt.Errorf("ledger is required")
	}
	if signer == nil {
		return nil, fmt.Errorf("signer is required")
	}
	return &Wallet{ledger: l, signer: signer}, nil
}

// Address returns the account address.
func (w *Wallet) Address() identity.Fingerprint {
	return w.signer.Address()
}

// Identity returns the account as a mint target or owner.
func (w *Wallet) Identity() identity.Identity {
	return identity.AccountAddress(w.signer.Address())
}

// BalanceOf reads the account balance of asset.
func (w *Wallet) BalanceOf(ctx context.Context, asset identity.Fingerprint) (*big.Int, error) {
	bal, err := w.ledger.Balance(ctx, w.Identity(), asset)
	if err != nil {
		return nil, fmt.Errorf("balance of %s: %w", asset, err)
	}
	return bal, nil
}

// BaseBalance reads the balance of the asset fees are paid in.
func (w *Wallet) BaseBalance(ctx context.Context) (*big.Int, error) {
	return w.BalanceOf(ctx, w.ledger.BaseAsset())
}

// Ledger returns the connector.
func (w *Wallet) Ledger() ledger.Ledger { return w.ledger }

// Signer returns the signing credential.
func (w *Wallet) Signer() ledger.Signer { return w.signer }
