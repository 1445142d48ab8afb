package commands

import (
	"context"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcutil/bech32"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/chainsafe/multiasset/pkg/deployments"
	"github.com/chainsafe/multiasset/pkg/identity"
	"github.com/chainsafe/multiasset/pkg/multiasset"
)

// ContractQuery addresses a contract.
type ContractQuery struct {
	RPC        string
	ContractID string
}

// AssetQuery addresses one asset of a contract.
type AssetQuery struct {
	RPC        string
	ContractID string
	Asset      string
}

// withClient binds a read-only client for contractID and runs fn against it.
func (r *Runner) withClient(ctx context.Context, rpc string, contractID identity.Fingerprint, log *zap.Logger, fn func(*multiasset.Client) error) error {
	s, err := r.open(ctx, rpc, true, false, log)
	if err != nil {
		return err
	}
	defer s.close()
	return fn(multiasset.Bind(contractID, s.wallet, multiasset.WithLogger(log)))
}

// TotalAssets runs the total-assets command.
func (r *Runner) TotalAssets(ctx context.Context, q ContractQuery) (uint64, error) {
	return run(ctx, r, "total-assets", func(ctx context.Context, log *zap.Logger) (uint64, error) {
		contractID, err := parseFingerprint("contract-id", q.ContractID)
		if err != nil {
			return 0, err
		}
		var total uint64
		err = r.withClient(ctx, q.RPC, contractID, log, func(c *multiasset.Client) error {
			total, err = c.TotalAssets(ctx)
			return err
		})
		if err != nil {
			return 0, err
		}
		r.printf("\nA total assets is: %d\n", total)
		return total, nil
	})
}

// Owner runs the owner command. An uninitialized contract has no owner.
func (r *Runner) Owner(ctx context.Context, q ContractQuery) (optional.Option[identity.Identity], error) {
	return run(ctx, r, "owner", func(ctx context.Context, log *zap.Logger) (optional.Option[identity.Identity], error) {
		contractID, err := parseFingerprint("contract-id", q.ContractID)
		if err != nil {
			return optional.None[identity.Identity](), err
		}
		var owner optional.Option[identity.Identity]
		err = r.withClient(ctx, q.RPC, contractID, log, func(c *multiasset.Client) error {
			owner, err = c.Owner(ctx)
			return err
		})
		if err != nil {
			return optional.None[identity.Identity](), err
		}
		if owner.IsNone() {
			r.printf("\nContract %s has no owner (ownership not initialized)\n", contractID)
		} else {
			r.printf("\nContract %s owner is: %s\n", contractID, owner.Unwrap())
		}
		return owner, nil
	})
}

// assetQuery runs one per-asset lookup. An absent result is ErrNotFound.
func assetQuery[T any](ctx context.Context, r *Runner, command, label string, q AssetQuery, get func(*multiasset.Client, context.Context, identity.Fingerprint) (optional.Option[T], error)) (T, error) {
	return run(ctx, r, command, func(ctx context.Context, log *zap.Logger) (T, error) {
		var zero T
		contractID, err := parseFingerprint("contract-id", q.ContractID)
		if err != nil {
			return zero, err
		}
		asset, err := parseFingerprint("asset", q.Asset)
		if err != nil {
			return zero, err
		}

		var v optional.Option[T]
		err = r.withClient(ctx, q.RPC, contractID, log, func(c *multiasset.Client) error {
			v, err = get(c, ctx, asset)
			return err
		})
		if err != nil {
			return zero, err
		}
		if v.IsNone() {
			return zero, fmt.Errorf("asset %s %w", asset, ErrNotFound)
		}
		r.printf("\nAn asset %s %s is: %s\n", asset, label, render(v.Unwrap()))
		return v.Unwrap(), nil
	})
}

func render(v any) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprint(v)
}

// Name runs the name command.
func (r *Runner) Name(ctx context.Context, q AssetQuery) (string, error) {
	return assetQuery(ctx, r, "name", "name", q, (*multiasset.Client).Name)
}

// Symbol runs the symbol command.
func (r *Runner) Symbol(ctx context.Context, q AssetQuery) (string, error) {
	return assetQuery(ctx, r, "symbol", "symbol", q, (*multiasset.Client).Symbol)
}

// Decimals runs the decimals command.
func (r *Runner) Decimals(ctx context.Context, q AssetQuery) (uint8, error) {
	return assetQuery(ctx, r, "decimals", "decimals", q, (*multiasset.Client).Decimals)
}

// RestrictedMint runs the restricted-mint command.
func (r *Runner) RestrictedMint(ctx context.Context, q AssetQuery) (bool, error) {
	return assetQuery(ctx, r, "restricted-mint", "restricted mint", q, (*multiasset.Client).RestrictedMint)
}

// TotalSupply runs the total-supply command.
func (r *Runner) TotalSupply(ctx context.Context, q AssetQuery) (uint64, error) {
	return assetQuery(ctx, r, "total-supply", "total supply", q, (*multiasset.Client).TotalSupply)
}

// AssetByNameQuery looks an asset up by name.
type AssetByNameQuery struct {
	RPC        string
	ContractID string
	Name       string
}

// Asset runs the asset command: the id of the first asset registered under Name.
func (r *Runner) Asset(ctx context.Context, q AssetByNameQuery) (identity.Fingerprint, error) {
	return run(ctx, r, "asset", func(ctx context.Context, log *zap.Logger) (identity.Fingerprint, error) {
		contractID, err := parseFingerprint("contract-id", q.ContractID)
		if err != nil {
			return identity.Fingerprint{}, err
		}
		if err := requireText("name", q.Name); err != nil {
			return identity.Fingerprint{}, err
		}

		var id optional.Option[identity.Fingerprint]
		err = r.withClient(ctx, q.RPC, contractID, log, func(c *multiasset.Client) error {
			id, err = c.Asset(ctx, q.Name)
			return err
		})
		if err != nil {
			return identity.Fingerprint{}, err
		}
		if id.IsNone() {
			return identity.Fingerprint{}, fmt.Errorf("asset named %q %w", q.Name, ErrNotFound)
		}
		r.printf("\nAn asset named %q is: %s\n", q.Name, id.Unwrap())
		return id.Unwrap(), nil
	})
}

// BalanceQuery reads the balance of an asset. Owner defaults to the operating account.
// With ContractID set the balance is read from the contract's ledger; otherwise from the
// connector.
type BalanceQuery struct {
	RPC        string
	ContractID string
	Asset      string
	Owner      string
	OwnerType  identity.Type
}

// Balance runs the balance command.
func (r *Runner) Balance(ctx context.Context, q BalanceQuery) (*big.Int, error) {
	return run(ctx, r, "balance", func(ctx context.Context, log *zap.Logger) (*big.Int, error) {
		asset, err := parseFingerprint("asset", q.Asset)
		if err != nil {
			return nil, err
		}
		var (
			owner      identity.Identity
			contractID identity.Fingerprint
		)
		if q.Owner != "" {
			if owner, err = parseIdentity("owner-id", q.Owner, q.OwnerType); err != nil {
				return nil, err
			}
		}
		if q.ContractID != "" {
			if contractID, err = parseFingerprint("contract-id", q.ContractID); err != nil {
				return nil, err
			}
		}

		s, err := r.open(ctx, q.RPC, true, false, log)
		if err != nil {
			return nil, err
		}
		defer s.close()
		if owner == nil {
			owner = s.wallet.Identity()
		}

		var bal *big.Int
		if q.ContractID != "" {
			v, err := multiasset.Bind(contractID, s.wallet, multiasset.WithLogger(log)).BalanceOf(ctx, owner, asset)
			if err != nil {
				return nil, err
			}
			bal = new(big.Int).SetUint64(v)
		} else {
			if bal, err = s.wallet.Ledger().Balance(ctx, owner, asset); err != nil {
				return nil, fmt.Errorf("balance of %s: %w", asset, err)
			}
		}

		r.printf("\n%s balance of %s: %s\n", owner, asset, bal)
		return bal, nil
	})
}

// Deployments runs the deployments command: every journaled deployment, oldest first.
func (r *Runner) Deployments(ctx context.Context) ([]*deployments.Record, error) {
	return run(ctx, r, "deployments", func(ctx context.Context, _ *zap.Logger) ([]*deployments.Record, error) {
		journal, err := r.journal(ctx)
		if err != nil {
			return nil, err
		}
		records, err := journal.List(ctx)
		if err != nil {
			return nil, localError{err}
		}
		if len(records) == 0 {
			r.printf("\nNo deployments recorded\n")
			return records, nil
		}
		for _, rec := range records {
			r.printf("%s phase=%s deployer=%s created=%s\n",
				rec.Contract, rec.Phase, rec.Deployer, rec.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"))
		}
		return records, nil
	})
}

// Bech32Conv decodes a bech32 address into its fingerprint. It makes no ledger call.
func (r *Runner) Bech32Conv(ctx context.Context, encoded string) (identity.Fingerprint, error) {
	return run(ctx, r, "bech32-conv", func(context.Context, *zap.Logger) (identity.Fingerprint, error) {
		if err := requireText("bech32", encoded); err != nil {
			return identity.Fingerprint{}, err
		}
		_, data, err := bech32.Decode(encoded)
		if err != nil {
			return identity.Fingerprint{}, invalidInput("bech32", "%v", err)
		}
		payload, err := bech32.ConvertBits(data, 5, 8, false)
		if err != nil {
			return identity.Fingerprint{}, invalidInput("bech32", "%v", err)
		}
		if len(payload) > identity.FingerprintLength {
			return identity.Fingerprint{}, invalidInput("bech32", "payload is %d bytes, at most %d expected", len(payload), identity.FingerprintLength)
		}
		fp := identity.BytesToFingerprint(payload)
		r.printf("\nAn address %s\n", fp)
		return fp, nil
	})
}
