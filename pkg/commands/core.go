package commands

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"github.com/chainsafe/multiasset/internal/metrics"
	"github.com/chainsafe/multiasset/pkg/deployments"
	"github.com/chainsafe/multiasset/pkg/identity"
	"github.com/chainsafe/multiasset/pkg/multiasset"
)

// DeployRequest deploys a new contract, or with Resume set, finishes the ownership
// initialization of an earlier deployment.
type DeployRequest struct {
	RPC    string
	Resume string
}

// DeployResult describes the deployed contract.
type DeployResult struct {
	Contract identity.Fingerprint
	Deployer identity.Fingerprint
	Phase    multiasset.Phase
	Cost     *big.Int
}

// Deploy runs the deploy command.
func (r *Runner) Deploy(ctx context.Context, req DeployRequest) (*DeployResult, error) {
	return run(ctx, r, "deploy", func(ctx context.Context, log *zap.Logger) (*DeployResult, error) {
		var (
			resume   identity.Fingerprint
			artifact *multiasset.Artifact
			err      error
		)
		resuming := req.Resume != ""
		if resuming {
			if resume, err = parseFingerprint("resume", req.Resume); err != nil {
				return nil, err
			}
		} else {
			cc := r.env.Config.Contract
			if artifact, err = multiasset.LoadArtifact(cc.BinaryPath, cc.StoragePath); err != nil {
				return nil, fmt.Errorf("%w: contract artifact: %w", ErrInvalidInputFormat, err)
			}
		}
		journal, err := r.journal(ctx)
		if err != nil {
			return nil, err
		}

		s, err := r.open(ctx, req.RPC, false, true, log)
		if err != nil {
			return nil, err
		}
		defer s.close()

		var d *multiasset.Deployment
		if resuming {
			d, err = multiasset.Resume(ctx, resume, s.wallet, multiasset.WithLogger(log))
		} else {
			d, err = multiasset.Deploy(ctx, s.wallet, artifact, r.env.Salt, multiasset.WithLogger(log))
		}
		if d != nil {
			// the contract exists either way; a journal failure must not hide its address
			if jerr := r.record(ctx, journal, d, req.RPC, s); jerr != nil {
				log.Error("Failed to journal deployment", zap.String("contract", d.Address.String()), zap.Error(jerr))
			}
		}
		if err != nil {
			var initErr *multiasset.OwnershipInitError
			if errors.As(err, &initErr) {
				r.printf("\nMultiAsset contract deployed to: %s without an owner\n", initErr.Address)
				r.printf("Resume with: deploy --resume %s\n", initErr.Address)
			}
			return nil, err
		}

		cost, err := s.cost(ctx)
		if err != nil {
			return nil, err
		}
		res := &DeployResult{Contract: d.Address, Deployer: s.wallet.Address(), Phase: d.Phase, Cost: cost}

		r.printf("\nMultiAsset contract deployed to: %s\n", res.Contract)
		r.printf("Deployment cost: %s\n", r.formatCost(cost, "deploy"))
		r.printf("Deployer: %s\n", res.Deployer)
		return res, nil
	})
}

func (r *Runner) record(ctx context.Context, journal deployments.Store, d *multiasset.Deployment, rpc string, s *session) error {
	if rpc == "" {
		rpc = r.env.Config.Ledger.RPCURL
	}
	rec := &deployments.Record{
		Contract: d.Address,
		Deployer: s.wallet.Address(),
		Salt:     identity.Fingerprint(d.Salt),
		TxID:     d.TxID,
		Phase:    string(d.Phase),
		RPCURL:   rpc,
	}
	return journal.Save(ctx, rec)
}

// AssetNewRequest registers a new asset.
type AssetNewRequest struct {
	RPC            string
	ContractID     string
	Name           string
	Symbol         string
	Decimals       uint8
	RestrictedMint bool
}

// AssetNewResult describes the registered asset.
type AssetNewResult struct {
	Asset   identity.Fingerprint
	Creator identity.Fingerprint
	Cost    *big.Int
}

// AssetNew runs the asset-new command.
func (r *Runner) AssetNew(ctx context.Context, req AssetNewRequest) (*AssetNewResult, error) {
	return run(ctx, r, "asset-new", func(ctx context.Context, log *zap.Logger) (*AssetNewResult, error) {
		contractID, err := parseFingerprint("contract-id", req.ContractID)
		if err != nil {
			return nil, err
		}

		s, err := r.open(ctx, req.RPC, false, true, log)
		if err != nil {
			return nil, err
		}
		defer s.close()

		client := multiasset.Bind(contractID, s.wallet, multiasset.WithLogger(log))
		resp, err := client.AssetNew(ctx, req.Name, req.Symbol, req.Decimals, req.RestrictedMint)
		if err != nil {
			return nil, err
		}

		cost, err := s.cost(ctx)
		if err != nil {
			return nil, err
		}
		res := &AssetNewResult{Asset: resp.Value, Creator: s.wallet.Address(), Cost: cost}

		r.printf("\nA new asset created with id: %s\n", res.Asset)
		r.printf("Transaction cost: %s\n", r.formatCost(cost, "asset-new"))
		r.printf("Creator: %s\n", res.Creator)
		return res, nil
	})
}

// MintRequest mints Amount of Asset to each recipient in order.
type MintRequest struct {
	RPC           string
	ContractID    string
	Asset         string
	Recipients    []string
	RecipientType identity.Type
	Amount        uint64
}

// Minted is one completed mint.
type Minted struct {
	Recipient identity.Identity
	Amount    uint64
	TxID      identity.Fingerprint
}

// MintResult lists the completed mints and their aggregate cost.
type MintResult struct {
	Asset  identity.Fingerprint
	Minted []Minted
	Minter identity.Fingerprint
	Cost   *big.Int
}

// Mint runs the mint command for a single recipient.
func (r *Runner) Mint(ctx context.Context, req MintRequest) (*MintResult, error) {
	return run(ctx, r, "mint", func(ctx context.Context, log *zap.Logger) (*MintResult, error) {
		if len(req.Recipients) != 1 {
			return nil, invalidInput("recipient-id", "exactly one recipient expected, got %d", len(req.Recipients))
		}
		// the single recipient is checked before connecting
		if _, err := parseFingerprint("recipient-id", req.Recipients[0]); err != nil {
			return nil, err
		}
		return r.mint(ctx, req, "mint", log)
	})
}

// MintMany runs the mint-many command. Recipients are minted to sequentially in input
// order. The run stops at the first failure, malformed recipients included, and returns
// a *BatchMintError; earlier mints are not rolled back.
func (r *Runner) MintMany(ctx context.Context, req MintRequest) (*MintResult, error) {
	return run(ctx, r, "mint-many", func(ctx context.Context, log *zap.Logger) (*MintResult, error) {
		if len(req.Recipients) == 0 {
			return nil, invalidInput("recipient-id", "at least one recipient expected")
		}
		// a batch that cannot mint anything stops before connecting
		if _, err := parseIdentity("recipient-id", req.Recipients[0], req.RecipientType); err != nil {
			return nil, &BatchMintError{Completed: 0, Total: len(req.Recipients), Err: err}
		}
		return r.mint(ctx, req, "mint-many", log)
	})
}

func (r *Runner) mint(ctx context.Context, req MintRequest, command string, log *zap.Logger) (*MintResult, error) {
	contractID, err := parseFingerprint("contract-id", req.ContractID)
	if err != nil {
		return nil, err
	}
	asset, err := parseFingerprint("asset", req.Asset)
	if err != nil {
		return nil, err
	}

	s, err := r.open(ctx, req.RPC, false, true, log)
	if err != nil {
		return nil, err
	}
	defer s.close()

	client := multiasset.Bind(contractID, s.wallet, multiasset.WithLogger(log))
	res := &MintResult{Asset: asset, Minter: s.wallet.Address()}
	total := len(req.Recipients)

	for i, raw := range req.Recipients {
		minted, err := mintOne(ctx, client, raw, req.RecipientType, asset, req.Amount, log)
		if err != nil {
			metrics.BatchMintRecipients.WithLabelValues("failed").Inc()
			metrics.BatchMintRecipients.WithLabelValues("skipped").Add(float64(total - i - 1))
			log.Warn("Mint stopped",
				zap.Int("completed", i),
				zap.Int("total", total),
				zap.String("recipient", raw),
				zap.Error(err))
			if command == "mint" {
				return nil, err
			}
			return res, &BatchMintError{Completed: i, Total: total, Err: err}
		}
		metrics.BatchMintRecipients.WithLabelValues("minted").Inc()
		res.Minted = append(res.Minted, *minted)
		r.printf("\nAn asset %s amount minted %d to: %s\n", asset, minted.Amount, raw)
	}

	cost, err := s.cost(ctx)
	if err != nil {
		return nil, err
	}
	res.Cost = cost
	r.printf("Transaction cost: %s\n", r.formatCost(cost, command))
	r.printf("Minter: %s\n", res.Minter)
	return res, nil
}

func mintOne(ctx context.Context, client *multiasset.Client, raw string, kind identity.Type, asset identity.Fingerprint, amount uint64, log *zap.Logger) (*Minted, error) {
	recipient, err := parseIdentity("recipient-id", raw, kind)
	if err != nil {
		return nil, err
	}
	resp, err := client.Mint(ctx, recipient, asset, amount)
	if err != nil {
		return nil, err
	}

	minted := &Minted{Recipient: recipient, Amount: amount, TxID: resp.TxID}
	events, err := multiasset.DecodeAssetMinted(resp.Logs)
	switch {
	case err != nil:
		log.Warn("Failed to decode mint event, reporting requested amount",
			zap.String("tx_id", resp.TxID.String()), zap.Error(err))
	case len(events) > 0:
		minted.Amount = events[0].Amount
	}
	return minted, nil
}

// TransferOwnershipRequest hands the contract to a new owner.
type TransferOwnershipRequest struct {
	RPC          string
	ContractID   string
	NewOwner     string
	NewOwnerType identity.Type
}

// TransferOwnershipResult describes the ownership change.
type TransferOwnershipResult struct {
	PreviousOwner identity.Identity
	NewOwner      identity.Identity
	Cost          *big.Int
}

// TransferOwnership runs the transfer-ownership command.
func (r *Runner) TransferOwnership(ctx context.Context, req TransferOwnershipRequest) (*TransferOwnershipResult, error) {
	return run(ctx, r, "transfer-ownership", func(ctx context.Context, log *zap.Logger) (*TransferOwnershipResult, error) {
		contractID, err := parseFingerprint("contract-id", req.ContractID)
		if err != nil {
			return nil, err
		}
		newOwner, err := parseIdentity("new-owner-id", req.NewOwner, req.NewOwnerType)
		if err != nil {
			return nil, err
		}

		s, err := r.open(ctx, req.RPC, false, true, log)
		if err != nil {
			return nil, err
		}
		defer s.close()

		client := multiasset.Bind(contractID, s.wallet, multiasset.WithLogger(log))
		resp, err := client.TransferOwnership(ctx, newOwner)
		if err != nil {
			return nil, err
		}

		res := &TransferOwnershipResult{PreviousOwner: s.wallet.Identity(), NewOwner: newOwner}
		events, err := multiasset.DecodeOwnershipTransferred(resp.Logs)
		switch {
		case err != nil:
			log.Warn("Failed to decode ownership event, reporting requested owner",
				zap.String("tx_id", resp.TxID.String()), zap.Error(err))
		case len(events) > 0:
			res.PreviousOwner = events[0].PreviousOwner
			res.NewOwner = events[0].NewOwner
		}
		if res.Cost, err = s.cost(ctx); err != nil {
			return nil, err
		}

		r.printf("\nOwnership transferred from %s to %s\n", res.PreviousOwner, res.NewOwner)
		r.printf("Transaction cost: %s\n", r.formatCost(res.Cost, "transfer-ownership"))
		return res, nil
	})
}
