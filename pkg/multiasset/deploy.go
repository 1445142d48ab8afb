package multiasset

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/chainsafe/multiasset/internal/metrics"
	"github.com/chainsafe/multiasset/pkg/account"
	"github.com/chainsafe/multiasset/pkg/identity"
	"github.com/chainsafe/multiasset/pkg/ledger"
	"github.com/chainsafe/multiasset/pkg/multiasset/bindings"
)

// ErrMalformedStorage indicates the storage slot file could not be parsed.
var ErrMalformedStorage = errors.New("malformed storage configuration")

// Phase is the ownership state of a deployed contract.
type Phase string

const (
	// PhaseUnowned means the code is deployed but ownership is not initialized. No owner
	// gated operation can succeed in this phase.
	PhaseUnowned Phase = "unowned"
	// PhaseOwned means ownership is initialized.
	PhaseOwned Phase = "owned"
)

// StorageSlot is one storage initialization entry.
type StorageSlot struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Artifact is the compiled contract: bytecode and storage initialization.
type Artifact struct {
	Bytecode []byte
	Slots    []bindings.StorageSlotTuple
}

// LoadArtifact reads the bytecode at binPath and the storage slots at storagePath.
// The bytecode file may hold raw bytes or hex text. storagePath may be empty.
func LoadArtifact(binPath, storagePath string) (*Artifact, error) {
	raw, err := os.ReadFile(binPath)
	if err != nil {
		return nil, fmt.Errorf("read contract binary: %w", err)
	}
	code := decodeBytecode(raw)
	if len(code) == 0 {
		return nil, fmt.Errorf("contract binary %s is empty", binPath)
	}

	art := &Artifact{Bytecode: code}
	if storagePath == "" {
		return art, nil
	}

	f, err := os.Open(storagePath)
	if err != nil {
		return nil, fmt.Errorf("open storage configuration: %w", err)
	}
	defer f.Close()

	art.Slots, err = ParseStorageSlots(f)
	if err != nil {
		return nil, err
	}
	return art, nil
}

// ParseStorageSlots decodes a JSON list of {"key", "value"} 32-byte hex pairs.
func ParseStorageSlots(r io.Reader) ([]bindings.StorageSlotTuple, error) {
	var slots []StorageSlot
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&slots); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedStorage, err)
	}

	out := make([]bindings.StorageSlotTuple, 0, len(slots))
	for i, s := range slots {
		key, err := parseWord(s.Key)
		if err != nil {
			return nil, fmt.Errorf("%w: slot %d key: %v", ErrMalformedStorage, i, err)
		}
		value, err := parseWord(s.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: slot %d value: %v", ErrMalformedStorage, i, err)
		}
		out = append(out, bindings.StorageSlotTuple{Key: key, Value: value})
	}
	return out, nil
}

func parseWord(s string) ([32]byte, error) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	fp, err := identity.ParseFingerprint(s)
	return [32]byte(fp), err
}

func decodeBytecode(raw []byte) []byte {
	text := strings.TrimSpace(string(raw))
	text = strings.TrimPrefix(strings.TrimPrefix(text, "0x"), "0X")
	if code, err := hex.DecodeString(text); err == nil {
		return code
	}
	return bytes.Clone(raw)
}

// InitCode returns bytecode followed by the ABI-encoded constructor arguments.
func (a *Artifact) InitCode() ([]byte, error) {
	args, err := bindings.PackConstructor(a.Slots)
	if err != nil {
		return nil, fmt.Errorf("pack constructor: %w", err)
	}
	code := make([]byte, 0, len(a.Bytecode)+len(args))
	code = append(code, a.Bytecode...)
	return append(code, args...), nil
}

// Deployment tracks a deployed contract through its ownership phases.
type Deployment struct {
	Address identity.Fingerprint
	Salt    [32]byte
	TxID    identity.Fingerprint
	Phase   Phase
	Client  *Client
}

// OwnershipInitError reports that the contract was deployed but initializing its
// ownership failed. The contract exists at Address in PhaseUnowned; call
// Deployment.Finalize or Resume to retry.
type OwnershipInitError struct {
	Address identity.Fingerprint
	Err     error
}

func (e *OwnershipInitError) Error() string {
	return fmt.Sprintf("contract deployed at %s but ownership initialization failed: %v", e.Address, e.Err)
}

func (e *OwnershipInitError) Unwrap() error { return e.Err }

// Deploy deploys art with a salt drawn from rand and initializes ownership to acct.
//
// A failure before the contract exists returns a nil Deployment. A failure of the
// ownership step returns the Deployment in PhaseUnowned together with an
// *OwnershipInitError.
func Deploy(ctx context.Context, acct *account.Wallet, art *Artifact, rand io.Reader, opts ...Option) (*Deployment, error) {
	s := applyOptions(opts)

	var salt [32]byte
	if _, err := io.ReadFull(rand, salt[:]); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	initCode, err := art.InitCode()
	if err != nil {
		return nil, err
	}

	rcpt, err := acct.Ledger().Deploy(ctx, acct.Signer(), ledger.DeployRequest{InitCode: initCode, Salt: salt})
	if err != nil {
		return nil, fmt.Errorf("deploy contract: %w", err)
	}

	s.logger.Info("Contract deployed",
		zap.String("address", rcpt.ContractID.String()),
		zap.String("salt", identity.Fingerprint(salt).String()),
		zap.String("tx_id", rcpt.TxID.String()))

	d := &Deployment{
		Address: rcpt.ContractID,
		Salt:    salt,
		TxID:    rcpt.TxID,
		Phase:   PhaseUnowned,
		Client:  Bind(rcpt.ContractID, acct, opts...),
	}
	if err := d.Finalize(ctx); err != nil {
		return d, err
	}
	return d, nil
}

// Finalize initializes ownership to the client's account if the deployment is still
// unowned. It is a no-op in PhaseOwned.
func (d *Deployment) Finalize(ctx context.Context) error {
	if d.Phase == PhaseOwned {
		return nil
	}
	if _, err := d.Client.InitializeOwnership(ctx, d.Client.Account().Identity()); err != nil {
		d.Client.logger.Error("Ownership initialization failed", zap.Error(err))
		metrics.DeploymentsTotal.WithLabelValues(string(PhaseUnowned)).Inc()
		return &OwnershipInitError{Address: d.Address, Err: err}
	}
	d.Phase = PhaseOwned
	metrics.DeploymentsTotal.WithLabelValues(string(PhaseOwned)).Inc()
	d.Client.logger.Info("Ownership initialized", zap.String("owner", d.Client.Account().Address().String()))
	return nil
}

// Resume rebuilds the deployment state of an existing contract and finalizes it when it
// is still unowned.
func Resume(ctx context.Context, addr identity.Fingerprint, acct *account.Wallet, opts ...Option) (*Deployment, error) {
	c := Bind(addr, acct, opts...)
	owner, err := c.Owner(ctx)
	if err != nil {
		return nil, fmt.Errorf("read owner: %w", err)
	}

	d := &Deployment{Address: addr, Phase: PhaseUnowned, Client: c}
	if owner.IsSome() {
		d.Phase = PhaseOwned
		return d, nil
	}
	if err := d.Finalize(ctx); err != nil {
		return d, err
	}
	return d, nil
}
