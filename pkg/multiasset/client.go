// Package multiasset is the client of the multi-asset token contract. Every contract method
// is either transactional (signed, paid for, emits events) or simulated (read-only, free).
package multiasset

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/chainsafe/multiasset/internal/metrics"
	"github.com/chainsafe/multiasset/pkg/account"
	"github.com/chainsafe/multiasset/pkg/identity"
	"github.com/chainsafe/multiasset/pkg/ledger"
	"github.com/chainsafe/multiasset/pkg/multiasset/bindings"
)

const (
	kindTransaction = "transaction"
	kindSimulation  = "simulation"
)

// CallResponse is the outcome of a contract call.
type CallResponse[T any] struct {
	Value   T
	Logs    []ledger.Log
	TxID    identity.Fingerprint
	GasUsed uint64
}

// Client is bound to one contract address and one account. It is immutable; use
// WithAccount to act as a different account.
type Client struct {
	id      identity.Fingerprint
	account *account.Wallet
	abi     *abi.ABI
	logger  *zap.Logger
}

// Bind returns a client for the contract at id acting as acct. Nothing is checked against
// the ledger.
func Bind(id identity.Fingerprint, acct *account.Wallet, opts ...Option) *Client {
	s := applyOptions(opts)
	return &Client{
		id:      id,
		account: acct,
		abi:     bindings.MustABI(),
		logger:  s.logger.With(zap.String("contract", id.String())),
	}
}

// WithAccount returns a new client for the same contract acting as acct.
func (c *Client) WithAccount(acct *account.Wallet) *Client {
	cp := *c
	cp.account = acct
	return &cp
}

// ID returns the contract address.
func (c *Client) ID() identity.Fingerprint { return c.id }

// Account returns the account the client acts as.
func (c *Client) Account() *account.Wallet { return c.account }

// InitializeOwnership sets the first owner. It succeeds only once per contract.
func (c *Client) InitializeOwnership(ctx context.Context, owner identity.Identity) (*CallResponse[struct{}], error) {
	rcpt, err := c.transact(ctx, bindings.MethodInitializeOwnership, bindings.EncodeIdentity(owner))
	if err != nil {
		return nil, err
	}
	return respond(struct{}{}, rcpt), nil
}

// TransferOwnership hands ownership to newOwner. Only the current owner may call it.
func (c *Client) TransferOwnership(ctx context.Context, newOwner identity.Identity) (*CallResponse[struct{}], error) {
	rcpt, err := c.transact(ctx, bindings.MethodTransferOwnership, bindings.EncodeIdentity(newOwner))
	if err != nil {
		return nil, err
	}
	return respond(struct{}{}, rcpt), nil
}

// AssetNew registers a new asset and returns its id, taken from the AssetNew event.
func (c *Client) AssetNew(ctx context.Context, name, symbol string, decimals uint8, restrictedMint bool) (*CallResponse[identity.Fingerprint], error) {
	rcpt, err := c.transact(ctx, bindings.MethodAssetNew, name, symbol, decimals, restrictedMint)
	if err != nil {
		return nil, err
	}

	events, err := DecodeAssetNew(c.ownLogs(rcpt.Logs))
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("%s: receipt %s has no %s event", bindings.MethodAssetNew, rcpt.TxID, bindings.EventAssetNew)
	}
	return respond(events[0].Asset, rcpt), nil
}

// Mint credits amount of asset to recipient.
func (c *Client) Mint(ctx context.Context, recipient identity.Identity, asset identity.Fingerprint, amount uint64) (*CallResponse[struct{}], error) {
	rcpt, err := c.transact(ctx, bindings.MethodMint, bindings.EncodeIdentity(recipient), [32]byte(asset), amount)
	if err != nil {
		return nil, err
	}
	return respond(struct{}{}, rcpt), nil
}

// TotalAssets returns the number of registered assets.
func (c *Client) TotalAssets(ctx context.Context) (uint64, error) {
	out, err := c.simulate(ctx, bindings.MethodTotalAssets)
	if err != nil {
		return 0, err
	}
	n, ok := out[0].(uint64)
	if !ok {
		return 0, fmt.Errorf("%s: unexpected output %T", bindings.MethodTotalAssets, out[0])
	}
	return n, nil
}

// TotalSupply returns the minted supply of asset, or None if it is not registered.
func (c *Client) TotalSupply(ctx context.Context, asset identity.Fingerprint) (optional.Option[uint64], error) {
	return query[uint64](ctx, c, bindings.MethodTotalSupply, [32]byte(asset))
}

// Name returns the name of asset, or None if it is not registered.
func (c *Client) Name(ctx context.Context, asset identity.Fingerprint) (optional.Option[string], error) {
	return query[string](ctx, c, bindings.MethodName, [32]byte(asset))
}

// Symbol returns the symbol of asset, or None if it is not registered.
func (c *Client) Symbol(ctx context.Context, asset identity.Fingerprint) (optional.Option[string], error) {
	return query[string](ctx, c, bindings.MethodSymbol, [32]byte(asset))
}

// Decimals returns the decimals of asset, or None if it is not registered.
func (c *Client) Decimals(ctx context.Context, asset identity.Fingerprint) (optional.Option[uint8], error) {
	return query[uint8](ctx, c, bindings.MethodDecimals, [32]byte(asset))
}

// RestrictedMint reports whether minting asset is reserved to the owner, or None if it is
// not registered.
func (c *Client) RestrictedMint(ctx context.Context, asset identity.Fingerprint) (optional.Option[bool], error) {
	return query[bool](ctx, c, bindings.MethodRestrictedMint, [32]byte(asset))
}

// Asset returns the id of the first asset registered under name.
func (c *Client) Asset(ctx context.Context, name string) (optional.Option[identity.Fingerprint], error) {
	v, err := query[[32]byte](ctx, c, bindings.MethodAsset, name)
	if err != nil {
		return nil, err
	}
	return optional.Map(v, func(b [32]byte) identity.Fingerprint { return identity.Fingerprint(b) }), nil
}

// Owner returns the current owner, or None before ownership is initialized.
func (c *Client) Owner(ctx context.Context) (optional.Option[identity.Identity], error) {
	out, err := c.simulate(ctx, bindings.MethodOwner)
	if err != nil {
		return nil, err
	}
	found, ok := out[0].(bool)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected output %T", bindings.MethodOwner, out[0])
	}
	if !found {
		return optional.None[identity.Identity](), nil
	}
	owner, err := bindings.DecodeIdentity(bindings.ToIdentityTuple(out[1]))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", bindings.MethodOwner, err)
	}
	return optional.Some(owner), nil
}

// BalanceOf reads the contract-held balance of owner in asset.
func (c *Client) BalanceOf(ctx context.Context, owner identity.Identity, asset identity.Fingerprint) (uint64, error) {
	out, err := c.simulate(ctx, bindings.MethodBalanceOf, bindings.EncodeIdentity(owner), [32]byte(asset))
	if err != nil {
		return 0, err
	}
	n, ok := out[0].(uint64)
	if !ok {
		return 0, fmt.Errorf("%s: unexpected output %T", bindings.MethodBalanceOf, out[0])
	}
	return n, nil
}

// query runs a simulated method returning (bool found, T value).
func query[T any](ctx context.Context, c *Client, method string, args ...interface{}) (optional.Option[T], error) {
	out, err := c.simulate(ctx, method, args...)
	if err != nil {
		return nil, err
	}
	if len(out) != 2 {
		return nil, fmt.Errorf("%s: expected 2 outputs, got %d", method, len(out))
	}
	found, ok := out[0].(bool)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected output %T", method, out[0])
	}
	if !found {
		return optional.None[T](), nil
	}
	v, ok := out[1].(T)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected output %T", method, out[1])
	}
	return optional.Some(v), nil
}

func (c *Client) transact(ctx context.Context, method string, args ...interface{}) (*ledger.Receipt, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	start := time.Now()
	rcpt, err := c.account.Ledger().Submit(ctx, c.account.Signer(), ledger.Call{To: c.id, Data: data})
	observe(method, kindTransaction, start, err)
	if err != nil {
		c.logger.Debug("contract transaction failed", zap.String("method", method), zap.Error(err))
		return nil, decodeRevert(method, err)
	}

	metrics.GasUsed.WithLabelValues(method).Observe(float64(rcpt.GasUsed))
	c.logger.Debug("contract transaction committed",
		zap.String("method", method),
		zap.String("tx_id", rcpt.TxID.String()),
		zap.Uint64("gas_used", rcpt.GasUsed),
		zap.Int("logs", len(rcpt.Logs)))
	return rcpt, nil
}

func (c *Client) simulate(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	start := time.Now()
	raw, err := c.account.Ledger().Simulate(ctx, c.account.Address(), ledger.Call{To: c.id, Data: data})
	observe(method, kindSimulation, start, err)
	if err != nil {
		c.logger.Debug("contract simulation failed", zap.String("method", method), zap.Error(err))
		return nil, decodeRevert(method, err)
	}

	out, err := c.abi.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: empty result", method)
	}
	c.logger.Debug("contract simulation", zap.String("method", method))
	return out, nil
}

// ownLogs keeps the logs emitted by this contract.
func (c *Client) ownLogs(logs []ledger.Log) []ledger.Log {
	var out []ledger.Log
	for _, l := range logs {
		if l.Address == c.id {
			out = append(out, l)
		}
	}
	return out
}

func respond[T any](v T, rcpt *ledger.Receipt) *CallResponse[T] {
	return &CallResponse[T]{
		Value:   v,
		Logs:    rcpt.Logs,
		TxID:    rcpt.TxID,
		GasUsed: rcpt.GasUsed,
	}
}

func observe(method, kind string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	metrics.ContractCallsTotal.WithLabelValues(method, kind, status).Inc()
	metrics.ContractCallDuration.WithLabelValues(method, kind).Observe(time.Since(start).Seconds())
}
