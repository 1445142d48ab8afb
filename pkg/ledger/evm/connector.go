// Package evm implements the ledger connector over an EVM JSON-RPC node.
package evm

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"github.com/chainsafe/multiasset/pkg/config"
	"github.com/chainsafe/multiasset/pkg/identity"
	"github.com/chainsafe/multiasset/pkg/ledger"
	"github.com/chainsafe/multiasset/pkg/multiasset/bindings"
)

var (
	// ErrNotAnAddress indicates a fingerprint with non-zero bytes above the 20-byte address.
	ErrNotAnAddress = errors.New("fingerprint is not an EVM address")
	// ErrNoTokenContract indicates a non-base balance read without ledger.token_contract.
	ErrNoTokenContract = errors.New("token contract not configured")
	// ErrDeployMissing indicates the factory transaction succeeded but left no code at
	// the derived address.
	ErrDeployMissing = errors.New("no code at derived contract address")
)

// Backend is the subset of the node API the connector uses. *ethclient.Client
// implements it.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

var _ Backend = (*ethclient.Client)(nil)

// Connector represents an EVM ledger connection
type Connector struct {
	cfg     *config.LedgerConfig
	backend Backend
	closer  func()
	chainID *big.Int
	factory common.Address
	token   identity.Fingerprint
	logger  *zap.Logger
}

var _ ledger.Ledger = (*Connector)(nil)

// Dial connects to the node at rpcURL
func Dial(ctx context.Context, cfg *config.LedgerConfig, rpcURL string, logger *zap.Logger) (*Connector, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ledger RPC: %w", err)
	}

	c, err := New(ctx, client, cfg, logger)
	if err != nil {
		client.Close()
		return nil, err
	}
	c.closer = client.Close

	c.logger.Info("Connected to ledger",
		zap.String("rpc_url", rpcURL),
		zap.String("chain_id", c.chainID.String()),
		zap.String("factory", c.factory.Hex()))
	return c, nil
}

// New creates a connector over an existing backend
func New(ctx context.Context, backend Backend, cfg *config.LedgerConfig, logger *zap.Logger) (*Connector, error) {
	if cfg == nil {
		return nil, errors.New("nil ledger config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if !common.IsHexAddress(cfg.FactoryAddress) {
		return nil, fmt.Errorf("invalid factory address %q", cfg.FactoryAddress)
	}

	chainID := big.NewInt(cfg.ChainID)
	if cfg.ChainID == 0 {
		id, err := backend.ChainID(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get chain id: %w", err)
		}
		chainID = id
	}

	var token identity.Fingerprint
	if cfg.TokenContract != "" {
		fp, err := identity.ParseFingerprint(cfg.TokenContract)
		if err != nil {
			return nil, fmt.Errorf("invalid token contract: %w", err)
		}
		token = fp
	}

	return &Connector{
		cfg:     cfg,
		backend: backend,
		closer:  func() {},
		chainID: chainID,
		factory: common.HexToAddress(cfg.FactoryAddress),
		token:   token,
		logger:  logger,
	}, nil
}

// Close closes the node connection
func (c *Connector) Close() {
	c.closer()
}

// BaseAsset returns the zero fingerprint: the chain's native coin.
func (c *Connector) BaseAsset() identity.Fingerprint {
	return identity.ZeroFingerprint
}

// Balance reads the native balance for the base asset and the multi-asset contract
// balance for any other asset.
func (c *Connector) Balance(ctx context.Context, owner identity.Identity, asset identity.Fingerprint) (*big.Int, error) {
	if asset.IsZero() {
		addr, err := ToAddress(owner.Fingerprint())
		if err != nil {
			return nil, err
		}
		bal, err := c.backend.BalanceAt(ctx, addr, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to get balance: %w", err)
		}
		return bal, nil
	}

	if c.token.IsZero() {
		return nil, ErrNoTokenContract
	}
	a := bindings.MustABI()
	data, err := a.Pack(bindings.MethodBalanceOf, bindings.EncodeIdentity(owner), [32]byte(asset))
	if err != nil {
		return nil, fmt.Errorf("pack balanceOf: %w", err)
	}
	raw, err := c.Simulate(ctx, identity.ZeroFingerprint, ledger.Call{To: c.token, Data: data})
	if err != nil {
		return nil, err
	}
	out, err := a.Unpack(bindings.MethodBalanceOf, raw)
	if err != nil {
		return nil, fmt.Errorf("unpack balanceOf: %w", err)
	}
	amount, ok := out[0].(uint64)
	if !ok {
		return nil, fmt.Errorf("unexpected balanceOf output %T", out[0])
	}
	return new(big.Int).SetUint64(amount), nil
}

// Deploy sends salt || initCode to the CREATE2 factory and verifies code landed at the
// derived address.
func (c *Connector) Deploy(ctx context.Context, signer ledger.Signer, req ledger.DeployRequest) (*ledger.Receipt, error) {
	expected := DeployAddress(c.factory, req.Salt, req.InitCode)

	data := make([]byte, 0, len(req.Salt)+len(req.InitCode))
	data = append(data, req.Salt[:]...)
	data = append(data, req.InitCode...)

	c.logger.Info("Deploying contract",
		zap.String("factory", c.factory.Hex()),
		zap.String("expected_address", expected.Hex()))

	rcpt, err := c.send(ctx, signer, c.factory, data)
	if err != nil {
		return nil, err
	}

	code, err := c.backend.CodeAt(ctx, expected, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get code: %w", err)
	}
	if len(code) == 0 {
		return nil, fmt.Errorf("%w %s", ErrDeployMissing, expected.Hex())
	}

	rcpt.ContractID = FromAddress(expected)
	return rcpt, nil
}

// Submit signs and sends a contract call and waits for its receipt.
func (c *Connector) Submit(ctx context.Context, signer ledger.Signer, call ledger.Call) (*ledger.Receipt, error) {
	to, err := ToAddress(call.To)
	if err != nil {
		return nil, err
	}
	return c.send(ctx, signer, to, call.Data)
}

// Simulate runs call through eth_call against the latest block.
func (c *Connector) Simulate(ctx context.Context, from identity.Fingerprint, call ledger.Call) ([]byte, error) {
	fromAddr, err := ToAddress(from)
	if err != nil {
		return nil, err
	}
	to, err := ToAddress(call.To)
	if err != nil {
		return nil, err
	}

	out, err := c.backend.CallContract(ctx, ethereum.CallMsg{From: fromAddr, To: &to, Data: call.Data}, nil)
	if err != nil {
		return nil, revertFrom(err)
	}
	return out, nil
}

func (c *Connector) send(ctx context.Context, signer ledger.Signer, to common.Address, data []byte) (*ledger.Receipt, error) {
	from, err := ToAddress(signer.Address())
	if err != nil {
		return nil, err
	}

	nonce, err := c.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, err := c.gasPrice(ctx)
	if err != nil {
		return nil, err
	}

	msg := ethereum.CallMsg{From: from, To: &to, GasPrice: gasPrice, Data: data}
	gas := c.cfg.GasLimit
	if gas == 0 {
		gas, err = c.backend.EstimateGas(ctx, msg)
		if err != nil {
			return nil, revertFrom(err)
		}
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gas,
		To:       &to,
		Data:     data,
	})
	txSigner := types.LatestSignerForChainID(c.chainID)
	sig, err := signer.Sign(txSigner.Hash(tx).Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	signed, err := tx.WithSignature(txSigner, sig)
	if err != nil {
		return nil, fmt.Errorf("failed to attach signature: %w", err)
	}

	if err := c.backend.SendTransaction(ctx, signed); err != nil {
		return nil, revertFrom(err)
	}
	c.logger.Debug("Transaction submitted",
		zap.String("tx_hash", signed.Hash().Hex()),
		zap.Uint64("nonce", nonce),
		zap.Uint64("gas", gas))

	rcpt, err := c.waitReceipt(ctx, signed.Hash())
	if err != nil {
		return nil, err
	}
	if rcpt.Status == types.ReceiptStatusFailed {
		// replay at the including block to recover the revert payload
		msg.Gas = gas
		_, callErr := c.backend.CallContract(ctx, msg, rcpt.BlockNumber)
		if callErr != nil {
			return nil, revertFrom(callErr)
		}
		return nil, &ledger.RevertError{}
	}
	return convertReceipt(rcpt), nil
}

func (c *Connector) gasPrice(ctx context.Context) (*big.Int, error) {
	suggested, err := c.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest gas price: %w", err)
	}
	if c.cfg.MaxGasPrice == "" {
		return suggested, nil
	}
	maxGasPrice, ok := new(big.Int).SetString(c.cfg.MaxGasPrice, 10)
	if !ok {
		return nil, fmt.Errorf("invalid max gas price %q", c.cfg.MaxGasPrice)
	}
	if suggested.Cmp(maxGasPrice) > 0 {
		c.logger.Warn("Suggested gas price exceeds maximum",
			zap.String("suggested", suggested.String()),
			zap.String("max", maxGasPrice.String()))
		return maxGasPrice, nil
	}
	return suggested, nil
}

// waitReceipt polls for the receipt until it appears or ledger.receipt_timeout elapses.
func (c *Connector) waitReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ReceiptTimeout)
	defer cancel()

	ticker := time.NewTicker(c.cfg.ReceiptPollInterval)
	defer ticker.Stop()

	for {
		rcpt, err := c.backend.TransactionReceipt(ctx, hash)
		if err == nil {
			return rcpt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("failed to get receipt for %s: %w", hash.Hex(), err)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for receipt of %s: %w", hash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}

// DeployAddress derives the CREATE2 address of initCode deployed by factory with salt.
func DeployAddress(factory common.Address, salt [32]byte, initCode []byte) common.Address {
	return crypto.CreateAddress2(factory, salt, crypto.Keccak256(initCode))
}

// ToAddress converts a left-padded fingerprint into an address.
func ToAddress(fp identity.Fingerprint) (common.Address, error) {
	for _, b := range fp[:identity.FingerprintLength-common.AddressLength] {
		if b != 0 {
			return common.Address{}, fmt.Errorf("%w: %s", ErrNotAnAddress, fp)
		}
	}
	return common.BytesToAddress(fp[identity.FingerprintLength-common.AddressLength:]), nil
}

// FromAddress converts an address into its left-padded fingerprint.
func FromAddress(addr common.Address) identity.Fingerprint {
	return identity.BytesToFingerprint(addr.Bytes())
}

// revertFrom extracts the revert payload of a JSON-RPC execution error. Other errors are
// returned unchanged.
func revertFrom(err error) error {
	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return err
	}
	s, ok := dataErr.ErrorData().(string)
	if !ok {
		return err
	}
	data, decodeErr := hexutil.Decode(s)
	if decodeErr != nil {
		return err
	}
	revert := &ledger.RevertError{Data: data}
	if reason, unpackErr := abi.UnpackRevert(data); unpackErr == nil {
		revert.Reason = reason
	}
	return revert
}

func convertReceipt(rcpt *types.Receipt) *ledger.Receipt {
	out := &ledger.Receipt{
		TxID:    identity.Fingerprint(rcpt.TxHash),
		GasUsed: rcpt.GasUsed,
		Logs:    make([]ledger.Log, 0, len(rcpt.Logs)),
	}
	for _, l := range rcpt.Logs {
		topics := make([]identity.Fingerprint, len(l.Topics))
		for i, t := range l.Topics {
			topics[i] = identity.Fingerprint(t)
		}
		out.Logs = append(out.Logs, ledger.Log{
			Address: FromAddress(l.Address),
			Topics:  topics,
			Data:    l.Data,
		})
	}
	return out
}
