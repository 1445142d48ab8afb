// Package ledgertest provides an in-memory ledger that executes the multi-asset contract.
// It is deterministic, counts connector calls and supports fault injection.
package ledgertest

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/chainsafe/multiasset/pkg/identity"
	"github.com/chainsafe/multiasset/pkg/ledger"
	"github.com/chainsafe/multiasset/pkg/multiasset/bindings"
)

// Connector method names used by Calls and FailNext.
const (
	OpBalance  = "Balance"
	OpDeploy   = "Deploy"
	OpSubmit   = "Submit"
	OpSimulate = "Simulate"
)

// DefaultFee is charged in the base asset for every committed transaction.
const DefaultFee = 21_000

// DefaultGasUsed is reported on every receipt.
const DefaultGasUsed = 21_000

// ErrInsufficientFunds is returned when the signer cannot pay the fee.
var ErrInsufficientFunds = errors.New("insufficient funds for fee")

// Factory is the address contracts are derived from.
var Factory = identity.BytesToFingerprint(crypto.Keccak256([]byte("ledgertest-factory"))[:20])

type balanceKey struct {
	kind  identity.Type
	owner identity.Fingerprint
	asset identity.Fingerprint
}

// Ledger is an in-memory ledger.Ledger. The zero value is not usable; call New.
type Ledger struct {
	mu        sync.Mutex
	fee       *big.Int
	base      map[balanceKey]*big.Int
	contracts map[identity.Fingerprint]*contract
	calls     map[string]int
	failures  map[string][]error
	txCount   uint64
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithFee sets the per-transaction fee. A zero fee makes transactions free.
func WithFee(fee int64) Option {
	return func(l *Ledger) {
		l.fee = big.NewInt(fee)
	}
}

// New creates an empty ledger.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		fee:       big.NewInt(DefaultFee),
		base:      make(map[balanceKey]*big.Int),
		contracts: make(map[identity.Fingerprint]*contract),
		calls:     make(map[string]int),
		failures:  make(map[string][]error),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

var _ ledger.Ledger = (*Ledger)(nil)

// Fund credits amount of the base asset to id.
func (l *Ledger) Fund(id identity.Identity, amount int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := balanceKey{kind: id.Kind(), owner: id.Fingerprint(), asset: identity.ZeroFingerprint}
	cur := l.base[key]
	if cur == nil {
		cur = new(big.Int)
	}
	l.base[key] = new(big.Int).Add(cur, big.NewInt(amount))
}

// Calls returns how many times the connector method op was invoked.
func (l *Ledger) Calls(op string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[op]
}

// TotalCalls returns the number of connector invocations of any kind.
func (l *Ledger) TotalCalls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, c := range l.calls {
		n += c
	}
	return n
}

// FailNext makes the next invocation of op return err. Queued failures are consumed in
// order.
func (l *Ledger) FailNext(op string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures[op] = append(l.failures[op], err)
}

// Deployed reports whether a contract exists at addr.
func (l *Ledger) Deployed(addr identity.Fingerprint) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.contracts[addr]
	return ok
}

// BaseAsset implements ledger.Ledger.
func (l *Ledger) BaseAsset() identity.Fingerprint {
	return identity.ZeroFingerprint
}

// Balance implements ledger.Ledger.
func (l *Ledger) Balance(_ context.Context, owner identity.Identity, asset identity.Fingerprint) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enter(OpBalance); err != nil {
		return nil, err
	}

	if asset == identity.ZeroFingerprint {
		if bal, ok := l.base[balanceKey{kind: owner.Kind(), owner: owner.Fingerprint(), asset: asset}]; ok {
			return new(big.Int).Set(bal), nil
		}
		return new(big.Int), nil
	}
	for _, c := range l.contracts {
		if _, ok := c.byID[asset]; ok {
			return new(big.Int).SetUint64(c.balanceOf(owner, asset)), nil
		}
	}
	return new(big.Int), nil
}

// Deploy implements ledger.Ledger. The contract address is derived from the factory, the
// salt and the init code hash.
func (l *Ledger) Deploy(_ context.Context, signer ledger.Signer, req ledger.DeployRequest) (*ledger.Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enter(OpDeploy); err != nil {
		return nil, err
	}
	if len(req.InitCode) == 0 {
		return nil, fmt.Errorf("empty init code")
	}

	addr := DeriveAddress(req.Salt, req.InitCode)
	if _, exists := l.contracts[addr]; exists {
		return nil, fmt.Errorf("contract already deployed at %s", addr)
	}
	if err := l.charge(signer); err != nil {
		return nil, err
	}
	l.contracts[addr] = newContract(addr)

	rcpt := l.receipt(nil)
	rcpt.ContractID = addr
	return rcpt, nil
}

// Submit implements ledger.Ledger. A reverted call is not charged.
func (l *Ledger) Submit(_ context.Context, signer ledger.Signer, call ledger.Call) (*ledger.Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enter(OpSubmit); err != nil {
		return nil, err
	}

	c, ok := l.contracts[call.To]
	if !ok {
		return nil, fmt.Errorf("no contract at %s", call.To)
	}
	caller := identity.AccountAddress(signer.Address())
	if err := l.affordable(caller); err != nil {
		return nil, err
	}

	next := c.clone()
	_, logs, err := next.execute(caller, call.Data)
	if err != nil {
		return nil, err
	}
	l.contracts[call.To] = next
	if err := l.charge(signer); err != nil {
		return nil, err
	}
	return l.receipt(logs), nil
}

// Simulate implements ledger.Ledger. It runs against a copy of the contract state.
func (l *Ledger) Simulate(_ context.Context, from identity.Fingerprint, call ledger.Call) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enter(OpSimulate); err != nil {
		return nil, err
	}

	c, ok := l.contracts[call.To]
	if !ok {
		return nil, fmt.Errorf("no contract at %s", call.To)
	}
	out, _, err := c.clone().execute(identity.AccountAddress(from), call.Data)
	return out, err
}

// DeriveAddress computes the address a deployment with salt and initCode lands on.
func DeriveAddress(salt [32]byte, initCode []byte) identity.Fingerprint {
	addr := crypto.Keccak256([]byte{0xff}, Factory[12:], salt[:], crypto.Keccak256(initCode))[12:]
	return identity.BytesToFingerprint(addr)
}

// enter records the call and pops a queued failure. Callers hold l.mu.
func (l *Ledger) enter(op string) error {
	l.calls[op]++
	if q := l.failures[op]; len(q) > 0 {
		l.failures[op] = q[1:]
		return q[0]
	}
	return nil
}

func (l *Ledger) affordable(payer identity.Identity) error {
	key := balanceKey{kind: payer.Kind(), owner: payer.Fingerprint(), asset: identity.ZeroFingerprint}
	bal := l.base[key]
	if bal == nil {
		bal = new(big.Int)
	}
	if bal.Cmp(l.fee) < 0 {
		return fmt.Errorf("%w: have %s, need %s", ErrInsufficientFunds, bal, l.fee)
	}
	return nil
}

func (l *Ledger) charge(signer ledger.Signer) error {
	payer := identity.AccountAddress(signer.Address())
	if err := l.affordable(payer); err != nil {
		return err
	}
	key := balanceKey{kind: payer.Kind(), owner: payer.Fingerprint(), asset: identity.ZeroFingerprint}
	l.base[key] = new(big.Int).Sub(l.base[key], l.fee)
	return nil
}

func (l *Ledger) receipt(logs []ledger.Log) *ledger.Receipt {
	l.txCount++
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], l.txCount)
	return &ledger.Receipt{
		TxID:    identity.BytesToFingerprint(crypto.Keccak256([]byte("tx"), n[:])),
		Logs:    logs,
		GasUsed: DefaultGasUsed,
	}
}

func revert(name string) error {
	data, err := bindings.EncodeError(name)
	if err != nil {
		return err
	}
	return &ledger.RevertError{Data: data}
}
