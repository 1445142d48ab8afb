package ledgertest

import (
	"fmt"
	"math"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/chainsafe/multiasset/pkg/identity"
	"github.com/chainsafe/multiasset/pkg/ledger"
	"github.com/chainsafe/multiasset/pkg/multiasset/bindings"
)

type assetInfo struct {
	id         identity.Fingerprint
	name       string
	symbol     string
	decimals   uint8
	restricted bool
	supply     uint64
}

type holding struct {
	kind  identity.Type
	owner identity.Fingerprint
	asset identity.Fingerprint
}

// contract is the state of one deployed multi-asset contract.
type contract struct {
	address  identity.Fingerprint
	owner    identity.Identity
	assets   []*assetInfo
	byID     map[identity.Fingerprint]*assetInfo
	balances map[holding]uint64
}

func newContract(addr identity.Fingerprint) *contract {
	return &contract{
		address:  addr,
		byID:     make(map[identity.Fingerprint]*assetInfo),
		balances: make(map[holding]uint64),
	}
}

func (c *contract) clone() *contract {
	out := newContract(c.address)
	out.owner = c.owner
	for _, a := range c.assets {
		cp := *a
		out.assets = append(out.assets, &cp)
		out.byID[cp.id] = &cp
	}
	for k, v := range c.balances {
		out.balances[k] = v
	}
	return out
}

func (c *contract) balanceOf(owner identity.Identity, asset identity.Fingerprint) uint64 {
	return c.balances[holding{kind: owner.Kind(), owner: owner.Fingerprint(), asset: asset}]
}

func (c *contract) isOwner(caller identity.Identity) bool {
	return c.owner != nil && identity.Equal(c.owner, caller)
}

func assetID(contractAddr identity.Fingerprint, name, symbol string) identity.Fingerprint {
	inner := crypto.Keccak256([]byte(name), []byte{0}, []byte(symbol))
	return identity.BytesToFingerprint(crypto.Keccak256(contractAddr[:], inner))
}

// execute decodes calldata and runs the method against c, returning packed outputs and
// emitted logs. Reverts are *ledger.RevertError.
func (c *contract) execute(caller identity.Identity, data []byte) ([]byte, []ledger.Log, error) {
	a := bindings.MustABI()
	if len(data) < 4 {
		return nil, nil, &ledger.RevertError{Reason: "missing selector"}
	}
	method, err := a.MethodById(data[:4])
	if err != nil {
		return nil, nil, &ledger.RevertError{Reason: "unknown selector"}
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, nil, &ledger.RevertError{Reason: fmt.Sprintf("bad calldata: %v", err)}
	}

	var (
		out  []interface{}
		logs []ledger.Log
	)
	switch method.Name {
	case bindings.MethodInitializeOwnership:
		logs, err = c.initializeOwnership(args)
	case bindings.MethodTransferOwnership:
		logs, err = c.transferOwnership(caller, args)
	case bindings.MethodAssetNew:
		var id identity.Fingerprint
		id, logs, err = c.assetNew(caller, args)
		out = []interface{}{[32]byte(id)}
	case bindings.MethodMint:
		logs, err = c.mint(caller, args)
	case bindings.MethodOwner:
		if c.owner == nil {
			out = []interface{}{false, bindings.IdentityTuple{}}
		} else {
			out = []interface{}{true, bindings.EncodeIdentity(c.owner)}
		}
	case bindings.MethodTotalAssets:
		out = []interface{}{uint64(len(c.assets))}
	case bindings.MethodAsset:
		out = []interface{}{false, [32]byte{}}
		name := args[0].(string)
		for _, info := range c.assets {
			if info.name == name {
				out = []interface{}{true, [32]byte(info.id)}
				break
			}
		}
	case bindings.MethodBalanceOf:
		owner, derr := bindings.DecodeIdentity(bindings.ToIdentityTuple(args[0]))
		if derr != nil {
			return nil, nil, &ledger.RevertError{Reason: derr.Error()}
		}
		out = []interface{}{c.balanceOf(owner, args[1].([32]byte))}
	case bindings.MethodTotalSupply, bindings.MethodName, bindings.MethodSymbol,
		bindings.MethodDecimals, bindings.MethodRestrictedMint:
		out = c.describe(method.Name, args[0].([32]byte))
	default:
		return nil, nil, &ledger.RevertError{Reason: "unsupported method " + method.Name}
	}
	if err != nil {
		return nil, nil, err
	}

	packed, err := method.Outputs.Pack(out...)
	if err != nil {
		return nil, nil, fmt.Errorf("pack %s outputs: %w", method.Name, err)
	}
	return packed, logs, nil
}

func (c *contract) describe(method string, id [32]byte) []interface{} {
	info, ok := c.byID[identity.Fingerprint(id)]
	switch method {
	case bindings.MethodTotalSupply:
		if !ok {
			return []interface{}{false, uint64(0)}
		}
		return []interface{}{true, info.supply}
	case bindings.MethodName:
		if !ok {
			return []interface{}{false, ""}
		}
		return []interface{}{true, info.name}
	case bindings.MethodSymbol:
		if !ok {
			return []interface{}{false, ""}
		}
		return []interface{}{true, info.symbol}
	case bindings.MethodDecimals:
		if !ok {
			return []interface{}{false, uint8(0)}
		}
		return []interface{}{true, info.decimals}
	default:
		if !ok {
			return []interface{}{false, false}
		}
		return []interface{}{true, info.restricted}
	}
}

func (c *contract) initializeOwnership(args []interface{}) ([]ledger.Log, error) {
	if c.owner != nil {
		return nil, revert(bindings.ErrorCannotReinitialize)
	}
	tuple := bindings.ToIdentityTuple(args[0])
	owner, err := bindings.DecodeIdentity(tuple)
	if err != nil {
		return nil, &ledger.RevertError{Reason: err.Error()}
	}
	c.owner = owner

	log, err := bindings.PackEvent(c.address, bindings.EventOwnershipSet, tuple)
	if err != nil {
		return nil, err
	}
	return []ledger.Log{log}, nil
}

func (c *contract) transferOwnership(caller identity.Identity, args []interface{}) ([]ledger.Log, error) {
	if !c.isOwner(caller) {
		return nil, revert(bindings.ErrorNotOwner)
	}
	tuple := bindings.ToIdentityTuple(args[0])
	next, err := bindings.DecodeIdentity(tuple)
	if err != nil {
		return nil, &ledger.RevertError{Reason: err.Error()}
	}
	previous := bindings.EncodeIdentity(c.owner)
	c.owner = next

	log, err := bindings.PackEvent(c.address, bindings.EventOwnershipTransferred, previous, tuple)
	if err != nil {
		return nil, err
	}
	return []ledger.Log{log}, nil
}

func (c *contract) assetNew(caller identity.Identity, args []interface{}) (identity.Fingerprint, []ledger.Log, error) {
	name, symbol := args[0].(string), args[1].(string)
	decimals, restricted := args[2].(uint8), args[3].(bool)

	if !c.isOwner(caller) {
		return identity.Fingerprint{}, nil, revert(bindings.ErrorNotOwner)
	}
	if name == "" || symbol == "" {
		return identity.Fingerprint{}, nil, revert(bindings.ErrorZeroStringLength)
	}
	id := assetID(c.address, name, symbol)
	if _, exists := c.byID[id]; exists {
		return identity.Fingerprint{}, nil, revert(bindings.ErrorAssetAlreadyExists)
	}

	info := &assetInfo{id: id, name: name, symbol: symbol, decimals: decimals, restricted: restricted}
	c.assets = append(c.assets, info)
	c.byID[id] = info

	log, err := bindings.PackEvent(c.address, bindings.EventAssetNew,
		[32]byte(id), name, symbol, decimals, bindings.EncodeIdentity(caller))
	if err != nil {
		return identity.Fingerprint{}, nil, err
	}
	return id, []ledger.Log{log}, nil
}

// mint enforces, in order: a non-zero amount, owner-only minting of unknown or restricted
// assets, then asset existence.
func (c *contract) mint(caller identity.Identity, args []interface{}) ([]ledger.Log, error) {
	tuple := bindings.ToIdentityTuple(args[0])
	recipient, err := bindings.DecodeIdentity(tuple)
	if err != nil {
		return nil, &ledger.RevertError{Reason: err.Error()}
	}
	id := identity.Fingerprint(args[1].([32]byte))
	amount := args[2].(uint64)

	if amount == 0 {
		return nil, revert(bindings.ErrorZeroValue)
	}
	info, ok := c.byID[id]
	if (!ok || info.restricted) && !c.isOwner(caller) {
		return nil, revert(bindings.ErrorNotOwner)
	}
	if !ok {
		return nil, revert(bindings.ErrorAssetNotFound)
	}
	if info.supply > math.MaxUint64-amount {
		return nil, &ledger.RevertError{Reason: "supply overflow"}
	}

	info.supply += amount
	c.balances[holding{kind: recipient.Kind(), owner: recipient.Fingerprint(), asset: id}] += amount

	log, err := bindings.PackEvent(c.address, bindings.EventAssetMinted,
		tuple, [32]byte(id), amount, bindings.EncodeIdentity(caller))
	if err != nil {
		return nil, err
	}
	return []ledger.Log{log}, nil
}
