// Package bindings holds the ABI of the multi-asset contract and the low level codecs
// around it: identity tuples, event logs and custom revert errors.
package bindings

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/chainsafe/multiasset/pkg/identity"
	"github.com/chainsafe/multiasset/pkg/ledger"
)

// Method names.
const (
	MethodInitializeOwnership = "initializeOwnership"
	MethodTransferOwnership   = "transferOwnership"
	MethodOwner               = "owner"
	MethodAssetNew            = "assetNew"
	MethodMint                = "mint"
	MethodTotalAssets         = "totalAssets"
	MethodTotalSupply         = "totalSupply"
	MethodName                = "name"
	MethodSymbol              = "symbol"
	MethodDecimals            = "decimals"
	MethodRestrictedMint      = "restrictedMint"
	MethodAsset               = "asset"
	MethodBalanceOf           = "balanceOf"
)

// Event names.
const (
	EventOwnershipSet         = "OwnershipSet"
	EventOwnershipTransferred = "OwnershipTransferred"
	EventAssetNew             = "AssetNew"
	EventAssetMinted          = "AssetMinted"
)

// Custom error names.
const (
	ErrorNotOwner           = "NotOwner"
	ErrorAssetAlreadyExists = "AssetAlreadyExists"
	ErrorZeroStringLength   = "ZeroStringLength"
	ErrorZeroValue          = "ZeroValue"
	ErrorAssetNotFound      = "AssetNotFound"
	ErrorCannotReinitialize = "CannotReinitialize"
)

// Identity kinds as encoded on the wire.
const (
	KindAddress  uint8 = 0
	KindContract uint8 = 1
)

//go:embed multiasset.abi.json
var abiJSON []byte

var (
	parsedOnce sync.Once
	parsed     abi.ABI
	parseErr   error
)

// ABI returns the parsed contract ABI.
func ABI() (*abi.ABI, error) {
	parsedOnce.Do(func() {
		parsed, parseErr = abi.JSON(bytes.NewReader(abiJSON))
	})
	if parseErr != nil {
		return nil, fmt.Errorf("failed to parse multiasset ABI: %w", parseErr)
	}
	return &parsed, nil
}

// MustABI is ABI that panics on error. The embedded ABI is static, so a failure is a
// build defect.
func MustABI() *abi.ABI {
	a, err := ABI()
	if err != nil {
		panic(err)
	}
	return a
}

// IdentityTuple is the ABI form of an identity: (uint8 kind, bytes32 value).
type IdentityTuple struct {
	Kind  uint8
	Value [32]byte
}

// StorageSlotTuple is one constructor storage slot: (bytes32 key, bytes32 value).
type StorageSlotTuple struct {
	Key   [32]byte
	Value [32]byte
}

// EncodeIdentity converts an identity into its tuple form.
func EncodeIdentity(id identity.Identity) IdentityTuple {
	kind := KindAddress
	if id.Kind() == identity.TypeContract {
		kind = KindContract
	}
	return IdentityTuple{Kind: kind, Value: id.Fingerprint()}
}

// DecodeIdentity converts a tuple back into the identity variant it encodes.
func DecodeIdentity(t IdentityTuple) (identity.Identity, error) {
	switch t.Kind {
	case KindAddress:
		return identity.AccountAddress(t.Value), nil
	case KindContract:
		return identity.ContractAddress(t.Value), nil
	default:
		return nil, fmt.Errorf("unknown identity kind %d", t.Kind)
	}
}

// ToIdentityTuple converts an unpacked ABI value into an IdentityTuple.
func ToIdentityTuple(v interface{}) IdentityTuple {
	return *abi.ConvertType(v, new(IdentityTuple)).(*IdentityTuple)
}

// PackConstructor ABI-encodes the constructor arguments.
func PackConstructor(slots []StorageSlotTuple) ([]byte, error) {
	a, err := ABI()
	if err != nil {
		return nil, err
	}
	if slots == nil {
		slots = []StorageSlotTuple{}
	}
	return a.Pack("", slots)
}

// ErrUnexpectedEvent is returned when a log does not carry the requested event.
var ErrUnexpectedEvent = errors.New("unexpected event")

// UnpackEvent decodes the non-indexed fields of the named event from log.
func UnpackEvent(name string, log ledger.Log) ([]interface{}, error) {
	a, err := ABI()
	if err != nil {
		return nil, err
	}
	ev, ok := a.Events[name]
	if !ok {
		return nil, fmt.Errorf("no event %q in ABI", name)
	}
	if len(log.Topics) == 0 || log.Topics[0] != identity.Fingerprint(ev.ID) {
		return nil, ErrUnexpectedEvent
	}
	return ev.Inputs.NonIndexed().Unpack(log.Data)
}

// PackEvent builds the log the contract emits for the named event.
func PackEvent(contract identity.Fingerprint, name string, args ...interface{}) (ledger.Log, error) {
	a, err := ABI()
	if err != nil {
		return ledger.Log{}, err
	}
	ev, ok := a.Events[name]
	if !ok {
		return ledger.Log{}, fmt.Errorf("no event %q in ABI", name)
	}
	data, err := ev.Inputs.NonIndexed().Pack(args...)
	if err != nil {
		return ledger.Log{}, fmt.Errorf("failed to pack %s: %w", name, err)
	}
	return ledger.Log{
		Address: contract,
		Topics:  []identity.Fingerprint{identity.Fingerprint(ev.ID)},
		Data:    data,
	}, nil
}

// EncodeError returns the revert payload of the named custom error.
func EncodeError(name string) ([]byte, error) {
	a, err := ABI()
	if err != nil {
		return nil, err
	}
	e, ok := a.Errors[name]
	if !ok {
		return nil, fmt.Errorf("no error %q in ABI", name)
	}
	sel := make([]byte, 4)
	copy(sel, e.ID[:4])
	return sel, nil
}

// DecodeError matches revert data against the ABI error table and returns the custom
// error name. A plain Error(string) revert is returned as its reason with ok false.
func DecodeError(data []byte) (name string, ok bool) {
	if len(data) < 4 {
		return "", false
	}
	a, err := ABI()
	if err != nil {
		return "", false
	}
	for n, e := range a.Errors {
		if bytes.Equal(e.ID[:4], data[:4]) {
			return n, true
		}
	}
	if reason, err := abi.UnpackRevert(data); err == nil {
		return reason, false
	}
	return "", false
}
