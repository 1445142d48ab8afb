package multiasset

import (
	"errors"
	"fmt"

	"github.com/chainsafe/multiasset/pkg/identity"
	"github.com/chainsafe/multiasset/pkg/ledger"
	"github.com/chainsafe/multiasset/pkg/multiasset/bindings"
)

// OwnershipSetEvent is emitted by InitializeOwnership.
type OwnershipSetEvent struct {
	NewOwner identity.Identity
}

// OwnershipTransferredEvent is emitted by TransferOwnership.
type OwnershipTransferredEvent struct {
	PreviousOwner identity.Identity
	NewOwner      identity.Identity
}

// AssetNewEvent is emitted by AssetNew.
type AssetNewEvent struct {
	Asset    identity.Fingerprint
	Name     string
	Symbol   string
	Decimals uint8
	Creator  identity.Identity
}

// AssetMintedEvent is emitted by Mint.
type AssetMintedEvent struct {
	Recipient identity.Identity
	Asset     identity.Fingerprint
	Amount    uint64
	Minter    identity.Identity
}

// decodeLogs unpacks every log carrying the named event. Logs of other events are skipped.
func decodeLogs[T any](logs []ledger.Log, name string, conv func([]interface{}) (T, error)) ([]T, error) {
	var out []T
	for _, log := range logs {
		fields, err := bindings.UnpackEvent(name, log)
		if errors.Is(err, bindings.ErrUnexpectedEvent) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		ev, err := conv(fields)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		out = append(out, ev)
	}
	return out, nil
}

func identityField(v interface{}) (identity.Identity, error) {
	return bindings.DecodeIdentity(bindings.ToIdentityTuple(v))
}

// DecodeOwnershipSet returns the OwnershipSet events found in logs.
func DecodeOwnershipSet(logs []ledger.Log) ([]OwnershipSetEvent, error) {
	return decodeLogs(logs, bindings.EventOwnershipSet, func(f []interface{}) (OwnershipSetEvent, error) {
		owner, err := identityField(f[0])
		return OwnershipSetEvent{NewOwner: owner}, err
	})
}

// DecodeOwnershipTransferred returns the OwnershipTransferred events found in logs.
func DecodeOwnershipTransferred(logs []ledger.Log) ([]OwnershipTransferredEvent, error) {
	return decodeLogs(logs, bindings.EventOwnershipTransferred, func(f []interface{}) (OwnershipTransferredEvent, error) {
		prev, err := identityField(f[0])
		if err != nil {
			return OwnershipTransferredEvent{}, err
		}
		next, err := identityField(f[1])
		return OwnershipTransferredEvent{PreviousOwner: prev, NewOwner: next}, err
	})
}

// DecodeAssetNew returns the AssetNew events found in logs.
func DecodeAssetNew(logs []ledger.Log) ([]AssetNewEvent, error) {
	return decodeLogs(logs, bindings.EventAssetNew, func(f []interface{}) (AssetNewEvent, error) {
		creator, err := identityField(f[4])
		return AssetNewEvent{
			Asset:    identity.Fingerprint(f[0].([32]byte)),
			Name:     f[1].(string),
			Symbol:   f[2].(string),
			Decimals: f[3].(uint8),
			Creator:  creator,
		}, err
	})
}

// DecodeAssetMinted returns the AssetMinted events found in logs.
func DecodeAssetMinted(logs []ledger.Log) ([]AssetMintedEvent, error) {
	return decodeLogs(logs, bindings.EventAssetMinted, func(f []interface{}) (AssetMintedEvent, error) {
		recipient, err := identityField(f[0])
		if err != nil {
			return AssetMintedEvent{}, err
		}
		minter, err := identityField(f[3])
		return AssetMintedEvent{
			Recipient: recipient,
			Asset:     identity.Fingerprint(f[1].([32]byte)),
			Amount:    f[2].(uint64),
			Minter:    minter,
		}, err
	})
}
