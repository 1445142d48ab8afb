package bindings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainsafe/multiasset/pkg/identity"
)

func TestABI_HasContractSurface(t *testing.T) {
	a, err := ABI()
	require.NoError(t, err)

	for _, m := range []string{
		MethodInitializeOwnership, MethodTransferOwnership, MethodOwner, MethodAssetNew,
		MethodMint, MethodTotalAssets, MethodTotalSupply, MethodName, MethodSymbol,
		MethodDecimals, MethodRestrictedMint, MethodAsset, MethodBalanceOf,
	} {
		_, ok := a.Methods[m]
		assert.True(t, ok, "missing method %s", m)
	}
	for _, name := range []string{ErrorNotOwner, ErrorAssetAlreadyExists, ErrorZeroStringLength, ErrorZeroValue, ErrorAssetNotFound, ErrorCannotReinitialize} {
		_, ok := a.Errors[name]
		assert.True(t, ok, "missing error %s", name)
	}
	assert.True(t, a.Methods[MethodName].IsConstant())
	assert.False(t, a.Methods[MethodMint].IsConstant())
}

func TestIdentityTuple(t *testing.T) {
	fp := identity.BytesToFingerprint([]byte{0xaa})

	tuple := EncodeIdentity(identity.ContractAddress(fp))
	assert.Equal(t, KindContract, tuple.Kind)

	id, err := DecodeIdentity(tuple)
	require.NoError(t, err)
	assert.True(t, identity.Equal(identity.ContractAddress(fp), id))

	_, err = DecodeIdentity(IdentityTuple{Kind: 7})
	assert.Error(t, err)
}

func TestPackUnpackEvent(t *testing.T) {
	contract := identity.BytesToFingerprint([]byte{0x01})
	recipient := EncodeIdentity(identity.AccountAddress(identity.BytesToFingerprint([]byte{0x02})))
	minter := EncodeIdentity(identity.AccountAddress(identity.BytesToFingerprint([]byte{0x03})))
	asset := [32]byte{0x04}

	log, err := PackEvent(contract, EventAssetMinted, recipient, asset, uint64(42), minter)
	require.NoError(t, err)
	assert.Equal(t, contract, log.Address)

	out, err := UnpackEvent(EventAssetMinted, log)
	require.NoError(t, err)
	require.Len(t, out, 4)
	assert.Equal(t, recipient, ToIdentityTuple(out[0]))
	assert.Equal(t, asset, out[1].([32]byte))
	assert.Equal(t, uint64(42), out[2].(uint64))
	assert.Equal(t, minter, ToIdentityTuple(out[3]))

	_, err = UnpackEvent(EventAssetNew, log)
	assert.ErrorIs(t, err, ErrUnexpectedEvent)
}

func TestEncodeDecodeError(t *testing.T) {
	data, err := EncodeError(ErrorZeroValue)
	require.NoError(t, err)
	require.Len(t, data, 4)

	name, ok := DecodeError(data)
	assert.True(t, ok)
	assert.Equal(t, ErrorZeroValue, name)

	_, ok = DecodeError([]byte{0xde, 0xad})
	assert.False(t, ok)

	_, err = EncodeError("Nope")
	assert.Error(t, err)
}

func TestPackConstructor(t *testing.T) {
	empty, err := PackConstructor(nil)
	require.NoError(t, err)
	// offset word + length word
	assert.Len(t, empty, 64)

	withSlot, err := PackConstructor([]StorageSlotTuple{{Key: [32]byte{1}, Value: [32]byte{2}}})
	require.NoError(t, err)
	assert.Len(t, withSlot, 128)
}
