package multiasset

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainsafe/multiasset/pkg/account"
	"github.com/chainsafe/multiasset/pkg/identity"
	"github.com/chainsafe/multiasset/pkg/keys"
	"github.com/chainsafe/multiasset/pkg/ledger/ledgertest"
)

const funding = 1_000_000_000

type fixture struct {
	ledger   *ledgertest.Ledger
	deployer *account.Wallet
	user     *account.Wallet
	contract *Client
}

func newWallet(t *testing.T, l *ledgertest.Ledger) *account.Wallet {
	t.Helper()
	key, err := keys.Generate()
	require.NoError(t, err)
	w, err := account.New(l, key)
	require.NoError(t, err)
	l.Fund(w.Identity(), funding)
	return w
}

func testArtifact() *Artifact {
	return &Artifact{Bytecode: []byte{0x60, 0x80, 0x60, 0x40, 0x52}}
}

func setup(t *testing.T) *fixture {
	t.Helper()
	l := ledgertest.New()
	deployer := newWallet(t, l)
	user := newWallet(t, l)

	d, err := Deploy(context.Background(), deployer, testArtifact(), bytes.NewReader(bytes.Repeat([]byte{7}, 32)))
	require.NoError(t, err)
	require.Equal(t, PhaseOwned, d.Phase)

	return &fixture{ledger: l, deployer: deployer, user: user, contract: d.Client}
}

func TestAssetNew_RoundTrip(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	resp, err := f.contract.AssetNew(ctx, "Bitcoin", "BTC", 8, true)
	require.NoError(t, err)
	asset := resp.Value
	assert.False(t, asset.IsZero())

	events, err := DecodeAssetNew(resp.Logs)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, AssetNewEvent{
		Asset:    asset,
		Name:     "Bitcoin",
		Symbol:   "BTC",
		Decimals: 8,
		Creator:  f.deployer.Identity(),
	}, events[0])

	total, err := f.contract.TotalAssets(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), total)

	name, err := f.contract.Name(ctx, asset)
	require.NoError(t, err)
	assert.Equal(t, "Bitcoin", name.Unwrap())

	symbol, err := f.contract.Symbol(ctx, asset)
	require.NoError(t, err)
	assert.Equal(t, "BTC", symbol.Unwrap())

	decimals, err := f.contract.Decimals(ctx, asset)
	require.NoError(t, err)
	assert.Equal(t, uint8(8), decimals.Unwrap())

	restricted, err := f.contract.RestrictedMint(ctx, asset)
	require.NoError(t, err)
	assert.True(t, restricted.Unwrap())

	supply, err := f.contract.TotalSupply(ctx, asset)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), supply.Unwrap())

	byName, err := f.contract.Asset(ctx, "Bitcoin")
	require.NoError(t, err)
	assert.Equal(t, asset, byName.Unwrap())
}

func TestQueries_UnknownAssetIsAbsent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	unknown := identity.BytesToFingerprint([]byte{0xde, 0xad})

	name, err := f.contract.Name(ctx, unknown)
	require.NoError(t, err)
	assert.True(t, name.IsNone())

	supply, err := f.contract.TotalSupply(ctx, unknown)
	require.NoError(t, err)
	assert.True(t, supply.IsNone())

	decimals, err := f.contract.Decimals(ctx, unknown)
	require.NoError(t, err)
	assert.True(t, decimals.IsNone())

	asset, err := f.contract.Asset(ctx, "nope")
	require.NoError(t, err)
	assert.True(t, asset.IsNone())
}

func TestAssetNew_Duplicate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first, err := f.contract.AssetNew(ctx, "Ether", "ETH", 18, false)
	require.NoError(t, err)

	_, err = f.contract.AssetNew(ctx, "Ether", "ETH", 9, false)
	require.ErrorIs(t, err, ErrAssetAlreadyExists)

	var cerr *ContractError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "assetNew", cerr.Method)

	decimals, err := f.contract.Decimals(ctx, first.Value)
	require.NoError(t, err)
	assert.Equal(t, uint8(18), decimals.Unwrap())

	// same name, different symbol is a different asset
	_, err = f.contract.AssetNew(ctx, "Ether", "WETH", 18, false)
	require.NoError(t, err)
}

func TestAssetNew_EmptyStrings(t *testing.T) {
	f := setup(t)
	_, err := f.contract.AssetNew(context.Background(), "", "X", 0, false)
	assert.ErrorIs(t, err, ErrZeroStringLength)
	_, err = f.contract.AssetNew(context.Background(), "X", "", 0, false)
	assert.ErrorIs(t, err, ErrZeroStringLength)
}

func TestAssetNew_NotOwner(t *testing.T) {
	f := setup(t)
	_, err := f.contract.WithAccount(f.user).AssetNew(context.Background(), "Bitcoin", "BTC", 8, false)
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestMint_Accumulates(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	asset, err := f.contract.AssetNew(ctx, "BTC", "BTC", 8, false)
	require.NoError(t, err)

	recipient := f.user.Identity()
	const amount = 1_000_000_000

	resp, err := f.contract.Mint(ctx, recipient, asset.Value, amount)
	require.NoError(t, err)

	minted, err := DecodeAssetMinted(resp.Logs)
	require.NoError(t, err)
	require.Len(t, minted, 1)
	assert.Equal(t, AssetMintedEvent{
		Recipient: recipient,
		Asset:     asset.Value,
		Amount:    amount,
		Minter:    f.deployer.Identity(),
	}, minted[0])

	bal, err := f.user.BalanceOf(ctx, asset.Value)
	require.NoError(t, err)
	assert.Equal(t, int64(amount), bal.Int64())

	_, err = f.contract.Mint(ctx, recipient, asset.Value, amount)
	require.NoError(t, err)

	bal, err = f.user.BalanceOf(ctx, asset.Value)
	require.NoError(t, err)
	assert.Equal(t, int64(2*amount), bal.Int64())

	supply, err := f.contract.TotalSupply(ctx, asset.Value)
	require.NoError(t, err)
	assert.Equal(t, uint64(2*amount), supply.Unwrap())
}

func TestMint_ContractRecipient(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	asset, err := f.contract.AssetNew(ctx, "BTC", "BTC", 8, false)
	require.NoError(t, err)

	recipient := identity.ContractAddress(identity.BytesToFingerprint([]byte{0x42}))
	_, err = f.contract.Mint(ctx, recipient, asset.Value, 5)
	require.NoError(t, err)

	bal, err := f.contract.BalanceOf(ctx, recipient, asset.Value)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), bal)

	// the same fingerprint as an account holds nothing
	bal, err = f.contract.BalanceOf(ctx, identity.AccountAddress(recipient.Fingerprint()), asset.Value)
	require.NoError(t, err)
	assert.Zero(t, bal)
}

func TestMint_ZeroValue(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	asset, err := f.contract.AssetNew(ctx, "BTC", "BTC", 8, false)
	require.NoError(t, err)

	_, err = f.contract.Mint(ctx, f.user.Identity(), asset.Value, 0)
	require.ErrorIs(t, err, ErrZeroValue)

	bal, err := f.user.BalanceOf(ctx, asset.Value)
	require.NoError(t, err)
	assert.Zero(t, bal.Sign())
}

func TestMint_AssetNotFound(t *testing.T) {
	f := setup(t)
	_, err := f.contract.Mint(context.Background(), f.user.Identity(), identity.ZeroFingerprint, 1)
	assert.ErrorIs(t, err, ErrAssetNotFound)
}

func TestMint_NotOwner(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	restricted, err := f.contract.AssetNew(ctx, "BTC", "BTC", 8, true)
	require.NoError(t, err)
	open, err := f.contract.AssetNew(ctx, "Points", "PTS", 0, false)
	require.NoError(t, err)

	asUser := f.contract.WithAccount(f.user)

	_, err = asUser.Mint(ctx, f.user.Identity(), restricted.Value, 1)
	assert.ErrorIs(t, err, ErrNotOwner)

	_, err = asUser.Mint(ctx, f.user.Identity(), identity.ZeroFingerprint, 1)
	assert.ErrorIs(t, err, ErrNotOwner)

	_, err = asUser.Mint(ctx, f.user.Identity(), open.Value, 1)
	assert.NoError(t, err)
}

func TestTransferOwnership(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	resp, err := f.contract.TransferOwnership(ctx, f.user.Identity())
	require.NoError(t, err)

	events, err := DecodeOwnershipTransferred(resp.Logs)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, identity.Equal(f.deployer.Identity(), events[0].PreviousOwner))
	assert.True(t, identity.Equal(f.user.Identity(), events[0].NewOwner))

	_, err = f.contract.AssetNew(ctx, "BTC", "BTC", 8, false)
	assert.ErrorIs(t, err, ErrNotOwner)

	_, err = f.contract.TransferOwnership(ctx, f.deployer.Identity())
	assert.ErrorIs(t, err, ErrNotOwner)

	asUser := f.contract.WithAccount(f.user)
	_, err = asUser.AssetNew(ctx, "BTC", "BTC", 8, false)
	assert.NoError(t, err)

	owner, err := f.contract.Owner(ctx)
	require.NoError(t, err)
	assert.True(t, identity.Equal(f.user.Identity(), owner.Unwrap()))
}

func TestInitializeOwnership_Once(t *testing.T) {
	f := setup(t)
	_, err := f.contract.InitializeOwnership(context.Background(), f.user.Identity())
	assert.ErrorIs(t, err, ErrCannotReinitialize)
}

func TestSimulatedCallsNeverSubmit(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	asset, err := f.contract.AssetNew(ctx, "BTC", "BTC", 8, false)
	require.NoError(t, err)

	submits := f.ledger.Calls(ledgertest.OpSubmit)
	before, err := f.deployer.BaseBalance(ctx)
	require.NoError(t, err)

	_, err = f.contract.TotalAssets(ctx)
	require.NoError(t, err)
	_, err = f.contract.Name(ctx, asset.Value)
	require.NoError(t, err)
	_, err = f.contract.Owner(ctx)
	require.NoError(t, err)

	after, err := f.deployer.BaseBalance(ctx)
	require.NoError(t, err)

	assert.Equal(t, submits, f.ledger.Calls(ledgertest.OpSubmit))
	assert.Equal(t, 3, f.ledger.Calls(ledgertest.OpSimulate))
	assert.Zero(t, before.Cmp(after), "simulation must not cost the caller")
}

func TestTransactionsCost(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	before, err := f.deployer.BaseBalance(ctx)
	require.NoError(t, err)

	_, err = f.contract.AssetNew(ctx, "BTC", "BTC", 8, false)
	require.NoError(t, err)

	after, err := f.deployer.BaseBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(ledgertest.DefaultFee), before.Int64()-after.Int64())
}

func TestWithAccountDoesNotMutate(t *testing.T) {
	f := setup(t)

	rebound := f.contract.WithAccount(f.user)
	assert.Equal(t, f.contract.ID(), rebound.ID())
	assert.Same(t, f.deployer, f.contract.Account())
	assert.Same(t, f.user, rebound.Account())
}

func TestConnectorErrorsSurfaceVerbatim(t *testing.T) {
	f := setup(t)
	boom := errors.New("connection refused")
	f.ledger.FailNext(ledgertest.OpSubmit, boom)

	_, err := f.contract.AssetNew(context.Background(), "BTC", "BTC", 8, false)
	require.ErrorIs(t, err, boom)

	var cerr *ContractError
	assert.False(t, errors.As(err, &cerr))
}
