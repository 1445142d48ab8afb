package account

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainsafe/multiasset/pkg/identity"
	"github.com/chainsafe/multiasset/pkg/keys"
	"github.com/chainsafe/multiasset/pkg/ledger/ledgertest"
)

func TestNew_RequiresLedgerAndSigner(t *testing.T) {
	key, err := keys.Generate()
	require.NoError(t, err)

	_, err = New(nil, key)
	assert.Error(t, err)
	_, err = New(ledgertest.New(), nil)
	assert.Error(t, err)
}

func TestWallet_Balances(t *testing.T) {
	l := ledgertest.New()
	key, err := keys.Generate()
	require.NoError(t, err)
	w, err := New(l, key)
	require.NoError(t, err)

	assert.Equal(t, key.Address(), w.Address())
	assert.True(t, identity.Equal(identity.AccountAddress(key.Address()), w.Identity()))

	l.Fund(w.Identity(), 42)
	bal, err := w.BaseBalance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(42), bal)

	// unknown assets read as zero
	bal, err = w.BalanceOf(context.Background(), identity.Fingerprint{1})
	require.NoError(t, err)
	assert.Zero(t, bal.Sign())
}

func TestWallet_BalanceErrorWrapped(t *testing.T) {
	l := ledgertest.New()
	key, err := keys.Generate()
	require.NoError(t, err)
	w, err := New(l, key)
	require.NoError(t, err)

	boom := errors.New("boom")
	l.FailNext(ledgertest.OpBalance, boom)
	_, err = w.BaseBalance(context.Background())
	assert.ErrorIs(t, err, boom)
}
