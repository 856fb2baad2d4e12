package wallet

import (
	"context"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yieldLock/internal/failure"
)

func newKeystoreDir(t *testing.T, passphrase string) (string, common.Address) {
	t.Helper()
	dir := t.TempDir()
	ks := keystore.NewKeyStore(dir, keystore.LightScryptN, keystore.LightScryptP)
	acct, err := ks.NewAccount(passphrase)
	require.NoError(t, err)
	return dir, acct.Address
}

func TestKeystoreProviderUnavailable(t *testing.T) {
	p := NewKeystoreProvider(KeystoreConfig{Dir: filepath.Join(t.TempDir(), "missing")}, nil)
	_, err := p.RequestAccounts(context.Background())
	require.Error(t, err)
	assert.Equal(t, failure.ProviderUnavailable, failure.KindOf(err))

	empty := NewKeystoreProvider(KeystoreConfig{Dir: t.TempDir()}, nil)
	_, err = empty.RequestAccounts(context.Background())
	assert.Equal(t, failure.ProviderUnavailable, failure.KindOf(err))

	none := NewKeystoreProvider(KeystoreConfig{}, nil)
	_, err = none.RequestAccounts(context.Background())
	assert.Equal(t, failure.ProviderUnavailable, failure.KindOf(err))
}

func TestKeystoreProviderDenied(t *testing.T) {
	dir, _ := newKeystoreDir(t, "secret")
	p := NewKeystoreProvider(KeystoreConfig{Dir: dir, Passphrase: "wrong"}, nil)

	_, err := p.RequestAccounts(context.Background())
	require.Error(t, err)
	assert.Equal(t, failure.ConnectionDenied, failure.KindOf(err))
}

func TestKeystoreProviderRequestAccounts(t *testing.T) {
	dir, addr := newKeystoreDir(t, "secret")
	p := NewKeystoreProvider(KeystoreConfig{Dir: dir, Account: addr.Hex(), Passphrase: "secret"}, nil)

	accounts, err := p.RequestAccounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []common.Address{addr}, accounts)
}

func TestKeystoreTransactorAsksApprover(t *testing.T) {
	dir, addr := newKeystoreDir(t, "secret")
	approve := false
	p := NewKeystoreProvider(KeystoreConfig{
		Dir:        dir,
		Passphrase: "secret",
		Approver:   func(common.Address, *types.Transaction) bool { return approve },
	}, nil)

	opts, err := p.Transactor(context.Background(), addr, big.NewInt(1337))
	require.NoError(t, err)
	assert.Equal(t, addr, opts.From)

	tx := types.NewTx(&types.LegacyTx{Nonce: 1, Gas: 21000, GasPrice: big.NewInt(1), Value: big.NewInt(0)})

	_, err = opts.Signer(addr, tx)
	require.ErrorIs(t, err, failure.ErrUserRejected)
	assert.Equal(t, failure.UserRejectedTransaction, failure.Classify(err).Kind)

	approve = true
	signed, err := opts.Signer(addr, tx)
	require.NoError(t, err)
	sender, err := types.Sender(types.LatestSignerForChainID(big.NewInt(1337)), signed)
	require.NoError(t, err)
	assert.Equal(t, addr, sender)
}
