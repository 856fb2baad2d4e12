package session

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yieldLock/internal/contract/contracttest"
	"yieldLock/internal/failure"
	"yieldLock/internal/wallet/wallettest"
)

var (
	ownerAddr = common.HexToAddress("0xAbCdEf0000000000000000000000000000000001")
	userAddr  = common.HexToAddress("0x1111111111111111111111111111111111111111")
)

type recordingListener struct {
	mu      sync.Mutex
	started []*Session
	ended   []*Session
}

func (r *recordingListener) SessionStarted(_ context.Context, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, s)
}

func (r *recordingListener) SessionEnded(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ended = append(r.ended, s)
}

func newManager(t *testing.T, accounts ...common.Address) (*Manager, *contracttest.Gateway, *contracttest.Binder, *wallettest.Provider, *recordingListener) {
	t.Helper()
	gw := contracttest.New(accounts[0])
	gw.SetOwner(ownerAddr)
	binder := &contracttest.Binder{Chain: big.NewInt(1114), Gateway: gw}
	provider := &wallettest.Provider{Accounts: accounts}
	listener := &recordingListener{}
	m := NewManager(provider, binder, clock.NewMock(), nil)
	m.Subscribe(listener)
	return m, gw, binder, provider, listener
}

func TestConnectEstablishesSession(t *testing.T) {
	m, _, _, _, listener := newManager(t, userAddr)

	sess, err := m.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, userAddr, sess.Account)
	assert.Equal(t, "1114", sess.ChainID.String())
	assert.False(t, sess.IsAdmin())
	assert.Equal(t, Connected, m.State())
	require.Len(t, listener.started, 1)
	assert.Same(t, sess, listener.started[0])

	current, ok := m.Current()
	require.True(t, ok)
	assert.Same(t, sess, current)
}

func TestConnectAdminIsCaseInsensitiveAndCached(t *testing.T) {
	m, gw, _, _, _ := newManager(t, ownerAddr)

	sess, err := m.Connect(context.Background())
	require.NoError(t, err)
	assert.True(t, sess.IsAdmin())
	assert.NoError(t, sess.Guard.Require())
	assert.Equal(t, ownerAddr, sess.Guard.Owner())

	// ownership transfer is not observed mid-session
	gw.SetOwner(userAddr)
	assert.True(t, sess.IsAdmin())

	again, err := m.Connect(context.Background())
	require.NoError(t, err)
	assert.False(t, again.IsAdmin())
	assert.Equal(t, userAddr, again.Guard.Owner())
	assert.Equal(t, failure.NotAuthorized, failure.KindOf(again.Guard.Require()))
}

func TestConnectOwnerReadFailureIsNotAdmin(t *testing.T) {
	m, gw, _, _, _ := newManager(t, ownerAddr)
	gw.OwnerErr = errors.New("rpc down")

	sess, err := m.Connect(context.Background())
	require.NoError(t, err)
	assert.False(t, sess.IsAdmin())
}

func TestConnectFailures(t *testing.T) {
	m, _, _, provider, listener := newManager(t, userAddr)
	provider.RequestErr = failure.New(failure.ProviderUnavailable, "no wallet")

	_, err := m.Connect(context.Background())
	assert.Equal(t, failure.ProviderUnavailable, failure.KindOf(err))

	provider.RequestErr = errors.New("User rejected the request.")
	_, err = m.Connect(context.Background())
	assert.Equal(t, failure.ConnectionDenied, failure.KindOf(err))

	provider.RequestErr = nil
	provider.Accounts = nil
	_, err = m.Connect(context.Background())
	assert.Equal(t, failure.ConnectionDenied, failure.KindOf(err))

	assert.Equal(t, Disconnected, m.State())
	assert.Empty(t, listener.started)

	nilProvider := NewManager(nil, &contracttest.Binder{}, nil, nil)
	_, err = nilProvider.Connect(context.Background())
	assert.Equal(t, failure.ProviderUnavailable, failure.KindOf(err))
}

func TestDisconnectIsIdempotent(t *testing.T) {
	m, _, _, _, listener := newManager(t, userAddr)
	sess, err := m.Connect(context.Background())
	require.NoError(t, err)

	m.Disconnect()
	m.Disconnect()

	assert.Equal(t, Disconnected, m.State())
	require.Len(t, listener.ended, 1)
	assert.Same(t, sess, listener.ended[0])
}

func TestOnAccountsChanged(t *testing.T) {
	other := common.HexToAddress("0x2222222222222222222222222222222222222222")
	m, _, _, _, listener := newManager(t, userAddr, other)

	first, err := m.Connect(context.Background())
	require.NoError(t, err)

	second, err := m.OnAccountsChanged(context.Background(), []common.Address{other})
	require.NoError(t, err)
	assert.Equal(t, other, second.Account)
	assert.Greater(t, second.Epoch, first.Epoch)
	require.Len(t, listener.ended, 1)
	assert.Same(t, first, listener.ended[0])

	none, err := m.OnAccountsChanged(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, none)
	assert.Equal(t, Disconnected, m.State())
	assert.Len(t, listener.ended, 2)
}

func TestChainChangedReloadsSession(t *testing.T) {
	m, _, binder, _, listener := newManager(t, userAddr)
	first, err := m.Connect(context.Background())
	require.NoError(t, err)

	changed, err := m.ChainChanged(context.Background())
	require.NoError(t, err)
	assert.False(t, changed)

	binder.SetChain(1)
	changed, err = m.ChainChanged(context.Background())
	require.NoError(t, err)
	assert.True(t, changed)

	second, err := m.OnChainChanged(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1", second.ChainID.String())
	assert.NotSame(t, first, second)
	assert.Len(t, listener.ended, 1)
	assert.Len(t, listener.started, 2)
}
