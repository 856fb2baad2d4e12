package session

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"yieldLock/internal/contract"
	"yieldLock/internal/failure"
	"yieldLock/internal/wallet"
)

// Binder resolves the chain and builds authenticated contract handles.
type Binder interface {
	ChainID(ctx context.Context) (*big.Int, error)
	Bind(auth *bind.TransactOpts) (contract.Gateway, error)
}

// Listener observes session transitions. Callbacks run synchronously on the
// goroutine that caused the transition; SessionEnded has returned before
// Disconnect does.
type Listener interface {
	SessionStarted(ctx context.Context, s *Session)
	SessionEnded(s *Session)
}

// Manager owns the single wallet session.
type Manager struct {
	provider wallet.Provider
	binder   Binder
	clock    clock.Clock
	logger   *zap.Logger

	connectMu sync.Mutex

	mu        sync.RWMutex
	current   *Session
	epoch     uint64
	listeners []Listener
}

func NewManager(provider wallet.Provider, binder Binder, clk clock.Clock, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Manager{
		provider: provider,
		binder:   binder,
		clock:    clk,
		logger:   logger,
	}
}

// Subscribe registers a listener for session transitions.
func (m *Manager) Subscribe(l Listener) {
	m.mu.Lock()
	m.listeners = append(m.listeners, l)
	m.mu.Unlock()
}

// Current returns the active session, if any.
func (m *Manager) Current() (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current, m.current != nil
}

// State returns the connectivity state.
func (m *Manager) State() State {
	if _, ok := m.Current(); ok {
		return Connected
	}
	return Disconnected
}

// Connect requests account access and establishes a session for the first
// authorized account. A previous session is replaced only on success.
func (m *Manager) Connect(ctx context.Context) (*Session, error) {
	m.connectMu.Lock()
	defer m.connectMu.Unlock()
	return m.connect(ctx, nil)
}

// Disconnect ends the session. It is idempotent.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	prev := m.current
	m.current = nil
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.Unlock()

	if prev == nil {
		return
	}
	for _, l := range listeners {
		l.SessionEnded(prev)
	}
	m.logger.Info("wallet disconnected", zap.String("account", prev.Account.Hex()), zap.Uint64("epoch", prev.Epoch))
}

// OnAccountsChanged handles a wallet account switch. Cached data is never
// carried across identities: the old session always ends first.
func (m *Manager) OnAccountsChanged(ctx context.Context, accounts []common.Address) (*Session, error) {
	m.connectMu.Lock()
	defer m.connectMu.Unlock()

	m.Disconnect()
	if len(accounts) == 0 {
		return nil, nil
	}
	next := accounts[0]
	return m.connect(ctx, &next)
}

// OnChainChanged ends the session and reconnects from scratch; reward-rate
// assumptions do not carry across networks.
func (m *Manager) OnChainChanged(ctx context.Context) (*Session, error) {
	m.connectMu.Lock()
	defer m.connectMu.Unlock()

	m.logger.Warn("chain changed, reloading session")
	m.Disconnect()
	return m.connect(ctx, nil)
}

// ChainChanged reports whether the node now serves a different chain than
// the active session was established on.
func (m *Manager) ChainChanged(ctx context.Context) (bool, error) {
	sess, ok := m.Current()
	if !ok {
		return false, nil
	}
	chainID, err := m.binder.ChainID(ctx)
	if err != nil {
		return false, fmt.Errorf("chain id: %w", err)
	}
	return sess.ChainID.Cmp(chainID) != 0, nil
}

func (m *Manager) connect(ctx context.Context, preferred *common.Address) (*Session, error) {
	if m.provider == nil {
		return nil, failure.New(failure.ProviderUnavailable, "Please install a wallet to use this application")
	}

	accounts, err := m.provider.RequestAccounts(ctx)
	if err != nil {
		var classified *failure.Error
		if errors.As(err, &classified) {
			return nil, err
		}
		return nil, &failure.Error{Kind: failure.ConnectionDenied, Reason: "account access was denied", Err: err}
	}
	if len(accounts) == 0 {
		return nil, failure.New(failure.ConnectionDenied, "no account was authorized")
	}

	account := accounts[0]
	if preferred != nil {
		found := false
		for _, candidate := range accounts {
			if candidate == *preferred {
				found = true
				break
			}
		}
		if !found {
			return nil, failure.New(failure.ConnectionDenied, "account %s was not authorized", preferred.Hex())
		}
		account = *preferred
	}

	chainID, err := m.binder.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain id: %w", err)
	}
	auth, err := m.provider.Transactor(ctx, account, chainID)
	if err != nil {
		return nil, err
	}
	gateway, err := m.binder.Bind(auth)
	if err != nil {
		return nil, fmt.Errorf("bind contract: %w", err)
	}

	guard, err := EvaluateAdmin(ctx, gateway, account)
	if err != nil {
		m.logger.Warn("admin check failed", zap.String("account", account.Hex()), zap.Error(err))
	}

	sess := &Session{
		Account:     account,
		ChainID:     chainID,
		Gateway:     gateway,
		Guard:       guard,
		ConnectedAt: m.clock.Now(),
	}

	m.mu.Lock()
	prev := m.current
	m.epoch++
	sess.Epoch = m.epoch
	m.current = sess
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.Unlock()

	if prev != nil {
		for _, l := range listeners {
			l.SessionEnded(prev)
		}
	}

	m.logger.Info("wallet connected",
		zap.String("account", account.Hex()),
		zap.String("chain_id", chainID.String()),
		zap.Bool("is_admin", guard.Authorized()),
		zap.String("owner", guard.Owner().Hex()),
		zap.Uint64("epoch", sess.Epoch),
	)

	for _, l := range listeners {
		l.SessionStarted(ctx, sess)
	}
	return sess, nil
}
