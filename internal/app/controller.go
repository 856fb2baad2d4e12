package app

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"yieldLock/internal/contract"
	"yieldLock/internal/display"
	"yieldLock/internal/events"
	"yieldLock/internal/failure"
	"yieldLock/internal/model"
	"yieldLock/internal/observability/metrics"
	"yieldLock/internal/orchestrator"
	"yieldLock/internal/poller"
	"yieldLock/internal/poolstate"
	"yieldLock/internal/session"
	"yieldLock/internal/storage"
)

// BalanceReader reads the native balance shown next to the account.
type BalanceReader interface {
	BalanceAt(ctx context.Context, account common.Address) (*big.Int, error)
}

// Renderer presents views to the user.
type Renderer interface {
	Render(view model.View)
}

// Config holds presentation settings.
type Config struct {
	PeriodsPerYear uint64
	StatusTTL      time.Duration
	ConfirmTimeout time.Duration
}

// Deps are the collaborators of a Controller. Watcher, Tokens, Balances,
// Sink, Renderer and Metrics are optional.
type Deps struct {
	Sessions  *session.Manager
	Cache     *poolstate.Synchronizer
	Scheduler *poller.Scheduler
	Watcher   *events.Watcher
	Tokens    *contract.TokenResolver
	Balances  BalanceReader
	Sink      storage.Sink
	Renderer  Renderer
	Metrics   *metrics.Metrics
	Clock     clock.Clock
}

// Controller turns user intents into orchestrated actions and keeps the
// rendered view in sync with session, cache and status changes.
type Controller struct {
	base   context.Context
	cfg    Config
	deps   Deps
	orch   *orchestrator.Orchestrator
	board  *statusBoard
	logger *zap.Logger

	mu        sync.Mutex
	handle    *poller.Handle
	balance   *big.Int
	reloading bool

	background sync.WaitGroup
}

// New wires a Controller and subscribes it to session transitions. base
// bounds the polling loop and background work.
func New(base context.Context, cfg Config, deps Deps, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	if cfg.PeriodsPerYear == 0 {
		cfg.PeriodsPerYear = display.DefaultPeriodsPerYear
	}
	c := &Controller{
		base:   base,
		cfg:    cfg,
		deps:   deps,
		board:  newStatusBoard(deps.Clock, cfg.StatusTTL),
		logger: logger,
	}
	c.orch = orchestrator.New(deps.Cache, c, orchestrator.Options{
		ConfirmTimeout: cfg.ConfirmTimeout,
		Clock:          deps.Clock,
		Metrics:        deps.Metrics,
		Sessions:       deps.Sessions,
	}, logger.Named("orchestrator"))
	deps.Sessions.Subscribe(c)
	return c
}

// Close disconnects and waits for background work.
func (c *Controller) Close() {
	c.orch.Close()
	c.background.Wait()
	c.deps.Sessions.Disconnect()
	c.background.Wait()
	c.board.stop()
}

// Connect establishes a wallet session.
func (c *Controller) Connect(ctx context.Context) error {
	if _, err := c.deps.Sessions.Connect(ctx); err != nil {
		classified := failure.Classify(err)
		c.Notify("Failed to connect wallet: "+classified.Message(), model.SeverityError)
		return classified
	}
	c.Notify("Wallet connected successfully!", model.SeveritySuccess)
	return nil
}

// Disconnect ends the wallet session. It is idempotent.
func (c *Controller) Disconnect() {
	if c.deps.Sessions.State() == session.Disconnected {
		return
	}
	c.deps.Sessions.Disconnect()
	c.Notify("Wallet disconnected", model.SeverityWarning)
}

// AccountsChanged handles a wallet account switch.
func (c *Controller) AccountsChanged(ctx context.Context, accounts []common.Address) error {
	sess, err := c.deps.Sessions.OnAccountsChanged(ctx, accounts)
	if err != nil {
		classified := failure.Classify(err)
		c.Notify("Failed to connect wallet: "+classified.Message(), model.SeverityError)
		return classified
	}
	if sess == nil {
		c.Notify("Wallet disconnected", model.SeverityWarning)
	}
	return nil
}

func (c *Controller) Stake(ctx context.Context, poolID uint64, amountText string) (*model.PendingTransaction, error) {
	sess, _ := c.deps.Sessions.Current()
	return c.orch.Stake(ctx, sess, poolID, amountText)
}

func (c *Controller) Unstake(ctx context.Context, poolID uint64) (*model.PendingTransaction, error) {
	sess, _ := c.deps.Sessions.Current()
	return c.orch.Unstake(ctx, sess, poolID)
}

func (c *Controller) Claim(ctx context.Context, poolID uint64) (*model.PendingTransaction, error) {
	sess, _ := c.deps.Sessions.Current()
	return c.orch.Claim(ctx, sess, poolID)
}

func (c *Controller) CreatePool(ctx context.Context, fields orchestrator.PoolFields) (*model.PendingTransaction, error) {
	sess, _ := c.deps.Sessions.Current()
	return c.orch.CreatePool(ctx, sess, fields)
}

func (c *Controller) Pause(ctx context.Context, poolID uint64) (*model.PendingTransaction, error) {
	sess, _ := c.deps.Sessions.Current()
	return c.orch.Pause(ctx, sess, poolID)
}

func (c *Controller) Unpause(ctx context.Context, poolID uint64) (*model.PendingTransaction, error) {
	sess, _ := c.deps.Sessions.Current()
	return c.orch.Unpause(ctx, sess, poolID)
}

// SessionStarted loads all data for the new session and starts polling.
func (c *Controller) SessionStarted(ctx context.Context, sess *session.Session) {
	c.deps.Cache.Bind(sess.Account)
	if c.deps.Watcher != nil {
		c.deps.Watcher.Reset()
	}
	c.deps.Metrics.SetConnected(true)

	if err := c.loadAll(ctx, sess); err != nil {
		c.logger.Warn("initial load", zap.String("account", sess.Account.Hex()), zap.Error(err))
	}

	handle := c.deps.Scheduler.Start(c.base, c.deps.Metrics.RecordPollerDuration(c.pollCycle))

	c.mu.Lock()
	prev := c.handle
	c.handle = handle
	c.mu.Unlock()
	if prev != nil {
		prev.Cancel()
	}
	c.render()
}

// SessionEnded stops polling and drops all cached data.
func (c *Controller) SessionEnded(sess *session.Session) {
	c.mu.Lock()
	handle := c.handle
	c.handle = nil
	c.balance = nil
	c.mu.Unlock()

	if handle != nil {
		handle.Cancel()
	}
	c.deps.Cache.Invalidate()
	if c.deps.Watcher != nil {
		c.deps.Watcher.Reset()
	}
	c.deps.Metrics.SetConnected(false)
	c.logger.Debug("session ended", zap.Uint64("epoch", sess.Epoch))
	c.render()
}

// SetBusy implements orchestrator.Notifier.
func (c *Controller) SetBusy(busy bool) {
	c.board.setBusy(busy)
	c.render()
}

// Notify implements orchestrator.Notifier.
func (c *Controller) Notify(text string, severity model.Severity) {
	c.board.post(text, severity, c.render)
	c.render()
}

// Refresh reloads pools, stakes, rewards and balance for the current
// session.
func (c *Controller) Refresh(ctx context.Context) error {
	sess, ok := c.deps.Sessions.Current()
	if !ok {
		return failure.New(failure.ValidationError, "Please connect your wallet first")
	}
	err := c.loadAll(ctx, sess)
	c.render()
	return err
}

func (c *Controller) loadAll(ctx context.Context, sess *session.Session) error {
	if err := c.refreshPools(ctx, sess); err != nil {
		return err
	}
	if err := c.refreshStakes(ctx, sess); err != nil {
		return err
	}
	if err := c.refreshRewards(ctx, sess); err != nil {
		return err
	}
	c.refreshBalance(ctx, sess)
	return nil
}

func (c *Controller) refreshPools(ctx context.Context, sess *session.Session) error {
	start := c.deps.Clock.Now()
	pools, err := c.deps.Cache.RefreshPools(ctx, sess.Gateway)
	c.deps.Metrics.RecordRefresh("pools", c.deps.Clock.Since(start), err)
	if err != nil {
		return fmt.Errorf("refresh pools: %w", err)
	}
	c.resolveAssets(ctx, pools)
	return nil
}

// resolveAssets loads symbols for staking assets not seen before. Failures
// only leave the symbol blank.
func (c *Controller) resolveAssets(ctx context.Context, pools []model.Pool) {
	if c.deps.Tokens == nil {
		return
	}
	for _, pool := range pools {
		if _, ok := c.deps.Tokens.Lookup(pool.StakingAsset); ok {
			continue
		}
		if _, err := c.deps.Tokens.Resolve(ctx, pool.StakingAsset); err != nil {
			c.logger.Debug("resolve staking asset", zap.String("token", pool.StakingAsset.Hex()), zap.Error(err))
		}
	}
}

func (c *Controller) refreshStakes(ctx context.Context, sess *session.Session) error {
	start := c.deps.Clock.Now()
	_, err := c.deps.Cache.RefreshStakes(ctx, sess.Gateway, sess.Account)
	c.deps.Metrics.RecordRefresh("stakes", c.deps.Clock.Since(start), err)
	if err != nil {
		return fmt.Errorf("refresh stakes: %w", err)
	}
	return nil
}

func (c *Controller) refreshRewards(ctx context.Context, sess *session.Session) error {
	start := c.deps.Clock.Now()
	_, err := c.deps.Cache.RefreshPendingRewards(ctx, sess.Gateway, sess.Account)
	c.deps.Metrics.RecordRefresh("rewards", c.deps.Clock.Since(start), err)
	if err != nil {
		return fmt.Errorf("refresh pending rewards: %w", err)
	}
	return nil
}

func (c *Controller) refreshBalance(ctx context.Context, sess *session.Session) {
	if c.deps.Balances == nil {
		return
	}
	balance, err := c.deps.Balances.BalanceAt(ctx, sess.Account)
	if err != nil {
		c.logger.Debug("read balance", zap.Error(err))
		return
	}
	c.mu.Lock()
	c.balance = balance
	c.mu.Unlock()
}

func (c *Controller) render() {
	view := c.View()
	if c.deps.Renderer != nil {
		c.deps.Renderer.Render(view)
	}
	if c.deps.Sink != nil {
		if err := c.deps.Sink.PutView(view); err != nil {
			c.logger.Warn("store view", zap.Error(err))
		}
	}
}
