package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"yieldLock/internal/contract"
	"yieldLock/internal/failure"
	"yieldLock/internal/model"
	"yieldLock/internal/observability/metrics"
	"yieldLock/internal/session"
)

const submittedMessage = "Transaction submitted! Waiting for confirmation..."

// Notifier receives the user-visible side effects of an orchestrated action.
type Notifier interface {
	SetBusy(busy bool)
	Notify(text string, severity model.Severity)
}

// Cache is the state refreshed after confirmation.
type Cache interface {
	RefreshPools(ctx context.Context, reader contract.Reader) ([]model.Pool, error)
	RefreshStakes(ctx context.Context, reader contract.Reader, account common.Address) ([]model.Stake, error)
	PoolCount() int
}

// Sessions reports the active wallet session.
type Sessions interface {
	Current() (*session.Session, bool)
}

// Options tune an Orchestrator.
type Options struct {
	// ConfirmTimeout bounds confirmation waiting; zero waits indefinitely.
	ConfirmTimeout time.Duration
	Clock          clock.Clock
	Metrics        *metrics.Metrics
	// Sessions, when set, suppresses refreshes for sessions that have ended.
	Sessions Sessions
}

// Orchestrator sequences every write: validation, admin gate, submission,
// confirmation and refresh.
type Orchestrator struct {
	cache    Cache
	notifier Notifier
	opts     Options
	logger   *zap.Logger
	flights  *inFlight

	// base outlives callers; it bounds confirmations that continue after a
	// timeout.
	base     context.Context
	stop     context.CancelFunc
	watching sync.WaitGroup
}

func New(cache Cache, notifier Notifier, opts Options, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	base, stop := context.WithCancel(context.Background())
	return &Orchestrator{
		cache:    cache,
		notifier: notifier,
		opts:     opts,
		logger:   logger,
		flights:  newInFlight(),
		base:     base,
		stop:     stop,
	}
}

// Close abandons confirmations still awaited after a timeout and waits for
// their goroutines to exit.
func (o *Orchestrator) Close() {
	o.stop()
	o.watching.Wait()
}

// InFlight reports whether kind is unresolved for account on poolID.
func (o *Orchestrator) InFlight(account common.Address, poolID uint64, kind model.TxKind) bool {
	return o.flights.active(flightKey{account: account, poolID: poolID, kind: kind})
}

type submitFunc func(ctx context.Context, gw contract.Gateway) (*types.Transaction, error)

type action struct {
	kind    model.TxKind
	poolID  uint64
	label   string
	success string
	// validate runs after the admin gate; nil means nothing to check.
	validate func() error
	submit   submitFunc
}

func (o *Orchestrator) run(ctx context.Context, sess *session.Session, act action) (*model.PendingTransaction, error) {
	if sess == nil || sess.Gateway == nil {
		return nil, o.reject(failure.New(failure.ValidationError, "Please connect your wallet first"))
	}
	if act.kind.AdminOnly() {
		if err := sess.Guard.Require(); err != nil {
			return nil, o.reject(err)
		}
	}
	if act.validate != nil {
		if err := act.validate(); err != nil {
			return nil, o.reject(err)
		}
	}

	key := flightKey{account: sess.Account, poolID: act.poolID, kind: act.kind}
	if !o.flights.reserve(key) {
		return nil, o.reject(failure.New(failure.ValidationError, "A %s transaction is already pending", act.label))
	}
	reserved := true
	defer func() {
		if reserved {
			o.flights.release(key)
		}
	}()

	o.notifier.SetBusy(true)
	o.opts.Metrics.AddInFlight(1)
	defer func() {
		o.opts.Metrics.AddInFlight(-1)
		o.notifier.SetBusy(false)
	}()

	pending := &model.PendingTransaction{
		ID:          uuid.NewString(),
		Kind:        act.kind,
		PoolID:      act.poolID,
		Account:     sess.Account,
		SubmittedAt: o.opts.Clock.Now(),
	}
	logger := o.logger.With(
		zap.String("tx_id", pending.ID),
		zap.String("kind", string(act.kind)),
		zap.String("account", sess.Account.Hex()),
	)
	if act.poolID != model.NoPool {
		logger = logger.With(zap.Uint64("pool_id", act.poolID))
	}

	tx, err := act.submit(ctx, sess.Gateway)
	if err != nil {
		return pending, o.fail(logger, pending, act, err)
	}
	pending.Hash = tx.Hash()
	pending.Status = model.TxSubmitted
	logger.Info("transaction submitted", zap.String("hash", pending.Hash.Hex()))
	o.notifier.Notify(submittedMessage, model.SeverityWarning)

	if err := o.await(ctx, sess.Gateway, tx); err != nil {
		classified := failure.Classify(err)
		if classified.Kind != failure.Timeout {
			return pending, o.fail(logger, pending, act, err)
		}
		// The transaction may still be mined: it stays Submitted and keeps
		// its key until the ledger answers.
		reserved = false
		o.follow(logger, key, sess, act, tx, pending.SubmittedAt)
		logger.Warn("confirmation timed out", zap.String("hash", pending.Hash.Hex()))
		o.notifier.Notify(fmt.Sprintf("Failed to %s: %s", act.label, classified.Message()), model.SeverityError)
		return pending, classified
	}

	pending.Status = model.TxConfirmed
	o.record(pending)
	logger.Info("transaction confirmed", zap.String("hash", pending.Hash.Hex()))

	o.refresh(ctx, logger, sess)
	o.notifier.Notify(act.success, model.SeveritySuccess)
	return pending, nil
}

// follow keeps waiting for a timed-out transaction in the background and
// releases its in-flight key once it resolves.
func (o *Orchestrator) follow(logger *zap.Logger, key flightKey, sess *session.Session, act action, tx *types.Transaction, submittedAt time.Time) {
	o.watching.Add(1)
	go func() {
		defer o.watching.Done()
		defer o.flights.release(key)

		_, err := sess.Gateway.WaitConfirmed(o.base, tx)
		if o.base.Err() != nil {
			logger.Debug("stop following transaction", zap.String("hash", tx.Hash().Hex()))
			return
		}
		elapsed := o.opts.Clock.Since(submittedAt)
		if err != nil {
			o.opts.Metrics.RecordTransaction(string(act.kind), string(model.TxFailed), elapsed)
			logger.Warn("late transaction failed", zap.String("hash", tx.Hash().Hex()), zap.Error(err))
			return
		}
		o.opts.Metrics.RecordTransaction(string(act.kind), string(model.TxConfirmed), elapsed)
		logger.Info("late transaction confirmed", zap.String("hash", tx.Hash().Hex()))
		o.refresh(o.base, logger, sess)
		if o.current(sess) {
			o.notifier.Notify(act.success, model.SeveritySuccess)
		}
	}()
}

func (o *Orchestrator) await(ctx context.Context, gw contract.Gateway, tx *types.Transaction) error {
	if o.opts.ConfirmTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = o.opts.Clock.WithTimeout(ctx, o.opts.ConfirmTimeout)
		defer cancel()
	}
	_, err := gw.WaitConfirmed(ctx, tx)
	return err
}

// current reports whether sess is still the active session.
func (o *Orchestrator) current(sess *session.Session) bool {
	if o.opts.Sessions == nil {
		return true
	}
	active, ok := o.opts.Sessions.Current()
	return ok && active.Epoch == sess.Epoch
}

func (o *Orchestrator) refresh(ctx context.Context, logger *zap.Logger, sess *session.Session) {
	if !o.current(sess) {
		logger.Info("session changed, skip refresh after confirmation")
		return
	}

	start := o.opts.Clock.Now()
	_, err := o.cache.RefreshPools(ctx, sess.Gateway)
	o.opts.Metrics.RecordRefresh("pools", o.opts.Clock.Since(start), err)
	if err != nil {
		logger.Warn("refresh pools after confirmation", zap.Error(err))
	}

	start = o.opts.Clock.Now()
	_, err = o.cache.RefreshStakes(ctx, sess.Gateway, sess.Account)
	o.opts.Metrics.RecordRefresh("stakes", o.opts.Clock.Since(start), err)
	if err != nil {
		logger.Warn("refresh stakes after confirmation", zap.Error(err))
	}
}

func (o *Orchestrator) fail(logger *zap.Logger, pending *model.PendingTransaction, act action, err error) error {
	pending.Status = model.TxFailed
	o.record(pending)

	classified := failure.Classify(err)
	logger.Warn("transaction failed", zap.Stringer("failure", classified.Kind), zap.Error(err))
	o.notifier.Notify(fmt.Sprintf("Failed to %s: %s", act.label, classified.Message()), model.SeverityError)
	return classified
}

func (o *Orchestrator) reject(err error) error {
	classified := failure.Classify(err)
	o.notifier.Notify(classified.Message(), model.SeverityError)
	return classified
}

func (o *Orchestrator) record(pending *model.PendingTransaction) {
	o.opts.Metrics.RecordTransaction(string(pending.Kind), string(pending.Status), o.opts.Clock.Since(pending.SubmittedAt))
}
