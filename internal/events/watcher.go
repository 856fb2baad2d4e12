package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"yieldLock/internal/contract"
	"yieldLock/internal/model"
	"yieldLock/internal/observability/metrics"
)

const (
	DefaultBatchSize    = 2000
	DefaultMaxRetries   = 3
	DefaultRetryBackoff = 500 * time.Millisecond
)

// LogSource is the subset of the chain client the watcher reads from.
type LogSource interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64, addresses []common.Address, topic0 []common.Hash) ([]types.Log, error)
}

// Config holds watcher settings.
type Config struct {
	Contract     common.Address
	BatchSize    uint64
	MaxRetries   int
	RetryBackoff time.Duration
}

// Watcher follows staking contract events from the chain head onward. The
// position is kept in memory only.
type Watcher struct {
	cfg     Config
	source  LogSource
	decoder *contract.EventDecoder
	metrics *metrics.Metrics
	logger  *zap.Logger

	mu      sync.Mutex
	started bool
	cursor  uint64
	seen    map[string]struct{}
}

func NewWatcher(cfg Config, source LogSource, decoder *contract.EventDecoder, m *metrics.Metrics, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = DefaultRetryBackoff
	}
	return &Watcher{
		cfg:     cfg,
		source:  source,
		decoder: decoder,
		metrics: m,
		logger:  logger,
		seen:    make(map[string]struct{}),
	}
}

// Reset forgets the block position; the next Poll starts from the head.
func (w *Watcher) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.started = false
	w.cursor = 0
	w.seen = make(map[string]struct{})
}

// Cursor returns the last processed block and whether the watcher has
// anchored to the chain yet.
func (w *Watcher) Cursor() (uint64, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cursor, w.started
}

// Poll returns the events emitted since the previous Poll. The first call
// only anchors the cursor at the current head.
func (w *Watcher) Poll(ctx context.Context) ([]model.ContractEvent, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	latest, err := w.latestWithRetry(ctx)
	if err != nil {
		return nil, fmt.Errorf("get latest block: %w", err)
	}
	if !w.started {
		w.started = true
		w.cursor = latest
		w.logger.Info("event watcher anchored", zap.Uint64("block", latest))
		return nil, nil
	}
	if latest <= w.cursor {
		return nil, nil
	}

	ranges, err := SplitRange(w.cursor+1, latest, w.cfg.BatchSize)
	if err != nil {
		return nil, err
	}

	var out []model.ContractEvent
	for _, blockRange := range ranges {
		w.logger.Debug("fetch logs", zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))

		logs, err := w.filterLogsWithRetry(ctx, blockRange)
		if err != nil {
			return out, fmt.Errorf("filter logs %d-%d: %w", blockRange.From, blockRange.To, err)
		}
		for _, log := range logs {
			if log.Removed || len(log.Topics) == 0 || !w.decoder.CanDecode(log.Topics[0]) {
				continue
			}
			if w.isDuplicate(log) {
				continue
			}
			event, err := w.decoder.Decode(log)
			if err != nil {
				w.logger.Warn("skip undecodable log",
					zap.String("tx_hash", log.TxHash.Hex()),
					zap.Uint("log_index", log.Index),
					zap.Error(err),
				)
				continue
			}
			w.metrics.IncContractEvent(event.Name)
			out = append(out, event)
		}
		w.cursor = blockRange.To
	}
	return out, nil
}

func (w *Watcher) isDuplicate(log types.Log) bool {
	key := fmt.Sprintf("%s:%d", log.TxHash.Hex(), log.Index)
	if _, ok := w.seen[key]; ok {
		return true
	}
	w.seen[key] = struct{}{}
	return false
}

func (w *Watcher) retryOptions(ctx context.Context, op string) []retry.Option {
	return []retry.Option{
		retry.Context(ctx),
		retry.Attempts(uint(w.cfg.MaxRetries + 1)),
		retry.Delay(w.cfg.RetryBackoff),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			w.logger.Warn("retrying "+op, zap.Uint("attempt", n+1), zap.Error(err))
		}),
	}
}

func (w *Watcher) latestWithRetry(ctx context.Context) (uint64, error) {
	return retry.DoWithData(func() (uint64, error) {
		return w.source.LatestBlockNumber(ctx)
	}, w.retryOptions(ctx, "latest block")...)
}

func (w *Watcher) filterLogsWithRetry(ctx context.Context, blockRange BlockRange) ([]types.Log, error) {
	return retry.DoWithData(func() ([]types.Log, error) {
		return w.source.FilterLogs(ctx, blockRange.From, blockRange.To, []common.Address{w.cfg.Contract}, w.decoder.Topics())
	}, w.retryOptions(ctx, "filter logs")...)
}

// Affects reports which cached views events invalidate for account. Every
// event changes pool state; only the account's own stake movements change
// its stakes.
func Affects(events []model.ContractEvent, account common.Address) (pools, stakes bool) {
	for _, event := range events {
		pools = true
		if event.PoolCreated == nil && event.Touches(account) {
			stakes = true
		}
	}
	return pools, stakes
}
