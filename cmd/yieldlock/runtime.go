package main

import (
	"context"
	"fmt"
	"io"

	"github.com/benbjohnson/clock"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yieldLock/internal/app"
	"yieldLock/internal/chain"
	"yieldLock/internal/config"
	"yieldLock/internal/contract"
	"yieldLock/internal/events"
	"yieldLock/internal/observability/metrics"
	"yieldLock/internal/poller"
	"yieldLock/internal/poolstate"
	"yieldLock/internal/session"
	"yieldLock/internal/storage"
	"yieldLock/internal/wallet"
)

// runtime bundles the wired components for one command invocation.
type runtime struct {
	cfg        config.Config
	logger     *zap.Logger
	client     *chain.Client
	deployment contract.Deployment
	metrics    *metrics.Metrics
	controller *app.Controller
	renderer   *terminalRenderer
}

func loadConfig(cmd *cobra.Command) (config.Config, *zap.Logger, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return config.Config{}, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

func dial(ctx context.Context, cfg config.Config, logger *zap.Logger) (*chain.Client, contract.Deployment, error) {
	client, err := chain.NewClient(ctx, cfg.RPCURL, cfg.RPCRate)
	if err != nil {
		return nil, contract.Deployment{}, fmt.Errorf("connect rpc: %w", err)
	}
	logger.Debug("rpc connected", zap.String("rpc", cfg.RPCURL), zap.Float64("rpc_rate", cfg.RPCRate))
	return client, contract.Deployment{Address: cfg.ContractAddress(), Client: client}, nil
}

// newRuntime wires every component. approver gates signing; watch enables
// the contract event watcher.
func newRuntime(ctx context.Context, cfg config.Config, logger *zap.Logger, approver wallet.Approver, out io.Writer, watch bool) (*runtime, error) {
	client, deployment, err := dial(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	clk := clock.New()
	m := metrics.New()
	provider := wallet.NewKeystoreProvider(wallet.KeystoreConfig{
		Dir:        cfg.Keystore,
		Account:    cfg.Account,
		Passphrase: cfg.Passphrase,
		Approver:   approver,
	}, logger.Named("wallet"))
	sessions := session.NewManager(provider, deployment, clk, logger.Named("session"))

	var watcher *events.Watcher
	if watch && cfg.WatchEvents {
		decoder, err := contract.NewEventDecoder()
		if err != nil {
			client.Close()
			return nil, err
		}
		watcher = events.NewWatcher(events.Config{
			Contract:     cfg.ContractAddress(),
			BatchSize:    cfg.EventBatchSize,
			MaxRetries:   cfg.MaxRetries,
			RetryBackoff: cfg.RetryBackoff,
		}, client, decoder, m, logger.Named("events"))
	}

	var sink storage.Sink
	if cfg.Out != "" {
		sink = storage.NewJsonlStorage(cfg.Out)
	}

	renderer := newTerminalRenderer(out)
	controller := app.New(ctx, app.Config{
		PeriodsPerYear: cfg.PeriodsPerYear,
		StatusTTL:      cfg.StatusTTL,
		ConfirmTimeout: cfg.ConfirmTimeout,
	}, app.Deps{
		Sessions:  sessions,
		Cache:     poolstate.NewSynchronizer(logger.Named("poolstate")),
		Scheduler: poller.NewScheduler(cfg.PollInterval, clk, logger.Named("poller")),
		Watcher:   watcher,
		Tokens:    contract.NewTokenResolver(client, logger.Named("tokens")),
		Balances:  deployment,
		Sink:      sink,
		Renderer:  renderer,
		Metrics:   m,
		Clock:     clk,
	}, logger.Named("app"))

	return &runtime{
		cfg:        cfg,
		logger:     logger,
		client:     client,
		deployment: deployment,
		metrics:    m,
		controller: controller,
		renderer:   renderer,
	}, nil
}

func (r *runtime) serveMetrics(ctx context.Context) {
	if r.cfg.MetricsPort <= 0 {
		return
	}
	go func() {
		if err := r.metrics.Serve(ctx, r.cfg.MetricsPort, r.logger.Named("metrics")); err != nil {
			r.logger.Error("metrics server", zap.Error(err))
		}
	}()
}

func (r *runtime) Close() {
	r.controller.Close()
	r.client.Close()
	_ = r.logger.Sync()
}
