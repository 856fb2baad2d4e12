package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "yieldlock",
		Short:        "YieldLock staking client",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("rpc", "", "JSON-RPC URL of the node")
	root.PersistentFlags().String("contract", "", "YieldLock contract address")
	root.PersistentFlags().String("keystore", "", "keystore directory (default ~/.ethereum/keystore)")
	root.PersistentFlags().String("account", "", "account to use from the keystore")
	root.PersistentFlags().String("passphrase", "", "keystore passphrase (prefer YIELDLOCK_PASSPHRASE)")
	root.PersistentFlags().Duration("confirm-timeout", 0, "give up waiting for confirmation after this long, 0 waits indefinitely")
	root.PersistentFlags().Duration("status-ttl", 5*time.Second, "how long status messages stay visible")
	root.PersistentFlags().Uint64("periods-per-year", 365, "reward periods per year used for APY")
	root.PersistentFlags().Float64("rpc-rate", 10, "maximum RPC requests per second, 0 disables throttling")
	root.PersistentFlags().String("out", "", "append rendered views and events to this JSONL file")
	root.PersistentFlags().Bool("yes", false, "sign transactions without asking")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(poolsCommand(), stakesCommand())
	root.AddCommand(actionCommands()...)
	root.AddCommand(consoleCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
