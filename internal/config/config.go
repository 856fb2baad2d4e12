package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "YIELDLOCK"

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL         string
	Contract       string
	Keystore       string
	Account        string
	Passphrase     string
	PollInterval   time.Duration
	ConfirmTimeout time.Duration
	StatusTTL      time.Duration
	PeriodsPerYear uint64
	RPCRate        float64
	WatchEvents    bool
	EventBatchSize uint64
	MaxRetries     int
	RetryBackoff   time.Duration
	Out            string
	MetricsPort    int
	Yes            bool
	LogLevel       string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("keystore", defaultKeystoreDir())
	v.SetDefault("poll-interval", 30*time.Second)
	v.SetDefault("confirm-timeout", time.Duration(0))
	v.SetDefault("status-ttl", 5*time.Second)
	v.SetDefault("periods-per-year", uint64(365))
	v.SetDefault("rpc-rate", 10.0)
	v.SetDefault("watch-events", true)
	v.SetDefault("event-batch-size", uint64(2000))
	v.SetDefault("max-retries", 3)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("metrics-port", 0)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCURL:         v.GetString("rpc"),
		Contract:       strings.TrimSpace(v.GetString("contract")),
		Keystore:       v.GetString("keystore"),
		Account:        strings.TrimSpace(v.GetString("account")),
		Passphrase:     v.GetString("passphrase"),
		PollInterval:   v.GetDuration("poll-interval"),
		ConfirmTimeout: v.GetDuration("confirm-timeout"),
		StatusTTL:      v.GetDuration("status-ttl"),
		PeriodsPerYear: v.GetUint64("periods-per-year"),
		RPCRate:        v.GetFloat64("rpc-rate"),
		WatchEvents:    v.GetBool("watch-events"),
		EventBatchSize: v.GetUint64("event-batch-size"),
		MaxRetries:     v.GetInt("max-retries"),
		RetryBackoff:   v.GetDuration("retry-backoff"),
		Out:            v.GetString("out"),
		MetricsPort:    v.GetInt("metrics-port"),
		Yes:            v.GetBool("yes"),
		LogLevel:       v.GetString("log-level"),
	}

	return cfg, nil
}

// Validate checks the settings every command needs.
func (c Config) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if c.Contract == "" {
		return fmt.Errorf("contract address is required")
	}
	if !common.IsHexAddress(c.Contract) {
		return fmt.Errorf("invalid contract address: %s", c.Contract)
	}
	if c.Account != "" && !common.IsHexAddress(c.Account) {
		return fmt.Errorf("invalid account address: %s", c.Account)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be greater than zero")
	}
	if c.ConfirmTimeout < 0 {
		return fmt.Errorf("confirm timeout must not be negative")
	}
	return nil
}

// ContractAddress returns the parsed staking contract address.
func (c Config) ContractAddress() common.Address {
	return common.HexToAddress(c.Contract)
}

// AccountAddress returns the configured signer, if any.
func (c Config) AccountAddress() (common.Address, bool) {
	if c.Account == "" {
		return common.Address{}, false
	}
	return common.HexToAddress(c.Account), true
}

func defaultKeystoreDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".ethereum", "keystore")
}
