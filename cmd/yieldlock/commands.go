package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yieldLock/internal/contract"
	"yieldLock/internal/display"
	"yieldLock/internal/orchestrator"
	"yieldLock/internal/poolstate"
)

func poolsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pools",
		Short: "List staking pools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client, deployment, err := dial(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer client.Close()

			reader, err := deployment.Bind(nil)
			if err != nil {
				return err
			}
			pools, err := poolstate.NewSynchronizer(logger).RefreshPools(ctx, reader)
			if err != nil {
				return err
			}
			views := display.Pools(pools, cfg.PeriodsPerYear)
			tokens := contract.NewTokenResolver(client, logger)
			for i, pool := range pools {
				if meta, err := tokens.Resolve(ctx, pool.StakingAsset); err == nil {
					views[i].AssetSymbol = meta.Symbol
				}
			}
			printPools(cmd.OutOrStdout(), views)
			return nil
		},
	}
}

func stakesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stakes",
		Short: "List the stakes of --account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			account, ok := cfg.AccountAddress()
			if !ok {
				return fmt.Errorf("account is required")
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client, deployment, err := dial(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer client.Close()

			reader, err := deployment.Bind(nil)
			if err != nil {
				return err
			}
			cache := poolstate.NewSynchronizer(logger)
			if _, err := cache.RefreshStakes(ctx, reader, account); err != nil {
				return err
			}
			if _, err := cache.RefreshPendingRewards(ctx, reader, account); err != nil {
				logger.Warn("pending rewards", zap.Error(err))
			}
			stakes, rewards := cache.Stakes()
			printStakes(cmd.OutOrStdout(), display.Stakes(stakes, rewards, time.Now()))
			return nil
		},
	}
}

// actionFunc performs one write through the connected runtime.
type actionFunc func(ctx context.Context, rt *runtime, args []string) error

func actionCommands() []*cobra.Command {
	return []*cobra.Command{
		actionCommand("stake <pool-id> <amount>", "Stake tokens into a pool", 2, func(ctx context.Context, rt *runtime, args []string) error {
			poolID, err := parsePoolID(args[0])
			if err != nil {
				return err
			}
			_, err = rt.controller.Stake(ctx, poolID, args[1])
			return err
		}),
		actionCommand("unstake <pool-id>", "Withdraw an unlocked stake", 1, func(ctx context.Context, rt *runtime, args []string) error {
			poolID, err := parsePoolID(args[0])
			if err != nil {
				return err
			}
			_, err = rt.controller.Unstake(ctx, poolID)
			return err
		}),
		actionCommand("claim <pool-id>", "Claim pending rewards", 1, func(ctx context.Context, rt *runtime, args []string) error {
			poolID, err := parsePoolID(args[0])
			if err != nil {
				return err
			}
			_, err = rt.controller.Claim(ctx, poolID)
			return err
		}),
		actionCommand("create-pool <asset> <reward-rate> <lock-days>", "Create a pool (owner only)", 3, func(ctx context.Context, rt *runtime, args []string) error {
			_, err := rt.controller.CreatePool(ctx, orchestrator.PoolFields{Asset: args[0], RewardRate: args[1], LockDays: args[2]})
			return err
		}),
		actionCommand("pause <pool-id>", "Pause a pool (owner only)", 1, func(ctx context.Context, rt *runtime, args []string) error {
			poolID, err := parsePoolID(args[0])
			if err != nil {
				return err
			}
			_, err = rt.controller.Pause(ctx, poolID)
			return err
		}),
		actionCommand("unpause <pool-id>", "Unpause a pool (owner only)", 1, func(ctx context.Context, rt *runtime, args []string) error {
			poolID, err := parsePoolID(args[0])
			if err != nil {
				return err
			}
			_, err = rt.controller.Unpause(ctx, poolID)
			return err
		}),
	}
}

func actionCommand(use, short string, nargs int, run actionFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			approver := promptApprover(cmd.InOrStdin(), cmd.OutOrStdout())
			if cfg.Yes {
				approver = nil
			}
			rt, err := newRuntime(ctx, cfg, logger, approver, cmd.OutOrStdout(), false)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.controller.Connect(ctx); err != nil {
				return err
			}
			if err := run(ctx, rt, args); err != nil {
				return err
			}
			rt.renderer.printView(rt.controller.View())
			return nil
		},
	}
}

func parsePoolID(text string) (uint64, error) {
	poolID, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid pool id %q", text)
	}
	return poolID, nil
}
