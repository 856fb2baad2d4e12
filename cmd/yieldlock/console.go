package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"yieldLock/internal/model"
	"yieldLock/internal/orchestrator"
	"yieldLock/internal/wallet"
)

const consoleHelp = `commands:
  connect                                  connect the keystore wallet
  disconnect                               end the session
  account <address>                        switch to another keystore account
  show                                     print session, pools and stakes
  refresh                                  reload pools and stakes
  stake <pool-id> <amount>                 stake tokens
  unstake <pool-id>                        withdraw an unlocked stake
  claim <pool-id>                          claim pending rewards
  create-pool <asset> <rate> <lock-days>   create a pool (owner only)
  pause <pool-id> | unpause <pool-id>      pause or unpause a pool (owner only)
  help | quit`

func consoleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "console",
		Short: "Interactive session with background polling",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// typing the command is the approval
			rt, err := newRuntime(ctx, cfg, logger, wallet.AutoApprove, cmd.OutOrStdout(), true)
			if err != nil {
				return err
			}
			defer rt.Close()
			rt.serveMetrics(ctx)

			return runConsole(ctx, rt, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().Duration("poll-interval", 0, "re-poll interval while connected (default 30s)")
	cmd.Flags().Bool("watch-events", true, "follow contract events between polls")
	cmd.Flags().Uint64("event-batch-size", 2000, "blocks per event log query")
	cmd.Flags().Int("max-retries", 3, "maximum retry attempts for event log queries")
	cmd.Flags().Duration("retry-backoff", 0, "initial retry backoff for event log queries (default 500ms)")
	cmd.Flags().Int("metrics-port", 0, "serve Prometheus metrics on this port, 0 disables")
	return cmd
}

func runConsole(ctx context.Context, rt *runtime, in io.Reader, out io.Writer) error {
	var pending sync.WaitGroup
	defer pending.Wait()

	// actions run in the background so the prompt stays usable while a
	// transaction confirms
	async := func(fn func() error) {
		pending.Add(1)
		go func() {
			defer pending.Done()
			_ = fn()
		}()
	}

	fmt.Fprintln(out, consoleHelp)
	stopped := make(chan struct{})
	defer close(stopped)
	lines := readLines(ctx, in, stopped)

	for {
		fmt.Fprint(out, "> ")
		var line string
		select {
		case <-ctx.Done():
			return nil
		case l, ok := <-lines:
			if !ok {
				return nil
			}
			line = l
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		name, args := fields[0], fields[1:]

		switch name {
		case "quit", "exit":
			return nil
		case "help":
			fmt.Fprintln(out, consoleHelp)
		case "connect":
			_ = rt.controller.Connect(ctx)
		case "disconnect":
			rt.controller.Disconnect()
		case "account":
			if !expectArgs(out, args, 1) {
				continue
			}
			if !common.IsHexAddress(args[0]) {
				fmt.Fprintf(out, "invalid address %q\n", args[0])
				continue
			}
			_ = rt.controller.AccountsChanged(ctx, []common.Address{common.HexToAddress(args[0])})
		case "show":
			rt.renderer.printView(rt.controller.View())
		case "refresh":
			if err := rt.controller.Refresh(ctx); err != nil {
				fmt.Fprintln(out, err)
			}
		case "stake":
			if !expectArgs(out, args, 2) {
				continue
			}
			poolID, err := parsePoolID(args[0])
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			amount := args[1]
			async(func() error {
				_, err := rt.controller.Stake(ctx, poolID, amount)
				return err
			})
		case "unstake", "claim", "pause", "unpause":
			if !expectArgs(out, args, 1) {
				continue
			}
			poolID, err := parsePoolID(args[0])
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			action := poolAction(rt, name)
			async(func() error {
				_, err := action(ctx, poolID)
				return err
			})
		case "create-pool":
			if !expectArgs(out, args, 3) {
				continue
			}
			fields := orchestrator.PoolFields{Asset: args[0], RewardRate: args[1], LockDays: args[2]}
			async(func() error {
				_, err := rt.controller.CreatePool(ctx, fields)
				return err
			})
		default:
			fmt.Fprintf(out, "unknown command %q, type help\n", name)
		}
	}
}

func poolAction(rt *runtime, name string) func(context.Context, uint64) (*model.PendingTransaction, error) {
	switch name {
	case "unstake":
		return rt.controller.Unstake
	case "claim":
		return rt.controller.Claim
	case "pause":
		return rt.controller.Pause
	default:
		return rt.controller.Unpause
	}
}

func expectArgs(out io.Writer, args []string, n int) bool {
	if len(args) != n {
		fmt.Fprintf(out, "expected %d argument(s), type help\n", n)
		return false
	}
	return true
}

// readLines delivers input lines until in is exhausted, ctx is done or stop
// is closed. The channel is closed when the reader exits.
func readLines(ctx context.Context, in io.Reader, stop <-chan struct{}) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
		}
	}()
	return lines
}
