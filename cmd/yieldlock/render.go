package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"

	"yieldLock/internal/display"
	"yieldLock/internal/model"
)

// terminalRenderer prints each new status message as it appears. Full
// tables are printed on demand.
type terminalRenderer struct {
	mu         sync.Mutex
	out        io.Writer
	lastStatus string
	lastBusy   bool
}

func newTerminalRenderer(out io.Writer) *terminalRenderer {
	return &terminalRenderer{out: out}
}

func (r *terminalRenderer) Render(view model.View) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if view.Busy && !r.lastBusy {
		fmt.Fprintln(r.out, "... working")
	}
	r.lastBusy = view.Busy

	if view.Status == nil {
		r.lastStatus = ""
		return
	}
	key := string(view.Status.Severity) + "|" + view.Status.Text
	if key == r.lastStatus {
		return
	}
	r.lastStatus = key
	fmt.Fprintf(r.out, "[%s] %s\n", strings.ToUpper(string(view.Status.Severity)), view.Status.Text)
}

// printView writes the session, pool and stake tables.
func (r *terminalRenderer) printView(view model.View) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if view.Session.Connected {
		role := "user"
		if view.Session.IsAdmin {
			role = "admin"
		}
		balance := view.Session.Balance
		if balance == "" {
			balance = "?"
		}
		fmt.Fprintf(r.out, "Account %s (%s) chain %s balance %s ETH\n",
			view.Session.ShortAccount, role, view.Session.ChainID, balance)
	} else {
		fmt.Fprintln(r.out, "Wallet not connected")
	}
	printPools(r.out, view.Pools)
	if view.Session.Connected {
		printStakes(r.out, view.Stakes)
	}
}

func printPools(out io.Writer, pools []model.PoolView) {
	if len(pools) == 0 {
		fmt.Fprintln(out, "No pools available")
		return
	}
	w := tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "POOL\tASSET\tAPY\tLOCK\tTOTAL STAKED\tSTATUS")
	for _, pool := range pools {
		asset := pool.StakingAsset
		if pool.AssetSymbol != "" {
			asset = fmt.Sprintf("%s (%s)", pool.AssetSymbol, display.ShortAddress(asset))
		}
		fmt.Fprintf(w, "%d\t%s\t%s%%\t%s days\t%s\t%s\n",
			pool.ID, asset, pool.APY, pool.LockDays, pool.TotalStaked, pool.Status)
	}
	_ = w.Flush()
}

func printStakes(out io.Writer, stakes []model.StakeView) {
	if len(stakes) == 0 {
		fmt.Fprintln(out, "No active stakes")
		return
	}
	w := tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "POOL\tAMOUNT\tREWARDS\tLOCKED UNTIL\tSTATE")
	for _, stake := range stakes {
		state := "locked"
		if stake.Unlocked {
			state = "unlocked"
		}
		fmt.Fprintf(w, "%d\t%s\t%s YLD\t%s\t%s\n",
			stake.PoolID, stake.Amount, stake.PendingRewards, stake.LockedUntil.Local().Format("2006-01-02 15:04"), state)
	}
	_ = w.Flush()
}
