package app

import (
	"yieldLock/internal/display"
	"yieldLock/internal/model"
)

// View builds the current presentation state. Lock status is evaluated at
// call time.
func (c *Controller) View() model.View {
	now := c.deps.Clock.Now()
	view := model.View{
		Pools:      []model.PoolView{},
		Stakes:     []model.StakeView{},
		Status:     c.board.message(),
		Busy:       c.board.isBusy(),
		RenderedAt: now,
	}

	sess, ok := c.deps.Sessions.Current()
	if !ok {
		return view
	}

	c.mu.Lock()
	balance := c.balance
	c.mu.Unlock()

	account := sess.Account.Hex()
	view.Session = model.SessionView{
		Connected:    true,
		Account:      account,
		ShortAccount: display.ShortAddress(account),
		ChainID:      sess.ChainID.String(),
		IsAdmin:      sess.IsAdmin(),
	}
	if balance != nil {
		view.Session.Balance = display.FormatAmount(balance)
	}

	pools := c.deps.Cache.Pools()
	view.Pools = display.Pools(pools, c.cfg.PeriodsPerYear)
	for i := range view.Pools {
		if c.deps.Tokens != nil {
			if meta, ok := c.deps.Tokens.Lookup(pools[i].StakingAsset); ok {
				view.Pools[i].AssetSymbol = meta.Symbol
			}
		}
		if c.orch.InFlight(sess.Account, view.Pools[i].ID, model.TxStake) {
			view.Pools[i].CanStake = false
		}
	}

	stakes, rewards := c.deps.Cache.Stakes()
	view.Stakes = display.Stakes(stakes, rewards, now)
	for i := range view.Stakes {
		poolID := view.Stakes[i].PoolID
		if c.orch.InFlight(sess.Account, poolID, model.TxClaim) {
			view.Stakes[i].CanClaim = false
		}
		if c.orch.InFlight(sess.Account, poolID, model.TxUnstake) {
			view.Stakes[i].CanUnstake = false
		}
	}
	return view
}
