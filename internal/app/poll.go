package app

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"yieldLock/internal/events"
	"yieldLock/internal/model"
	"yieldLock/internal/session"
)

// pollCycle follows contract events when a watcher is configured, then
// re-reads the acting account's stakes and pending rewards.
func (c *Controller) pollCycle(ctx context.Context) error {
	sess, ok := c.deps.Sessions.Current()
	if !ok {
		return nil
	}

	changed, err := c.deps.Sessions.ChainChanged(ctx)
	if err != nil {
		return err
	}
	if changed {
		c.reloadSession()
		return nil
	}

	var errs []error
	if err := c.followEvents(ctx, sess); err != nil {
		errs = append(errs, err)
	}
	if err := c.refreshStakes(ctx, sess); err != nil {
		errs = append(errs, err)
	}
	if err := c.refreshRewards(ctx, sess); err != nil {
		errs = append(errs, err)
	}
	c.refreshBalance(ctx, sess)

	c.render()
	return errors.Join(errs...)
}

func (c *Controller) followEvents(ctx context.Context, sess *session.Session) error {
	if c.deps.Watcher == nil {
		return nil
	}
	observed, err := c.deps.Watcher.Poll(ctx)
	if len(observed) > 0 && c.deps.Sink != nil {
		if sinkErr := c.deps.Sink.PutEvents(observed); sinkErr != nil {
			c.logger.Warn("store events", zap.Error(sinkErr))
		}
	}
	if err != nil {
		return err
	}

	pools, stakes := events.Affects(observed, sess.Account)
	if stakes {
		c.logger.Debug("own stake events observed", zap.Int("events", len(observed)))
	}
	if pools {
		return c.refreshPools(ctx, sess)
	}
	return nil
}

// reloadSession reconnects after a chain switch. It runs outside the poll
// loop because ending the session cancels the loop and waits for it.
func (c *Controller) reloadSession() {
	c.mu.Lock()
	if c.reloading {
		c.mu.Unlock()
		return
	}
	c.reloading = true
	c.mu.Unlock()

	c.background.Add(1)
	go func() {
		defer c.background.Done()
		defer func() {
			c.mu.Lock()
			c.reloading = false
			c.mu.Unlock()
		}()

		if _, err := c.deps.Sessions.OnChainChanged(c.base); err != nil {
			c.logger.Warn("reconnect after chain change", zap.Error(err))
			c.Notify("Network changed; reconnect your wallet", model.SeverityWarning)
		}
	}()
}
