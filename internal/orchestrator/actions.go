package orchestrator

import (
	"context"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"yieldLock/internal/contract"
	"yieldLock/internal/display"
	"yieldLock/internal/failure"
	"yieldLock/internal/model"
	"yieldLock/internal/session"
)

// PoolFields are the raw createPool inputs.
type PoolFields struct {
	Asset      string
	RewardRate string
	LockDays   string
}

// Stake deposits amountText (18-decimal) into poolID.
func (o *Orchestrator) Stake(ctx context.Context, sess *session.Session, poolID uint64, amountText string) (*model.PendingTransaction, error) {
	var amount *big.Int
	return o.run(ctx, sess, action{
		kind:    model.TxStake,
		poolID:  poolID,
		label:   "stake tokens",
		success: "Successfully staked tokens!",
		validate: func() error {
			parsed, err := display.ParseAmount(amountText)
			if err != nil {
				return &failure.Error{Kind: failure.ValidationError, Reason: "Please enter a valid amount", Err: err}
			}
			amount = parsed
			return nil
		},
		submit: func(ctx context.Context, gw contract.Gateway) (*types.Transaction, error) {
			return gw.Stake(ctx, poolID, amount)
		},
	})
}

// Unstake withdraws the stake in poolID. The contract rejects it while locked.
func (o *Orchestrator) Unstake(ctx context.Context, sess *session.Session, poolID uint64) (*model.PendingTransaction, error) {
	return o.run(ctx, sess, action{
		kind:    model.TxUnstake,
		poolID:  poolID,
		label:   "unstake tokens",
		success: "Successfully unstaked tokens!",
		submit: func(ctx context.Context, gw contract.Gateway) (*types.Transaction, error) {
			return gw.Unstake(ctx, poolID)
		},
	})
}

// Claim collects the pending rewards of poolID.
func (o *Orchestrator) Claim(ctx context.Context, sess *session.Session, poolID uint64) (*model.PendingTransaction, error) {
	return o.run(ctx, sess, action{
		kind:    model.TxClaim,
		poolID:  poolID,
		label:   "claim rewards",
		success: "Successfully claimed rewards!",
		submit: func(ctx context.Context, gw contract.Gateway) (*types.Transaction, error) {
			return gw.ClaimRewards(ctx, poolID)
		},
	})
}

// CreatePool opens a new pool. Lock days are whole days; the reward rate is
// an 18-decimal amount.
func (o *Orchestrator) CreatePool(ctx context.Context, sess *session.Session, fields PoolFields) (*model.PendingTransaction, error) {
	var (
		asset        common.Address
		rewardRate   *big.Int
		lockDuration *big.Int
	)
	return o.run(ctx, sess, action{
		kind:    model.TxCreatePool,
		poolID:  model.NoPool,
		label:   "create pool",
		success: "Pool created successfully!",
		validate: func() error {
			assetText := strings.TrimSpace(fields.Asset)
			if assetText == "" || strings.TrimSpace(fields.RewardRate) == "" || strings.TrimSpace(fields.LockDays) == "" {
				return failure.New(failure.ValidationError, "Please fill in all fields")
			}
			if !common.IsHexAddress(assetText) {
				return failure.New(failure.ValidationError, "Invalid staking asset address")
			}
			asset = common.HexToAddress(assetText)

			rate, err := display.ParseAmount(fields.RewardRate)
			if err != nil {
				return &failure.Error{Kind: failure.ValidationError, Reason: "Please enter a valid reward rate", Err: err}
			}
			rewardRate = rate

			days, err := strconv.ParseUint(strings.TrimSpace(fields.LockDays), 10, 64)
			if err != nil {
				return &failure.Error{Kind: failure.ValidationError, Reason: "Please enter a valid lock duration in days", Err: err}
			}
			lockDuration = display.DaysToSeconds(days)
			return nil
		},
		submit: func(ctx context.Context, gw contract.Gateway) (*types.Transaction, error) {
			return gw.CreatePool(ctx, asset, rewardRate, lockDuration)
		},
	})
}

// Pause stops new stakes in poolID. Owner only.
func (o *Orchestrator) Pause(ctx context.Context, sess *session.Session, poolID uint64) (*model.PendingTransaction, error) {
	return o.run(ctx, sess, action{
		kind:     model.TxPause,
		poolID:   poolID,
		label:    "pause pool",
		success:  "Pool paused successfully!",
		validate: o.knownPool(poolID),
		submit: func(ctx context.Context, gw contract.Gateway) (*types.Transaction, error) {
			return gw.PausePool(ctx, poolID)
		},
	})
}

// Unpause reopens poolID for staking. Owner only.
func (o *Orchestrator) Unpause(ctx context.Context, sess *session.Session, poolID uint64) (*model.PendingTransaction, error) {
	return o.run(ctx, sess, action{
		kind:     model.TxUnpause,
		poolID:   poolID,
		label:    "unpause pool",
		success:  "Pool unpaused successfully!",
		validate: o.knownPool(poolID),
		submit: func(ctx context.Context, gw contract.Gateway) (*types.Transaction, error) {
			return gw.UnpausePool(ctx, poolID)
		},
	})
}

// knownPool checks poolID against the cached pool range once the cache has
// been populated.
func (o *Orchestrator) knownPool(poolID uint64) func() error {
	return func() error {
		count := o.cache.PoolCount()
		if count > 0 && poolID >= uint64(count) {
			return failure.New(failure.ValidationError, "Please select a pool")
		}
		return nil
	}
}
