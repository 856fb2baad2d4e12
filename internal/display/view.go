package display

import (
	"math/big"
	"time"

	"yieldLock/internal/model"
)

// Pools derives display records in pool-id order.
func Pools(pools []model.Pool, periodsPerYear uint64) []model.PoolView {
	views := make([]model.PoolView, 0, len(pools))
	for _, pool := range pools {
		status := "Paused"
		if pool.Active {
			status = "Active"
		}
		views = append(views, model.PoolView{
			ID:           pool.ID,
			StakingAsset: pool.StakingAsset.Hex(),
			APY:          APY(pool.RewardRate, pool.TotalStaked, periodsPerYear),
			LockDays:     LockDays(pool.LockDuration),
			TotalStaked:  FormatAmount(pool.TotalStaked),
			RewardRate:   FormatAmount(pool.RewardRate),
			Status:       status,
			CanStake:     pool.Active,
		})
	}
	return views
}

// Stakes derives display records for non-empty stakes. Lock status is
// evaluated against now; a positive polled reward replaces the reward read
// with the stake.
func Stakes(stakes []model.Stake, polledRewards map[uint64]*big.Int, now time.Time) []model.StakeView {
	views := make([]model.StakeView, 0, len(stakes))
	for _, stake := range stakes {
		if stake.IsEmpty() {
			continue
		}
		rewards := stake.PendingRewards
		if polled, ok := polledRewards[stake.PoolID]; ok && polled != nil && polled.Sign() > 0 {
			rewards = polled
		}
		unlocked := stake.UnlockedAt(now)
		views = append(views, model.StakeView{
			PoolID:         stake.PoolID,
			Amount:         FormatAmount(stake.Amount),
			LockedUntil:    stake.LockEnd(),
			PendingRewards: FormatAmount(rewards),
			Unlocked:       unlocked,
			CanClaim:       rewards != nil && rewards.Sign() > 0,
			CanUnstake:     unlocked,
		})
	}
	return views
}
