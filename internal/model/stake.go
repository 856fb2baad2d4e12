package model

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Stake is an account's deposit in one pool.
type Stake struct {
	Owner          common.Address `json:"owner"`
	PoolID         uint64         `json:"pool_id"`
	Amount         *big.Int       `json:"amount"`
	LockEndTime    uint64         `json:"lock_end_time"`
	PendingRewards *big.Int       `json:"pending_rewards"`
	Locked         bool           `json:"locked"`
}

// IsEmpty reports whether the record represents "no stake".
func (s Stake) IsEmpty() bool {
	return s.Amount == nil || s.Amount.Sign() <= 0
}

// UnlockedAt reports whether the lock has expired at now. The boundary is
// inclusive.
func (s Stake) UnlockedAt(now time.Time) bool {
	return now.Unix() >= int64(s.LockEndTime)
}

// LockEnd returns the lock end as a time value.
func (s Stake) LockEnd() time.Time {
	return time.Unix(int64(s.LockEndTime), 0).UTC()
}
