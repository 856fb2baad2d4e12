package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Pool is the ledger's view of a staking pool. Pool IDs are dense ordinals
// assigned by the contract.
type Pool struct {
	ID           uint64         `json:"id"`
	StakingAsset common.Address `json:"staking_asset"`
	RewardRate   *big.Int       `json:"reward_rate"`
	LockDuration uint64         `json:"lock_duration"`
	TotalStaked  *big.Int       `json:"total_staked"`
	Active       bool           `json:"active"`
}
