package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Staking contract event names.
const (
	EventStaked         = "Staked"
	EventUnstaked       = "Unstaked"
	EventRewardsClaimed = "RewardsClaimed"
	EventPoolCreated    = "PoolCreated"
)

// ContractEvent is a decoded staking contract log.
type ContractEvent struct {
	Name        string           `json:"name"`
	BlockNumber uint64           `json:"block_number"`
	TxHash      string           `json:"tx_hash"`
	LogIndex    uint64           `json:"log_index"`
	User        common.Address   `json:"user,omitempty"`
	PoolID      uint64           `json:"pool_id"`
	Amount      *big.Int         `json:"amount,omitempty"`
	PoolCreated *PoolCreatedData `json:"pool_created,omitempty"`
}

// PoolCreatedData is the payload of a PoolCreated event.
type PoolCreatedData struct {
	StakingAsset common.Address `json:"staking_asset"`
	RewardRate   *big.Int       `json:"reward_rate"`
	LockDuration uint64         `json:"lock_duration"`
}

// Touches reports whether the event affects data displayed for account.
func (e ContractEvent) Touches(account common.Address) bool {
	if e.PoolCreated != nil {
		return true
	}
	return e.User == account
}
