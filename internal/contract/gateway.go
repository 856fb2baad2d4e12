package contract

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// PoolInfo is the raw getPoolInfo result.
type PoolInfo struct {
	StakingAsset common.Address
	RewardRate   *big.Int
	LockDuration *big.Int
	TotalStaked  *big.Int
	Active       bool
}

// UserStake is the raw getUserStake result.
type UserStake struct {
	Amount         *big.Int
	LockEndTime    *big.Int
	PendingRewards *big.Int
	Locked         bool
}

// Reader is the read surface of the staking contract.
type Reader interface {
	GetPoolCount(ctx context.Context) (uint64, error)
	GetPoolInfo(ctx context.Context, poolID uint64) (PoolInfo, error)
	GetUserStake(ctx context.Context, account common.Address, poolID uint64) (UserStake, error)
	PendingRewards(ctx context.Context, account common.Address, poolID uint64) (*big.Int, error)
	Owner(ctx context.Context) (common.Address, error)
}

// Writer is the write surface of the staking contract. Every write returns
// the submitted transaction; WaitConfirmed blocks until it is mined.
type Writer interface {
	Stake(ctx context.Context, poolID uint64, amount *big.Int) (*types.Transaction, error)
	Unstake(ctx context.Context, poolID uint64) (*types.Transaction, error)
	ClaimRewards(ctx context.Context, poolID uint64) (*types.Transaction, error)
	CreatePool(ctx context.Context, asset common.Address, rewardRate *big.Int, lockDuration *big.Int) (*types.Transaction, error)
	PausePool(ctx context.Context, poolID uint64) (*types.Transaction, error)
	UnpausePool(ctx context.Context, poolID uint64) (*types.Transaction, error)
	WaitConfirmed(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)
}

// Gateway is an authenticated handle to the staking contract.
type Gateway interface {
	Reader
	Writer
}
