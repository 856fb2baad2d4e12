package contract

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"yieldLock/internal/failure"
)

// Caller performs eth_call requests.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Backend is what the gateway needs to submit and await transactions.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// EthGateway implements Gateway over go-ethereum. Reads go through Caller so
// they share the chain client's throttling; writes use a bound contract.
type EthGateway struct {
	address common.Address
	abi     abi.ABI
	caller  Caller
	backend Backend
	bound   *bind.BoundContract
	auth    *bind.TransactOpts
}

// NewEthGateway builds a gateway. auth may be nil for a read-only handle.
func NewEthGateway(address common.Address, caller Caller, backend Backend, auth *bind.TransactOpts) (*EthGateway, error) {
	if caller == nil {
		return nil, fmt.Errorf("caller is nil")
	}
	parsed, err := YieldLockABI()
	if err != nil {
		return nil, fmt.Errorf("parse yieldlock abi: %w", err)
	}

	g := &EthGateway{
		address: address,
		abi:     parsed,
		caller:  caller,
		backend: backend,
		auth:    auth,
	}
	if backend != nil {
		g.bound = bind.NewBoundContract(address, parsed, backend, backend, backend)
	}
	return g, nil
}

// GetPoolCount returns the number of pools.
func (g *EthGateway) GetPoolCount(ctx context.Context) (uint64, error) {
	values, err := g.call(ctx, "getPoolCount")
	if err != nil {
		return 0, err
	}
	count, err := asBigInt(values[0])
	if err != nil {
		return 0, fmt.Errorf("pool count: %w", err)
	}
	return asUint64(count, "pool count")
}

// GetPoolInfo reads one pool record.
func (g *EthGateway) GetPoolInfo(ctx context.Context, poolID uint64) (PoolInfo, error) {
	values, err := g.call(ctx, "getPoolInfo", new(big.Int).SetUint64(poolID))
	if err != nil {
		return PoolInfo{}, err
	}
	if len(values) < 5 {
		return PoolInfo{}, fmt.Errorf("getPoolInfo: expected 5 values, got %d", len(values))
	}

	asset, err := asAddress(values[0])
	if err != nil {
		return PoolInfo{}, fmt.Errorf("lp token: %w", err)
	}
	rewardRate, err := asBigInt(values[1])
	if err != nil {
		return PoolInfo{}, fmt.Errorf("reward rate: %w", err)
	}
	lockDuration, err := asBigInt(values[2])
	if err != nil {
		return PoolInfo{}, fmt.Errorf("lock duration: %w", err)
	}
	totalStaked, err := asBigInt(values[3])
	if err != nil {
		return PoolInfo{}, fmt.Errorf("total staked: %w", err)
	}
	active, err := asBool(values[4])
	if err != nil {
		return PoolInfo{}, fmt.Errorf("is active: %w", err)
	}

	return PoolInfo{
		StakingAsset: asset,
		RewardRate:   rewardRate,
		LockDuration: lockDuration,
		TotalStaked:  totalStaked,
		Active:       active,
	}, nil
}

// GetUserStake reads account's stake in poolID.
func (g *EthGateway) GetUserStake(ctx context.Context, account common.Address, poolID uint64) (UserStake, error) {
	values, err := g.call(ctx, "getUserStake", account, new(big.Int).SetUint64(poolID))
	if err != nil {
		return UserStake{}, err
	}
	if len(values) < 4 {
		return UserStake{}, fmt.Errorf("getUserStake: expected 4 values, got %d", len(values))
	}

	amount, err := asBigInt(values[0])
	if err != nil {
		return UserStake{}, fmt.Errorf("amount: %w", err)
	}
	lockEnd, err := asBigInt(values[1])
	if err != nil {
		return UserStake{}, fmt.Errorf("lock end time: %w", err)
	}
	pending, err := asBigInt(values[2])
	if err != nil {
		return UserStake{}, fmt.Errorf("pending rewards: %w", err)
	}
	locked, err := asBool(values[3])
	if err != nil {
		return UserStake{}, fmt.Errorf("is locked: %w", err)
	}

	return UserStake{
		Amount:         amount,
		LockEndTime:    lockEnd,
		PendingRewards: pending,
		Locked:         locked,
	}, nil
}

// PendingRewards reads the rewards accrued by account in poolID.
func (g *EthGateway) PendingRewards(ctx context.Context, account common.Address, poolID uint64) (*big.Int, error) {
	values, err := g.call(ctx, "pendingRewards", account, new(big.Int).SetUint64(poolID))
	if err != nil {
		return nil, err
	}
	return asBigInt(values[0])
}

// Owner reads the contract owner.
func (g *EthGateway) Owner(ctx context.Context) (common.Address, error) {
	values, err := g.call(ctx, "owner")
	if err != nil {
		return common.Address{}, err
	}
	return asAddress(values[0])
}

// Stake submits stake(poolId, amount).
func (g *EthGateway) Stake(ctx context.Context, poolID uint64, amount *big.Int) (*types.Transaction, error) {
	return g.transact(ctx, "stake", new(big.Int).SetUint64(poolID), amount)
}

// Unstake submits unstake(poolId).
func (g *EthGateway) Unstake(ctx context.Context, poolID uint64) (*types.Transaction, error) {
	return g.transact(ctx, "unstake", new(big.Int).SetUint64(poolID))
}

// ClaimRewards submits claimRewards(poolId).
func (g *EthGateway) ClaimRewards(ctx context.Context, poolID uint64) (*types.Transaction, error) {
	return g.transact(ctx, "claimRewards", new(big.Int).SetUint64(poolID))
}

// CreatePool submits createPool(asset, rewardRate, lockDuration).
func (g *EthGateway) CreatePool(ctx context.Context, asset common.Address, rewardRate *big.Int, lockDuration *big.Int) (*types.Transaction, error) {
	return g.transact(ctx, "createPool", asset, rewardRate, lockDuration)
}

// PausePool submits pausePool(poolId).
func (g *EthGateway) PausePool(ctx context.Context, poolID uint64) (*types.Transaction, error) {
	return g.transact(ctx, "pausePool", new(big.Int).SetUint64(poolID))
}

// UnpausePool submits unpausePool(poolId).
func (g *EthGateway) UnpausePool(ctx context.Context, poolID uint64) (*types.Transaction, error) {
	return g.transact(ctx, "unpausePool", new(big.Int).SetUint64(poolID))
}

// WaitConfirmed waits until tx is mined. A mined transaction with a failed
// status is reported as ExecutionReverted.
func (g *EthGateway) WaitConfirmed(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	if g.backend == nil {
		return nil, fmt.Errorf("gateway has no backend")
	}
	receipt, err := bind.WaitMined(ctx, g.backend, tx)
	if err != nil {
		return nil, fmt.Errorf("wait mined %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, failure.Wrap(failure.ExecutionReverted,
			fmt.Errorf("transaction %s reverted in block %s", tx.Hash().Hex(), receipt.BlockNumber))
	}
	return receipt, nil
}

func (g *EthGateway) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := g.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &g.address, Data: data}
	if g.auth != nil {
		msg.From = g.auth.From
	}
	resp, err := g.caller.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := g.abi.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("unpack %s: empty result", method)
	}
	return values, nil
}

func (g *EthGateway) transact(ctx context.Context, method string, args ...interface{}) (*types.Transaction, error) {
	if g.bound == nil || g.auth == nil {
		return nil, fmt.Errorf("%s: gateway is read-only", method)
	}
	opts := *g.auth
	opts.Context = ctx
	tx, err := g.bound.Transact(&opts, method, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return tx, nil
}
