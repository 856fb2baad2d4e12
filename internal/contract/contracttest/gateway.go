// Package contracttest provides an in-memory staking contract for tests.
package contracttest

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"yieldLock/internal/contract"
)

// Call records a write submitted to the Gateway.
type Call struct {
	Method       string
	PoolID       uint64
	Amount       *big.Int
	Asset        common.Address
	RewardRate   *big.Int
	LockDuration *big.Int
}

// Gateway is an in-memory contract. Writes take effect only when
// WaitConfirmed succeeds, mirroring ledger confirmation.
type Gateway struct {
	mu sync.Mutex

	// Account is the signer used for writes.
	Account   common.Address
	OwnerAddr common.Address
	Pools     []contract.PoolInfo
	Stakes    map[common.Address]map[uint64]contract.UserStake
	Rewards   map[common.Address]map[uint64]*big.Int
	// LockEnd is stamped on stakes created by Stake.
	LockEnd uint64

	CountErr    error
	PoolInfoErr map[uint64]error
	StakeErr    map[uint64]error
	OwnerErr    error
	SubmitErr   error
	WaitErr     error
	// WaitGate, when set, blocks WaitConfirmed until it is closed or receives.
	WaitGate chan struct{}
	// Submitted is signalled after every successful submission.
	Submitted chan struct{}

	calls   []Call
	reads   int
	nonce   uint64
	pending map[common.Hash]Call
}

// New returns an empty gateway signing as account.
func New(account common.Address) *Gateway {
	return &Gateway{
		Account:     account,
		Stakes:      make(map[common.Address]map[uint64]contract.UserStake),
		Rewards:     make(map[common.Address]map[uint64]*big.Int),
		PoolInfoErr: make(map[uint64]error),
		StakeErr:    make(map[uint64]error),
		pending:     make(map[common.Hash]Call),
	}
}

// AddPool appends a pool.
func (g *Gateway) AddPool(info contract.PoolInfo) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Pools = append(g.Pools, info)
}

// SetStake overwrites the stake of account in poolID.
func (g *Gateway) SetStake(account common.Address, poolID uint64, stake contract.UserStake) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Stakes[account] == nil {
		g.Stakes[account] = make(map[uint64]contract.UserStake)
	}
	g.Stakes[account][poolID] = stake
}

// SetReward overwrites the pendingRewards value of account in poolID.
func (g *Gateway) SetReward(account common.Address, poolID uint64, amount *big.Int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Rewards[account] == nil {
		g.Rewards[account] = make(map[uint64]*big.Int)
	}
	g.Rewards[account][poolID] = amount
}

// SetOwner changes the contract owner.
func (g *Gateway) SetOwner(owner common.Address) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.OwnerAddr = owner
}

// Calls returns the submitted writes in order.
func (g *Gateway) Calls() []Call {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Call(nil), g.calls...)
}

// Reads returns the number of read calls served.
func (g *Gateway) Reads() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.reads
}

func (g *Gateway) GetPoolCount(context.Context) (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reads++
	if g.CountErr != nil {
		return 0, g.CountErr
	}
	return uint64(len(g.Pools)), nil
}

func (g *Gateway) GetPoolInfo(_ context.Context, poolID uint64) (contract.PoolInfo, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reads++
	if err := g.PoolInfoErr[poolID]; err != nil {
		return contract.PoolInfo{}, err
	}
	if poolID >= uint64(len(g.Pools)) {
		return contract.PoolInfo{}, fmt.Errorf("execution reverted: Invalid pool")
	}
	info := g.Pools[poolID]
	return contract.PoolInfo{
		StakingAsset: info.StakingAsset,
		RewardRate:   copyInt(info.RewardRate),
		LockDuration: copyInt(info.LockDuration),
		TotalStaked:  copyInt(info.TotalStaked),
		Active:       info.Active,
	}, nil
}

func (g *Gateway) GetUserStake(_ context.Context, account common.Address, poolID uint64) (contract.UserStake, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reads++
	if err := g.StakeErr[poolID]; err != nil {
		return contract.UserStake{}, err
	}
	stake, ok := g.Stakes[account][poolID]
	if !ok {
		return contract.UserStake{Amount: new(big.Int), LockEndTime: new(big.Int), PendingRewards: new(big.Int)}, nil
	}
	return contract.UserStake{
		Amount:         copyInt(stake.Amount),
		LockEndTime:    copyInt(stake.LockEndTime),
		PendingRewards: copyInt(stake.PendingRewards),
		Locked:         stake.Locked,
	}, nil
}

func (g *Gateway) PendingRewards(_ context.Context, account common.Address, poolID uint64) (*big.Int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reads++
	return copyInt(g.Rewards[account][poolID]), nil
}

func (g *Gateway) Owner(context.Context) (common.Address, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reads++
	if g.OwnerErr != nil {
		return common.Address{}, g.OwnerErr
	}
	return g.OwnerAddr, nil
}

func (g *Gateway) Stake(_ context.Context, poolID uint64, amount *big.Int) (*types.Transaction, error) {
	return g.submit(Call{Method: "stake", PoolID: poolID, Amount: copyInt(amount)})
}

func (g *Gateway) Unstake(_ context.Context, poolID uint64) (*types.Transaction, error) {
	return g.submit(Call{Method: "unstake", PoolID: poolID})
}

func (g *Gateway) ClaimRewards(_ context.Context, poolID uint64) (*types.Transaction, error) {
	return g.submit(Call{Method: "claimRewards", PoolID: poolID})
}

func (g *Gateway) CreatePool(_ context.Context, asset common.Address, rewardRate *big.Int, lockDuration *big.Int) (*types.Transaction, error) {
	return g.submit(Call{Method: "createPool", Asset: asset, RewardRate: copyInt(rewardRate), LockDuration: copyInt(lockDuration)})
}

func (g *Gateway) PausePool(_ context.Context, poolID uint64) (*types.Transaction, error) {
	return g.submit(Call{Method: "pausePool", PoolID: poolID})
}

func (g *Gateway) UnpausePool(_ context.Context, poolID uint64) (*types.Transaction, error) {
	return g.submit(Call{Method: "unpausePool", PoolID: poolID})
}

func (g *Gateway) WaitConfirmed(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	g.mu.Lock()
	gate := g.WaitGate
	g.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.WaitErr != nil {
		return nil, g.WaitErr
	}
	call, ok := g.pending[tx.Hash()]
	if !ok {
		return nil, fmt.Errorf("unknown transaction %s", tx.Hash().Hex())
	}
	delete(g.pending, tx.Hash())
	g.apply(call)
	return &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: tx.Hash()}, nil
}

func (g *Gateway) submit(call Call) (*types.Transaction, error) {
	g.mu.Lock()
	if g.SubmitErr != nil {
		err := g.SubmitErr
		g.mu.Unlock()
		return nil, err
	}
	g.calls = append(g.calls, call)
	g.nonce++
	tx := types.NewTx(&types.LegacyTx{Nonce: g.nonce, Gas: 21000, GasPrice: big.NewInt(1), Value: new(big.Int)})
	g.pending[tx.Hash()] = call
	submitted := g.Submitted
	g.mu.Unlock()

	if submitted != nil {
		submitted <- struct{}{}
	}
	return tx, nil
}

func (g *Gateway) apply(call Call) {
	switch call.Method {
	case "stake":
		if g.Stakes[g.Account] == nil {
			g.Stakes[g.Account] = make(map[uint64]contract.UserStake)
		}
		current := g.Stakes[g.Account][call.PoolID]
		amount := new(big.Int).Add(orZero(current.Amount), call.Amount)
		g.Stakes[g.Account][call.PoolID] = contract.UserStake{
			Amount:         amount,
			LockEndTime:    new(big.Int).SetUint64(g.LockEnd),
			PendingRewards: orZero(current.PendingRewards),
			Locked:         true,
		}
		if call.PoolID < uint64(len(g.Pools)) {
			pool := &g.Pools[call.PoolID]
			pool.TotalStaked = new(big.Int).Add(orZero(pool.TotalStaked), call.Amount)
		}
	case "unstake":
		current := g.Stakes[g.Account][call.PoolID]
		if call.PoolID < uint64(len(g.Pools)) {
			pool := &g.Pools[call.PoolID]
			pool.TotalStaked = new(big.Int).Sub(orZero(pool.TotalStaked), orZero(current.Amount))
		}
		delete(g.Stakes[g.Account], call.PoolID)
	case "claimRewards":
		if stake, ok := g.Stakes[g.Account][call.PoolID]; ok {
			stake.PendingRewards = new(big.Int)
			g.Stakes[g.Account][call.PoolID] = stake
		}
		delete(g.Rewards[g.Account], call.PoolID)
	case "createPool":
		g.Pools = append(g.Pools, contract.PoolInfo{
			StakingAsset: call.Asset,
			RewardRate:   call.RewardRate,
			LockDuration: call.LockDuration,
			TotalStaked:  new(big.Int),
			Active:       true,
		})
	case "pausePool":
		g.Pools[call.PoolID].Active = false
	case "unpausePool":
		g.Pools[call.PoolID].Active = true
	}
}

func copyInt(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

// Binder hands out a fixed gateway for a fixed chain.
type Binder struct {
	mu       sync.Mutex
	Chain    *big.Int
	Gateway  contract.Gateway
	ChainErr error
	BindErr  error
	binds    int
}

func (b *Binder) ChainID(context.Context) (*big.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ChainErr != nil {
		return nil, b.ChainErr
	}
	return new(big.Int).Set(b.Chain), nil
}

func (b *Binder) Bind(*bind.TransactOpts) (contract.Gateway, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.BindErr != nil {
		return nil, b.BindErr
	}
	b.binds++
	return b.Gateway, nil
}

// SetChain switches the chain the binder reports.
func (b *Binder) SetChain(id int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Chain = big.NewInt(id)
}

// Binds returns how many gateways were handed out.
func (b *Binder) Binds() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.binds
}
