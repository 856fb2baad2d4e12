package poolstate

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"yieldLock/internal/contract"
	"yieldLock/internal/model"
)

// Synchronizer pulls pool and stake state from the contract into a
// read-through cache. Each refresh replaces its slice of the cache
// wholesale, and only when every read in it succeeded.
type Synchronizer struct {
	logger *zap.Logger

	mu         sync.RWMutex
	generation uint64
	pools      []model.Pool
	stakes     []model.Stake
	stakeOwner common.Address
	rewards    map[uint64]*big.Int
	// bound, when set, is the only account whose stakes may be cached.
	bound common.Address
}

func NewSynchronizer(logger *zap.Logger) *Synchronizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synchronizer{
		logger:  logger,
		rewards: make(map[uint64]*big.Int),
	}
}

// Generation identifies the current cache lifetime.
func (s *Synchronizer) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Invalidate drops all cached data and any account binding. Refreshes that
// started before the call are discarded when they complete.
func (s *Synchronizer) Invalidate() {
	s.mu.Lock()
	s.reset(common.Address{})
	s.mu.Unlock()
}

// Bind drops all cached data and dedicates the cache to account. Until the
// next Invalidate or Bind, stake and reward refreshes for any other account
// fail with ErrStale, whenever they started.
func (s *Synchronizer) Bind(account common.Address) {
	s.mu.Lock()
	s.reset(account)
	s.mu.Unlock()
}

func (s *Synchronizer) reset(account common.Address) {
	s.generation++
	s.pools = nil
	s.stakes = nil
	s.stakeOwner = common.Address{}
	s.rewards = make(map[uint64]*big.Int)
	s.bound = account
}

// RefreshPools reads every pool in ascending id order. On any failure the
// previous cache is kept.
func (s *Synchronizer) RefreshPools(ctx context.Context, reader contract.Reader) ([]model.Pool, error) {
	gen := s.Generation()

	count, err := reader.GetPoolCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("get pool count: %w", err)
	}

	pools := make([]model.Pool, 0, count)
	for id := uint64(0); id < count; id++ {
		info, err := reader.GetPoolInfo(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get pool info %d: %w", id, err)
		}
		if info.LockDuration == nil || !info.LockDuration.IsUint64() {
			return nil, fmt.Errorf("pool %d lock duration out of range", id)
		}
		pools = append(pools, model.Pool{
			ID:           id,
			StakingAsset: info.StakingAsset,
			RewardRate:   info.RewardRate,
			LockDuration: info.LockDuration.Uint64(),
			TotalStaked:  info.TotalStaked,
			Active:       info.Active,
		})
	}

	if !s.commit(gen, func() bool {
		s.pools = pools
		return true
	}) {
		s.logger.Debug("discard stale pool refresh", zap.Uint64("generation", gen))
		return nil, ErrStale
	}
	s.logger.Debug("pools refreshed", zap.Int("pools", len(pools)))
	return clonePools(pools), nil
}

// RefreshStakes reads account's stake in every pool. Zero-amount records are
// dropped. On any failure the previous cache is kept.
func (s *Synchronizer) RefreshStakes(ctx context.Context, reader contract.Reader, account common.Address) ([]model.Stake, error) {
	gen := s.Generation()

	count, err := reader.GetPoolCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("get pool count: %w", err)
	}

	stakes := make([]model.Stake, 0)
	for id := uint64(0); id < count; id++ {
		raw, err := reader.GetUserStake(ctx, account, id)
		if err != nil {
			return nil, fmt.Errorf("get user stake %d: %w", id, err)
		}
		if raw.Amount == nil || raw.Amount.Sign() <= 0 {
			continue
		}
		if raw.LockEndTime == nil || !raw.LockEndTime.IsUint64() {
			return nil, fmt.Errorf("stake %d lock end out of range", id)
		}
		stakes = append(stakes, model.Stake{
			Owner:          account,
			PoolID:         id,
			Amount:         raw.Amount,
			LockEndTime:    raw.LockEndTime.Uint64(),
			PendingRewards: raw.PendingRewards,
			Locked:         raw.Locked,
		})
	}

	if !s.commitFor(gen, account, func() {
		s.stakes = stakes
		s.stakeOwner = account
		s.rewards = make(map[uint64]*big.Int)
	}) {
		s.logger.Debug("discard stale stake refresh", zap.Uint64("generation", gen))
		return nil, ErrStale
	}
	s.logger.Debug("stakes refreshed", zap.String("account", account.Hex()), zap.Int("stakes", len(stakes)))
	return append([]model.Stake(nil), stakes...), nil
}

// RefreshPendingRewards reads pendingRewards for every pool. Results
// overlay the stake records at render time.
func (s *Synchronizer) RefreshPendingRewards(ctx context.Context, reader contract.Reader, account common.Address) (map[uint64]*big.Int, error) {
	gen := s.Generation()

	count, err := reader.GetPoolCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("get pool count: %w", err)
	}

	rewards := make(map[uint64]*big.Int, count)
	for id := uint64(0); id < count; id++ {
		amount, err := reader.PendingRewards(ctx, account, id)
		if err != nil {
			return nil, fmt.Errorf("pending rewards %d: %w", id, err)
		}
		rewards[id] = amount
	}

	if !s.commitFor(gen, account, func() {
		if s.stakeOwner == account {
			s.rewards = rewards
		}
	}) {
		return nil, ErrStale
	}
	return rewards, nil
}

// Pools returns the cached pools in id order.
func (s *Synchronizer) Pools() []model.Pool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePools(s.pools)
}

// PoolCount returns the number of cached pools.
func (s *Synchronizer) PoolCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pools)
}

// Stakes returns the cached non-empty stakes and the polled rewards overlay.
func (s *Synchronizer) Stakes() ([]model.Stake, map[uint64]*big.Int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rewards := make(map[uint64]*big.Int, len(s.rewards))
	for k, v := range s.rewards {
		rewards[k] = v
	}
	return append([]model.Stake(nil), s.stakes...), rewards
}

func (s *Synchronizer) commit(gen uint64, apply func() bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return false
	}
	return apply()
}

// commitFor is commit restricted to the bound account.
func (s *Synchronizer) commitFor(gen uint64, account common.Address, apply func()) bool {
	return s.commit(gen, func() bool {
		if s.bound != (common.Address{}) && s.bound != account {
			return false
		}
		apply()
		return true
	})
}

func clonePools(pools []model.Pool) []model.Pool {
	if pools == nil {
		return nil
	}
	return append([]model.Pool(nil), pools...)
}
