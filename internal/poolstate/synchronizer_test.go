package poolstate

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yieldLock/internal/contract"
	"yieldLock/internal/contract/contracttest"
)

var user = common.HexToAddress("0x1111111111111111111111111111111111111111")

func seededGateway() *contracttest.Gateway {
	gw := contracttest.New(user)
	gw.AddPool(contract.PoolInfo{
		StakingAsset: common.HexToAddress("0xaaaa"),
		RewardRate:   big.NewInt(100),
		LockDuration: big.NewInt(864000),
		TotalStaked:  big.NewInt(1000),
		Active:       true,
	})
	gw.AddPool(contract.PoolInfo{
		StakingAsset: common.HexToAddress("0xbbbb"),
		RewardRate:   big.NewInt(5),
		LockDuration: big.NewInt(86400),
		TotalStaked:  big.NewInt(0),
		Active:       false,
	})
	return gw
}

func TestRefreshPoolsOrderedAndComplete(t *testing.T) {
	gw := seededGateway()
	s := NewSynchronizer(nil)

	pools, err := s.RefreshPools(context.Background(), gw)
	require.NoError(t, err)
	require.Len(t, pools, 2)
	for i, pool := range pools {
		assert.Equal(t, uint64(i), pool.ID)
	}
	assert.Equal(t, common.HexToAddress("0xaaaa"), pools[0].StakingAsset)
	assert.Equal(t, "100", pools[0].RewardRate.String())
	assert.Equal(t, uint64(864000), pools[0].LockDuration)
	assert.Equal(t, "1000", pools[0].TotalStaked.String())
	assert.True(t, pools[0].Active)
	assert.False(t, pools[1].Active)
	assert.Equal(t, pools, s.Pools())
}

func TestRefreshPoolsKeepsCacheOnPartialFailure(t *testing.T) {
	gw := seededGateway()
	s := NewSynchronizer(nil)
	_, err := s.RefreshPools(context.Background(), gw)
	require.NoError(t, err)
	before := s.Pools()

	gw.AddPool(contract.PoolInfo{RewardRate: big.NewInt(1), LockDuration: big.NewInt(1), TotalStaked: big.NewInt(1)})
	gw.PoolInfoErr[1] = errors.New("rpc timeout")

	_, err = s.RefreshPools(context.Background(), gw)
	require.Error(t, err)
	assert.Equal(t, before, s.Pools())

	gw.CountErr = errors.New("rpc down")
	_, err = s.RefreshPools(context.Background(), gw)
	require.Error(t, err)
	assert.Equal(t, before, s.Pools())
}

func TestRefreshStakesFiltersZeroAmounts(t *testing.T) {
	gw := seededGateway()
	gw.SetStake(user, 0, contract.UserStake{Amount: big.NewInt(0), LockEndTime: big.NewInt(0), PendingRewards: big.NewInt(0)})
	gw.SetStake(user, 1, contract.UserStake{Amount: big.NewInt(15), LockEndTime: big.NewInt(1_700_000_000), PendingRewards: big.NewInt(2), Locked: true})
	s := NewSynchronizer(nil)

	stakes, err := s.RefreshStakes(context.Background(), gw, user)
	require.NoError(t, err)
	require.Len(t, stakes, 1)
	assert.Equal(t, uint64(1), stakes[0].PoolID)
	assert.Equal(t, user, stakes[0].Owner)
	assert.Equal(t, uint64(1_700_000_000), stakes[0].LockEndTime)
	assert.True(t, stakes[0].Locked)

	cached, _ := s.Stakes()
	assert.Equal(t, stakes, cached)
}

func TestRefreshStakesKeepsCacheOnFailure(t *testing.T) {
	gw := seededGateway()
	gw.SetStake(user, 0, contract.UserStake{Amount: big.NewInt(3), LockEndTime: big.NewInt(1), PendingRewards: big.NewInt(0)})
	s := NewSynchronizer(nil)
	_, err := s.RefreshStakes(context.Background(), gw, user)
	require.NoError(t, err)

	gw.StakeErr[1] = errors.New("boom")
	_, err = s.RefreshStakes(context.Background(), gw, user)
	require.Error(t, err)

	cached, _ := s.Stakes()
	require.Len(t, cached, 1)
	assert.Equal(t, "3", cached[0].Amount.String())
}

func TestRefreshPendingRewardsOverlay(t *testing.T) {
	gw := seededGateway()
	gw.SetStake(user, 0, contract.UserStake{Amount: big.NewInt(3), LockEndTime: big.NewInt(1), PendingRewards: big.NewInt(1)})
	gw.SetReward(user, 0, big.NewInt(9))
	s := NewSynchronizer(nil)

	_, err := s.RefreshStakes(context.Background(), gw, user)
	require.NoError(t, err)
	_, err = s.RefreshPendingRewards(context.Background(), gw, user)
	require.NoError(t, err)

	_, rewards := s.Stakes()
	assert.Equal(t, "9", rewards[0].String())
	assert.Equal(t, "0", rewards[1].String())

	// a fresh stake read resets the overlay
	_, err = s.RefreshStakes(context.Background(), gw, user)
	require.NoError(t, err)
	_, rewards = s.Stakes()
	assert.Empty(t, rewards)
}

// invalidatingReader invalidates the cache mid-refresh.
type invalidatingReader struct {
	*contracttest.Gateway
	sync *Synchronizer
}

func (r invalidatingReader) GetPoolInfo(ctx context.Context, poolID uint64) (contract.PoolInfo, error) {
	r.sync.Invalidate()
	return r.Gateway.GetPoolInfo(ctx, poolID)
}

func TestInvalidateDiscardsInFlightRefresh(t *testing.T) {
	gw := seededGateway()
	s := NewSynchronizer(nil)

	_, err := s.RefreshPools(context.Background(), invalidatingReader{Gateway: gw, sync: s})
	require.ErrorIs(t, err, ErrStale)
	assert.Empty(t, s.Pools())
	assert.Equal(t, 0, s.PoolCount())
}

// rebindingReader binds the cache to another account mid-refresh, the way
// an account switch lands while an older refresh is still reading.
type rebindingReader struct {
	*contracttest.Gateway
	sync *Synchronizer
	to   common.Address
}

func (r rebindingReader) GetUserStake(ctx context.Context, account common.Address, poolID uint64) (contract.UserStake, error) {
	if poolID == 0 {
		r.sync.Bind(r.to)
	}
	return r.Gateway.GetUserStake(ctx, account, poolID)
}

func TestBoundCacheRejectsOtherAccountStakes(t *testing.T) {
	other := common.HexToAddress("0x2222222222222222222222222222222222222222")
	gw := seededGateway()
	gw.SetStake(user, 0, contract.UserStake{Amount: big.NewInt(7), LockEndTime: big.NewInt(1), PendingRewards: big.NewInt(0)})
	gw.SetReward(user, 0, big.NewInt(3))
	s := NewSynchronizer(nil)
	s.Bind(other)

	// Started after the bind: the generation matches, the account does not.
	_, err := s.RefreshStakes(context.Background(), gw, user)
	require.ErrorIs(t, err, ErrStale)
	_, err = s.RefreshPendingRewards(context.Background(), gw, user)
	require.ErrorIs(t, err, ErrStale)
	stakes, rewards := s.Stakes()
	assert.Empty(t, stakes)
	assert.Empty(t, rewards)

	stakes, err = s.RefreshStakes(context.Background(), gw, other)
	require.NoError(t, err)
	assert.Empty(t, stakes)

	s.Invalidate()
	stakes, err = s.RefreshStakes(context.Background(), gw, user)
	require.NoError(t, err)
	require.Len(t, stakes, 1)
}

func TestRebindDuringRefreshDiscardsOldAccount(t *testing.T) {
	other := common.HexToAddress("0x2222222222222222222222222222222222222222")
	gw := seededGateway()
	gw.SetStake(user, 0, contract.UserStake{Amount: big.NewInt(7), LockEndTime: big.NewInt(1), PendingRewards: big.NewInt(0)})
	s := NewSynchronizer(nil)
	s.Bind(user)

	_, err := s.RefreshStakes(context.Background(), rebindingReader{Gateway: gw, sync: s, to: other}, user)
	require.ErrorIs(t, err, ErrStale)
	stakes, _ := s.Stakes()
	assert.Empty(t, stakes)
}
