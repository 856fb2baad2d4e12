package model

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStakeUnlockedBoundary(t *testing.T) {
	const lockEnd = 1_700_000_000
	stake := Stake{Amount: big.NewInt(1), LockEndTime: lockEnd}

	assert.False(t, stake.UnlockedAt(time.Unix(lockEnd-1, 0)))
	assert.True(t, stake.UnlockedAt(time.Unix(lockEnd, 0)))
	assert.True(t, stake.UnlockedAt(time.Unix(lockEnd+1, 0)))
}

func TestStakeIsEmpty(t *testing.T) {
	assert.True(t, Stake{}.IsEmpty())
	assert.True(t, Stake{Amount: big.NewInt(0)}.IsEmpty())
	assert.False(t, Stake{Amount: big.NewInt(5)}.IsEmpty())
}

func TestTxKindAdminOnly(t *testing.T) {
	assert.True(t, TxCreatePool.AdminOnly())
	assert.True(t, TxPause.AdminOnly())
	assert.True(t, TxUnpause.AdminOnly())
	assert.False(t, TxStake.AdminOnly())
	assert.False(t, TxClaim.AdminOnly())
}
