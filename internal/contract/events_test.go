package contract

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventDecoderStaked(t *testing.T) {
	parsed, err := YieldLockABI()
	require.NoError(t, err)
	decoder, err := NewEventDecoder()
	require.NoError(t, err)

	user := common.HexToAddress("0x3333333333333333333333333333333333333333")
	data, err := parsed.Events["Staked"].Inputs.NonIndexed().Pack(big.NewInt(1500))
	require.NoError(t, err)

	log := types.Log{
		Topics: []common.Hash{
			parsed.Events["Staked"].ID,
			common.BytesToHash(user.Bytes()),
			common.BigToHash(big.NewInt(3)),
		},
		Data:        data,
		BlockNumber: 77,
		TxHash:      common.HexToHash("0xabc"),
		Index:       2,
	}

	require.True(t, decoder.CanDecode(log.Topics[0]))
	ev, err := decoder.Decode(log)
	require.NoError(t, err)
	assert.Equal(t, "Staked", ev.Name)
	assert.Equal(t, user, ev.User)
	assert.Equal(t, uint64(3), ev.PoolID)
	assert.Equal(t, "1500", ev.Amount.String())
	assert.Equal(t, uint64(77), ev.BlockNumber)
	assert.True(t, ev.Touches(user))
	assert.False(t, ev.Touches(common.HexToAddress("0x4444444444444444444444444444444444444444")))
}

func TestEventDecoderPoolCreated(t *testing.T) {
	parsed, err := YieldLockABI()
	require.NoError(t, err)
	decoder, err := NewEventDecoder()
	require.NoError(t, err)

	asset := common.HexToAddress("0x1111111111111111111111111111111111111111")
	data, err := parsed.Events["PoolCreated"].Inputs.NonIndexed().Pack(asset, big.NewInt(100), big.NewInt(864000))
	require.NoError(t, err)

	ev, err := decoder.Decode(types.Log{
		Topics: []common.Hash{parsed.Events["PoolCreated"].ID, common.BigToHash(big.NewInt(2))},
		Data:   data,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), ev.PoolID)
	require.NotNil(t, ev.PoolCreated)
	assert.Equal(t, asset, ev.PoolCreated.StakingAsset)
	assert.Equal(t, uint64(864000), ev.PoolCreated.LockDuration)
	assert.True(t, ev.Touches(common.Address{}))
}

func TestEventDecoderRejectsUnknown(t *testing.T) {
	decoder, err := NewEventDecoder()
	require.NoError(t, err)

	_, err = decoder.Decode(types.Log{Topics: []common.Hash{common.HexToHash("0x01")}})
	require.Error(t, err)
	_, err = decoder.Decode(types.Log{})
	require.Error(t, err)
	assert.Len(t, decoder.Topics(), 4)
}
