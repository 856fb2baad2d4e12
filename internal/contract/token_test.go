package contract

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tokenCaller answers ERC20 metadata calls; bytes32Symbol switches symbol()
// to the legacy bytes32 encoding.
type tokenCaller struct {
	t             *testing.T
	symbol        string
	bytes32Symbol bool
	calls         int
	fail          bool
}

func (c *tokenCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	c.calls++
	if c.fail {
		return nil, errors.New("execution reverted")
	}
	stringABI, err := erc20ABIStringInstance()
	require.NoError(c.t, err)

	method, err := stringABI.MethodById(msg.Data[:4])
	require.NoError(c.t, err)
	switch method.Name {
	case "decimals":
		return method.Outputs.Pack(uint8(18))
	case "symbol":
		if c.bytes32Symbol {
			var raw [32]byte
			copy(raw[:], c.symbol)
			bytes32ABI, err := erc20ABIBytes32Instance()
			require.NoError(c.t, err)
			return bytes32ABI.Methods["symbol"].Outputs.Pack(raw)
		}
		return method.Outputs.Pack(c.symbol)
	}
	return nil, errors.New("unexpected method")
}

func TestTokenResolverCaches(t *testing.T) {
	caller := &tokenCaller{t: t, symbol: "YLP"}
	r := NewTokenResolver(caller, nil)
	token := common.HexToAddress("0xaaaa")

	_, ok := r.Lookup(token)
	assert.False(t, ok)

	meta, err := r.Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "YLP", meta.Symbol)
	assert.Equal(t, uint8(18), meta.Decimals)
	calls := caller.calls

	_, err = r.Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, calls, caller.calls)

	cached, ok := r.Lookup(token)
	require.True(t, ok)
	assert.Equal(t, meta, cached)
}

func TestTokenResolverBytes32Symbol(t *testing.T) {
	caller := &tokenCaller{t: t, symbol: "MKR", bytes32Symbol: true}
	meta, err := NewTokenResolver(caller, nil).Resolve(context.Background(), common.HexToAddress("0xbbbb"))
	require.NoError(t, err)
	assert.Equal(t, "MKR", meta.Symbol)
}

func TestTokenResolverFailureNotCached(t *testing.T) {
	caller := &tokenCaller{t: t, fail: true}
	r := NewTokenResolver(caller, nil)
	_, err := r.Resolve(context.Background(), common.HexToAddress("0xcccc"))
	require.Error(t, err)
	_, ok := r.Lookup(common.HexToAddress("0xcccc"))
	assert.False(t, ok)
}
