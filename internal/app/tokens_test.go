package app

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yieldLock/internal/contract"
)

const metadataABI = `[
  {"inputs": [], "name": "decimals", "outputs": [{"type": "uint8"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "symbol", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"}
]`

// symbolCaller knows the symbol of some tokens; calls for any other token
// revert.
type symbolCaller struct {
	parsed  abi.ABI
	symbols map[common.Address]string
}

func (c *symbolCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	symbol, ok := c.symbols[*msg.To]
	if !ok {
		return nil, errors.New("execution reverted")
	}
	method, err := c.parsed.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	if method.Name == "decimals" {
		return method.Outputs.Pack(uint8(18))
	}
	return method.Outputs.Pack(symbol)
}

func TestPoolViewsCarryAssetSymbols(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(metadataABI))
	require.NoError(t, err)
	caller := &symbolCaller{parsed: parsed, symbols: map[common.Address]string{
		common.HexToAddress("0xaaaa"): "LOCK",
	}}

	h := newHarness(t, func(d *Deps) {
		d.Tokens = contract.NewTokenResolver(caller, nil)
	})
	require.NoError(t, h.ctrl.Connect(context.Background()))

	view := h.ctrl.View()
	require.Len(t, view.Pools, 2)
	assert.Equal(t, "LOCK", view.Pools[0].AssetSymbol)
	assert.Empty(t, view.Pools[1].AssetSymbol)
	assert.Equal(t, common.HexToAddress("0xbbbb").Hex(), view.Pools[1].StakingAsset)
}
