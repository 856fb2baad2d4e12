package events

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitRange(t *testing.T) {
	got, err := SplitRange(100, 105, 2)
	require.NoError(t, err)
	assert.Equal(t, []BlockRange{
		{From: 100, To: 101},
		{From: 102, To: 103},
		{From: 104, To: 105},
	}, got)
}

func TestSplitRangeSingle(t *testing.T) {
	got, err := SplitRange(5, 5, 10)
	require.NoError(t, err)
	assert.Equal(t, []BlockRange{{From: 5, To: 5}}, got)
}

func TestSplitRangeUneven(t *testing.T) {
	got, err := SplitRange(0, 4, 3)
	require.NoError(t, err)
	assert.Equal(t, []BlockRange{{From: 0, To: 2}, {From: 3, To: 4}}, got)
}

func TestSplitRangeTopOfRange(t *testing.T) {
	got, err := SplitRange(math.MaxUint64-1, math.MaxUint64, 5)
	require.NoError(t, err)
	assert.Equal(t, []BlockRange{{From: math.MaxUint64 - 1, To: math.MaxUint64}}, got)
}

func TestSplitRangeInvalid(t *testing.T) {
	_, err := SplitRange(10, 9, 1)
	assert.Error(t, err)
	_, err = SplitRange(1, 10, 0)
	assert.Error(t, err)
}
