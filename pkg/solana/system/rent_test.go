package system

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRent(t *testing.T) {
	assert.EqualValues(t, 3480, DefaultRent.LamportsPerByteYear)
	assert.Equal(t, 2.0, DefaultRent.ExemptionThreshold)
	assert.EqualValues(t, 50, DefaultRent.BurnPercent)

	assert.EqualValues(t, 890880, DefaultRent.MinimumBalance(0))
	assert.EqualValues(t, 953520, DefaultRent.MinimumBalance(9))
}

func TestRent_MinimumBalanceMonotonic(t *testing.T) {
	r := Rent{LamportsPerByteYear: 10, ExemptionThreshold: 1.5}
	var last uint64
	for size := uint64(0); size < 64; size++ {
		balance := r.MinimumBalance(size)
		assert.True(t, balance > last || size == 0)
		last = balance
	}
	assert.EqualValues(t, 1920, r.MinimumBalance(0))
}

func TestRent_RoundTrip(t *testing.T) {
	encoded := DefaultRent.Marshal()
	require.Len(t, encoded, RentSize)

	var actual Rent
	require.NoError(t, actual.Unmarshal(encoded))
	assert.Equal(t, DefaultRent, actual)

	assert.Equal(t, ErrInvalidRentSize, actual.Unmarshal(encoded[:RentSize-1]))
}
