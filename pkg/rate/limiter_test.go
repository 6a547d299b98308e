package rate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoLimiter(t *testing.T) {
	var l Limiter = NoLimiter{}
	for i := 0; i < 1000; i++ {
		assert.True(t, l.Allow("getAccountInfo"))
	}
}

func TestLocalRateLimiter_PartitionsByKey(t *testing.T) {
	l := NewLocalRateLimiter(2)

	assert.True(t, l.Allow("getAccountInfo"))
	assert.True(t, l.Allow("getAccountInfo"))
	assert.False(t, l.Allow("getAccountInfo"))

	assert.True(t, l.Allow("getBalance"))
	assert.True(t, l.Allow("getBalance"))
	assert.False(t, l.Allow("getBalance"))
}

func TestLocalRateLimiter_FractionalRate(t *testing.T) {
	l := NewLocalRateLimiter(0.5)

	assert.True(t, l.Allow("requestAirdrop"))
	assert.False(t, l.Allow("requestAirdrop"))
}

func TestFromRate(t *testing.T) {
	assert.IsType(t, NoLimiter{}, FromRate(0))
	assert.IsType(t, NoLimiter{}, FromRate(-1))

	l := FromRate(1)
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
}
