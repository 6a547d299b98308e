package retry

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/code-payments/pda-provisioner/pkg/retry/backoff"
)

func TestRetrier(t *testing.T) {
	retriableErr := errors.New("retriable")
	r := NewRetrier(Limit(4), RetriableErrors(retriableErr))

	attempts, err := r.Retry(func() error { return nil })
	assert.NoError(t, err)
	assert.EqualValues(t, 1, attempts)

	attempts, err = r.Retry(func() error { return errors.New("unknown") })
	assert.Error(t, err)
	assert.EqualValues(t, 1, attempts)

	attempts, err = r.Retry(func() error { return retriableErr })
	assert.Equal(t, retriableErr, err)
	assert.EqualValues(t, 4, attempts)

	var calls int
	attempts, err = r.Retry(func() error {
		calls++
		if calls < 3 {
			return retriableErr
		}
		return nil
	})
	assert.NoError(t, err)
	assert.EqualValues(t, 3, attempts)
}

func TestRetry_Backoff(t *testing.T) {
	ts := useTestSleeper(t)

	n, err := Retry(func() error { return errors.New("err") },
		Limit(3),
		Backoff(backoff.Constant(500*time.Millisecond), 200*time.Millisecond),
	)
	assert.Error(t, err)
	assert.EqualValues(t, 3, n)
	assert.Equal(t, []time.Duration{200 * time.Millisecond, 200 * time.Millisecond}, ts.sleepTimes)
}
