package retry

import (
	"errors"
	"math/rand"
	"time"

	"github.com/code-payments/pda-provisioner/pkg/retry/backoff"
)

// Strategy decides whether a failed action is attempted again. Strategies may
// block, for example to back off.
type Strategy func(attempts uint, err error) bool

// Swapped out by tests.
var sleep = time.Sleep

// Limit stops retrying once maxAttempts attempts have been made, including
// the first.
func Limit(maxAttempts uint) Strategy {
	return func(attempts uint, _ error) bool {
		return attempts < maxAttempts
	}
}

// RetriableErrors only retries errors matching one of retriableErrors via
// errors.Is.
func RetriableErrors(retriableErrors ...error) Strategy {
	return func(_ uint, err error) bool {
		for _, retriable := range retriableErrors {
			if errors.Is(err, retriable) {
				return true
			}
		}
		return false
	}
}

// Backoff sleeps for the strategy's delay, capped at maxBackoff, before every
// retry.
func Backoff(strategy backoff.Strategy, maxBackoff time.Duration) Strategy {
	return func(attempts uint, _ error) bool {
		sleep(min(strategy(attempts), maxBackoff))
		return true
	}
}

// BackoffWithJitter is Backoff with the capped delay scaled by a random factor
// in [1-jitter, 1+jitter].
func BackoffWithJitter(strategy backoff.Strategy, maxBackoff time.Duration, jitter float64) Strategy {
	return func(attempts uint, _ error) bool {
		delay := min(strategy(attempts), maxBackoff)
		factor := 1 + jitter*(2*rand.Float64()-1)
		sleep(time.Duration(float64(delay) * factor))
		return true
	}
}
