package rate

import (
	"sync"

	"golang.org/x/time/rate"
)

// Limiter limits operations partitioned by key. RPC clients key on the
// method name so one chatty method cannot starve the others.
type Limiter interface {
	Allow(key string) bool
}

type localRateLimiter struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewLocalRateLimiter returns an in memory limiter allowing perSecond
// operations per key. The burst is the rounded up rate, with a floor of one.
func NewLocalRateLimiter(perSecond float64) Limiter {
	burst := int(perSecond)
	if float64(burst) < perSecond {
		burst++
	}
	if burst < 1 {
		burst = 1
	}

	return &localRateLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (l *localRateLimiter) Allow(key string) bool {
	l.mu.Lock()
	limiter, ok := l.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = limiter
	}
	l.mu.Unlock()

	return limiter.Allow()
}

// NoLimiter never limits operations.
type NoLimiter struct{}

func (NoLimiter) Allow(string) bool {
	return true
}

// FromRate returns a NoLimiter for non-positive rates, and a local limiter
// otherwise.
func FromRate(perSecond float64) Limiter {
	if perSecond <= 0 {
		return NoLimiter{}
	}
	return NewLocalRateLimiter(perSecond)
}
