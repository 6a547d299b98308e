package sync

import (
	"sort"
	base "sync"
)

const pointsPerStripe = 200

// StripedLock is a partitioned locking mechanism that consistently maps a key
// space to a set of locks. This provides concurrent data access while also
// limiting the total memory footprint.
type StripedLock struct {
	locks []base.RWMutex
	ring  *ring
}

// NewStripedLock returns a new StripedLock with a static number of stripes.
func NewStripedLock(stripes uint) *StripedLock {
	return &StripedLock{
		locks: make([]base.RWMutex, stripes),
		ring:  newRing(stripes, pointsPerStripe),
	}
}

// Get gets the lock for a key
func (l *StripedLock) Get(key []byte) *base.RWMutex {
	return &l.locks[l.stripe(key)]
}

// LockAll acquires the write lock for every provided key and returns a func
// that releases them. Stripes are acquired once each, in ascending order, so
// that overlapping key sets never deadlock against each other.
func (l *StripedLock) LockAll(keys ...[]byte) (unlock func()) {
	seen := make(map[int]struct{})
	var stripes []int
	for _, key := range keys {
		stripe := l.stripe(key)
		if _, ok := seen[stripe]; ok {
			continue
		}
		seen[stripe] = struct{}{}
		stripes = append(stripes, stripe)
	}
	sort.Ints(stripes)

	for _, stripe := range stripes {
		l.locks[stripe].Lock()
	}

	return func() {
		for i := len(stripes) - 1; i >= 0; i-- {
			l.locks[stripes[i]].Unlock()
		}
	}
}

func (l *StripedLock) stripe(key []byte) int {
	return l.ring.stripe(key)
}
