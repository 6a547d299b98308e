package sync

import (
	"encoding/binary"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
	"github.com/spaolacci/murmur3"
)

// ring consistently maps keys onto stripe indexes. Each stripe owns several
// points on the ring to even out the distribution.
type ring struct {
	points *treemap.Map

	// Cached since treemap.Map.Min() is O(log n). Keys hashing past the
	// last point wrap around to it.
	first int
}

func newRing(stripes, pointsPerStripe uint) *ring {
	points := treemap.NewWith(utils.Int64Comparator)

	var seed [12]byte
	for stripe := uint(0); stripe < stripes; stripe++ {
		binary.LittleEndian.PutUint64(seed[:8], uint64(stripe))
		for i := uint(0); i < pointsPerStripe; i++ {
			binary.LittleEndian.PutUint32(seed[8:], uint32(i))
			points.Put(hash64(seed[:]), int(stripe))
		}
	}

	r := &ring{points: points}
	if _, first := points.Min(); first != nil {
		r.first = first.(int)
	}
	return r
}

func (r *ring) stripe(key []byte) int {
	if _, stripe := r.points.Ceiling(hash64(key)); stripe != nil {
		return stripe.(int)
	}
	return r.first
}

func hash64(b []byte) int64 {
	h, _ := murmur3.Sum128(b)
	return int64(h)
}
