package system

import (
	"github.com/pkg/errors"

	"github.com/code-payments/pda-provisioner/pkg/solana/binary"
)

const (
	// RentSize is the encoded size of the Rent sysvar.
	RentSize = 8 + 8 + 1

	// AccountStorageOverhead is the number of bytes charged on top of every
	// account's data.
	AccountStorageOverhead = 128
)

var ErrInvalidRentSize = errors.New("invalid rent sysvar size")

// DefaultRent is the genesis rent configuration.
//
// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/program/src/rent.rs#L27-L40
var DefaultRent = Rent{
	LamportsPerByteYear: 1_000_000_000 / 100 * 365 / (1024 * 1024),
	ExemptionThreshold:  2.0,
	BurnPercent:         50,
}

// Rent is the content of the Rent sysvar.
type Rent struct {
	LamportsPerByteYear uint64
	ExemptionThreshold  float64
	BurnPercent         uint8
}

// MinimumBalance returns the number of lamports an account of the provided
// data size must hold to be rent exempt.
func (r Rent) MinimumBalance(size uint64) uint64 {
	bytes := AccountStorageOverhead + size
	return uint64(float64(bytes*r.LamportsPerByteYear) * r.ExemptionThreshold)
}

func (r Rent) Marshal() []byte {
	res := make([]byte, RentSize)

	var offset int
	binary.PutUint64(res[offset:], r.LamportsPerByteYear, &offset)
	binary.PutFloat64(res[offset:], r.ExemptionThreshold, &offset)
	binary.PutUint8(res[offset:], r.BurnPercent, &offset)

	return res
}

func (r *Rent) Unmarshal(data []byte) error {
	if len(data) != RentSize {
		return ErrInvalidRentSize
	}

	var offset int
	binary.GetUint64(data[offset:], &r.LamportsPerByteYear, &offset)
	binary.GetFloat64(data[offset:], &r.ExemptionThreshold, &offset)
	binary.GetUint8(data[offset:], &r.BurnPercent, &offset)

	return nil
}
