package userstake

import (
	"fmt"

	"github.com/code-payments/pda-provisioner/pkg/solana/binary"
)

const RecordSize = (1 + // is_initialized
	8) // balance

// Record is the state held in a requester's derived storage account.
type Record struct {
	IsInitialized bool
	Balance       uint64
}

// DefaultRecord is the state of freshly created, zero-filled storage.
func DefaultRecord() Record {
	return Record{}
}

func (r Record) Marshal() []byte {
	data := make([]byte, RecordSize)

	var offset int
	binary.PutBool(data[offset:], r.IsInitialized, &offset)
	binary.PutUint64(data[offset:], r.Balance, &offset)

	return data
}

// Unmarshal decodes exactly RecordSize bytes. A flag byte other than 0 or 1
// is rejected.
func (r *Record) Unmarshal(data []byte) error {
	if len(data) != RecordSize {
		return ErrInvalidAccountData
	}

	var offset int
	if !binary.GetBool(data[offset:], &r.IsInitialized, &offset) {
		return ErrInvalidAccountData
	}
	binary.GetUint64(data[offset:], &r.Balance, &offset)

	return nil
}

func (r Record) String() string {
	return fmt.Sprintf(
		"Record{is_initialized=%t,balance=%d}",
		r.IsInitialized,
		r.Balance,
	)
}
