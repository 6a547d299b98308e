package account

import (
	"bytes"
	"time"

	"github.com/pkg/errors"
)

// Record is the persisted state of a single ledger account. Addresses and
// owners are base58 encoded public keys.
type Record struct {
	Id uint64

	Address    string
	Owner      string
	Lamports   uint64
	Data       []byte
	Executable bool

	// Version is zero for records that have not yet been persisted, and is
	// advanced on every successful write.
	Version uint64

	CreatedAt time.Time
}

var errVersionForNewAccount = errors.New("new accounts must not have a version")

func (r *Record) Validate() error {
	if len(r.Address) == 0 {
		return errors.New("address is required")
	}

	if len(r.Owner) == 0 {
		return errors.New("owner is required")
	}

	return nil
}

// ValidateNew validates a record that is about to be created.
func (r *Record) ValidateNew() error {
	if err := r.Validate(); err != nil {
		return err
	}

	if !r.IsNew() {
		return errVersionForNewAccount
	}

	return nil
}

// IsNew reports whether the record has not yet been persisted.
func (r *Record) IsNew() bool {
	return r.Version == 0
}

func (r *Record) Clone() Record {
	return Record{
		Id:         r.Id,
		Address:    r.Address,
		Owner:      r.Owner,
		Lamports:   r.Lamports,
		Data:       cloneBytes(r.Data),
		Executable: r.Executable,
		Version:    r.Version,
		CreatedAt:  r.CreatedAt,
	}
}

func (r *Record) CopyTo(dst *Record) {
	dst.Id = r.Id
	dst.Address = r.Address
	dst.Owner = r.Owner
	dst.Lamports = r.Lamports
	dst.Data = cloneBytes(r.Data)
	dst.Executable = r.Executable
	dst.Version = r.Version
	dst.CreatedAt = r.CreatedAt
}

// Equal compares the account state, ignoring persistence metadata.
func (r *Record) Equal(other *Record) bool {
	return r.Address == other.Address &&
		r.Owner == other.Owner &&
		r.Lamports == other.Lamports &&
		bytes.Equal(r.Data, other.Data) &&
		r.Executable == other.Executable
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte{}, b...)
}
