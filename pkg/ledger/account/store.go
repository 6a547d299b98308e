package account

import (
	"context"

	"github.com/pkg/errors"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountExists   = errors.New("account already exists")
	ErrStaleVersion    = errors.New("account version is stale")
)

type Store interface {
	// Get returns the account at the provided address.
	//
	// Returns ErrAccountNotFound if no account exists.
	Get(ctx context.Context, address string) (*Record, error)

	// Create persists a new account. The record's Version is set to 1.
	//
	// Returns ErrAccountExists if an account already exists at the address.
	Create(ctx context.Context, record *Record) error

	// Update persists changes to an existing account, provided the record's
	// Version matches the stored version. The Version is advanced on success.
	//
	// Returns ErrStaleVersion if the record is outdated, and ErrAccountNotFound
	// if no account exists.
	Update(ctx context.Context, record *Record) error

	// Commit atomically persists a batch of records. New records are created
	// and existing ones are updated with the same semantics as Create and
	// Update. Either every record is written, or none are.
	Commit(ctx context.Context, records ...*Record) error

	// Count returns the total number of accounts.
	Count(ctx context.Context) (uint64, error)
}
