package ledger

import (
	"context"
	"crypto/ed25519"

	"github.com/code-payments/pda-provisioner/pkg/solana"
	"github.com/code-payments/pda-provisioner/pkg/solana/system"
)

// AccountInfo is a program's handle to an account referenced by an
// instruction. Handles are shared: every reference to the same key within an
// instruction points at the same AccountInfo, and changes made through it are
// committed when the instruction succeeds.
type AccountInfo struct {
	Key        ed25519.PublicKey
	IsSigner   bool
	IsWritable bool

	Lamports   uint64
	Data       []byte
	Owner      ed25519.PublicKey
	Executable bool
}

// InvokeContext is everything a program sees when processing an instruction.
type InvokeContext struct {
	Program  ed25519.PublicKey
	Accounts []*AccountInfo
	Data     []byte
	Runtime  Runtime
}

// Runtime exposes the host services available to a program mid-instruction.
type Runtime interface {
	// CreateAccount creates newAccount with size zeroed bytes owned by owner,
	// funded with lamports from payer. The payer must have signed. The new
	// account must have signed, or be authorized by a proof that derives it
	// under the invoking program.
	//
	// Failures are reported as system program errors (solana.CustomError) or
	// solana.InstructionErrorKey values.
	CreateAccount(
		ctx context.Context,
		payer, newAccount *AccountInfo,
		lamports, size uint64,
		owner ed25519.PublicKey,
		proof *solana.DerivationProof,
	) error

	// Rent returns the current rent configuration.
	Rent(ctx context.Context) (system.Rent, error)
}

// Processor is an on-ledger program.
type Processor interface {
	Process(ctx context.Context, invoke InvokeContext) error
}

// ErrorTranslator is optionally implemented by a Processor to map its errors
// onto the host's instruction error taxonomy.
type ErrorTranslator interface {
	ToInstructionError(index int, err error) *solana.InstructionError
}

// ToAccountInfo returns the client visible view of a handle.
func (a *AccountInfo) ToAccountInfo() solana.AccountInfo {
	return solana.AccountInfo{
		Data:       append([]byte(nil), a.Data...),
		Owner:      append(ed25519.PublicKey(nil), a.Owner...),
		Lamports:   a.Lamports,
		Executable: a.Executable,
	}
}
