package system

import (
	"github.com/code-payments/pda-provisioner/pkg/solana"
)

// Errors returned by the system program, encoded as custom program errors.
//
// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/program/src/system_instruction.rs#L15
const (
	ErrAccountAlreadyInUse        solana.CustomError = iota // an account with the same address already exists
	ErrResultWithNegativeLamports                           // account does not have enough lamports for the operation
	ErrInvalidProgramID                                     // cannot assign account to this program id
	ErrInvalidAccountDataLength                             // cannot allocate account data of this length
)
