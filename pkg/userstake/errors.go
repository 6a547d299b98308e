package userstake

import (
	"github.com/pkg/errors"

	"github.com/code-payments/pda-provisioner/pkg/solana"
)

// ErrorCodeDerivationExhausted is the program error code reported when no
// bump yields a valid storage address.
const ErrorCodeDerivationExhausted = solana.CustomError(6000)

var (
	ErrMissingAccount            = errors.New("missing account")
	ErrWrongSystemProgram        = errors.New("wrong system program")
	ErrInvalidSeeds              = errors.New("supplied address does not match derived address")
	ErrAccountCreationFailed     = errors.New("account creation failed")
	ErrAccountAlreadyInitialized = errors.New("account already initialized")
	ErrDerivationExhausted       = solana.ErrDerivationExhausted
	ErrInvalidAccountData        = errors.New("invalid account data")
	ErrInvalidAccountOwner       = errors.New("account not owned by program")
)

// AccountCreationError carries the ledger's reason for refusing to create
// storage. It matches ErrAccountCreationFailed under errors.Is.
type AccountCreationError struct {
	Err error
}

func (e *AccountCreationError) Error() string {
	return ErrAccountCreationFailed.Error() + ": " + e.Err.Error()
}

func (e *AccountCreationError) Unwrap() error {
	return e.Err
}

func (e *AccountCreationError) Is(target error) bool {
	return target == ErrAccountCreationFailed
}

// ToInstructionError maps a provisioning error onto the host's instruction
// error taxonomy. Creation failures surface the ledger's error unchanged.
func ToInstructionError(index int, err error) *solana.InstructionError {
	if err == nil {
		return nil
	}

	var creationErr *AccountCreationError
	if errors.As(err, &creationErr) {
		if res, ok := solana.InstructionErrorFrom(index, creationErr.Err); ok {
			return res
		}
		return solana.NewInstructionError(index, solana.InstructionErrorGenericError)
	}

	switch errors.Cause(err) {
	case ErrMissingAccount:
		return solana.NewInstructionError(index, solana.InstructionErrorNotEnoughAccountKeys)
	case ErrWrongSystemProgram:
		return solana.NewInstructionError(index, solana.InstructionErrorIncorrectProgramID)
	case ErrInvalidSeeds:
		return solana.NewInstructionError(index, solana.InstructionErrorInvalidSeeds)
	case ErrAccountAlreadyInitialized:
		return solana.NewInstructionError(index, solana.InstructionErrorAccountAlreadyInitialized)
	case ErrDerivationExhausted:
		return solana.NewCustomInstructionError(index, ErrorCodeDerivationExhausted)
	case ErrInvalidAccountData:
		return solana.NewInstructionError(index, solana.InstructionErrorInvalidAccountData)
	case ErrInvalidAccountOwner:
		return solana.NewInstructionError(index, solana.InstructionErrorIncorrectProgramID)
	}

	if res, ok := solana.InstructionErrorFrom(index, err); ok {
		return res
	}
	return solana.NewInstructionError(index, solana.InstructionErrorGenericError)
}
