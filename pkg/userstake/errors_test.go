package userstake

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/pda-provisioner/pkg/solana"
	"github.com/code-payments/pda-provisioner/pkg/solana/system"
)

func TestToInstructionError(t *testing.T) {
	for _, tc := range []struct {
		err      error
		expected solana.InstructionErrorKey
	}{
		{ErrMissingAccount, solana.InstructionErrorNotEnoughAccountKeys},
		{ErrWrongSystemProgram, solana.InstructionErrorIncorrectProgramID},
		{ErrInvalidSeeds, solana.InstructionErrorInvalidSeeds},
		{ErrAccountAlreadyInitialized, solana.InstructionErrorAccountAlreadyInitialized},
		{ErrInvalidAccountData, solana.InstructionErrorInvalidAccountData},
		{ErrInvalidAccountOwner, solana.InstructionErrorIncorrectProgramID},
		{errors.Wrap(ErrInvalidSeeds, "wrapped"), solana.InstructionErrorInvalidSeeds},
		{&AccountCreationError{Err: solana.InstructionErrorMissingRequiredSignature}, solana.InstructionErrorMissingRequiredSignature},
		{&AccountCreationError{Err: errors.New("opaque")}, solana.InstructionErrorGenericError},
		{solana.InstructionErrorPrivilegeEscalation, solana.InstructionErrorPrivilegeEscalation},
		{errors.New("opaque"), solana.InstructionErrorGenericError},
	} {
		actual := ToInstructionError(1, tc.err)
		require.NotNil(t, actual, tc.err.Error())
		assert.Equal(t, 1, actual.Index)
		assert.Equal(t, tc.expected, actual.ErrorKey(), tc.err.Error())
	}

	assert.Nil(t, ToInstructionError(0, nil))
}

func TestToInstructionError_CustomCodes(t *testing.T) {
	actual := ToInstructionError(0, ErrDerivationExhausted)
	require.NotNil(t, actual.CustomError())
	assert.Equal(t, ErrorCodeDerivationExhausted, *actual.CustomError())

	actual = ToInstructionError(0, &AccountCreationError{Err: system.ErrAccountAlreadyInUse})
	require.NotNil(t, actual.CustomError())
	assert.Equal(t, system.ErrAccountAlreadyInUse, *actual.CustomError())

	actual = ToInstructionError(0, &AccountCreationError{Err: system.ErrResultWithNegativeLamports})
	require.NotNil(t, actual.CustomError())
	assert.Equal(t, system.ErrResultWithNegativeLamports, *actual.CustomError())
}

func TestAccountCreationError(t *testing.T) {
	err := error(&AccountCreationError{Err: system.ErrAccountAlreadyInUse})
	assert.True(t, errors.Is(err, ErrAccountCreationFailed))
	assert.True(t, errors.Is(err, system.ErrAccountAlreadyInUse))
	assert.False(t, errors.Is(err, ErrInvalidSeeds))
	assert.Contains(t, err.Error(), ErrAccountCreationFailed.Error())
}
