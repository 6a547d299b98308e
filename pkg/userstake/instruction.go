package userstake

import (
	"crypto/ed25519"

	"github.com/code-payments/pda-provisioner/pkg/solana"
	"github.com/code-payments/pda-provisioner/pkg/solana/system"
)

// NewProvisionInstruction returns the instruction that provisions the
// requester's storage account. The requester pays for and signs it.
//
// Account references:
//  0. [WRITE, SIGNER] requester
//  1. [WRITE] derived storage
//  2. [] system program
func NewProvisionInstruction(program, requester ed25519.PublicKey) (solana.Instruction, error) {
	address, _, err := GetUserStakeAddress(&GetUserStakeAddressArgs{
		Program:   program,
		Requester: requester,
	})
	if err != nil {
		return solana.Instruction{}, err
	}

	return solana.NewInstruction(
		program,
		nil,
		solana.NewAccountMeta(requester, true),
		solana.NewAccountMeta(address, false),
		solana.NewReadonlyAccountMeta(system.SystemAccount, false),
	), nil
}
