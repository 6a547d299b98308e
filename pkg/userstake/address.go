package userstake

import (
	"crypto/ed25519"

	"github.com/code-payments/pda-provisioner/pkg/solana"
)

type GetUserStakeAddressArgs struct {
	Program   ed25519.PublicKey
	Requester ed25519.PublicKey
}

// GetUserStakeAddress returns the canonical storage address and bump for a
// requester under the program.
func GetUserStakeAddress(args *GetUserStakeAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		args.Program,
		args.Requester,
	)
}

// NewDerivationProof returns the proof that authorizes the program to create
// the requester's storage account.
func NewDerivationProof(program, requester ed25519.PublicKey, bump uint8) solana.DerivationProof {
	return solana.NewDerivationProof(program, bump, requester)
}
