package ledger

import (
	"context"

	"github.com/code-payments/pda-provisioner/pkg/solana"
	"github.com/code-payments/pda-provisioner/pkg/solana/system"
)

// systemProgram handles instructions sent directly to the system program.
// Only CreateAccount is supported.
type systemProgram struct{}

func (systemProgram) Process(ctx context.Context, invoke InvokeContext) error {
	metas := make([]solana.AccountMeta, len(invoke.Accounts))
	for i, a := range invoke.Accounts {
		metas[i] = solana.AccountMeta{
			PublicKey:  a.Key,
			IsSigner:   a.IsSigner,
			IsWritable: a.IsWritable,
		}
	}

	decoded, err := system.DecodeCreateAccount(solana.NewInstruction(invoke.Program, invoke.Data, metas...))
	switch {
	case err == solana.ErrIncorrectInstruction:
		return solana.InstructionErrorInvalidInstructionData
	case err != nil && len(invoke.Accounts) < 2:
		return solana.InstructionErrorNotEnoughAccountKeys
	case err != nil:
		return solana.InstructionErrorInvalidInstructionData
	}

	return invoke.Runtime.CreateAccount(
		ctx,
		invoke.Accounts[0],
		invoke.Accounts[1],
		decoded.Lamports,
		decoded.Size,
		decoded.Owner,
		nil,
	)
}
