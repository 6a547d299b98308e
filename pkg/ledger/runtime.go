package ledger

import (
	"bytes"
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/pda-provisioner/pkg/solana"
	"github.com/code-payments/pda-provisioner/pkg/solana/system"
)

// invocation is the Runtime handed to a program for a single instruction.
type invocation struct {
	log     *logrus.Entry
	rent    RentSchedule
	program ed25519.PublicKey
	working *workingSet
}

// CreateAccount implements Runtime.CreateAccount
func (i *invocation) CreateAccount(
	ctx context.Context,
	payer, newAccount *AccountInfo,
	lamports, size uint64,
	owner ed25519.PublicKey,
	proof *solana.DerivationProof,
) error {
	payerEntry, ok := i.working.entryFor(payer)
	if !ok {
		return solana.InstructionErrorMissingAccount
	}
	newEntry, ok := i.working.entryFor(newAccount)
	if !ok {
		return solana.InstructionErrorMissingAccount
	}

	log := i.log.WithFields(logrus.Fields{
		"payer":    base58.Encode(payer.Key),
		"account":  base58.Encode(newAccount.Key),
		"owner":    base58.Encode(owner),
		"lamports": lamports,
		"size":     size,
	})

	if !payer.IsWritable || !newAccount.IsWritable {
		return solana.InstructionErrorPrivilegeEscalation
	}

	if !payer.IsSigner {
		log.Info("payer did not sign")
		return solana.InstructionErrorMissingRequiredSignature
	}

	if !newAccount.IsSigner {
		if err := i.authorize(newAccount.Key, proof); err != nil {
			log.WithError(err).Info("new account is not authorized")
			return err
		}
	}

	if !system.IsProgramKey(payer.Owner) || len(payer.Data) > 0 {
		log.Info("payer is not a system account")
		return solana.InstructionErrorInvalidArgument
	}

	if newAccount.Lamports > 0 || len(newAccount.Data) > 0 || !system.IsProgramKey(newAccount.Owner) {
		log.Info("account already in use")
		return system.ErrAccountAlreadyInUse
	}

	if size > system.MaxPermittedDataLength {
		return system.ErrInvalidAccountDataLength
	}

	if len(owner) != ed25519.PublicKeySize {
		return system.ErrInvalidProgramID
	}

	if bytes.Equal(payer.Key, newAccount.Key) || payer.Lamports < lamports {
		log.WithField("balance", payer.Lamports).Info("insufficient funds")
		return system.ErrResultWithNegativeLamports
	}

	payer.Lamports -= lamports
	newAccount.Lamports = lamports
	newAccount.Data = make([]byte, size)
	newAccount.Owner = append(ed25519.PublicKey(nil), owner...)

	// The system program made these changes, not the invoking program.
	payerEntry.checkpoint = stateOf(payer)
	newEntry.checkpoint = stateOf(newAccount)

	log.Debug("account created")
	return nil
}

func (i *invocation) authorize(address ed25519.PublicKey, proof *solana.DerivationProof) error {
	if proof == nil || !bytes.Equal(proof.Program, i.program) {
		return solana.InstructionErrorMissingRequiredSignature
	}

	switch err := proof.Verify(address); err {
	case nil:
		return nil
	case solana.ErrMaxSeedLengthExceeded, solana.ErrTooManySeeds:
		return solana.InstructionErrorMaxSeedLengthExceeded
	default:
		return solana.InstructionErrorMissingRequiredSignature
	}
}

// Rent implements Runtime.Rent
func (i *invocation) Rent(ctx context.Context) (system.Rent, error) {
	return i.rent.Rent(ctx)
}
