package system

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/pda-provisioner/pkg/solana"
	"github.com/code-payments/pda-provisioner/pkg/solana/binary"
)

var ProgramKey [32]byte

// MaxPermittedDataLength is the largest account the system program will
// allocate.
//
// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/program/src/system_instruction.rs#L56
const MaxPermittedDataLength = 10 * 1024 * 1024

const (
	commandCreateAccount uint32 = iota
)

const createAccountDataSize = 4 + 2*8 + ed25519.PublicKeySize

// IsProgramKey reports whether key is the system program.
func IsProgramKey(key ed25519.PublicKey) bool {
	return bytes.Equal(key, ProgramKey[:])
}

// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs#L58-L72
func CreateAccount(funder, address, owner ed25519.PublicKey, lamports, size uint64) solana.Instruction {
	// # Account references
	//   0. [WRITE, SIGNER] Funding account
	//   1. [WRITE, SIGNER] New account
	//
	// CreateAccount {
	//   lamports: u64,
	//   space: u64,
	//   owner: Pubkey,
	// }
	data := make([]byte, createAccountDataSize)

	var offset int
	binary.PutUint32(data[offset:], commandCreateAccount, &offset)
	binary.PutUint64(data[offset:], lamports, &offset)
	binary.PutUint64(data[offset:], size, &offset)
	binary.PutKey32(data[offset:], owner, &offset)

	return solana.NewInstruction(
		ProgramKey[:],
		data,
		solana.NewAccountMeta(funder, true),
		solana.NewAccountMeta(address, true),
	)
}

type DecodedCreateAccount struct {
	Funder  ed25519.PublicKey
	Address ed25519.PublicKey

	Lamports uint64
	Size     uint64
	Owner    ed25519.PublicKey
}

// DecodeCreateAccount parses a CreateAccount instruction.
func DecodeCreateAccount(i solana.Instruction) (*DecodedCreateAccount, error) {
	if !IsProgramKey(i.Program) {
		return nil, solana.ErrIncorrectProgram
	}
	if len(i.Data) < 4 {
		return nil, solana.ErrIncorrectInstruction
	}

	var offset int
	var command uint32
	binary.GetUint32(i.Data, &command, &offset)
	if command != commandCreateAccount {
		return nil, solana.ErrIncorrectInstruction
	}

	if len(i.Accounts) != 2 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if len(i.Data) != createAccountDataSize {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	v := &DecodedCreateAccount{
		Funder:  i.Accounts[0].PublicKey,
		Address: i.Accounts[1].PublicKey,
	}
	binary.GetUint64(i.Data[offset:], &v.Lamports, &offset)
	binary.GetUint64(i.Data[offset:], &v.Size, &offset)
	binary.GetKey32(i.Data[offset:], &v.Owner, &offset)

	return v, nil
}
