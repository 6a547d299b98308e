package solana

import (
	"bytes"
	"crypto/ed25519"
	"errors"
)

var (
	ErrIncorrectProgram     = errors.New("incorrect program")
	ErrIncorrectInstruction = errors.New("incorrect instruction")
)

// AccountMeta represents the account information required
// for building transactions.
type AccountMeta struct {
	PublicKey  ed25519.PublicKey
	IsSigner   bool
	IsWritable bool
}

// NewAccountMeta creates a new AccountMeta representing a writable
// account.
func NewAccountMeta(pub ed25519.PublicKey, isSigner bool) AccountMeta {
	return AccountMeta{
		PublicKey:  pub,
		IsSigner:   isSigner,
		IsWritable: true,
	}
}

// NewReadonlyAccountMeta creates a new AccountMeta representing a readonly
// account.
func NewReadonlyAccountMeta(pub ed25519.PublicKey, isSigner bool) AccountMeta {
	return AccountMeta{
		PublicKey:  pub,
		IsSigner:   isSigner,
		IsWritable: false,
	}
}

// Instruction represents a transaction instruction.
type Instruction struct {
	Program  ed25519.PublicKey
	Accounts []AccountMeta
	Data     []byte
}

// NewInstruction creates a new instruction.
func NewInstruction(program ed25519.PublicKey, data []byte, accounts ...AccountMeta) Instruction {
	return Instruction{
		Program:  program,
		Data:     data,
		Accounts: accounts,
	}
}

// IsSigner reports whether any account entry for pub is marked as a signer.
func (i Instruction) IsSigner(pub ed25519.PublicKey) bool {
	for _, a := range i.Accounts {
		if a.IsSigner && bytes.Equal(a.PublicKey, pub) {
			return true
		}
	}
	return false
}

// WritableAccounts returns the unique set of writable account keys, in the
// order they first appear.
func (i Instruction) WritableAccounts() []ed25519.PublicKey {
	var res []ed25519.PublicKey
	for _, a := range i.Accounts {
		if !a.IsWritable {
			continue
		}

		var seen bool
		for _, existing := range res {
			if bytes.Equal(existing, a.PublicKey) {
				seen = true
				break
			}
		}
		if !seen {
			res = append(res, a.PublicKey)
		}
	}
	return res
}
