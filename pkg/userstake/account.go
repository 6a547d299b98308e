package userstake

import (
	"bytes"
	"crypto/ed25519"

	"github.com/code-payments/pda-provisioner/pkg/solana"
)

// DecodeAccount decodes provisioned storage as returned by an RPC node.
func DecodeAccount(info solana.AccountInfo, program ed25519.PublicKey) (*Record, error) {
	if !bytes.Equal(info.Owner, program) {
		return nil, ErrInvalidAccountOwner
	}

	var record Record
	if err := record.Unmarshal(info.Data); err != nil {
		return nil, err
	}
	return &record, nil
}
