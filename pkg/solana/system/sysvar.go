package system

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58/base58"
)

// SystemAccount is ProgramKey as a public key, as it appears in account
// lists and as the owner of wallet accounts.
//
// https://explorer.solana.com/address/11111111111111111111111111111111
var SystemAccount = ed25519.PublicKey(ProgramKey[:])

// RentSysVar holds the cluster's Rent parameters.
//
// Source: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/sysvar/rent.rs#L11
var RentSysVar = mustDecodeKey("SysvarRent111111111111111111111111111111111")

func mustDecodeKey(encoded string) ed25519.PublicKey {
	key, err := base58.Decode(encoded)
	if err != nil {
		panic(err)
	}
	if len(key) != ed25519.PublicKeySize {
		panic("invalid key length: " + encoded)
	}
	return key
}
