package solana

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"math"

	"github.com/jdgcs/ed25519/edwards25519"
	"github.com/pkg/errors"
)

const (
	maxSeeds      = 16
	maxSeedLength = 32

	pdaMarker = "ProgramDerivedAddress"
)

var (
	ErrTooManySeeds          = errors.New("too many seeds")
	ErrMaxSeedLengthExceeded = errors.New("max seed length exceeded")

	ErrInvalidPublicKey    = errors.New("invalid public key")
	ErrDerivationExhausted = errors.New("unable to find a viable program address bump seed")
	ErrInvalidSeeds        = errors.New("provided seeds do not result in the expected address")
)

var (
	programHashCtor = sha256.New
)

// CreateProgramAddress mirrors the implementation of the Solana SDK's CreateProgramAddress.
//
// ProgramAddresses are public keys that _do not_ lie on the ed25519 curve to ensure that
// there is no associated private key. In the event that the program and seed parameters
// result in a valid public key, ErrInvalidPublicKey is returned.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L158
func CreateProgramAddress(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, error) {
	if len(seeds) > maxSeeds {
		return nil, ErrTooManySeeds
	}

	h := programHashCtor()
	for _, s := range seeds {
		if len(s) > maxSeedLength {
			return nil, ErrMaxSeedLengthExceeded
		}

		if _, err := h.Write(s); err != nil {
			return nil, errors.Wrap(err, "failed to hash seed")
		}
	}

	for _, v := range [][]byte{program, []byte(pdaMarker)} {
		if _, err := h.Write(v); err != nil {
			return nil, errors.Wrap(err, "failed to hash seed")
		}
	}

	hash := h.Sum(nil)
	var pub [32]byte
	copy(pub[:], hash)

	// Following the Solana SDK, we want to _reject_ the generated public key
	// if it's a valid compressed EdwardsPoint.
	if IsOnCurve(pub[:]) {
		return nil, ErrInvalidPublicKey
	}

	return pub[:], nil
}

// FindProgramAddressAndBump mirrors the implementation of the Solana SDK's
// FindProgramAddress. It returns the address and bump seed.
//
// The bump search starts at 255 and walks down to 0. If every candidate lands
// on the curve, ErrDerivationExhausted is returned.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L234
func FindProgramAddressAndBump(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, uint8, error) {
	bumpSeed := []byte{math.MaxUint8}
	for i := 0; i <= math.MaxUint8; i++ {
		pub, err := CreateProgramAddress(program, append(seeds, bumpSeed)...)
		if err == nil {
			return pub, bumpSeed[0], nil
		}
		if err != ErrInvalidPublicKey {
			return nil, 0, err
		}

		bumpSeed[0]--
	}

	return nil, 0, ErrDerivationExhausted
}

// FindProgramAddress mirrors the implementation of the Solana SDK's FindProgramAddress.
// It only returns the address.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L234
func FindProgramAddress(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, error) {
	pub, _, err := FindProgramAddressAndBump(program, seeds...)
	return pub, err
}

// IsOnCurve reports whether pub decodes to a valid compressed ed25519 point,
// which is to say whether a private key could exist for it.
//
// The edwards25519.ExtendedGroupElement (the EdwardsPoint) is internal to the
// golang.org/x/crypto library, so we rely (for now) on a deprecated open source
// alternative.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L182-L187
func IsOnCurve(pub ed25519.PublicKey) bool {
	if len(pub) != ed25519.PublicKeySize {
		return false
	}

	var raw [32]byte
	copy(raw[:], pub)

	var A edwards25519.ExtendedGroupElement
	return A.FromBytes(&raw)
}

// DerivationProof is the authority a program presents in lieu of a signature
// when acting on behalf of one of its program addresses. The seeds must
// include the bump.
type DerivationProof struct {
	Program ed25519.PublicKey
	Seeds   [][]byte
}

// NewDerivationProof returns a proof over the provided seeds, with the bump
// appended as the final seed.
func NewDerivationProof(program ed25519.PublicKey, bump uint8, seeds ...[]byte) DerivationProof {
	proofSeeds := make([][]byte, 0, len(seeds)+1)
	for _, s := range seeds {
		proofSeeds = append(proofSeeds, append([]byte(nil), s...))
	}
	proofSeeds = append(proofSeeds, []byte{bump})

	return DerivationProof{
		Program: program,
		Seeds:   proofSeeds,
	}
}

// Address recomputes the program address the proof authorizes.
func (p DerivationProof) Address() (ed25519.PublicKey, error) {
	return CreateProgramAddress(p.Program, p.Seeds...)
}

// Verify returns nil if the proof authorizes the provided address.
func (p DerivationProof) Verify(address ed25519.PublicKey) error {
	derived, err := p.Address()
	if err != nil {
		return err
	}

	if !bytes.Equal(derived, address) {
		return ErrInvalidSeeds
	}

	return nil
}
