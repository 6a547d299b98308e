package system

import (
	"crypto/ed25519"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/pda-provisioner/pkg/solana"
)

func TestCreateAccount(t *testing.T) {
	keys := generateKeys(t, 3)

	instruction := CreateAccount(keys[0], keys[1], keys[2], 12345, 67890)

	command := make([]byte, 4)
	lamports := make([]byte, 8)
	binary.LittleEndian.PutUint64(lamports, 12345)
	size := make([]byte, 8)
	binary.LittleEndian.PutUint64(size, 67890)

	require.Len(t, instruction.Data, 52)
	assert.Equal(t, command, instruction.Data[0:4])
	assert.Equal(t, lamports, instruction.Data[4:12])
	assert.Equal(t, size, instruction.Data[12:20])
	assert.Equal(t, []byte(keys[2]), instruction.Data[20:52])

	require.Len(t, instruction.Accounts, 2)
	for _, a := range instruction.Accounts {
		assert.True(t, a.IsSigner)
		assert.True(t, a.IsWritable)
	}
	assert.True(t, IsProgramKey(instruction.Program))

	decoded, err := DecodeCreateAccount(instruction)
	require.NoError(t, err)
	assert.Equal(t, keys[0], decoded.Funder)
	assert.Equal(t, keys[1], decoded.Address)
	assert.Equal(t, keys[2], decoded.Owner)
	assert.EqualValues(t, 12345, decoded.Lamports)
	assert.EqualValues(t, 67890, decoded.Size)
}

func TestDecodeNonCreate(t *testing.T) {
	keys := generateKeys(t, 4)

	instruction := CreateAccount(keys[0], keys[1], keys[2], 12345, 67890)
	instruction.Accounts = instruction.Accounts[:1]
	_, err := DecodeCreateAccount(instruction)
	assert.NotNil(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "invalid number of accounts"), err)

	instruction = CreateAccount(keys[0], keys[1], keys[2], 12345, 67890)
	instruction.Data = instruction.Data[:40]
	_, err = DecodeCreateAccount(instruction)
	assert.NotNil(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "invalid instruction data size"), err)

	binary.LittleEndian.PutUint32(instruction.Data, 8)
	_, err = DecodeCreateAccount(instruction)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)

	instruction.Data = make([]byte, 3)
	_, err = DecodeCreateAccount(instruction)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)

	instruction.Program = keys[3]
	_, err = DecodeCreateAccount(instruction)
	assert.Equal(t, solana.ErrIncorrectProgram, err)
}

func TestSystemAccount(t *testing.T) {
	assert.EqualValues(t, ProgramKey[:], SystemAccount)
	assert.True(t, IsProgramKey(SystemAccount))
	assert.False(t, IsProgramKey(RentSysVar))
}

func TestErrorCodes(t *testing.T) {
	assert.EqualValues(t, 0, ErrAccountAlreadyInUse)
	assert.EqualValues(t, 1, ErrResultWithNegativeLamports)
	assert.EqualValues(t, 2, ErrInvalidProgramID)
	assert.EqualValues(t, 3, ErrInvalidAccountDataLength)
}

func generateKeys(t *testing.T, amount int) []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, amount)

	for i := 0; i < amount; i++ {
		pub, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		keys[i] = pub
	}

	return keys
}
