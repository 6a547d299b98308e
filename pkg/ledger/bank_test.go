package ledger

import (
	"context"
	"crypto/ed25519"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/pda-provisioner/pkg/ledger/account"
	"github.com/code-payments/pda-provisioner/pkg/ledger/account/memory"
	"github.com/code-payments/pda-provisioner/pkg/solana"
	"github.com/code-payments/pda-provisioner/pkg/solana/system"
	"github.com/code-payments/pda-provisioner/pkg/testutil"
)

type processorFunc func(ctx context.Context, invoke InvokeContext) error

func (f processorFunc) Process(ctx context.Context, invoke InvokeContext) error {
	return f(ctx, invoke)
}

type bankEnv struct {
	ctx      context.Context
	accounts account.Store
	bank     *Bank
}

func setupBank(t *testing.T) *bankEnv {
	accounts := memory.New()
	return &bankEnv{
		ctx:      context.Background(),
		accounts: accounts,
		bank: NewBank(accounts, NewStaticRentSchedule(system.DefaultRent), withManualTestOverrides(&testOverrides{
			lockStripes: 16,
		})),
	}
}

func (e *bankEnv) funded(t *testing.T, lamports uint64) ed25519.PrivateKey {
	key := testutil.GenerateSolanaKeypair(t)
	require.NoError(t, e.bank.Airdrop(e.ctx, key.Public().(ed25519.PublicKey), lamports))
	return key
}

func (e *bankEnv) info(t *testing.T, key ed25519.PublicKey) solana.AccountInfo {
	info, err := e.bank.GetAccountInfo(e.ctx, key)
	require.NoError(t, err)
	return info
}

func (e *bankEnv) assertMissing(t *testing.T, key ed25519.PublicKey) {
	_, err := e.bank.GetAccountInfo(e.ctx, key)
	assert.Equal(t, solana.ErrNoAccountInfo, err)
}

func publicKey(key ed25519.PrivateKey) ed25519.PublicKey {
	return key.Public().(ed25519.PublicKey)
}

func assertInstructionError(t *testing.T, err error, expected solana.InstructionErrorKey) {
	require.Error(t, err)
	txErr, ok := err.(*solana.TransactionError)
	require.True(t, ok, "unexpected error: %v", err)
	require.NotNil(t, txErr.InstructionError(), "unexpected error: %v", err)
	assert.Equal(t, expected, txErr.InstructionError().ErrorKey())
}

func assertCustomError(t *testing.T, err error, expected solana.CustomError) {
	require.Error(t, err)
	txErr, ok := err.(*solana.TransactionError)
	require.True(t, ok, "unexpected error: %v", err)
	require.NotNil(t, txErr.InstructionError(), "unexpected error: %v", err)
	require.NotNil(t, txErr.InstructionError().CustomError(), "unexpected error: %v", err)
	assert.Equal(t, expected, *txErr.InstructionError().CustomError())
}

func assertTransactionError(t *testing.T, err error, expected solana.TransactionErrorKey) {
	require.Error(t, err)
	txErr, ok := err.(*solana.TransactionError)
	require.True(t, ok, "unexpected error: %v", err)
	assert.Equal(t, expected, txErr.ErrorKey())
}

func TestBank_Airdrop(t *testing.T) {
	env := setupBank(t)
	key := testutil.GenerateSolanaKeys(t, 1)[0]

	env.assertMissing(t, key)

	require.NoError(t, env.bank.Airdrop(env.ctx, key, 10))
	require.NoError(t, env.bank.Airdrop(env.ctx, key, 5))

	info := env.info(t, key)
	assert.EqualValues(t, 15, info.Lamports)
	assert.True(t, system.IsProgramKey(info.Owner))
	assert.Empty(t, info.Data)

	assert.Equal(t, ErrBalanceOverflow, env.bank.Airdrop(env.ctx, key, ^uint64(0)))
	assert.EqualValues(t, 15, env.info(t, key).Lamports)
}

func TestBank_GetMinimumBalanceForRentExemption(t *testing.T) {
	env := setupBank(t)

	actual, err := env.bank.GetMinimumBalanceForRentExemption(env.ctx, 9)
	require.NoError(t, err)
	assert.EqualValues(t, 953520, actual)

	actual, err = env.bank.GetMinimumBalanceForRentExemption(env.ctx, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 890880, actual)
}

func TestBank_RegisterProgram(t *testing.T) {
	env := setupBank(t)
	program := testutil.GenerateSolanaKeys(t, 1)[0]

	noop := processorFunc(func(context.Context, InvokeContext) error { return nil })

	require.NoError(t, env.bank.RegisterProgram(program, noop))
	assert.Equal(t, ErrProgramAlreadyRegistered, env.bank.RegisterProgram(program, noop))
	assert.Equal(t, ErrProgramAlreadyRegistered, env.bank.RegisterProgram(system.SystemAccount, noop))
	assert.Error(t, env.bank.RegisterProgram(program[:31], noop))
}

func TestBank_UnknownProgram(t *testing.T) {
	env := setupBank(t)
	payer := env.funded(t, 1000)

	instruction := solana.NewInstruction(
		testutil.GenerateSolanaKeys(t, 1)[0],
		nil,
		solana.NewAccountMeta(publicKey(payer), true),
	)
	assertTransactionError(t, env.bank.Execute(env.ctx, instruction, payer), solana.TransactionErrorProgramAccountNotFound)
}

func TestBank_SystemCreateAccount(t *testing.T) {
	env := setupBank(t)
	payer := env.funded(t, 1_000_000)
	created := testutil.GenerateSolanaKeypair(t)
	owner := testutil.GenerateSolanaKeys(t, 1)[0]

	instruction := system.CreateAccount(publicKey(payer), publicKey(created), owner, 500_000, 64)
	require.NoError(t, env.bank.Execute(env.ctx, instruction, payer, created))

	info := env.info(t, publicKey(created))
	assert.EqualValues(t, owner, info.Owner)
	assert.EqualValues(t, 500_000, info.Lamports)
	assert.Equal(t, make([]byte, 64), info.Data)

	assert.EqualValues(t, 500_000, env.info(t, publicKey(payer)).Lamports)

	// Creation is exactly once per address.
	other := env.funded(t, 1_000_000)
	instruction = system.CreateAccount(publicKey(other), publicKey(created), owner, 500_000, 64)
	assertCustomError(t, env.bank.Execute(env.ctx, instruction, other, created), system.ErrAccountAlreadyInUse)
	assert.EqualValues(t, 1_000_000, env.info(t, publicKey(other)).Lamports)
}

func TestBank_SystemCreateAccount_Failures(t *testing.T) {
	env := setupBank(t)
	payer := env.funded(t, 1_000)
	owner := testutil.GenerateSolanaKeys(t, 1)[0]

	t.Run("missing signature", func(t *testing.T) {
		created := testutil.GenerateSolanaKeypair(t)
		instruction := system.CreateAccount(publicKey(payer), publicKey(created), owner, 10, 0)
		assertTransactionError(t, env.bank.Execute(env.ctx, instruction, payer), solana.TransactionErrorSignatureFailure)
		env.assertMissing(t, publicKey(created))
	})

	t.Run("new account not signer", func(t *testing.T) {
		created := testutil.GenerateSolanaKeypair(t)
		instruction := system.CreateAccount(publicKey(payer), publicKey(created), owner, 10, 0)
		instruction.Accounts[1].IsSigner = false
		assertInstructionError(t, env.bank.Execute(env.ctx, instruction, payer), solana.InstructionErrorMissingRequiredSignature)
		env.assertMissing(t, publicKey(created))
	})

	t.Run("insufficient funds", func(t *testing.T) {
		created := testutil.GenerateSolanaKeypair(t)
		instruction := system.CreateAccount(publicKey(payer), publicKey(created), owner, 1_001, 0)
		assertCustomError(t, env.bank.Execute(env.ctx, instruction, payer, created), system.ErrResultWithNegativeLamports)
		env.assertMissing(t, publicKey(created))
	})

	t.Run("too large", func(t *testing.T) {
		created := testutil.GenerateSolanaKeypair(t)
		instruction := system.CreateAccount(publicKey(payer), publicKey(created), owner, 10, system.MaxPermittedDataLength+1)
		assertCustomError(t, env.bank.Execute(env.ctx, instruction, payer, created), system.ErrInvalidAccountDataLength)
		env.assertMissing(t, publicKey(created))
	})

	t.Run("readonly new account", func(t *testing.T) {
		created := testutil.GenerateSolanaKeypair(t)
		instruction := system.CreateAccount(publicKey(payer), publicKey(created), owner, 10, 0)
		instruction.Accounts[1].IsWritable = false
		assertInstructionError(t, env.bank.Execute(env.ctx, instruction, payer, created), solana.InstructionErrorPrivilegeEscalation)
		env.assertMissing(t, publicKey(created))
	})

	t.Run("invalid data", func(t *testing.T) {
		created := testutil.GenerateSolanaKeypair(t)
		instruction := system.CreateAccount(publicKey(payer), publicKey(created), owner, 10, 0)
		instruction.Data = instruction.Data[:8]
		assertInstructionError(t, env.bank.Execute(env.ctx, instruction, payer, created), solana.InstructionErrorInvalidInstructionData)
	})

	assert.EqualValues(t, 1_000, env.info(t, publicKey(payer)).Lamports)
}

func TestBank_DerivedAccountCreation(t *testing.T) {
	env := setupBank(t)
	program := testutil.GenerateSolanaKeys(t, 1)[0]
	otherProgram := testutil.GenerateSolanaKeys(t, 1)[0]
	payer := env.funded(t, 1_000_000)

	seed := publicKey(payer)
	address, bump, err := solana.FindProgramAddressAndBump(program, seed)
	require.NoError(t, err)

	var proof *solana.DerivationProof
	require.NoError(t, env.bank.RegisterProgram(program, processorFunc(func(ctx context.Context, invoke InvokeContext) error {
		return invoke.Runtime.CreateAccount(ctx, invoke.Accounts[0], invoke.Accounts[1], 1_000, 16, invoke.Program, proof)
	})))

	instruction := solana.NewInstruction(
		program,
		nil,
		solana.NewAccountMeta(publicKey(payer), true),
		solana.NewAccountMeta(address, false),
	)

	// No proof.
	assertInstructionError(t, env.bank.Execute(env.ctx, instruction, payer), solana.InstructionErrorMissingRequiredSignature)

	// Proof under a different program.
	foreign := solana.NewDerivationProof(otherProgram, bump, seed)
	proof = &foreign
	assertInstructionError(t, env.bank.Execute(env.ctx, instruction, payer), solana.InstructionErrorMissingRequiredSignature)

	// Proof with the wrong bump.
	wrongBump := solana.NewDerivationProof(program, bump-1, seed)
	proof = &wrongBump
	assertInstructionError(t, env.bank.Execute(env.ctx, instruction, payer), solana.InstructionErrorMissingRequiredSignature)

	env.assertMissing(t, address)

	valid := solana.NewDerivationProof(program, bump, seed)
	proof = &valid
	require.NoError(t, env.bank.Execute(env.ctx, instruction, payer))

	info := env.info(t, address)
	assert.EqualValues(t, program, info.Owner)
	assert.EqualValues(t, 1_000, info.Lamports)
	assert.Equal(t, make([]byte, 16), info.Data)

	assertCustomError(t, env.bank.Execute(env.ctx, instruction, payer), system.ErrAccountAlreadyInUse)
	assert.EqualValues(t, 999_000, env.info(t, publicKey(payer)).Lamports)
}

func TestBank_FailedInstructionCommitsNothing(t *testing.T) {
	env := setupBank(t)
	program := testutil.GenerateSolanaKeys(t, 1)[0]
	payer := env.funded(t, 1_000_000)
	created := testutil.GenerateSolanaKeypair(t)

	failure := errors.New("failure after creation")
	require.NoError(t, env.bank.RegisterProgram(program, processorFunc(func(ctx context.Context, invoke InvokeContext) error {
		if err := invoke.Runtime.CreateAccount(ctx, invoke.Accounts[0], invoke.Accounts[1], 1_000, 9, invoke.Program, nil); err != nil {
			return err
		}
		invoke.Accounts[1].Data[0] = 1
		return failure
	})))

	instruction := solana.NewInstruction(
		program,
		nil,
		solana.NewAccountMeta(publicKey(payer), true),
		solana.NewAccountMeta(publicKey(created), true),
	)
	assertInstructionError(t, env.bank.Execute(env.ctx, instruction, payer, created), solana.InstructionErrorGenericError)

	env.assertMissing(t, publicKey(created))
	assert.EqualValues(t, 1_000_000, env.info(t, publicKey(payer)).Lamports)

	count, err := env.accounts.Count(env.ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestBank_AccountRules(t *testing.T) {
	env := setupBank(t)
	program := testutil.GenerateSolanaKeys(t, 1)[0]
	payer := env.funded(t, 1_000)
	bystander := env.funded(t, 1_000)

	var mutate func(invoke InvokeContext)
	require.NoError(t, env.bank.RegisterProgram(program, processorFunc(func(ctx context.Context, invoke InvokeContext) error {
		mutate(invoke)
		return nil
	})))

	for _, tc := range []struct {
		name     string
		writable bool
		mutate   func(invoke InvokeContext)
		expected solana.InstructionErrorKey
	}{
		{
			name: "readonly lamports",
			mutate: func(invoke InvokeContext) {
				invoke.Accounts[0].Lamports += 1
				invoke.Accounts[1].Lamports -= 1
			},
			expected: solana.InstructionErrorReadonlyLamportChange,
		},
		{
			name:     "unbalanced",
			writable: true,
			mutate: func(invoke InvokeContext) {
				invoke.Accounts[1].Lamports += 1
			},
			expected: solana.InstructionErrorUnbalancedInstruction,
		},
		{
			name:     "owner change",
			writable: true,
			mutate: func(invoke InvokeContext) {
				invoke.Accounts[1].Owner = program
			},
			expected: solana.InstructionErrorModifiedProgramID,
		},
		{
			name:     "resize",
			writable: true,
			mutate: func(invoke InvokeContext) {
				invoke.Accounts[1].Data = []byte{1}
			},
			expected: solana.InstructionErrorAccountDataSizeChanged,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			mutate = tc.mutate

			bystanderMeta := solana.NewReadonlyAccountMeta(publicKey(bystander), false)
			if tc.writable {
				bystanderMeta = solana.NewAccountMeta(publicKey(bystander), false)
			}

			instruction := solana.NewInstruction(
				program,
				nil,
				solana.NewAccountMeta(publicKey(payer), true),
				bystanderMeta,
			)
			assertInstructionError(t, env.bank.Execute(env.ctx, instruction, payer), tc.expected)
		})
	}

	assert.EqualValues(t, 1_000, env.info(t, publicKey(payer)).Lamports)
	assert.EqualValues(t, 1_000, env.info(t, publicKey(bystander)).Lamports)
}

func TestBank_ExternalDataModified(t *testing.T) {
	env := setupBank(t)
	program := testutil.GenerateSolanaKeys(t, 1)[0]
	owner := testutil.GenerateSolanaKeys(t, 1)[0]
	payer := env.funded(t, 1_000_000)
	created := testutil.GenerateSolanaKeypair(t)

	instruction := system.CreateAccount(publicKey(payer), publicKey(created), owner, 1_000, 4)
	require.NoError(t, env.bank.Execute(env.ctx, instruction, payer, created))

	require.NoError(t, env.bank.RegisterProgram(program, processorFunc(func(ctx context.Context, invoke InvokeContext) error {
		invoke.Accounts[0].Data[0] = 0xff
		return nil
	})))

	instruction = solana.NewInstruction(program, nil, solana.NewAccountMeta(publicKey(created), false))
	assertInstructionError(t, env.bank.Execute(env.ctx, instruction), solana.InstructionErrorExternalAccountDataModified)
	assert.Equal(t, make([]byte, 4), env.info(t, publicKey(created)).Data)
}

func TestBank_SharedHandles(t *testing.T) {
	env := setupBank(t)
	program := testutil.GenerateSolanaKeys(t, 1)[0]
	payer := env.funded(t, 1_000)

	require.NoError(t, env.bank.RegisterProgram(program, processorFunc(func(ctx context.Context, invoke InvokeContext) error {
		if invoke.Accounts[0] != invoke.Accounts[1] {
			return errors.New("handles not shared")
		}
		if !invoke.Accounts[1].IsSigner || !invoke.Accounts[1].IsWritable {
			return errors.New("flags not merged")
		}
		return nil
	})))

	instruction := solana.NewInstruction(
		program,
		nil,
		solana.NewAccountMeta(publicKey(payer), true),
		solana.NewReadonlyAccountMeta(publicKey(payer), false),
	)
	require.NoError(t, env.bank.Execute(env.ctx, instruction, payer))
}

func TestBank_ConcurrentCreationIsExactlyOnce(t *testing.T) {
	env := setupBank(t)
	program := testutil.GenerateSolanaKeys(t, 1)[0]
	payer := env.funded(t, 1_000_000)

	seed := []byte("shared")
	address, bump, err := solana.FindProgramAddressAndBump(program, seed)
	require.NoError(t, err)
	proof := solana.NewDerivationProof(program, bump, seed)

	require.NoError(t, env.bank.RegisterProgram(program, processorFunc(func(ctx context.Context, invoke InvokeContext) error {
		return invoke.Runtime.CreateAccount(ctx, invoke.Accounts[0], invoke.Accounts[1], 100, 9, invoke.Program, &proof)
	})))

	instruction := solana.NewInstruction(
		program,
		nil,
		solana.NewAccountMeta(publicKey(payer), true),
		solana.NewAccountMeta(address, false),
	)

	const workers = 16

	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- env.bank.Execute(env.ctx, instruction, payer)
		}()
	}
	wg.Wait()
	close(results)

	var succeeded int
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assertCustomError(t, err, system.ErrAccountAlreadyInUse)
	}
	assert.Equal(t, 1, succeeded)

	assert.EqualValues(t, 100, env.info(t, address).Lamports)
	assert.EqualValues(t, 999_900, env.info(t, publicKey(payer)).Lamports)
}
