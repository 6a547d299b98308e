package ledger

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/pda-provisioner/pkg/ledger/account"
	"github.com/code-payments/pda-provisioner/pkg/metrics"
	"github.com/code-payments/pda-provisioner/pkg/solana"
	"github.com/code-payments/pda-provisioner/pkg/solana/system"
	sync_util "github.com/code-payments/pda-provisioner/pkg/sync"
)

const (
	metricsStructName = "ledger.bank"

	executionDurationMetricName = "Ledger/ExecutionDuration"
	executionFailureMetricName  = "Ledger/ExecutionFailure"
)

var (
	ErrProgramAlreadyRegistered = errors.New("program already registered")
	ErrBalanceOverflow          = errors.New("balance overflow")
)

// Bank is a local ledger that executes instructions against persisted
// accounts. Each instruction is atomic: its account changes are committed
// only if the program succeeds and the resulting state passes the host's
// account rules.
type Bank struct {
	log      *logrus.Entry
	conf     *conf
	accounts account.Store
	rent     RentSchedule
	locks    *sync_util.StripedLock

	programsMu sync.RWMutex
	programs   map[string]Processor
}

// NewBank returns a Bank over the provided account store. The system program
// is always available.
func NewBank(accounts account.Store, rent RentSchedule, configProvider ConfigProvider) *Bank {
	conf := configProvider()

	stripes := conf.lockStripes.Get(context.Background())
	if stripes == 0 {
		stripes = defaultLockStripes
	}

	return &Bank{
		log:      logrus.StandardLogger().WithField("type", "ledger/bank"),
		conf:     conf,
		accounts: accounts,
		rent:     rent,
		locks:    sync_util.NewStripedLock(uint(stripes)),
		programs: map[string]Processor{
			base58.Encode(system.ProgramKey[:]): systemProgram{},
		},
	}
}

// RegisterProgram makes a program invocable at the provided address.
func (b *Bank) RegisterProgram(program ed25519.PublicKey, processor Processor) error {
	if len(program) != ed25519.PublicKeySize {
		return errors.Errorf("invalid program address length: %d", len(program))
	}

	b.programsMu.Lock()
	defer b.programsMu.Unlock()

	key := base58.Encode(program)
	if _, ok := b.programs[key]; ok {
		return ErrProgramAlreadyRegistered
	}

	b.programs[key] = processor

	b.log.WithField("program", key).Info("program registered")
	return nil
}

func (b *Bank) processorFor(program ed25519.PublicKey) (Processor, bool) {
	b.programsMu.RLock()
	defer b.programsMu.RUnlock()

	p, ok := b.programs[base58.Encode(program)]
	return p, ok
}

// Execute runs a single instruction. Every account marked as a signer must be
// accompanied by its private key in signers.
//
// Instruction failures are returned as a *solana.TransactionError, in which
// case nothing is committed.
func (b *Bank) Execute(ctx context.Context, instruction solana.Instruction, signers ...ed25519.PrivateKey) error {
	executionID := uuid.New()
	start := time.Now()

	log := b.log.WithFields(logrus.Fields{
		"method":    "Execute",
		"execution": executionID.String(),
		"program":   base58.Encode(instruction.Program),
	})

	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Execute")
	defer tracer.End()
	defer func() {
		metrics.RecordDuration(ctx, executionDurationMetricName, time.Since(start))
	}()

	processor, ok := b.processorFor(instruction.Program)
	if !ok {
		log.Info("program not found")
		return solana.NewTransactionError(solana.TransactionErrorProgramAccountNotFound)
	}

	if err := verifySignatures(instruction, signers); err != nil {
		log.WithError(err).Info("signature verification failed")
		return err
	}

	writable := instruction.WritableAccounts()
	lockKeys := make([][]byte, len(writable))
	for i, key := range writable {
		lockKeys[i] = key
	}
	unlock := b.locks.LockAll(lockKeys...)
	defer unlock()

	working, err := b.load(ctx, instruction)
	if err != nil {
		log.WithError(err).Warn("failure loading accounts")
		tracer.OnError(err)
		return err
	}

	invoke := InvokeContext{
		Program:  instruction.Program,
		Accounts: working.handles,
		Data:     instruction.Data,
		Runtime: &invocation{
			log:     log,
			rent:    b.rent,
			program: instruction.Program,
			working: working,
		},
	}

	err = processor.Process(ctx, invoke)
	if err == nil {
		err = working.verify(instruction.Program)
	}
	if err != nil {
		log.WithError(err).Info("instruction failed")
		metrics.RecordCount(ctx, executionFailureMetricName, 1)
		return toTransactionError(processor, err)
	}

	changes := working.changes()
	switch err := b.accounts.Commit(ctx, changes...); err {
	case nil:
	case account.ErrAccountExists:
		log.Info("account created concurrently")
		return toTransactionError(processor, system.ErrAccountAlreadyInUse)
	case account.ErrStaleVersion:
		log.Info("account modified concurrently")
		return solana.NewTransactionError(solana.TransactionErrorAccountInUse)
	default:
		log.WithError(err).Warn("failure committing accounts")
		tracer.OnError(err)
		return errors.Wrap(err, "error committing accounts")
	}

	log.WithField("accounts_changed", len(changes)).Debug("instruction executed")
	return nil
}

func (b *Bank) load(ctx context.Context, instruction solana.Instruction) (*workingSet, error) {
	working := newWorkingSet()
	for _, meta := range instruction.Accounts {
		if len(meta.PublicKey) != ed25519.PublicKeySize {
			return nil, errors.Errorf("invalid account key length: %d", len(meta.PublicKey))
		}

		record, err := b.accounts.Get(ctx, base58.Encode(meta.PublicKey))
		if err == account.ErrAccountNotFound {
			record = nil
		} else if err != nil {
			return nil, errors.Wrap(err, "error getting account")
		}

		if err := working.add(meta, record); err != nil {
			return nil, err
		}
	}
	return working, nil
}

// Airdrop credits lamports to a system account, creating it if necessary.
func (b *Bank) Airdrop(ctx context.Context, to ed25519.PublicKey, lamports uint64) error {
	address := base58.Encode(to)
	log := b.log.WithFields(logrus.Fields{
		"method":   "Airdrop",
		"account":  address,
		"lamports": lamports,
	})

	unlock := b.locks.LockAll(to)
	defer unlock()

	record, err := b.accounts.Get(ctx, address)
	switch err {
	case nil:
	case account.ErrAccountNotFound:
		record = &account.Record{
			Address: address,
			Owner:   base58.Encode(system.ProgramKey[:]),
		}
	default:
		return errors.Wrap(err, "error getting account")
	}

	if math.MaxUint64-record.Lamports < lamports {
		return ErrBalanceOverflow
	}
	record.Lamports += lamports

	if err := b.accounts.Commit(ctx, record); err != nil {
		log.WithError(err).Warn("failure funding account")
		return errors.Wrap(err, "error funding account")
	}

	log.Debug("account funded")
	return nil
}

// GetAccountInfo returns the current state of an account.
//
// Returns solana.ErrNoAccountInfo if the account does not exist.
func (b *Bank) GetAccountInfo(ctx context.Context, key ed25519.PublicKey) (solana.AccountInfo, error) {
	record, err := b.accounts.Get(ctx, base58.Encode(key))
	if err == account.ErrAccountNotFound {
		return solana.AccountInfo{}, solana.ErrNoAccountInfo
	} else if err != nil {
		return solana.AccountInfo{}, errors.Wrap(err, "error getting account")
	}

	owner, err := base58.Decode(record.Owner)
	if err != nil {
		return solana.AccountInfo{}, errors.Wrap(err, "invalid account owner")
	}

	return solana.AccountInfo{
		Data:       record.Data,
		Owner:      owner,
		Lamports:   record.Lamports,
		Executable: record.Executable,
	}, nil
}

// GetMinimumBalanceForRentExemption returns the lamports an account of the
// provided size must hold under the bank's rent schedule.
func (b *Bank) GetMinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error) {
	rent, err := b.rent.Rent(ctx)
	if err != nil {
		return 0, err
	}
	return rent.MinimumBalance(size), nil
}

func verifySignatures(instruction solana.Instruction, signers []ed25519.PrivateKey) error {
	message := instructionDigest(instruction)

	for _, meta := range instruction.Accounts {
		if !meta.IsSigner {
			continue
		}

		var signed bool
		for _, signer := range signers {
			pub, ok := signer.Public().(ed25519.PublicKey)
			if !ok || !pub.Equal(meta.PublicKey) {
				continue
			}

			signed = ed25519.Verify(pub, message, ed25519.Sign(signer, message))
			break
		}

		if !signed {
			return solana.NewTransactionError(solana.TransactionErrorSignatureFailure)
		}
	}

	return nil
}

func instructionDigest(instruction solana.Instruction) []byte {
	h := sha256.New()
	h.Write(instruction.Program)
	for _, meta := range instruction.Accounts {
		h.Write(meta.PublicKey)
	}
	h.Write(instruction.Data)
	return h.Sum(nil)
}

func toTransactionError(processor Processor, err error) error {
	var instructionErr *solana.InstructionError
	if translator, ok := processor.(ErrorTranslator); ok {
		instructionErr = translator.ToInstructionError(0, err)
	}

	if instructionErr == nil {
		var ok bool
		instructionErr, ok = solana.InstructionErrorFrom(0, err)
		if !ok {
			instructionErr = solana.NewInstructionError(0, solana.InstructionErrorGenericError)
		}
	}

	txErr, convErr := solana.TransactionErrorFromInstructionError(instructionErr)
	if convErr != nil {
		return errors.Wrap(convErr, "error converting instruction error")
	}
	return txErr
}
