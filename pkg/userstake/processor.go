package userstake

import (
	"bytes"
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/pda-provisioner/pkg/cache"
	"github.com/code-payments/pda-provisioner/pkg/ledger"
	"github.com/code-payments/pda-provisioner/pkg/metrics"
	"github.com/code-payments/pda-provisioner/pkg/solana"
	"github.com/code-payments/pda-provisioner/pkg/solana/system"
)

const (
	metricsStructName = "userstake.provisioner"

	provisionedEventName = "UserStakeProvisioned"
)

// Provisioner is the program that creates and initializes a requester's
// derived storage account.
type Provisioner struct {
	log  *logrus.Entry
	conf *conf

	// Nil when disabled
	addresses cache.Cache
}

type derivedAddress struct {
	address ed25519.PublicKey
	bump    uint8
}

// NewProvisioner returns a Provisioner ready to be registered with a ledger.
func NewProvisioner(configProvider ConfigProvider) *Provisioner {
	p := &Provisioner{
		log:  logrus.StandardLogger().WithField("type", "userstake/provisioner"),
		conf: configProvider(),
	}

	if size := p.conf.addressCacheSize.Get(context.Background()); size > 0 {
		p.addresses = cache.NewCache(int(size))
	}

	return p
}

// Process implements ledger.Processor.Process. Instruction data is ignored.
func (p *Provisioner) Process(ctx context.Context, invoke ledger.InvokeContext) error {
	if !p.conf.enableMetrics.Get(ctx) {
		return p.provision(ctx, invoke, nil)
	}

	return metrics.Trace(ctx, metricsStructName, "Process", func(tracer *metrics.MethodTracer) error {
		return p.provision(ctx, invoke, tracer)
	})
}

func (p *Provisioner) provision(ctx context.Context, invoke ledger.InvokeContext, tracer *metrics.MethodTracer) error {
	log := p.log.WithFields(logrus.Fields{
		"method":  "Process",
		"program": base58.Encode(invoke.Program),
	})

	if len(invoke.Accounts) < 3 {
		log.WithField("accounts", len(invoke.Accounts)).Info("not enough accounts")
		return ErrMissingAccount
	}

	requester := invoke.Accounts[0]
	storage := invoke.Accounts[1]
	systemProgram := invoke.Accounts[2]

	log = log.WithFields(logrus.Fields{
		"requester": base58.Encode(requester.Key),
		"storage":   base58.Encode(storage.Key),
	})

	if !system.IsProgramKey(systemProgram.Key) {
		log.WithField("system_program", base58.Encode(systemProgram.Key)).Info("wrong system program")
		return ErrWrongSystemProgram
	}

	address, bump, err := p.deriveAddress(invoke.Program, requester.Key)
	if err == solana.ErrDerivationExhausted {
		log.Warn("no valid bump for requester")
		return ErrDerivationExhausted
	} else if err != nil {
		return errors.Wrap(err, "error deriving storage address")
	}

	log = log.WithField("bump", bump)

	if !bytes.Equal(address, storage.Key) {
		log.WithField("derived", base58.Encode(address)).Info("supplied address does not match derived address")
		return ErrInvalidSeeds
	}

	if isInitializedStorage(storage, invoke.Program) {
		log.Info("storage already initialized")
		return ErrAccountAlreadyInitialized
	}

	rent, err := invoke.Runtime.Rent(ctx)
	if err != nil {
		return errors.Wrap(err, "error getting rent")
	}
	lamports := rent.MinimumBalance(RecordSize)

	log = log.WithField("lamports", lamports)
	log.Infof("requester pays %d lamports for rent exemption of %d bytes", lamports, RecordSize)

	proof := NewDerivationProof(invoke.Program, requester.Key, bump)
	err = invoke.Runtime.CreateAccount(
		ctx,
		requester,
		storage,
		lamports,
		RecordSize,
		invoke.Program,
		&proof,
	)
	if err != nil {
		log.WithError(err).Info("failure creating storage account")
		return &AccountCreationError{Err: err}
	}

	if !bytes.Equal(storage.Owner, invoke.Program) {
		return ErrInvalidAccountOwner
	}

	var record Record
	if err := record.Unmarshal(storage.Data); err != nil {
		log.WithError(err).Warn("created storage is malformed")
		return err
	}

	if record.IsInitialized {
		log.Info("storage already initialized")
		return ErrAccountAlreadyInitialized
	}

	if record != DefaultRecord() {
		log.Warn("created storage is not zero filled")
		return ErrInvalidAccountData
	}

	record.Balance = p.conf.initialBalance.Get(ctx)
	record.IsInitialized = true
	copy(storage.Data, record.Marshal())

	log.WithField("balance", record.Balance).Debug("storage initialized")

	tracer.AddAttributes(map[string]interface{}{
		"requester": base58.Encode(requester.Key),
		"storage":   base58.Encode(storage.Key),
	})
	if p.conf.enableMetrics.Get(ctx) {
		metrics.RecordEvent(ctx, provisionedEventName, map[string]interface{}{
			"program":   base58.Encode(invoke.Program),
			"requester": base58.Encode(requester.Key),
			"storage":   base58.Encode(storage.Key),
			"bump":      bump,
			"lamports":  lamports,
			"balance":   record.Balance,
		})
	}

	return nil
}

// ToInstructionError implements ledger.ErrorTranslator.
func (p *Provisioner) ToInstructionError(index int, err error) *solana.InstructionError {
	return ToInstructionError(index, err)
}

func isInitializedStorage(storage *ledger.AccountInfo, program []byte) bool {
	if !bytes.Equal(storage.Owner, program) || len(storage.Data) != RecordSize {
		return false
	}

	var record Record
	if err := record.Unmarshal(storage.Data); err != nil {
		return false
	}
	return record.IsInitialized
}

func (p *Provisioner) deriveAddress(program, requester ed25519.PublicKey) (ed25519.PublicKey, uint8, error) {
	var key string
	if p.addresses != nil {
		key = string(program) + string(requester)
		if cached, ok := p.addresses.Retrieve(key); ok {
			derived := cached.(*derivedAddress)
			return derived.address, derived.bump, nil
		}
	}

	address, bump, err := GetUserStakeAddress(&GetUserStakeAddressArgs{
		Program:   program,
		Requester: requester,
	})
	if err != nil {
		return nil, 0, err
	}

	if p.addresses != nil {
		// Concurrent derivations of the same key yield the same value.
		_ = p.addresses.Insert(key, &derivedAddress{address: address, bump: bump}, 1)
	}

	return address, bump, nil
}
