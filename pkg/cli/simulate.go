package cli

import (
	"crypto/ed25519"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	pg "github.com/code-payments/pda-provisioner/pkg/database/postgres"
	"github.com/code-payments/pda-provisioner/pkg/ledger"
	"github.com/code-payments/pda-provisioner/pkg/ledger/account"
	account_badger "github.com/code-payments/pda-provisioner/pkg/ledger/account/badger"
	account_memory "github.com/code-payments/pda-provisioner/pkg/ledger/account/memory"
	account_postgres "github.com/code-payments/pda-provisioner/pkg/ledger/account/postgres"
	"github.com/code-payments/pda-provisioner/pkg/userstake"
)

const (
	requesterKeyFlag = "requester-key"
	airdropFlag      = "airdrop"

	badgerDirFlag = "badger-dir"

	pgHostFlag     = "pg-host"
	pgPortFlag     = "pg-port"
	pgUserFlag     = "pg-user"
	pgPasswordFlag = "pg-password"
	pgDbNameFlag   = "pg-dbname"
	pgIamFlag      = "pg-iam"

	defaultAirdrop = 1_000_000_000
	defaultPgPort  = 5432
)

func newSimulateCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Provision storage for a requester on a local ledger",
		Long: `Provision storage for a requester on a local ledger.

The requester is funded, then submits the provisioning instruction signed
with its key. Accounts are kept in memory unless --badger-dir or --pg-host
is set. With --pg-host they are persisted to the ledger__core_account table.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.simulate(cmd)
		},
	}

	cmd.Flags().String(programFlag, "", "program address (base58); generated when empty")
	cmd.Flags().String(requesterKeyFlag, "", "requester private key (base58); generated when empty")
	cmd.Flags().Uint64(airdropFlag, defaultAirdrop, "lamports airdropped to the requester before provisioning")
	cmd.Flags().String(rpcFlag, "", "optional Solana JSON RPC endpoint to source rent from")

	cmd.Flags().String(badgerDirFlag, "", "directory of an embedded badger account database")

	cmd.Flags().String(pgHostFlag, "", "postgres host")
	cmd.Flags().Int(pgPortFlag, defaultPgPort, "postgres port")
	cmd.Flags().String(pgUserFlag, "", "postgres user")
	cmd.Flags().String(pgPasswordFlag, "", "postgres password")
	cmd.Flags().String(pgDbNameFlag, "", "postgres database name")
	cmd.Flags().Bool(pgIamFlag, false, "authenticate to postgres with AWS RDS IAM")

	return cmd
}

func (o *rootOptions) simulate(cmd *cobra.Command) error {
	ctx, end := o.startTransaction(contextOf(cmd), "simulate")
	defer end()

	program, err := o.optionalPublicKey(programFlag)
	if err != nil {
		return err
	}
	requesterKey, err := o.privateKey(requesterKeyFlag)
	if err != nil {
		return err
	}
	requester := requesterKey.Public().(ed25519.PublicKey)

	log := o.log.WithFields(logrus.Fields{
		"method":    "simulate",
		"program":   encodeKey(program),
		"requester": encodeKey(requester),
	})

	accounts, closeFn, err := o.accountStore()
	if err != nil {
		return err
	}
	defer closeFn()

	rent, _ := o.rentSchedule()
	bank := ledger.NewBank(accounts, rent, ledger.WithEnvConfigs())
	if err := bank.RegisterProgram(program, userstake.NewProvisioner(userstake.WithEnvConfigs())); err != nil {
		return err
	}

	if err := bank.Airdrop(ctx, requester, o.v.GetUint64(airdropFlag)); err != nil {
		return errors.Wrap(err, "error funding requester")
	}

	address, bump, err := userstake.GetUserStakeAddress(&userstake.GetUserStakeAddressArgs{
		Program:   program,
		Requester: requester,
	})
	if err != nil {
		return err
	}

	instruction, err := userstake.NewProvisionInstruction(program, requester)
	if err != nil {
		return err
	}

	if err := bank.Execute(ctx, instruction, requesterKey); err != nil {
		log.WithError(err).Info("provisioning failed")
		return errors.Wrap(err, "error provisioning storage")
	}

	info, err := bank.GetAccountInfo(ctx, address)
	if err != nil {
		return errors.Wrap(err, "error getting storage account")
	}
	record, err := userstake.DecodeAccount(info, program)
	if err != nil {
		return errors.Wrap(err, "error decoding storage")
	}

	requesterInfo, err := bank.GetAccountInfo(ctx, requester)
	if err != nil {
		return errors.Wrap(err, "error getting requester account")
	}

	return o.print(cmd, &simulateResult{
		Program:           encodeKey(program),
		Requester:         encodeKey(requester),
		Bump:              bump,
		RequesterLamports: requesterInfo.Lamports,
		Storage: recordResult{
			Address:       encodeKey(address),
			Owner:         encodeKey(info.Owner),
			Lamports:      info.Lamports,
			IsInitialized: record.IsInitialized,
			Balance:       record.Balance,
		},
	})
}

func (o *rootOptions) optionalPublicKey(name string) (ed25519.PublicKey, error) {
	if len(o.v.GetString(name)) == 0 {
		pub, _, err := ed25519.GenerateKey(nil)
		return pub, err
	}
	return o.publicKey(name)
}

func (o *rootOptions) accountStore() (account.Store, func(), error) {
	host := o.v.GetString(pgHostFlag)
	dir := o.v.GetString(badgerDirFlag)

	switch {
	case len(host) > 0 && len(dir) > 0:
		return nil, nil, errors.Errorf("--%s and --%s are mutually exclusive", pgHostFlag, badgerDirFlag)
	case len(dir) > 0:
		db, err := account_badger.Open(dir)
		if err != nil {
			return nil, nil, err
		}
		return account_badger.New(db), func() { db.Close() }, nil
	case len(host) == 0:
		return account_memory.New(), func() {}, nil
	}

	db, err := pg.Open(&pg.Config{
		User:      o.v.GetString(pgUserFlag),
		Host:      host,
		Password:  o.v.GetString(pgPasswordFlag),
		Port:      o.v.GetInt(pgPortFlag),
		DbName:    o.v.GetString(pgDbNameFlag),
		UseAwsIam: o.v.GetBool(pgIamFlag),
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "error connecting to postgres")
	}

	return account_postgres.New(db), func() { db.Close() }, nil
}
