package cli

import (
	"github.com/spf13/cobra"

	"github.com/code-payments/pda-provisioner/pkg/ledger"
	"github.com/code-payments/pda-provisioner/pkg/solana/system"
	"github.com/code-payments/pda-provisioner/pkg/userstake"
)

const (
	sizeFlag = "size"
	rpcFlag  = "rpc"

	rentSourceDefault = "default"
	rentSourceRPC     = "rpc"
)

func newRentCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rent",
		Short: "Print the rent exempt minimum balance for an account size",
		Long: `Print the rent exempt minimum balance for an account size.

Without --rpc the genesis rent configuration is used. With --rpc the Rent
sysvar of the cluster is read.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			size := opts.v.GetUint64(sizeFlag)

			schedule, source := opts.rentSchedule()
			rent, err := schedule.Rent(contextOf(cmd))
			if err != nil {
				return err
			}

			return opts.print(cmd, &rentResult{
				Size:     size,
				Lamports: rent.MinimumBalance(size),
				Source:   source,
			})
		},
	}

	cmd.Flags().Uint64(sizeFlag, userstake.RecordSize, "account data size in bytes")
	cmd.Flags().String(rpcFlag, "", "optional Solana JSON RPC endpoint or cluster moniker (devnet, testnet, mainnet-beta, localnet)")

	return cmd
}

func (o *rootOptions) rentSchedule() (ledger.RentSchedule, string) {
	endpoint := o.v.GetString(rpcFlag)
	if len(endpoint) == 0 {
		return ledger.NewStaticRentSchedule(system.DefaultRent), rentSourceDefault
	}

	return ledger.NewRPCRentSchedule(o.rpcClient(endpoint), ledger.WithEnvConfigs()), rentSourceRPC
}
