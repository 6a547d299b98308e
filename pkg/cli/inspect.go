package cli

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/code-payments/pda-provisioner/pkg/solana"
	"github.com/code-payments/pda-provisioner/pkg/userstake"
)

var errNotProvisioned = errors.New("storage not provisioned")

func newInspectCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Fetch and decode a requester's storage record from a cluster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			program, err := opts.publicKey(programFlag)
			if err != nil {
				return err
			}
			requester, err := opts.publicKey(requesterFlag)
			if err != nil {
				return err
			}

			endpoint := opts.v.GetString(rpcFlag)
			if len(endpoint) == 0 {
				return errors.Errorf("--%s is required", rpcFlag)
			}

			address, _, err := userstake.GetUserStakeAddress(&userstake.GetUserStakeAddressArgs{
				Program:   program,
				Requester: requester,
			})
			if err != nil {
				return err
			}

			log := opts.log.WithField("address", encodeKey(address))

			info, err := opts.rpcClient(endpoint).GetAccountInfo(address, solana.CommitmentConfirmed)
			if err == solana.ErrNoAccountInfo {
				log.Debug("storage account not found")
				return errNotProvisioned
			} else if err != nil {
				return err
			}

			record, err := userstake.DecodeAccount(info, program)
			if err != nil {
				return errors.Wrap(err, "error decoding storage")
			}

			return opts.print(cmd, &recordResult{
				Address:       encodeKey(address),
				Owner:         encodeKey(info.Owner),
				Lamports:      info.Lamports,
				IsInitialized: record.IsInitialized,
				Balance:       record.Balance,
			})
		},
	}

	cmd.Flags().String(programFlag, "", "program address (base58)")
	cmd.Flags().String(requesterFlag, "", "requester public key (base58)")
	cmd.Flags().String(rpcFlag, "", "Solana JSON RPC endpoint or cluster moniker")

	return cmd
}
