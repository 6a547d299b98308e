package cli

import (
	"github.com/spf13/cobra"

	"github.com/code-payments/pda-provisioner/pkg/userstake"
)

const (
	programFlag   = "program"
	requesterFlag = "requester"
)

func newDeriveCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Print the storage address and bump for a requester",
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

			address, bump, err := userstake.GetUserStakeAddress(&userstake.GetUserStakeAddressArgs{
				Program:   program,
				Requester: requester,
			})
			if err != nil {
				return err
			}

			return opts.print(cmd, &deriveResult{
				Program:   encodeKey(program),
				Requester: encodeKey(requester),
				Address:   encodeKey(address),
				Bump:      bump,
			})
		},
	}

	cmd.Flags().String(programFlag, "", "program address (base58)")
	cmd.Flags().String(requesterFlag, "", "requester public key (base58)")

	return cmd
}
