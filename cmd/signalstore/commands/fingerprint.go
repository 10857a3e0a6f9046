package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"signalstore/internal/crypto"
	"signalstore/internal/domain"
)

func fingerprintCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint",
		Short: "Print identity fingerprint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, ok, err := c.app.Store().GetIdentityKeyPair(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: run init first", domain.ErrNotInitialized)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Fingerprint: %s\n", crypto.Fingerprint(id.PubKey))
			return nil
		},
	}
}
