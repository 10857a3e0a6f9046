package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func initCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Generate and publish the identity if it is missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := c.app.Manager()
			if err != nil {
				return fmt.Errorf("%w: use --directory", err)
			}
			created, err := m.Initialize(cmd.Context())
			if err != nil {
				return err
			}
			fp, err := m.Fingerprint(cmd.Context())
			if err != nil {
				return err
			}
			if created {
				printOK(cmd.OutOrStdout(), "Identity created.")
			} else {
				printInfo(cmd.OutOrStdout(), "Identity already registered.")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Fingerprint: %s\n", fp)
			return nil
		},
	}
}
