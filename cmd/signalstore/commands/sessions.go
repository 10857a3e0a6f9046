package commands

import (
	"encoding/base64"

	"github.com/spf13/cobra"
)

// rm-sessions <remote>: drop every session record with a remote user and the
// cached session-cipher address.
func rmSessionsCmd(c *cli) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "rm-sessions <remote>",
		Short: "Remove every session with a remote user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s := c.app.Store()
			if raw {
				if err := s.RemoveAllSessions(ctx, args[0]); err != nil {
					return err
				}
			} else {
				name := base64.StdEncoding.EncodeToString([]byte(args[0]))
				if err := s.RemoveAllSessions(ctx, name); err != nil {
					return err
				}
				if err := s.RemoveSessionCipher(ctx, args[0]); err != nil {
					return err
				}
			}
			printOK(cmd.OutOrStdout(), "removed sessions with %s", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "treat <remote> as the session address name instead of a user id")
	return cmd
}
