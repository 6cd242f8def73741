package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func tokenCmd() *cobra.Command {
	var (
		username string
		roles    []string
	)

	cmd := &cobra.Command{
		Use:   "token [subject]",
		Short: "Mint a portal token signed with jwt.secret, for local use",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if rt.jwt == nil {
				return errors.New("jwt.secret must be at least 64 bytes to mint tokens")
			}

			tok, err := rt.jwt.Generate(args[0], username, roles)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "preferred_username claim")
	cmd.Flags().StringSliceVar(&roles, "role", nil, "role claim, repeatable")
	return cmd
}
