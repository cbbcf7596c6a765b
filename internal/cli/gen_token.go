package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/boomchecker/moderation-gateway/internal/crypto"
)

func newGenTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gen-token",
		Short: "Print a new random token value suitable for ADMIN_TOKEN",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := crypto.GenerateToken()
			if err != nil {
				return fmt.Errorf("failed to generate token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}
