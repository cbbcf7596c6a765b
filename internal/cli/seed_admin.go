package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/boomchecker/moderation-gateway/internal/server"
	"github.com/boomchecker/moderation-gateway/internal/services"
)

func newSeedAdminCmd() *cobra.Command {
	var tokenValue string

	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Initialize the store and insert the admin token",
		Long: `Initialize the store (tables or indexes) and insert an admin token.

The value comes from --token, falling back to ADMIN_TOKEN. Seeding an
existing value is a no-op.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			if tokenValue == "" {
				tokenValue = cfg.AdminToken
			}
			if tokenValue == "" {
				return fmt.Errorf("no admin token given: pass --token or set ADMIN_TOKEN")
			}

			stores, err := server.OpenStores(ctx, cfg, log)
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			defer stores.Close()

			guard := services.NewAuthGuard(stores.Tokens, log)
			seeded, err := services.NewAdminTokenService(stores.Tokens, guard, log).SeedAdmin(ctx, tokenValue)
			if err != nil {
				return err
			}

			if seeded {
				fmt.Fprintln(cmd.OutOrStdout(), "Admin token created")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Admin token already exists")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&tokenValue, "token", "", "admin token value (defaults to ADMIN_TOKEN)")
	return cmd
}
