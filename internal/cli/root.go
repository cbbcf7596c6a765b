// Package cli defines the moderation-gateway command line.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the command tree. Running without a subcommand serves.
func NewRootCmd() *cobra.Command {
	serveCmd := newServeCmd()

	rootCmd := &cobra.Command{
		Use:   "moderation-gateway",
		Short: "Bearer-token gateway in front of an image classifier",
		Long: `moderation-gateway authenticates requests with opaque bearer tokens,
throttles each client with a sliding-window rate limiter, records usage and
forwards uploaded images to a classifier.

Configuration is read from the environment and from .env / .env.local files.`,
		SilenceUsage: true,
		RunE:         serveCmd.RunE,
	}

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(newSeedAdminCmd())
	rootCmd.AddCommand(newGenTokenCmd())

	return rootCmd
}

// Execute runs the root command and exits non-zero on error
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
