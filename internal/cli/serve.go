package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/boomchecker/moderation-gateway/internal/config"
	"github.com/boomchecker/moderation-gateway/internal/logging"
	"github.com/boomchecker/moderation-gateway/internal/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP gateway",
		Long: `Start the HTTP gateway.

The configured ADMIN_TOKEN is seeded on startup. The server shuts down
gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx)
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	gin.SetMode(cfg.GinMode)

	app, err := server.NewApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close store")
		}
	}()

	if err := app.SeedAdmin(ctx); err != nil {
		return fmt.Errorf("failed to seed admin token: %w", err)
	}

	log.Info().
		Str("store", cfg.StoreKind()).
		Str("classifier", cfg.Classifier).
		Int("rate_limit_per_minute", cfg.RateLimitPerMinute).
		Strs("trusted_proxies", cfg.TrustedProxies).
		Msg("Starting moderation gateway")

	return server.New(app, cfg.Addr()).Run(ctx)
}

// loadConfig reads configuration and builds the root logger
func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logging.New(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})
	return cfg, log, nil
}
