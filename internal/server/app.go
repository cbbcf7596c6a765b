package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm/logger"

	"github.com/boomchecker/moderation-gateway/internal/classifier"
	"github.com/boomchecker/moderation-gateway/internal/config"
	"github.com/boomchecker/moderation-gateway/internal/database"
	"github.com/boomchecker/moderation-gateway/internal/logging"
	"github.com/boomchecker/moderation-gateway/internal/metrics"
	"github.com/boomchecker/moderation-gateway/internal/mongostore"
	"github.com/boomchecker/moderation-gateway/internal/ratelimit"
	"github.com/boomchecker/moderation-gateway/internal/repositories"
	"github.com/boomchecker/moderation-gateway/internal/services"
)

// Stores bundles the token and usage stores of one backend
type Stores struct {
	Tokens services.TokenStore
	Usage  services.UsageStore
	ping   func(ctx context.Context) error
	close  func() error
}

// Ping checks that the backend is reachable
func (s *Stores) Ping(ctx context.Context) error {
	if s == nil || s.ping == nil {
		return errors.New("store not configured")
	}
	return s.ping(ctx)
}

// Close releases the backend connection
func (s *Stores) Close() error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close()
}

// OpenStores connects to the backend selected by STORE_URI
func OpenStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Stores, error) {
	switch cfg.StoreKind() {
	case config.StoreMongoDB:
		return openMongoStores(ctx, cfg, log)
	default:
		return openSQLiteStores(cfg, log)
	}
}

func openSQLiteStores(cfg *config.Config, log zerolog.Logger) (*Stores, error) {
	dbConfig := database.DefaultConfig(cfg.StoreURI)
	dbConfig.DriverName = cfg.SQLiteDriver
	if cfg.LogLevel == "debug" || cfg.LogLevel == "trace" {
		dbConfig.LogLevel = logger.Info
	}

	db, err := database.InitDB(dbConfig, log)
	if err != nil {
		return nil, err
	}

	return &Stores{
		Tokens: repositories.NewTokenRepository(db),
		Usage:  repositories.NewUsageRepository(db),
		ping:   func(ctx context.Context) error { return database.Ping(ctx, db) },
		close:  func() error { return database.Close(db) },
	}, nil
}

func openMongoStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Stores, error) {
	client, err := mongostore.Connect(ctx, cfg.StoreURI, log)
	if err != nil {
		return nil, err
	}

	db := client.Database(cfg.StoreName)
	if err := mongostore.EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return &Stores{
		Tokens: mongostore.NewTokenStore(db),
		Usage:  mongostore.NewUsageStore(db),
		ping:   func(ctx context.Context) error { return mongostore.Ping(ctx, client) },
		close:  func() error { return client.Disconnect(context.Background()) },
	}, nil
}

// NewClassifier builds the backend selected by CLASSIFIER
func NewClassifier(ctx context.Context, cfg *config.Config) (classifier.Classifier, error) {
	switch cfg.Classifier {
	case config.ClassifierRekognition:
		return classifier.NewRekognition(ctx, classifier.RekognitionConfig{Region: cfg.AWSRegion})
	case config.ClassifierStatic:
		return classifier.NewStatic(), nil
	default:
		return nil, fmt.Errorf("unsupported classifier %q", cfg.Classifier)
	}
}

// App is the fully wired gateway
type App struct {
	Config  *config.Config
	Log     zerolog.Logger
	Metrics *metrics.Metrics
	Limiter *ratelimit.SlidingWindow
	Stores  *Stores
	Guard   *services.AuthGuard
	Tokens  *services.AdminTokenService
	Usage   *services.UsageService
	Cleanup *services.CleanupService

	Moderation *services.ModerationService
}

// NewApp wires every component from cfg. The caller must Close the app.
func NewApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	stores, err := OpenStores(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	clf, err := NewClassifier(ctx, cfg)
	if err != nil {
		_ = stores.Close()
		return nil, fmt.Errorf("failed to create classifier: %w", err)
	}

	return NewAppWith(cfg, log, stores, clf)
}

// NewAppWith wires the app around already-open stores and a classifier
func NewAppWith(cfg *config.Config, log zerolog.Logger, stores *Stores, clf classifier.Classifier) (*App, error) {
	limiter, err := ratelimit.New(ratelimit.Config{
		Limit:  cfg.RateLimitPerMinute,
		Window: ratelimit.DefaultWindow,
	})
	if err != nil {
		_ = stores.Close()
		return nil, fmt.Errorf("failed to create rate limiter: %w", err)
	}

	m := metrics.New()
	guard := services.NewAuthGuard(stores.Tokens, logging.WithComponent(log, "auth"))

	return &App{
		Config:     cfg,
		Log:        log,
		Metrics:    m,
		Limiter:    limiter,
		Stores:     stores,
		Guard:      guard,
		Tokens:     services.NewAdminTokenService(stores.Tokens, guard, logging.WithComponent(log, "tokens")),
		Usage:      services.NewUsageService(stores.Tokens, stores.Usage, guard),
		Moderation: services.NewModerationService(clf, stores.Usage, logging.WithComponent(log, "moderation")),
		Cleanup:    services.NewCleanupService(limiter, cfg.RateLimitSweepInterval, m, logging.WithComponent(log, "janitor")),
	}, nil
}

// Router builds the HTTP handler for the app
func (a *App) Router() *gin.Engine {
	return NewRouter(RouterDeps{
		Logger:         a.Log,
		Metrics:        a.Metrics,
		Limiter:        a.Limiter,
		TrustedProxies: a.Config.TrustedProxies,
		Store:          a.Stores,
		Guard:          a.Guard,
		Tokens:         a.Tokens,
		Usage:          a.Usage,
		Moderation:     a.Moderation,
	})
}

// SeedAdmin stores the configured ADMIN_TOKEN, if any
func (a *App) SeedAdmin(ctx context.Context) error {
	if a.Config.AdminToken == "" {
		admins, err := a.Stores.Tokens.CountAdmins(ctx)
		if err != nil {
			return fmt.Errorf("failed to count admin tokens: %w", err)
		}
		if admins == 0 {
			a.Log.Warn().Msg("No admin token configured and none stored; token management is unreachable until one is seeded")
		}
		return nil
	}

	_, err := a.Tokens.SeedAdmin(ctx, a.Config.AdminToken)
	return err
}

// Close stops the janitor and releases the store connection
func (a *App) Close() error {
	a.Cleanup.Stop()
	return a.Stores.Close()
}
