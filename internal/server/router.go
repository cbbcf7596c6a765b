// Package server assembles the HTTP router and runs the gateway.
//
// @title Image Moderation API
// @version 1.0
// @description Bearer-token gateway in front of an image classifier.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package server

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/boomchecker/moderation-gateway/internal/docs"
	"github.com/boomchecker/moderation-gateway/internal/handlers"
	"github.com/boomchecker/moderation-gateway/internal/metrics"
	"github.com/boomchecker/moderation-gateway/internal/middleware"
	"github.com/boomchecker/moderation-gateway/internal/services"
)

// RouterDeps holds everything the router needs
type RouterDeps struct {
	Logger     zerolog.Logger
	Metrics    *metrics.Metrics
	Limiter    middleware.Limiter
	Store      handlers.Pinger
	Guard      *services.AuthGuard
	Tokens     *services.AdminTokenService
	Usage      *services.UsageService
	Moderation *services.ModerationService

	// TrustedProxies may set the client IP through X-Forwarded-For or
	// X-Real-IP. When empty the rate limiter keys on the socket peer.
	TrustedProxies []string
}

// NewRouter builds the gin engine.
//
// Pipeline for metered routes: rate limit, authenticate, require admin
// (token routes only), handler. /health, /ready, /metrics and /swagger skip
// all of it.
func NewRouter(d RouterDeps) *gin.Engine {
	router := gin.New()
	if err := router.SetTrustedProxies(d.TrustedProxies); err != nil {
		d.Logger.Error().Err(err).Msg("Invalid trusted proxies, forwarding headers ignored")
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(
		middleware.RequestLogger(d.Logger, d.Metrics),
		middleware.Recovery(),
		middleware.CORS(),
	)

	router.GET("/health", handlers.HealthHandler)
	router.GET("/ready", handlers.ReadinessHandler(d.Store))
	router.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	throttled := router.Group("/", middleware.RateLimit(d.Limiter, d.Metrics))
	throttled.GET("/", handlers.WelcomeHandler)

	authenticated := throttled.Group("/", middleware.Authenticate(d.Guard, d.Metrics))

	moderationHandler := handlers.NewModerationHandler(d.Moderation, d.Metrics)
	authenticated.POST("/moderate", moderationHandler.Moderate)

	tokenHandler := handlers.NewTokenHandler(d.Tokens)
	admin := authenticated.Group("/auth/tokens", middleware.RequireAdmin(d.Guard, d.Metrics))
	admin.POST("", tokenHandler.CreateToken)
	admin.GET("", tokenHandler.ListTokens)
	admin.DELETE("/:token", tokenHandler.DeleteToken)

	usageHandler := handlers.NewUsageHandler(d.Usage)
	admin.GET("/:token/usage", usageHandler.GetUsage)

	return router
}
