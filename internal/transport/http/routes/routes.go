package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mkordulewski/accounts-service/internal/core/domain"
	"github.com/mkordulewski/accounts-service/internal/infra/config"
	"github.com/mkordulewski/accounts-service/internal/infra/security"
	"github.com/mkordulewski/accounts-service/internal/transport/http/handlers"
	"github.com/mkordulewski/accounts-service/internal/transport/http/middleware"
	"github.com/mkordulewski/accounts-service/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Registration *usecase.RegistrationService
	Auth         *usecase.AuthService
	Profiles     *usecase.ProfileService
	Admin        *usecase.AdminService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	Tokens      *security.TokenManager
	RateLimiter *middleware.RateLimiter
	Metrics     *middleware.HTTPMetrics
	Services    ServiceSet
	Database    DatabaseChecker
	Cache       CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.CORS(deps.Config.App.AllowedOrigins))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	checks := make(map[string]handlers.ReadinessChecker, 2)
	if deps.Database != nil {
		checks["postgres"] = deps.Database.Ping
	}
	if deps.Cache != nil {
		checks["redis"] = deps.Cache.HealthCheck
	}

	healthHandler := handlers.NewHealthHandler(checks)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Ready)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authMiddleware := middleware.RequireAuth(deps.Tokens)

	api := r.Group("/api/v1")
	{
		userGroup := api.Group("/user")

		userHandler := handlers.NewUserHandler(deps.Services.Registration, deps.Services.Auth)
		userHandler.RegisterRoutes(userGroup, handlers.UserRouteMiddlewares{
			Register: rateLimitChain(deps, "user_register_ip", deps.Config.RateLimit.RegisterMaxAttempts),
			Verify:   rateLimitChain(deps, "user_verify_ip", deps.Config.RateLimit.VerifyMaxAttempts),
			Login:    rateLimitChain(deps, "user_login_ip", deps.Config.RateLimit.LoginMaxAttempts),
		})

		profileHandler := handlers.NewProfileHandler(deps.Services.Profiles)
		profileGroup := api.Group("/user")
		profileGroup.Use(authMiddleware)
		profileHandler.RegisterRoutes(profileGroup)

		adminHandler := handlers.NewAdminHandler(deps.Services.Admin, deps.Services.Auth)

		adminGroup := api.Group("/admin")
		if chain := rateLimitChain(deps, "admin_login_ip", deps.Config.RateLimit.LoginMaxAttempts); len(chain) > 0 {
			adminGroup.Use(chain...)
		}
		adminHandler.RegisterPublicRoutes(adminGroup)

		adminProtected := api.Group("/admin")
		adminProtected.Use(authMiddleware, middleware.RequireRole(domain.RoleAdmin))
		adminHandler.RegisterProtectedRoutes(adminProtected)
	}

	return r
}

func rateLimitChain(deps Dependencies, name string, limit int) []gin.HandlerFunc {
	if deps.RateLimiter == nil || deps.Config == nil || !deps.Config.RateLimit.Enabled {
		return nil
	}
	if limit <= 0 {
		return nil
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Minute
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(middleware.RateLimitRule{
		Name:       name,
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	})}
}
