package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ladiom/kajopo-connect/internal/infra/config"
	"github.com/ladiom/kajopo-connect/internal/transport/http/handlers"
	"github.com/ladiom/kajopo-connect/internal/transport/http/middleware"
	"github.com/ladiom/kajopo-connect/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth          *usecase.AuthService
	Sessions      *usecase.SessionService
	Accounts      *usecase.AccountService
	Opportunities *usecase.OpportunityService
	Messaging     *usecase.MessagingService
	Resolver      *usecase.PermissionResolver
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	Services    ServiceSet
	// ReadinessChecks probe backing stores for /readyz; absent in local mode.
	ReadinessChecks map[string]handlers.ReadinessCheck
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) (*gin.Engine, error) {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.CORS(deps.Config.CORS.AllowedOrigins))

	metrics, err := middleware.NewHTTPMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		return nil, err
	}
	r.Use(metrics.Handler())

	healthHandler := handlers.NewHealthHandler(deps.ReadinessChecks)
	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")

	cfg := deps.Config.RateLimit
	authHandler := handlers.NewAuthHandler(deps.Services.Auth, deps.Services.Sessions,
		handlers.WithLoginLimit(limitFunc(deps.RateLimiter, "login", cfg.LoginMaxAttempts, cfg.WindowDuration)),
		handlers.WithRegisterLimit(limitFunc(deps.RateLimiter, "register", cfg.RegisterMaxAttempts, cfg.WindowDuration)),
	)
	authHandler.RegisterRoutes(api.Group("/auth"))

	opportunityHandler := handlers.NewOpportunityHandler(deps.Services.Opportunities, deps.Services.Sessions, deps.Services.Resolver)
	opportunityHandler.RegisterRoutes(api)

	messagingHandler := handlers.NewMessagingHandler(deps.Services.Messaging, deps.Services.Sessions,
		handlers.WithSendLimit(limitFunc(deps.RateLimiter, "message", cfg.MessageMaxAttempts, cfg.WindowDuration)),
	)
	messagingHandler.RegisterRoutes(api)

	adminHandler := handlers.NewAdminHandler(deps.Services.Accounts, deps.Services.Opportunities, deps.Services.Sessions, deps.Services.Resolver)
	adminHandler.RegisterRoutes(api)

	return r, nil
}

// limitFunc builds a rate limit middleware, or nil when throttling is off.
func limitFunc(rl *middleware.RateLimiter, name string, limit int, window time.Duration) gin.HandlerFunc {
	if rl == nil || limit <= 0 || window <= 0 {
		return nil
	}
	return rl.Limit(middleware.RateLimitRule{
		Name:   name,
		Limit:  limit,
		Window: window,
	})
}
