// Package app wires configuration, storage, services and transports into a
// runnable application.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ladiom/kajopo-connect/internal/core/port"
	"github.com/ladiom/kajopo-connect/internal/infra/config"
	"github.com/ladiom/kajopo-connect/internal/infra/database"
	"github.com/ladiom/kajopo-connect/internal/infra/jobs"
	kafkainfra "github.com/ladiom/kajopo-connect/internal/infra/kafka"
	"github.com/ladiom/kajopo-connect/internal/infra/logger"
	redisinfra "github.com/ladiom/kajopo-connect/internal/infra/redis"
	"github.com/ladiom/kajopo-connect/internal/infra/security"
	"github.com/ladiom/kajopo-connect/internal/repository/memory"
	postgresrepo "github.com/ladiom/kajopo-connect/internal/repository/postgres"
	redisrepo "github.com/ladiom/kajopo-connect/internal/repository/redis"
	"github.com/ladiom/kajopo-connect/internal/transport/http/handlers"
	"github.com/ladiom/kajopo-connect/internal/transport/http/middleware"
	"github.com/ladiom/kajopo-connect/internal/transport/http/routes"
	"github.com/ladiom/kajopo-connect/internal/usecase"
)

const activityLogKey = "kajopo:activity"

// storeSet collects the persistence ports regardless of storage mode.
type storeSet struct {
	accounts      port.AccountRepository
	opportunities port.OpportunityRepository
	applications  port.ApplicationRepository
	conversations port.ConversationRepository
	messages      port.MessageRepository
	sessions      port.SessionStore
	lockouts      port.LockoutStore
	activity      port.ActivityLog
	rateLimits    port.RateLimitStore
}

// Application owns the wired components and their lifecycles.
type Application struct {
	cfg       *config.AppConfig
	engine    *gin.Engine
	logger    *zap.Logger
	pool      *pgxpool.Pool
	redis     *redisinfra.Client
	producer  *kafkainfra.Producer
	sessions  *usecase.SessionService
	retention *jobs.RetentionJob
}

// New builds the application for the configured storage mode.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	app := &Application{cfg: cfg, logger: log}

	var (
		stores         storeSet
		eventPublisher port.EventPublisher
		checks         map[string]handlers.ReadinessCheck
	)

	switch cfg.Storage.Mode {
	case "hosted":
		pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
		if err != nil {
			return nil, fmt.Errorf("init postgres: %w", err)
		}
		app.pool = pool

		redisClient, err := redisinfra.NewClient(cfg.Redis, log)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("init redis: %w", err)
		}
		app.redis = redisClient

		repos := postgresrepo.NewRepositories(pool)
		stores = storeSet{
			accounts:      repos.Accounts,
			opportunities: repos.Opportunities,
			applications:  repos.Applications,
			conversations: repos.Conversations,
			messages:      repos.Messages,
			sessions:      redisrepo.NewSessionRepository(redisClient.Client(), cfg.Redis.SessionPrefix, log),
			lockouts:      redisrepo.NewLockoutRepository(redisClient.Client(), cfg.Redis.LockoutPrefix, log),
			activity:      redisrepo.NewActivityLogRepository(redisClient.Client(), activityLogKey, log),
			rateLimits:    redisrepo.NewRateLimitRepository(redisClient.Client(), "kajopo:rate-limit", cfg.RateLimit.WindowDuration*2),
		}

		eventPublisher, app.producer = buildEventPublisher(cfg, log)
		checks = map[string]handlers.ReadinessCheck{
			"postgres": pool.Ping,
			"redis":    redisClient.HealthCheck,
		}

	case "local":
		store := memory.NewStore()
		stores = storeSet{
			accounts:      store.Accounts,
			opportunities: store.Opportunities,
			applications:  store.Applications,
			conversations: store.Conversations,
			messages:      store.Messages,
			sessions:      store.Sessions,
			lockouts:      store.Lockouts,
			activity:      store.Activity,
			rateLimits:    store.RateLimits,
		}
		eventPublisher = kafkainfra.NewStubPublisher(log)
		log.Info("running with in-process storage")

	default:
		return nil, fmt.Errorf("unknown storage mode %q", cfg.Storage.Mode)
	}

	secret := cfg.Auth.SessionSecret
	if secret == "" {
		// Config validation requires a secret in production, so this only
		// happens in development. Sessions will not survive a restart.
		secret, err = security.GenerateSecureToken(32)
		if err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
		log.Warn("auth.session_secret not set, using an ephemeral secret")
	}

	codec, err := security.NewSessionTokenCodec(secret, cfg.Auth.TokenIssuer)
	if err != nil {
		return nil, fmt.Errorf("init session token codec: %w", err)
	}

	hasher := security.NewPasswordHasher(security.Argon2Params{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  cfg.Argon2.SaltLength,
		KeyLength:   cfg.Argon2.KeyLength,
	})
	validator := security.DefaultPasswordValidator()

	sessionService := usecase.NewSessionService(stores.sessions, stores.activity, eventPublisher, codec, cfg.Session, log)
	lockoutGuard := usecase.NewLockoutGuard(stores.lockouts, stores.activity, eventPublisher, cfg.Lockout, log)
	resolver := usecase.NewPermissionResolver(stores.accounts)
	authService := usecase.NewAuthService(stores.accounts, sessionService, lockoutGuard, stores.activity, eventPublisher, hasher, validator, log)
	accountService := usecase.NewAccountService(stores.accounts, resolver, stores.activity, hasher, validator, log)
	opportunityService := usecase.NewOpportunityService(stores.opportunities, stores.applications, eventPublisher, log)
	messagingService := usecase.NewMessagingService(stores.conversations, stores.messages, eventPublisher, log)

	app.sessions = sessionService
	app.retention = jobs.NewRetentionJob(stores.messages, stores.applications, cfg.Retention, log)

	engine, err := routes.Register(routes.Dependencies{
		Config:          cfg,
		Logger:          log,
		RateLimiter:     middleware.NewRateLimiter(stores.rateLimits, log),
		ReadinessChecks: checks,
		Services: routes.ServiceSet{
			Auth:          authService,
			Sessions:      sessionService,
			Accounts:      accountService,
			Opportunities: opportunityService,
			Messaging:     messagingService,
			Resolver:      resolver,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("init routes: %w", err)
	}
	app.engine = engine

	return app, nil
}

func buildEventPublisher(cfg *config.AppConfig, log *zap.Logger) (port.EventPublisher, *kafkainfra.Producer) {
	if len(cfg.Kafka.Brokers) == 0 {
		log.Info("kafka brokers not configured, using stub publisher")
		return kafkainfra.NewStubPublisher(log), nil
	}

	producer, err := kafkainfra.NewProducer(cfg.Kafka, log)
	if err != nil {
		log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
		return kafkainfra.NewStubPublisher(log), nil
	}

	log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
	return kafkainfra.NewEventPublisher(producer, cfg.App, log), producer
}

// Run starts the HTTP server, the session expiry monitor and the retention
// job, blocking until the context is cancelled or the server fails.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		if a.producer != nil {
			if err := a.producer.Close(); err != nil {
				a.logger.Warn("close kafka producer", zap.Error(err))
			}
		}
	}()

	monitorCtx, stopMonitor := context.WithCancel(ctx)
	defer stopMonitor()
	go a.sessions.RunMonitor(monitorCtx)

	if err := a.retention.Start(); err != nil {
		return fmt.Errorf("start retention job: %w", err)
	}
	defer a.retention.Stop()

	var metricsSrv *http.Server
	if port := a.cfg.Telemetry.MetricsPort; port > 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				a.logger.Warn("metrics server stopped", zap.Error(err))
			}
		}()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting kajopo-connect API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
		zap.String("storage_mode", a.cfg.Storage.Mode),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if metricsSrv != nil {
			_ = metricsSrv.Shutdown(shutdownCtx)
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		if metricsSrv != nil {
			_ = metricsSrv.Close()
		}
		return err
	}
}
