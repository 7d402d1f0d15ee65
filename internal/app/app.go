package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"placement-service/internal/application"
	"placement-service/internal/auth"
	"placement-service/internal/config"
	"placement-service/internal/db"
	"placement-service/internal/email"
	"placement-service/internal/health"
	"placement-service/internal/identity"
	"placement-service/internal/job"
	"placement-service/internal/logger"
	"placement-service/internal/middleware"
	"placement-service/internal/notification"
	"placement-service/internal/outbox"
	"placement-service/internal/telemetry"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
)

const (
	applyLimit       = 3
	applyWindow      = time.Minute
	tokenPurgePeriod = time.Hour
)

type App struct {
	config    *config.Config
	router    chi.Router
	server    *http.Server
	logger    *slog.Logger
	db        *bun.DB
	redis     *redis.Client
	telemetry *telemetry.Telemetry
	events    *eventTransport
	relay     *outbox.Relay
	consumer  *notification.Consumer
	auth      *auth.Service

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.NewWithServiceContext(ServiceName, Version, cfg.Env)
	slog.SetDefault(log)
	log.Info("initializing application", "commit", GitCommit, "built", BuildTime)

	ctx := context.Background()

	tel, err := telemetry.Init(ctx, ServiceName, Version, cfg.Telemetry.OTLPEndpoint, log)
	if err != nil {
		return nil, err
	}
	m := tel.Metrics

	database, err := db.New(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	if err := m.Database.RegisterDB(database.DB, tel.MeterProvider.Meter(ServiceName)); err != nil {
		log.Warn("failed to register pool metrics", "error", err)
	}

	if err := db.RunMigrations(ctx, database, models(), statements()...); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	a := &App{
		config:    cfg,
		router:    chi.NewRouter(),
		logger:    log,
		db:        database,
		telemetry: tel,
	}

	identityService := identity.NewService(identity.NewRepository(database, m), log)
	if err := a.seedAdmin(ctx, identityService); err != nil {
		return nil, err
	}

	issuer := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.AccessTTL())
	a.auth = auth.NewService(identityService, auth.NewRepository(database, m), issuer, cfg.Auth.RefreshTTL(), log)
	authHandler := auth.NewHandler(a.auth, auth.CookieSettingsFor(cfg.Env), log)
	authMiddleware := auth.NewMiddleware(issuer, identityService, log)

	jobService := job.NewService(job.NewRepository(database, m), log)
	jobHandler := job.NewHandler(jobService, log)

	applicationService := application.NewService(application.NewRepository(database, m), jobService, log, m)

	if cfg.Redis.Addr != "" {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	applyLimiter := a.newRateLimiter().Limit("apply", actorKey, applyLimit, applyWindow)
	applicationHandler := application.NewHandler(applicationService, log, applyLimiter)

	notificationService := notification.NewService(
		notification.NewRepository(database, m),
		email.NewSender(cfg.Email, log),
		log, m,
	)
	notificationHandler := notification.NewHandler(notificationService, log)
	a.consumer = notification.NewConsumer(notificationService, identityService, log)

	a.events = newEventTransport(cfg.Events, log, m)
	a.relay = outbox.NewRelay(outbox.NewStore(database, m), a.events.publisher,
		cfg.Events.RelayInterval(), cfg.Events.RelayBatchSize, cfg.Events.RelayMaxAttempts, log, m)

	a.router.Use(chimw.RequestID, chimw.Recoverer)
	a.router.Use(middleware.CORS(cfg.Server.CORSOrigins))

	health.NewHandler(database, m).RegisterRoutes(a.router)
	authHandler.RegisterRoutes(a.router)

	a.router.Group(func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)
		jobHandler.RegisterRoutes(r)
		applicationHandler.RegisterRoutes(r)
		notificationHandler.RegisterRoutes(r)
	})

	log.Info("application initialized successfully")
	return a, nil
}

func models() []interface{} {
	var all []interface{}
	all = append(all, identity.Models()...)
	all = append(all, auth.Models()...)
	all = append(all, job.Models()...)
	all = append(all, application.Models()...)
	all = append(all, notification.Models()...)
	all = append(all, outbox.Models()...)
	return all
}

func statements() []string {
	var all []string
	all = append(all, outbox.Statements()...)
	all = append(all, notification.Statements()...)
	return all
}

func (a *App) seedAdmin(ctx context.Context, identityService *identity.Service) error {
	if a.config.Admin.Email == "" || a.config.Admin.Password == "" {
		return nil
	}
	hash, err := auth.HashPassword(a.config.Admin.Password)
	if err != nil {
		return err
	}
	if err := identityService.EnsureAdmin(ctx, a.config.Admin.Email, hash, a.config.Admin.Name); err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}
	return nil
}

// newRateLimiter passes a nil interface, not a nil *redis.Client, when
// Redis is not configured.
func (a *App) newRateLimiter() *middleware.RateLimiter {
	if a.redis == nil {
		a.logger.Info("redis not configured, rate limiting disabled")
		return middleware.NewRateLimiter(nil, a.logger, a.telemetry.Metrics)
	}
	return middleware.NewRateLimiter(a.redis, a.logger, a.telemetry.Metrics)
}

func actorKey(r *http.Request) string {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		return ""
	}
	return actor.UserID.String()
}

// Run starts the background workers and serves HTTP until Shutdown.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.goWorker(ctx, "outbox relay", a.relay.Run)
	a.goWorker(ctx, "notification consumer", func(ctx context.Context) error {
		return a.events.subscriber.Subscribe(ctx, a.consumer.Handle)
	})
	a.goWorker(ctx, "refresh token purge", a.purgeTokens)

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%s", a.config.Server.Port),
		Handler:      a.router,
		ReadTimeout:  time.Duration(a.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(a.config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(a.config.Server.IdleTimeout) * time.Second,
	}

	a.logger.Info("server starting", "port", a.config.Server.Port, "events", a.events.driver)
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) goWorker(ctx context.Context, name string, run func(context.Context) error) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.logger.Info("worker starting", "worker", name)
		if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("worker stopped", "worker", name, "error", err)
		}
	}()
}

func (a *App) purgeTokens(ctx context.Context) error {
	ticker := time.NewTicker(tokenPurgePeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := a.auth.PurgeExpiredTokens(ctx); err != nil {
				a.logger.WarnContext(ctx, "failed to purge refresh tokens", "error", err)
			}
		}
	}
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down server")

	var errs []error
	if a.server != nil {
		errs = append(errs, a.server.Shutdown(ctx))
	}

	if a.cancel != nil {
		a.cancel()
	}
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		a.logger.Warn("workers did not stop before shutdown deadline")
	}
	a.events.Close(a.logger)

	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	db.Close(a.db)
	errs = append(errs, a.telemetry.Shutdown(ctx, a.logger))

	return errors.Join(errs...)
}
