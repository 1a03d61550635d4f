// server runs the POS HTTP API. Configure via env or .env; see internal/config.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"restaurant-pos/backend/internal/audit"
	audithandler "restaurant-pos/backend/internal/audit/handler"
	auditrepo "restaurant-pos/backend/internal/audit/repository"
	categoryhandler "restaurant-pos/backend/internal/category/handler"
	categoryrepo "restaurant-pos/backend/internal/category/repository"
	"restaurant-pos/backend/internal/config"
	dashboardhandler "restaurant-pos/backend/internal/dashboard/handler"
	dashboardrepo "restaurant-pos/backend/internal/dashboard/repository"
	dashboardservice "restaurant-pos/backend/internal/dashboard/service"
	"restaurant-pos/backend/internal/db"
	"restaurant-pos/backend/internal/db/migrate"
	healthhandler "restaurant-pos/backend/internal/health/handler"
	identityhandler "restaurant-pos/backend/internal/identity/handler"
	identityservice "restaurant-pos/backend/internal/identity/service"
	"restaurant-pos/backend/internal/logging"
	menuhandler "restaurant-pos/backend/internal/menu/handler"
	"restaurant-pos/backend/internal/menu/imagestore"
	menurepo "restaurant-pos/backend/internal/menu/repository"
	orderhandler "restaurant-pos/backend/internal/order/handler"
	orderrepo "restaurant-pos/backend/internal/order/repository"
	orderservice "restaurant-pos/backend/internal/order/service"
	"restaurant-pos/backend/internal/platform/rbac"
	"restaurant-pos/backend/internal/policy/engine"
	"restaurant-pos/backend/internal/security"
	"restaurant-pos/backend/internal/server"
	"restaurant-pos/backend/internal/server/middleware"
	"restaurant-pos/backend/internal/settings"
	settingshandler "restaurant-pos/backend/internal/settings/handler"
	settingsrepo "restaurant-pos/backend/internal/settings/repository"
	tablehandler "restaurant-pos/backend/internal/table/handler"
	tablerepo "restaurant-pos/backend/internal/table/repository"
	"restaurant-pos/backend/internal/telemetry"
	telemetryhandler "restaurant-pos/backend/internal/telemetry/handler"
	telemetryotel "restaurant-pos/backend/internal/telemetry/otel"
	"restaurant-pos/backend/internal/telemetry/producer"
	"restaurant-pos/backend/internal/telemetry/store"
	userhandler "restaurant-pos/backend/internal/user/handler"
	userrepo "restaurant-pos/backend/internal/user/repository"
)

const shutdownTimeout = 15 * time.Second

func main() {
	runMigrations := flag.Bool("migrate", false, "Apply pending migrations before serving")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(os.Stdout, cfg.Env, slog.LevelInfo)
	ctx := context.Background()

	if err := run(ctx, cfg, logger, *runMigrations); err != nil {
		logger.Error(ctx, "server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *logging.SlogLogger, runMigrations bool) error {
	if runMigrations {
		if err := migrate.Run(cfg.DatabaseURL, migrate.Up); err != nil {
			return err
		}
		logger.Info(ctx, "migrations applied")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	evaluator, err := engine.NewOPAEvaluator(ctx)
	if err != nil {
		return err
	}

	tokens, err := newTokenProvider(cfg)
	if err != nil {
		return err
	}

	providers, err := telemetryotel.NewProviders(ctx, telemetryotel.Options{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: cfg.ServiceName,
		Environment: cfg.Env,
		Insecure:    cfg.OTLPInsecure,
	})
	if err != nil {
		return err
	}
	providers.SetGlobal()

	kafka, err := producer.NewKafkaProducer(cfg.TelemetryKafkaBrokersList(), cfg.TelemetryKafkaTopic)
	if err != nil {
		return err
	}
	emitters := []telemetry.EventEmitter{telemetryotel.NewEventEmitter(providers.LoggerProvider)}
	if kafka != nil {
		emitters = append(emitters, kafka)
		logger.Info(ctx, "telemetry: forwarding to kafka", "topic", cfg.TelemetryKafkaTopic)
	}
	async := telemetry.NewAsync(telemetry.Multi(emitters...), logger)

	telemetryStore, err := store.New(cfg.TelemetryDir, store.Options{
		RecentLimit: cfg.TelemetryRecentLimit,
		Emitter:     async,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	images, err := imagestore.New(ctx, imagestore.Options{
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
	})
	var presigner menuhandler.ImagePresigner
	switch {
	case errors.Is(err, imagestore.ErrNotConfigured):
		logger.Info(ctx, "menu images disabled: S3_BUCKET is not set")
	case err != nil:
		return err
	default:
		presigner = images
	}

	app := server.NewApp(server.Options{
		CookieName:       cfg.SessionCookieName,
		CORSOrigin:       cfg.CORSOrigin,
		AuthRateLimitMax: cfg.AuthRateLimitMax,
	}, buildDeps(cfg, conn, logger, evaluator, tokens, telemetryStore, presigner))

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "http server listening", "addr", cfg.HTTPAddr)
		errCh <- app.Listen(cfg.HTTPAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	logger.Info(ctx, "shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn(ctx, "http shutdown", "error", err)
	}

	drainCtx, drainCancel := context.WithTimeout(context.Background(), telemetry.ShutdownDrainDuration)
	if err := async.Drain(drainCtx); err != nil {
		logger.Warn(ctx, "telemetry drain", "error", err)
	}
	drainCancel()
	if err := kafka.Close(); err != nil {
		logger.Warn(ctx, "kafka close", "error", err)
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		logger.Warn(ctx, "otel shutdown", "error", err)
	}
	logger.Info(ctx, "http server stopped")
	return nil
}

func buildDeps(
	cfg *config.Config,
	conn *sql.DB,
	logger logging.Logger,
	evaluator *engine.OPAEvaluator,
	tokens *security.TokenProvider,
	telemetryStore *store.Store,
	images menuhandler.ImagePresigner,
) server.Deps {
	users := userrepo.NewPostgresRepository(conn)
	tables := tablerepo.NewPostgresRepository(conn)
	categories := categoryrepo.NewPostgresRepository(conn)
	items := menurepo.NewPostgresRepository(conn)
	orders := orderrepo.NewPostgresRepository(conn)
	audits := auditrepo.NewPostgresRepository(conn)

	auditLogger := audit.NewLogger(audits, middleware.ClientIP, logger)
	hasher := security.NewHasher(cfg.BcryptCost)
	settingsProvider := settings.NewProvider(settingsrepo.NewPostgresRepository(conn), settings.Defaults(cfg))

	can := func(action engine.Action, resource engine.Resource) func(context.Context) bool {
		return func(ctx context.Context) bool { return rbac.IsAllowed(ctx, evaluator, action, resource) }
	}

	orderSvc := orderservice.NewOrderService(
		orderservice.NewPostgresTransactor(conn),
		orderservice.Repos{Orders: orders, Tables: tables, Menu: items},
		settingsProvider,
	)
	dashboardSvc := dashboardservice.NewDashboardService(dashboardrepo.NewPostgresRepository(conn), tables, time.Local)

	return server.Deps{
		Log:       logger,
		Tokens:    tokens,
		Evaluator: evaluator,
		Audit:     auditLogger,

		Health: healthhandler.New(conn, evaluator, logger),
		Auth: identityhandler.New(
			identityservice.NewAuthService(users, hasher, tokens),
			auditLogger,
			identityhandler.CookieConfig{Name: cfg.SessionCookieName, Domain: cfg.CookieDomain, Secure: cfg.SecureCookies()},
			can(engine.ActionUpdate, engine.ResourceUsers),
		),
		Users:      userhandler.New(users, hasher, auditLogger, can(engine.ActionRead, engine.ResourceUsers)),
		Tables:     tablehandler.New(tables),
		Categories: categoryhandler.New(categories),
		Menu:       menuhandler.New(items, categories, settingsProvider, images, cfg.S3PublicBaseURL),
		Orders:     orderhandler.New(orderSvc, evaluator),
		Dashboard:  dashboardhandler.New(dashboardSvc),
		Settings:   settingshandler.New(settingsProvider),
		Telemetry:  telemetryhandler.New(telemetryStore, logger),
		AuditLogs:  audithandler.New(audits),
	}
}

// newTokenProvider signs with the configured key pair when present, else with JWT_SECRET.
func newTokenProvider(cfg *config.Config) (*security.TokenProvider, error) {
	if cfg.HasKeyPair() {
		signer, pub, err := security.LoadKeyPair(cfg.JWTPrivateKey, cfg.JWTPublicKey)
		if err != nil {
			return nil, err
		}
		return security.NewTokenProvider(signer, pub, cfg.JWTIssuer, cfg.JWTAudience, cfg.TokenTTL()), nil
	}
	return security.NewHMACTokenProvider([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.JWTAudience, cfg.TokenTTL())
}
