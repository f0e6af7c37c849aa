package main

import (
	"context"
	"errors"
	stdlog "log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"docvault/docs"
	"docvault/internal/auth"
	"docvault/internal/cache"
	"docvault/internal/config"
	"docvault/internal/database"
	"docvault/internal/database/migration"
	handlers "docvault/internal/http/handler"
	"docvault/internal/http/middleware"
	"docvault/internal/logger"
	"docvault/internal/otel"
	"docvault/internal/repository/postgres"
	"docvault/internal/service"
	"docvault/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// @title       docvault API
// @version     1.0
// @description Personal document vault: metadata records, attachments and tags.
// @BasePath    /
func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Log)
	if err != nil {
		stdlog.Fatalf("failed to build logger: %v", err)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server_failed", zap.Error(err))
	}
}

func run(cfg *config.AppConfig, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn("tracing_shutdown_failed", zap.Error(err))
		}
	}()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	backend, err := storage.New(ctx, cfg.Blob)
	if err != nil {
		return err
	}
	store, err := storage.NewInstrumented(backend, reg)
	if err != nil {
		return err
	}

	// The cache is optional; an unreachable Redis only costs latency.
	rdb, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		log.Warn("redis_unavailable", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		rdb = nil
	}
	tagCache := cache.NewRepository(rdb, log)
	defer tagCache.Close()

	docRepo := postgres.NewDocumentPostgres(db)
	tagRepo := postgres.NewTagPostgres(db)

	tagSvc := service.NewTagService(tagRepo, docRepo, tagCache, cfg.Redis.TTL, log)
	docSvc := service.NewDocumentService(store, docRepo,
		service.WithLogger(log),
		service.WithTagTracker(tagSvc),
		service.WithPresignTTL(cfg.Blob.PresignTTL),
	)

	access, err := newAccessService(cfg.Access, log)
	if err != nil {
		return err
	}

	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return err
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(),
		BodyLimit:             cfg.BodyLimitMB << 20,
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		DisableStartupMessage: true,
	})

	app.Use(otelfiber.Middleware())
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(promMiddleware.Handler())

	handlers.RegisterRoutes(app, handlers.Dependencies{
		DB:          db,
		Documents:   docSvc,
		Tags:        tagSvc,
		Access:      access,
		Cookie:      handlers.CookieConfig{Name: cfg.Access.CookieName, Secure: cfg.Access.SecureCookie},
		Gatherer:    reg,
		OpenAPIFile: "openapi.yaml",
	})

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	go func() {
		<-ctx.Done()
		log.Info("server_stopping")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			log.Error("server_shutdown_failed", zap.Error(err))
		}
	}()

	addr := ":" + cfg.Port
	log.Info("server_starting",
		zap.String("addr", addr),
		zap.String("blob_backend", cfg.Blob.Backend),
		zap.Bool("cache_enabled", tagCache.Enabled()),
		zap.Bool("access_gate", access.Enabled()),
	)
	if err := app.Listen(addr); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// newAccessService builds the access gate. Without ACCESS_TOKEN_SECRET the
// code hash signs session tokens, so rotating the code also ends sessions.
func newAccessService(cfg config.AccessConfig, log *zap.Logger) (*service.AccessService, error) {
	gate, err := auth.NewGate(cfg.CodeHash)
	if err != nil {
		return nil, err
	}
	secret := cfg.TokenSecret
	if secret == "" && gate.Enabled() {
		log.Warn("access_token_secret_missing")
		secret = cfg.CodeHash
	}
	return service.NewAccessService(gate, auth.NewTokenManager(secret, cfg.TokenTTL)), nil
}
