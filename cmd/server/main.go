package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"neypot.backend/internal/config"
	"neypot.backend/internal/infrastructure/database"
	"neypot.backend/internal/infrastructure/jobs"
	"neypot.backend/internal/infrastructure/repositories"
	"neypot.backend/internal/interfaces/http/handlers"
	"neypot.backend/internal/usecases"
	"neypot.backend/pkg/crypto"
	"neypot.backend/pkg/jwt"
	"neypot.backend/pkg/logger"
	"neypot.backend/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
	initRedis  = redis.Init
	openDB     = database.Open
	runServer  = func(srv *http.Server) error { return srv.ListenAndServe() }
	getStdDB   = func(db *gorm.DB) (*sql.DB, error) { return db.DB() }
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := loadCfg()

	initLog(cfg.Server.Env)
	defer logger.Sync()
	logger.Info(context.Background(), "Logger initialized", zap.String("env", cfg.Server.Env))

	if err := initRedis(cfg.Redis.URL, cfg.Redis.Password); err != nil {
		logger.Error(context.Background(), "Failed to initialize Redis", zap.Error(err))
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	defer redis.Close()
	logger.Info(context.Background(), "Redis initialized")

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := openDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := getStdDB(db)
	if err != nil {
		return fmt.Errorf("failed to get generic database object: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		logger.Warn(context.Background(), "Database not available, endpoints will return errors", zap.Error(err))
	} else {
		logger.Info(context.Background(), "Connected to PostgreSQL via GORM")
	}

	hashers, err := crypto.LookupHashers(cfg.Token.HashKey, cfg.Token.LegacyFallback)
	if err != nil {
		return fmt.Errorf("failed to initialize token hashing: %w", err)
	}

	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry)

	// Repositories
	tenantRepo := repositories.NewTenantRepository(db)
	tokenRepo := repositories.NewApiTokenRepository(db)
	eventRepo := repositories.NewEventRepository(db)
	auditRepo := repositories.NewAuditLogRepository(db)
	uow := repositories.NewUnitOfWork(db)

	// Usecases
	auditUsecase := usecases.NewAuditLogUsecase(auditRepo)
	tokenAuth := usecases.NewTokenAuthUsecase(tokenRepo, hashers, cfg.Token.LastUsedTimeout)
	ingestUsecase := usecases.NewIngestUsecase(
		tokenAuth,
		usecases.DefaultRiskScorer(),
		usecases.NewEventNormalizer(cfg.Ingest.MaxBodyChars, cfg.Ingest.TrustPeerAddress),
		eventRepo,
	)
	tenantUsecase := usecases.NewTenantUsecase(tenantRepo, tokenRepo, eventRepo, uow, auditUsecase)
	apiTokenUsecase := usecases.NewApiTokenUsecase(tokenRepo, tenantRepo, uow, hashers[0], cfg.Token.GracePeriod, auditUsecase)
	eventUsecase := usecases.NewEventUsecase(eventRepo)

	// Handlers
	deps := routeDeps{
		ingestHandler:   handlers.NewIngestHandler(ingestUsecase, cfg.Ingest.MaxRequestBytes),
		tenantHandler:   handlers.NewTenantHandler(tenantUsecase),
		apiTokenHandler: handlers.NewApiTokenHandler(apiTokenUsecase),
		eventHandler:    handlers.NewEventHandler(eventUsecase),
		auditLogHandler: handlers.NewAuditLogHandler(auditUsecase),
		healthHandler: handlers.NewHealthHandler(
			handlers.ReadinessCheck{Name: "database", Check: sqlDB.PingContext},
			handlers.ReadinessCheck{Name: "redis", Check: redis.Ping},
		),
		jwtService: jwtService,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stoppers []func()
	if cfg.Jobs.RetentionEnabled {
		job := jobs.NewEventRetentionJob(tenantRepo, eventRepo, cfg.Jobs.RetentionInterval)
		go job.Start(ctx)
		stoppers = append(stoppers, job.Stop)
	}
	if cfg.Jobs.RotationFinalizerEnabled {
		job := jobs.NewRotationFinalizerJob(tokenRepo, auditUsecase, cfg.Jobs.RotationFinalizerInterval)
		go job.Start(ctx)
		stoppers = append(stoppers, job.Stop)
	}

	r, err := newRouter(cfg, deps)
	if err != nil {
		return err
	}

	for _, route := range r.Routes() {
		logger.Debug(ctx, "Registered route", zap.String("method", route.Method), zap.String("path", route.Path))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
		case <-ctx.Done():
			return
		}
		logger.Info(context.Background(), "Shutting down server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error(context.Background(), "Server shutdown failed", zap.Error(err))
		}
	}()

	logger.Info(ctx, "NeyPot backend starting",
		zap.String("port", cfg.Server.Port),
		zap.String("version", handlers.Version),
	)

	err = runServer(srv)

	for _, stop := range stoppers {
		stop()
	}
	tokenAuth.Drain()

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}
