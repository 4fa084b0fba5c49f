package main

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"neypot.backend/internal/config"
	"neypot.backend/internal/domain/entities"
	"neypot.backend/internal/infrastructure/datasources/postgres"
	"neypot.backend/internal/infrastructure/repositories"
	"neypot.backend/internal/usecases"
	"neypot.backend/pkg/crypto"
)

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	openDB     = postgres.NewConnection
)

// cliActor attributes audit records written from the command line.
var cliActor = entities.Actor{Email: "neypotctl"}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "neypotctl",
		Short: "Manage NeyPot tenants, ingest tokens and operator credentials",
		Long: `neypotctl administers a NeyPot backend directly against its database.

It reads the same environment (and optional .env file) as the server, so
tokens it issues hash with the server's TOKEN_HASH_KEY.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newTenantCmd())
	cmd.AddCommand(newTokenCmd())
	cmd.AddCommand(newOperatorTokenCmd())

	return cmd
}

func loadConfig() *config.Config {
	_ = loadDotenv()
	return loadCfg()
}

type stack struct {
	tenants *usecases.TenantUsecase
	tokens  *usecases.ApiTokenUsecase
	close   func()
}

func openStack(cfg *config.Config) (*stack, error) {
	db, err := openDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	hashers, err := crypto.LookupHashers(cfg.Token.HashKey, cfg.Token.LegacyFallback)
	if err != nil {
		closeDB(db)
		return nil, fmt.Errorf("token hashing: %w", err)
	}

	tenantRepo := repositories.NewTenantRepository(db)
	tokenRepo := repositories.NewApiTokenRepository(db)
	eventRepo := repositories.NewEventRepository(db)
	uow := repositories.NewUnitOfWork(db)
	audit := usecases.NewAuditLogUsecase(repositories.NewAuditLogRepository(db))

	return &stack{
		tenants: usecases.NewTenantUsecase(tenantRepo, tokenRepo, eventRepo, uow, audit),
		tokens:  usecases.NewApiTokenUsecase(tokenRepo, tenantRepo, uow, hashers[0], cfg.Token.GracePeriod, audit),
		close:   func() { closeDB(db) },
	}, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// withStack opens the database for the duration of fn.
func withStack(fn func(ctx context.Context, s *stack) error) error {
	s, err := openStack(loadConfig())
	if err != nil {
		return err
	}
	defer s.close()
	return fn(context.Background(), s)
}
