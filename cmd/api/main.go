package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"balance-ledger/config"
	httpHandler "balance-ledger/internal/adapter/http/handler"
	"balance-ledger/internal/adapter/rowstore"
	"balance-ledger/internal/adapter/rowstore/memory"
	pgStorage "balance-ledger/internal/adapter/storage/postgres"
	redisStorage "balance-ledger/internal/adapter/storage/redis"
	"balance-ledger/internal/core/domain"
	"balance-ledger/internal/core/ports"
	"balance-ledger/internal/service"
	"balance-ledger/pkg/logger"

	"github.com/shopspring/decimal"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Str("store", cfg.Store.Backend).
		Msg("Starting Balance Ledger Service")

	ctx := context.Background()

	// Initialize the row store backend
	var (
		store        ports.RowStore
		healthChecks []ports.HealthChecker
	)
	switch cfg.Store.Backend {
	case "postgres":
		pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()

		pgStore := pgStorage.NewRowStore(pool)
		if err := pgStore.InitSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize row store schema")
		}
		store = pgStore
		healthChecks = append(healthChecks, pgStorage.NewHealthCheck(pool))
		log.Info().Msg("PostgreSQL row store ready")
	case "memory":
		memStore := memory.NewStore()
		memStore.Latency = cfg.Store.Latency
		store = memStore
		log.Info().Dur("latency", cfg.Store.Latency).Msg("In-memory row store ready")
	default:
		log.Fatal().Str("backend", cfg.Store.Backend).Msg("Unknown store backend")
	}

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	healthChecks = append(healthChecks, redisStorage.NewHealthCheck(rdb))
	log.Info().Msg("Redis connected")

	// Initialize typed adapters over the row store
	accounts := rowstore.NewAccountDirectory(store)
	ledger := rowstore.NewTransactionLedger(store)
	balances := rowstore.NewBalanceStore(store)
	idempStore := rowstore.NewIdempotencyStore(store)
	operators := rowstore.NewOperatorDirectory(store)

	// Initialize Redis stores
	idempCache := redisStorage.NewIdempotencyCache(rdb)

	// Initialize core services
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	maxAmount := decimal.Zero
	if cfg.Policy.MaxAmountPerPosting != "" {
		maxAmount, err = decimal.NewFromString(cfg.Policy.MaxAmountPerPosting)
		if err != nil {
			log.Fatal().Err(err).Str("value", cfg.Policy.MaxAmountPerPosting).
				Msg("Invalid policy.max_amount_per_posting")
		}
	}
	policy := service.Policy{
		MaxAmountPerPosting: maxAmount,
		ReadRetries:         cfg.Policy.ReadRetries,
		ReadRetryBackoff:    cfg.Policy.ReadRetryBackoff,
	}

	// Initialize business services
	authSvc := service.NewAuthService(operators, hashSvc, tokenSvc, log)
	engine := service.NewLedgerEngine(accounts, ledger, balances, idempStore, idempCache, policy, log)
	resolver := service.NewBalanceResolver(accounts, ledger, balances, log)
	audit := service.NewAuditQuery(accounts, ledger, balances, cfg.Policy.ReadRetries, cfg.Policy.ReadRetryBackoff, log)

	// Bootstrap the admin operator. The admin carries both capabilities;
	// operators registered through the API start with CanEdit only.
	if cfg.Auth.AdminUsername != "" {
		if err := bootstrapAdmin(ctx, operators, hashSvc, cfg.Auth); err != nil {
			log.Fatal().Err(err).Msg("Failed to bootstrap admin operator")
		}
		log.Info().Str("username", cfg.Auth.AdminUsername).Msg("Admin operator ready")
	}

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		Engine:         engine,
		Resolver:       resolver,
		Audit:          audit,
		TokenSvc:       tokenSvc,
		HealthCheckers: healthChecks,
		OpTimeout:      cfg.Policy.OpTimeout,
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// bootstrapAdmin creates the configured admin operator if it does not exist
// yet. Restarts are no-ops.
func bootstrapAdmin(ctx context.Context, operators ports.OperatorDirectory, hashSvc ports.HashService, cfg config.AuthConfig) error {
	if cfg.AdminPassword == "" {
		return errors.New("auth.admin_password must be set when auth.admin_username is")
	}

	existing, err := operators.GetByUsername(ctx, cfg.AdminUsername)
	if err != nil {
		return fmt.Errorf("lookup admin: %w", err)
	}
	if existing != nil {
		return nil
	}

	hash, err := hashSvc.Hash(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	err = operators.Create(ctx, &domain.Operator{
		Username:     cfg.AdminUsername,
		PasswordHash: hash,
		AgentName:    cfg.AdminAgentName,
		Branch:       cfg.AdminBranch,
		Capabilities: domain.Capabilities{CanEdit: true, CanAllowNegative: true},
	})
	if err != nil && !errors.Is(err, ports.ErrDuplicateUsername) {
		return fmt.Errorf("create admin: %w", err)
	}
	return nil
}
