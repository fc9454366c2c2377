package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/edoburu/docdata-reconciler/internal/adapters/docdata"
	"github.com/edoburu/docdata-reconciler/internal/adapters/postgres"
	"github.com/edoburu/docdata-reconciler/internal/adapters/secrets"
	"github.com/edoburu/docdata-reconciler/internal/config"
	"github.com/edoburu/docdata-reconciler/internal/domain/ports"
	"github.com/edoburu/docdata-reconciler/internal/handlers/statusnotify"
	merchantService "github.com/edoburu/docdata-reconciler/internal/services/merchant"
	"github.com/edoburu/docdata-reconciler/internal/services/reconciliation"
	"github.com/edoburu/docdata-reconciler/pkg/observability"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Logger)
	defer logger.Sync()

	logger.Info("Starting docdata reconciler",
		zap.String("merchant", cfg.Docdata.MerchantName),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database pool
	pool, err := initDatabase(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer pool.Close()

	logger.Info("Database connection established",
		zap.String("database", cfg.Database.Database),
	)

	db := postgres.NewDBExecutor(pool)
	orders := postgres.NewOrderRepository(db)
	lines := postgres.NewPaymentLineRepository(db)

	// Merchant credentials
	store, err := initCredentialStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize credential store", zap.Error(err))
	}
	resolver := merchantService.NewResolver(store, logger)

	creds, err := resolver.Resolve(ctx, cfg.Docdata.MerchantName)
	if err != nil {
		logger.Fatal("Failed to resolve merchant credentials", zap.Error(err))
	}

	gateway := docdata.NewClient(
		cfg.Docdata.BaseURL,
		*creds,
		time.Duration(cfg.Docdata.Timeout)*time.Second,
		logger,
	)

	// Reconciliation engine
	engineCfg := reconciliation.DefaultConfig()
	engineCfg.ExpiryWindow = time.Duration(cfg.Reconciliation.ExpiryDays) * 24 * time.Hour
	for currency, cents := range cfg.Reconciliation.Margins {
		engineCfg.PaymentSuccessMargins[currency] = cents
	}

	service := reconciliation.NewService(db, orders, lines, gateway, engineCfg, logger)

	// Metrics and health endpoints
	healthChecker := observability.NewHealthChecker()
	healthChecker.AddCheck("database", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	metricsServer := observability.StartMetricsServer(fmt.Sprintf("%d", cfg.Server.MetricsPort), healthChecker)

	// API server
	mux := http.NewServeMux()
	statusnotify.NewHandler(service, logger).Register(mux)

	apiServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening",
			zap.String("address", apiServer.Addr),
		)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to serve HTTP", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down servers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}
	if err := observability.ShutdownMetricsServer(metricsServer); err != nil {
		logger.Error("Metrics server shutdown error", zap.Error(err))
	}

	logger.Info("Servers stopped")
}

func initLogger(cfg config.LoggerConfig) *zap.Logger {
	var zapCfg zap.Config
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	if level, err := zapcore.ParseLevel(cfg.Level); err == nil {
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}

	logger, err := zapCfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

func initDatabase(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.Database.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolCfg.MaxConns = cfg.Database.MaxConns
	poolCfg.MinConns = cfg.Database.MinConns

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

func initCredentialStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.CredentialStore, error) {
	switch cfg.Docdata.CredentialBackend {
	case "local":
		return secrets.NewLocalCredentialStore(cfg.Docdata.CredentialPath, logger), nil
	case "vault":
		vaultCfg := secrets.DefaultVaultConfig(cfg.Docdata.CredentialPath)
		vaultCfg.Token = cfg.Docdata.VaultToken
		return secrets.NewVaultCredentialStore(vaultCfg, logger)
	case "aws":
		return secrets.NewAWSCredentialStore(ctx, secrets.DefaultAWSConfig(cfg.Docdata.CredentialPath), logger)
	default:
		return nil, fmt.Errorf("unsupported credential backend: %s", cfg.Docdata.CredentialBackend)
	}
}
