package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"quote_api/internal/config"
	"quote_api/internal/handler"
	"quote_api/internal/logging"
	"quote_api/internal/middleware"
	"quote_api/internal/repository"
	"quote_api/internal/service"
	"quote_api/internal/telemetry"
	"quote_api/internal/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

// stores holds the repositories chosen by configuration plus their cleanup.
type stores struct {
	quotes  repository.QuoteRepository
	users   repository.UserRepository
	checks  map[string]handler.Pinger
	closers []io.Closer
}

func (s *stores) Close() {
	for _, c := range s.closers {
		_ = c.Close()
	}
}

type closerFunc func()

func (f closerFunc) Close() error { f(); return nil }

func run() error {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// --- Logging ---
	logger, logCloser := logging.New(logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Path:       cfg.Log.File,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
			Compress:   cfg.Log.Compress,
		},
	})
	defer logCloser.Close()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Telemetry ---
	otelProvider, err := telemetry.New(ctx, telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  cfg.App.Name,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialise telemetry: %w", err)
	}
	defer func() {
		if err := otelProvider.Shutdown(context.Background()); err != nil {
			logger.Error("telemetry shutdown failed", slog.Any("error", err))
		}
	}()

	// --- Storage ---
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	// --- Services ---
	quoteService := service.NewQuoteService(st.quotes)
	if cfg.Storage.Seed {
		seedQuotes(ctx, quoteService, logger)
	}

	// --- Handlers ---
	routerCfg := handler.RouterConfig{
		Quotes:       handler.NewQuoteHandler(quoteService),
		Health:       handler.NewHealthHandler(st.checks),
		Metrics:      middleware.NewMetrics(),
		QuoteAccess:  cfg.EffectiveQuoteAccess(),
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	}
	if cfg.Auth.Enabled {
		jwtUtil := utils.NewJWTUtil(cfg.Auth.JWTSecret, cfg.Auth.JWTExpirationHours)
		authService := service.NewAuthService(st.users, jwtUtil, cfg.Auth.BcryptCost)
		routerCfg.Auth = handler.NewAuthHandler(authService)
		routerCfg.Users = handler.NewUserHandler(authService)
		routerCfg.AuthMiddleware = middleware.JWTAuthMiddleware(authService)
	}
	if cfg.Telemetry.Enabled {
		routerCfg.Tracing = telemetry.Middleware(cfg.App.Name)
	}

	if cfg.App.Environment != "local" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handler.NewRouter(routerCfg)
	for _, route := range router.Routes() {
		logger.Info("route registered", slog.String("method", route.Method), slog.String("path", route.Path))
	}

	// --- Start Server ---
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			slog.String("port", cfg.Server.Port),
			slog.String("quote_backend", cfg.Storage.Backend),
			slog.Bool("auth_enabled", cfg.Auth.Enabled),
			slog.String("quote_access", cfg.EffectiveQuoteAccess()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// --- Graceful Shutdown ---
	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exited")
	return nil
}

// seedQuotes fills an empty store with the default quotes. A failed seed is
// logged and the server keeps running; an unreadable quote file still serves
// empty reads.
func seedQuotes(ctx context.Context, quotes service.QuoteService, logger *slog.Logger) {
	seeded, err := quotes.SeedQuotes(ctx, service.DefaultSeedQuotes())
	if err != nil {
		logger.Error("failed to seed quotes, continuing without them",
			slog.Int("seeded", seeded), slog.Any("error", err))
		return
	}
	if seeded > 0 {
		logger.Info("seeded initial quotes", slog.Int("count", seeded))
	}
}

// openStores connects the relational database when needed and builds the
// quote and user repositories for the configured backends.
func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*stores, error) {
	st := &stores{checks: map[string]handler.Pinger{}}

	if cfg.NeedsDatabase() {
		switch cfg.Database.Driver {
		case config.DriverPostgres:
			pool, err := config.ConnectDB(ctx, cfg.Database.PostgresConfig(), logger)
			if err != nil {
				return nil, fmt.Errorf("failed to connect to database: %w", err)
			}
			st.closers = append(st.closers, closerFunc(pool.Close))
			if err := config.AutoMigrate(ctx, pool, logger); err != nil {
				st.Close()
				return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
			}
			st.users = repository.NewUserRepository(pool)
			if cfg.Storage.Backend == config.BackendDatabase {
				st.quotes = repository.NewQuoteRepository(pool)
			}
			st.checks["database"] = handler.PingFunc(pool.Ping)
		case config.DriverSQLite:
			db, err := config.ConnectSQLite(ctx, cfg.Database.SQLitePath)
			if err != nil {
				return nil, err
			}
			st.closers = append(st.closers, db)
			if err := config.MigrateSQLite(ctx, db, logger); err != nil {
				st.Close()
				return nil, err
			}
			st.users = repository.NewSQLiteUserRepository(db)
			if cfg.Storage.Backend == config.BackendDatabase {
				st.quotes = repository.NewSQLiteQuoteRepository(db)
			}
			st.checks["database"] = handler.PingFunc(db.PingContext)
		}
	}

	if cfg.Storage.Backend == config.BackendFile {
		quotes, err := repository.NewFileQuoteRepository(cfg.Storage.FilePath, logger)
		if err != nil {
			st.Close()
			return nil, err
		}
		st.quotes = quotes
		st.checks["quote_file"] = handler.PingFunc(func(context.Context) error {
			return repository.CheckQuoteFile(cfg.Storage.FilePath)
		})
	}

	return st, nil
}
