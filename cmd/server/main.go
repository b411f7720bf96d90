package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/SurveyIntake/internal/config"
	"github.com/JonMunkholm/SurveyIntake/internal/logging"
	"github.com/JonMunkholm/SurveyIntake/internal/schema"
	"github.com/JonMunkholm/SurveyIntake/internal/submission"
	"github.com/JonMunkholm/SurveyIntake/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"persistence", cfg.Database.Enabled(),
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"validation_max_parallel", cfg.Validation.MaxParallel,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	if cfg.Validation.RulesDir != "" {
		if err := registerRules(cfg.Validation.RulesDir); err != nil {
			slog.Error("failed to load schemas", "dir", cfg.Validation.RulesDir, "error", err)
			os.Exit(1)
		}
	}
	for _, def := range schema.All() {
		slog.Debug("schema registered", "key", def.Key, "kind", def.Kind, "files", len(def.Document.Files))
	}
	slog.Info("schemas registered", "count", schema.Count())

	ctx := context.Background()

	var store *submission.Store
	if cfg.Database.Enabled() {
		pool, err := connect(ctx, &cfg.Database)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		store = submission.NewStore(pool)
		if cfg.Database.Migrate {
			if err := store.Migrate(ctx); err != nil {
				slog.Error("failed to migrate database", "error", err)
				os.Exit(1)
			}
		}
	} else {
		slog.Warn("DATABASE_URL not set, submission results will not be stored")
	}

	service := submission.NewService(cfg.Validation.MaxParallel)
	server := web.NewServer(cfg, service, store)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}

// registerRules adds every schema document in dir to the registry.
func registerRules(dir string) error {
	docs, err := schema.LoadDir(dir)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		if err := schema.Add(schema.FromDocument(doc)); err != nil {
			return err
		}
		slog.Info("schema loaded", "key", doc.Name, "dir", dir)
	}
	return nil
}

// connect opens and pings a pool configured from cfg.
func connect(ctx context.Context, cfg *config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	// Log which database we connected to
	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}
	return pool, nil
}
