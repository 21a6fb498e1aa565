package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dealflow/dealflow/internal/auth"
	"github.com/dealflow/dealflow/internal/config"
	"github.com/dealflow/dealflow/internal/db"
	"github.com/dealflow/dealflow/internal/logger"
	"github.com/dealflow/dealflow/internal/metrics"
	"github.com/dealflow/dealflow/internal/services"
	"github.com/dealflow/dealflow/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedOnlyFlag    = flag.Bool("seed-only", false, "Run DB seed and exit")
)

func main() {
	flag.Parse()

	// Load configuration (.env, dealflow.toml, environment)
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.App.LogLevel, cfg.App.Dev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	dbConn, err := db.Open(cfg.Database, logger.Gorm(log, cfg.App.Dev), log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	if *migrateOnlyFlag {
		if err := migrate(cfg, dbConn); err != nil {
			log.Fatal("migration failed", zap.Error(err))
		}
		log.Info("migrations completed successfully")
		return
	}

	if *seedOnlyFlag {
		if err := db.Seed(dbConn); err != nil {
			log.Fatal("seeding failed", zap.Error(err))
		}
		log.Info("seeding completed successfully")
		return
	}

	// The schema is always brought up to date; MIGRATIONS selects the
	// versioned SQL files over AutoMigrate on postgres.
	if err := migrate(cfg, dbConn); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}

	// Seed the default admin and template
	if err := db.Seed(dbConn); err != nil {
		log.Fatal("seeding failed", zap.Error(err))
	}

	ctx := context.Background()

	var revoker auth.Revoker
	if cfg.Redis.Addr != "" {
		client, err := auth.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal("failed to connect to redis", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		defer client.Close()
		revoker = auth.NewRedisRevoker(client)
		log.Info("token revocation enabled", zap.String("redis", cfg.Redis.Addr))
	}

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		log.Fatal("failed to open logo storage", zap.Error(err))
	}

	sessions := auth.NewManager(cfg.Session.Secret, cfg.Session.TTL, revoker)
	// Sessions of deleted users are rejected
	sessions.SetUserVerifier(services.NewUserService(dbConn).Exists)

	appHandler := NewApp(dbConn, sessions, store, metrics.New(), log)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      appHandler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("port", cfg.Server.Port), zap.Bool("dev", cfg.App.Dev))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("error during shutdown", zap.Error(err))
	}
	log.Info("server stopped gracefully")
}

func migrate(cfg *config.Config, d *gorm.DB) error {
	if cfg.App.Migrations && cfg.Database.IsPostgres() {
		return db.RunSQLMigrations(cfg.Database)
	}
	return db.Migrate(d)
}
