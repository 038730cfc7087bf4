package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/m1chalz/AI-First-sub005/internal/app"
	"github.com/m1chalz/AI-First-sub005/internal/config"
	"github.com/m1chalz/AI-First-sub005/internal/db"
	"github.com/m1chalz/AI-First-sub005/internal/logger"
)

func main() {
	// For receiving Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.IsProduction)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	if cfg.RunMigrations {
		if err := db.Migrate(cfg.DBDSN, zl); err != nil {
			zl.Fatal("failed to migrate database", zap.Error(err))
		}
	}

	// Connect DB
	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		zl.Fatal("failed to connect to db", zap.Error(err))
	}
	defer pool.Close()

	container, err := app.NewContainer(app.Config{
		IsProduction:        cfg.IsProduction,
		ProdOrigins:         cfg.ProdOrigins,
		DBPool:              pool,
		Logger:              zl,
		JWTSecret:           cfg.AdminJWTSecret,
		JWTTTL:              cfg.AdminJWTTTL,
		BcryptCost:          cfg.BcryptCost,
		UploadDir:           cfg.UploadDir,
		PhotoMaxBytes:       cfg.PhotoMaxBytes,
		PhotoAllowOverwrite: cfg.PhotoAllowOverwrite,
		CacheSize:           cfg.CacheSize,
		CacheTTL:            cfg.CacheTTL,
	})
	if err != nil {
		zl.Fatal("failed to init application", zap.Error(err))
	}

	// Use http.Server for graceful shutdown
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           container.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Run server in separate goroutine
	go func() {
		zl.Info("server running", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for Ctrl+C
	<-ctx.Done()
	zl.Info("shutdown signal received")

	// Create a shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		zl.Error("server forced to shutdown", zap.Error(err))
	}

	zl.Info("server exited gracefully")
}
