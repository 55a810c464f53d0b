package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"libreriapos/m/internal/api"
	"libreriapos/m/internal/auth"
	"libreriapos/m/internal/backup"
	"libreriapos/m/internal/catalog"
	"libreriapos/m/internal/config"
	"libreriapos/m/internal/customers"
	"libreriapos/m/internal/database"
	"libreriapos/m/internal/migrations"
	"libreriapos/m/internal/pos"
	"libreriapos/m/internal/reports"
	"libreriapos/m/internal/sales"
	"libreriapos/m/internal/seed"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := config.NewLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DatabaseDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if err := database.CheckIntegrity(db); err != nil {
		logger.Error("database integrity", slog.Any("error", err))
		os.Exit(1)
	}
	if err := migrations.Run(db); err != nil {
		logger.Error("run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	authSvc := auth.NewService(db, cfg.Secret, logger)
	if err := authSvc.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		logger.Error("seed administrator", slog.Any("error", err))
		os.Exit(1)
	}
	if cfg.SeedProductsCSV != "" {
		if _, err := seed.LoadProductsFile(ctx, db, cfg.SeedProductsCSV, logger); err != nil {
			logger.Warn("product seed skipped", slog.String("path", cfg.SeedProductsCSV), slog.Any("error", err))
		}
	}

	salesRepo := sales.NewRepository(db)
	engine := pos.NewEngine(salesRepo, pos.EngineConfig{TaxRate: cfg.Tax(), Timeout: cfg.CommitTimeout}, logger)

	handler := api.New(api.Deps{
		Auth:        authSvc,
		Catalog:     catalog.NewService(db, cfg.SearchLimit, logger),
		Customers:   customers.NewService(db),
		Sales:       salesRepo,
		Reports:     reports.NewService(db),
		Backups:     backup.NewManager(db, cfg.BackupDir, cfg.BackupKeep, logger),
		Engine:      engine,
		Logger:      logger,
		CORSOrigins: cfg.CORSOrigins,
		Production:  cfg.IsProduction(),
	})

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handler.Router(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Info("POS server starting", slog.String("addr", cfg.HTTPAddr), slog.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
