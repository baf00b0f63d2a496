// Package main запускает HTTP-сервер сервиса заказов.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/pedidos-system/internal/config"
	"github.com/mmeshcher/pedidos-system/internal/export"
	"github.com/mmeshcher/pedidos-system/internal/handler"
	"github.com/mmeshcher/pedidos-system/internal/logger"
	"github.com/mmeshcher/pedidos-system/internal/middleware"
	"github.com/mmeshcher/pedidos-system/internal/report"
	"github.com/mmeshcher/pedidos-system/internal/repository"
	"github.com/mmeshcher/pedidos-system/internal/service"
	"github.com/mmeshcher/pedidos-system/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.AppEnv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger initialization error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	sugar := log.Sugar()

	if cfg.JWTSecret == "" {
		sugar.Fatalw("configuration error", "error", "JWT_SECRET is required")
	}

	loc, err := cfg.Location()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI, cfg.Timezone)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	blobs, backend, err := storage.Open(ctx, storage.ObjectStoreConfig{
		Endpoint:        cfg.ObjectStore.Endpoint,
		Region:          cfg.ObjectStore.Region,
		AccessKeyID:     cfg.ObjectStore.AccessKeyID,
		SecretAccessKey: cfg.ObjectStore.SecretAccessKey,
		Bucket:          cfg.ObjectStore.Bucket,
		PublicBaseURL:   cfg.ObjectStore.PublicBaseURL,
	}, storage.SupabaseConfig{
		URL:          cfg.Supabase.URL,
		Key:          cfg.Supabase.Key,
		BucketPrefix: cfg.Supabase.BucketPrefix,
	})
	if err != nil {
		sugar.Fatalw("blob storage initialization error", "error", err.Error())
	}
	if backend == "none" {
		sugar.Warn("blob storage is not configured, uploads will fail")
	}

	svc := service.NewService(repo, blobs, service.Options{DeliverySurcharge: cfg.DeliverySurcharge}, log)
	defer svc.Close()

	h := handler.NewHandler(handler.Deps{
		Orders:   svc,
		Catalog:  service.NewCatalog(repo, blobs, log),
		Users:    service.NewUsers(repo, log),
		Reports:  report.NewAggregator(repo, loc, log),
		Renderer: export.NewRenderer(export.Options{MinBytes: cfg.ReportMinBytes, MaxBytes: cfg.ReportMaxBytes}, log),
		Health:   repo,
		Auth:     middleware.NewAuthMiddleware(cfg.JWTSecret),
	}, handler.Options{
		Env:            cfg.AppEnv,
		MaxUploadBytes: cfg.MaxUploadBytes,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	}, log)

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           h.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sugar.Infow("starting pedidos server", "addr", cfg.RunAddress, "storage", backend, "timezone", cfg.Timezone)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Errorw("application terminated with error", "error", err)
	}
}
