package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	"github.com/yumyai/pfamscan/internal/config"
	"github.com/yumyai/pfamscan/internal/util"
	"github.com/yumyai/pfamscan/logger"
	scandb "github.com/yumyai/pfamscan/pkg/db"
	"github.com/yumyai/pfamscan/pkg/handler"
	"github.com/yumyai/pfamscan/pkg/hmmer"
	"github.com/yumyai/pfamscan/pkg/metrics"
	"github.com/yumyai/pfamscan/pkg/middle"
	"go.uber.org/zap"
)

const VERSION = "0.1.0"

func main() {

	// Try load env before the logger so the level can come from .env
	config.LoadDotEnv()
	cfg := config.FromEnv()

	// Establish logger
	if err := logger.InitLogger(logger.ParseLevel(cfg.LogLevel)); err != nil {
		panic(err)
	}
	defer logger.Sync() // Make sure that the buffered is flushed.

	if err := util.EnsureDir(path.Dir(cfg.StorePath())); err != nil {
		logger.Fatal("Cannot create data directory", zap.Error(err))
	}

	// Connect to db
	store, err := scandb.OpenScanStore(context.Background(), cfg.StorePath())
	if err != nil {
		logger.Fatal("Cannot open scan store", zap.String("DB_LOC", cfg.StorePath()), zap.Error(err))
	}
	defer store.Close()

	scanner := hmmer.NewRemoteScan(
		hmmer.WithServiceURL(cfg.ServiceURL),
		hmmer.WithDatabase(cfg.Database),
		hmmer.WithCutGA(cfg.CutGA),
	)

	dbctx := &handler.DBContext{
		Store:       store,
		Scanner:     scanner,
		ScanJobs:    handler.NewScanJobManager(),
		Metrics:     metrics.New(),
		ScanTimeout: cfg.ScanTimeout,
	}

	logger.Info("Start:", zap.String("Version", VERSION))
	logger.Info("Open database on", zap.String("DB_LOC", cfg.StorePath()))
	logger.Info("Scanning against", zap.String("service", cfg.ServiceURL), zap.String("hmmdb", cfg.Database), zap.Bool("cut_ga", cfg.CutGA))

	// Apply middleware
	zapLogger := logger.Logger()
	mux := middle.Chain(handler.NewRouter(dbctx),
		middle.RequestIDMiddleware(zapLogger),
		middle.LoggingMiddleware(zapLogger),
		middle.MetricsMiddleware(dbctx.Metrics),
	)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Server starting", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Error starting server:", zap.String("error message", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown failed", zap.Error(err))
	}
}
