package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/diagnostiq/qft-results/internal/adapters/http"
	"github.com/diagnostiq/qft-results/internal/bootstrap"
	"github.com/diagnostiq/qft-results/internal/config"
	"github.com/diagnostiq/qft-results/internal/observability/logging"
	"github.com/diagnostiq/qft-results/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("api", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		logger.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	router := httpadapter.NewRouter(app.ImportUC, app.SessionUC, app.SearchUC, app.ExportUC, httpadapter.RouterOptions{
		Metrics:             metrics.NewHTTPServerMetrics("api"),
		ImportRatePerMinute: cfg.ImportRatePerMinute,
		ImportBurst:         cfg.ImportBurst,
		MaxUploadBytes:      cfg.MaxUploadBytes,
	})
	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api listening", "port", cfg.APIPort, "db_driver", cfg.DBDriver)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("api server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api shutdown failed", "error", err)
	}
}
