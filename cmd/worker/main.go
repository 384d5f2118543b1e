package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diagnostiq/qft-results/internal/bootstrap"
	"github.com/diagnostiq/qft-results/internal/config"
	"github.com/diagnostiq/qft-results/internal/observability/logging"
	"github.com/diagnostiq/qft-results/internal/observability/metrics"
)

const serviceName = "worker"

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		logger.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeExportRequested(ctx, func(handlerCtx context.Context, jobID string) error {
		renderCtx, cancel := context.WithTimeout(handlerCtx, 2*time.Minute)
		defer cancel()

		workerMetrics.StartRender()
		start := time.Now()
		renderErr := app.RenderUC.RenderByID(renderCtx, jobID)
		workerMetrics.FinishRender(serviceName, time.Since(start), renderErr)

		if renderErr != nil {
			logger.Error("export render failed", "job_id", jobID, "error", renderErr)
		} else {
			logger.Info("export rendered", "job_id", jobID, "duration_ms", time.Since(start).Milliseconds())
		}
		return renderErr
	})
	if err != nil {
		logger.Error("worker subscribe failed", "error", err)
		os.Exit(1)
	}
}
