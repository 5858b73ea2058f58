package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kirillkom/agro-knowledge/internal/bootstrap"
	"github.com/kirillkom/agro-knowledge/internal/config"
	"github.com/kirillkom/agro-knowledge/internal/core/domain"
	"github.com/kirillkom/agro-knowledge/internal/observability/logging"
	"github.com/kirillkom/agro-knowledge/internal/observability/metrics"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.NewJSONLogger("agrokb-worker", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := metrics.NewWorkerMetrics("agrokb-worker")
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{
		Logger:       logger,
		Observer:     workerMetrics.Knowledge(),
		ConnectQueue: true,
	})
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker_metrics_server_error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker_subscribed", "subject", cfg.NATSSubject, "metrics_port", cfg.WorkerMetricsPort)
	err = app.Queue.SubscribeIngestRequests(ctx, func(handlerCtx context.Context, req domain.IngestRequest) error {
		if !req.UploadedAt.IsZero() {
			workerMetrics.ObserveQueueLag(time.Since(req.UploadedAt))
		}
		processCtx, cancel := context.WithTimeout(handlerCtx, cfg.WorkerIngestTimeout)
		defer cancel()

		workerMetrics.StartDocument()
		started := time.Now()
		err := app.ProcessUC.Process(processCtx, req)
		workerMetrics.FinishDocument(time.Since(started), err)
		return err
	})
	if err != nil {
		logger.Error("worker_subscribe_error", "error", err)
		os.Exit(1)
	}
}
