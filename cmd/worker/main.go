package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/papaclick/papaclick-engine/internal/bootstrap"
	"github.com/papaclick/papaclick-engine/internal/config"
	"github.com/papaclick/papaclick-engine/internal/core/domain"
	"github.com/papaclick/papaclick-engine/internal/infrastructure/notify"
	"github.com/papaclick/papaclick-engine/internal/observability/logging"
	"github.com/papaclick/papaclick-engine/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("papaclick-worker", cfg.LogLevel)
	logging.Install(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := metrics.NewWorkerMetrics("papaclick-worker")

	app, err := bootstrap.New(ctx, cfg, bootstrap.NoopAuditMonitor{})
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	notifier := notify.NewLogNotifier(logger)

	logger.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeLifecycleEvents(ctx, func(handlerCtx context.Context, event domain.LifecycleEvent) error {
		workerMetrics.StartEvent()
		workerMetrics.ObserveQueueLag(time.Since(event.OccurredAt))
		start := time.Now()

		handleCtx, cancel := context.WithTimeout(handlerCtx, 30*time.Second)
		defer cancel()

		classification, err := app.Querier.GetByID(handleCtx, event.ClassificationID)
		if err == nil {
			err = notifier.Notify(handleCtx, event, classification)
		}
		workerMetrics.FinishEvent(event.Action, time.Since(start), err)
		return err
	})
	if err != nil {
		logger.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
}
