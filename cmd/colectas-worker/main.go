package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"colectas/internal/amqp"
	"colectas/internal/backend"
	"colectas/internal/cache"
	"colectas/internal/cli"
	"colectas/internal/log"
	"colectas/internal/metrics"
	"colectas/internal/worker"
)

func main() {
	cfg, logger := cli.LoadConfig(log.ComponentWorker)
	logger.Info("Starting colectas-worker", log.FieldOperation, log.OpStartup, "queue", cfg.AMQPQueue)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required by the audit worker")
		os.Exit(1)
	}
	if backend.BackendType(cfg.DataBackend) == backend.MemoryBackend {
		logger.Warn("Memory backend is not shared with the server; audit entries will be lost on exit")
	}

	ctx := context.Background()
	store := cli.InitBackend(ctx, cfg, logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	m := metrics.New(reg)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}

	auditWorker := worker.NewAuditWorker(store.Store, m, logger)
	cacheManager := cache.NewManager(logger)
	cacheManager.Register(auditWorker.Seen())
	cacheManager.StartCleanup(10 * time.Minute)

	var metricsSrv *http.Server
	if cfg.WorkerMetricsPort != "" {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", m.Handler())
		mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
			if err := amqpClient.Healthy(r.Context()); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte("ok"))
		})
		metricsSrv = &http.Server{Addr: ":" + cfg.WorkerMetricsPort, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server failed", log.FieldError, err)
			}
		}()
	}

	shutdownCtx, done := cli.GracefulShutdown(logger, 15*time.Second, func(ctx context.Context) {
		if metricsSrv != nil {
			_ = metricsSrv.Shutdown(ctx)
		}
		cacheManager.Stop()
		_ = amqpClient.Close()
		if store.Cleanup != nil {
			if err := store.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", log.FieldError, err)
			}
		}
	})

	go func() {
		err := amqpClient.ConsumeActivity(shutdownCtx, cfg.WorkerPrefetch, auditWorker.HandleActivity)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Activity consumption stopped", log.FieldError, err)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(shutdownCtx, done)
}
