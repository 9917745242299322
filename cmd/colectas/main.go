package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"colectas/internal/amqp"
	"colectas/internal/backend"
	"colectas/internal/cache"
	"colectas/internal/cli"
	"colectas/internal/core"
	apphttp "colectas/internal/http"
	"colectas/internal/log"
	"colectas/internal/metrics"
	"colectas/internal/services"
	gsheet "colectas/internal/sheets/google"
	"colectas/internal/session"
)

func main() {
	cfg, logger := cli.LoadConfig(log.ComponentApp)
	logger.Info("Starting colectas", log.FieldOperation, log.OpStartup, "port", cfg.Port, "backend", cfg.DataBackend)

	ctx := context.Background()
	store := cli.InitBackend(ctx, cfg, logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	ledgers := services.NewLedgerCache(cfg.CacheSize, cfg.CacheTTL)
	cacheManager := cache.NewManager(logger)
	cacheManager.Register(ledgers)
	cacheManager.StartCleanup(cfg.CacheTTL)

	checks := map[string]func(context.Context) error{}
	if p, ok := store.Store.(backend.Pinger); ok {
		checks["store"] = p.Ping
	}

	opts := []services.Option{
		services.WithMetrics(m),
		services.WithLogger(logger),
		services.WithLedgerCache(ledgers),
	}

	// The audit log still works without a broker: entries are written
	// directly to the store.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		c, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("AMQP unavailable, audit entries will be written directly", log.FieldError, err)
		} else {
			amqpClient = c
			opts = append(opts, services.WithPublisher(c))
			checks["amqp"] = c.Healthy
		}
	}
	clubs := services.NewClubService(store.Store, opts...)

	if cfg.SeedClubID != "" {
		if _, err := store.Store.GetClub(ctx, cfg.SeedClubID); errors.Is(err, core.ErrNotFound) {
			club := core.Club{ID: cfg.SeedClubID, Nombre: cfg.SeedClubName, CreatedAt: time.Now().UTC()}
			if err := store.Store.SaveClub(ctx, club); err != nil {
				logger.Error("Failed to create seed club", log.FieldClubID, club.ID, log.FieldError, err)
				os.Exit(1)
			}
			logger.Info("Created seed club", log.FieldClubID, club.ID)
		}
	}

	reportCfg := services.ReportConfig{
		LowBalance:   core.Money{Units: cfg.LowBalanceThreshold},
		Location:     cfg.Location(),
		MaxListItems: cfg.ReportMaxItems,
		Metrics:      m,
		Logger:       logger,
	}
	if cfg.SheetsEnabled() {
		exporter, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, gsheet.Credentials{
			JSON: cfg.GoogleServiceAccountJSON,
			File: cfg.GoogleServiceAccountFile,
		}, logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets exporter", log.FieldError, err)
			os.Exit(1)
		}
		reportCfg.Sheets = exporter
	} else {
		logger.Info("Google Sheets export disabled")
	}
	reports := services.NewReportService(store.Store, clubs, reportCfg)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Clubs:              clubs,
		Reports:            reports,
		Issuer:             session.NewIssuer(cfg.JWTSecret, cfg.TokenTTL),
		Metrics:            m,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
		Checks:             checks,
	})

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cacheManager.Stop()
		if amqpClient != nil {
			_ = amqpClient.Close()
		}
		if store.Cleanup != nil {
			if err := store.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", log.FieldError, err)
			}
		}
	})

	go func() {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", log.FieldError, err)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(shutdownCtx, done)
}
