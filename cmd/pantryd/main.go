package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"pantry/internal/amqp"
	"pantry/internal/backend"
	"pantry/internal/cache"
	"pantry/internal/config"
	"pantry/internal/core"
	"pantry/internal/groupctx"
	"pantry/internal/httpapi"
	"pantry/internal/ledger"
	applog "pantry/internal/log"
	"pantry/internal/report"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Component: applog.ComponentApp})
	applog.SetDefault(logger)

	logger.Info("Starting pantryd")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Durable store
	be, err := backend.Open(ctx, backend.Config{
		Type:            backend.Type(cfg.StoreBackend),
		SQLiteDBPath:    cfg.SQLiteDBPath,
		MongoURI:        cfg.MongoURI,
		MongoDatabase:   cfg.MongoDatabase,
		MongoCollection: cfg.MongoCollection,
	}, logger.Logger)
	if err != nil {
		logger.Error("Failed to initialize store backend", applog.FieldError, err, "backend", cfg.StoreBackend)
		os.Exit(1)
	}
	if be.Cleanup != nil {
		defer be.Cleanup()
	}

	// Caches and their cleanup loop
	txCache := cache.NewLRUCache[[]core.Transaction](cfg.CacheSize, cfg.TransactionCacheTTL)
	monthlyCache := cache.NewLRUCache[report.MonthlyReport](cfg.CacheSize, cfg.MonthlyReportTTL)
	yearlyCache := cache.NewLRUCache[report.YearlyReport](cfg.CacheSize, cfg.YearlyReportTTL)

	cacheManager := cache.NewManager()
	cacheManager.Register(txCache)
	cacheManager.Register(monthlyCache)
	cacheManager.Register(yearlyCache)
	cacheManager.StartCleanup(cfg.CleanupInterval)
	defer cacheManager.Stop()

	// Identity: headers per request, with an optional static fallback for
	// single-tenant deployments.
	var groups groupctx.Provider = groupctx.FromContext{}
	if cfg.DefaultUserID != "" {
		groups = groupctx.Fallback{
			Primary: groupctx.FromContext{},
			Static: groupctx.Static{
				User:    groupctx.User{ID: cfg.DefaultUserID, Name: cfg.DefaultUserName},
				GroupID: cfg.DefaultGroupID,
			},
		}
	}

	// Event publishing is optional; the ledger works without a broker.
	var events ledger.EventPublisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPTransactionQueue, cfg.AMQPMembershipQueue, logger)
		if err != nil {
			logger.Warn("AMQP unavailable, continuing without events", applog.FieldError, err)
		} else {
			events = amqpClient
			defer amqpClient.Close()
		}
	}

	led := ledger.New(be.Store, txCache, groups, events, logger, ledger.Options{
		AllowedCategories: cfg.AllowedCategories,
		AllowedLocations:  cfg.AllowedLocations,
	})
	reports := report.NewBuilder(led, monthlyCache, yearlyCache, logger, report.Options{
		LocationCapacity: cfg.LocationCapacity,
		TopProducts:      cfg.TopProducts,
	})

	// Membership changes invalidate every cache entry for the group.
	if amqpClient != nil {
		go func() {
			err := amqpClient.ConsumeMembershipChanges(ctx, func(msg *amqp.MembershipChangedMessage) error {
				led.InvalidateGroup(msg.GroupID)
				return nil
			})
			if err != nil && ctx.Err() == nil {
				logger.Error("Membership consumer stopped", applog.FieldError, err)
			}
		}()
	}

	srv := httpapi.NewServer(":"+cfg.Port, led, reports, logger)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 35 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting pantry server", "port", cfg.Port, "backend", cfg.StoreBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
