package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"retail-pos/internal/analytics"
	"retail-pos/internal/assignment"
	"retail-pos/internal/config"
	"retail-pos/internal/database"
	"retail-pos/internal/domain"
	"retail-pos/internal/inventory"
	"retail-pos/internal/logger"
	"retail-pos/internal/repository"
	"retail-pos/internal/sequence"
	"retail-pos/internal/server"
	"retail-pos/internal/service"
	"retail-pos/internal/transport"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func gracefulShutdown(apiServer *server.Server, logger *zap.Logger, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	logger.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop()

	// In-flight sales get 30 seconds to finish
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := apiServer.Close(); err != nil {
		logger.Error("Error closing server resources", zap.Error(err))
	}

	logger.Info("Server exiting")

	done <- true
}

// openReceiptStore picks the receipt persistence backend
func openReceiptStore(cfg config.ReceiptsConfig, db database.Service) (repository.ReceiptStore, io.Closer, error) {
	switch cfg.Backend {
	case "", "postgres":
		return repository.NewReceiptRepository(db.DB()), nil, nil
	case "sqlite":
		store, err := repository.OpenSQLiteReceiptStore(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	case "file":
		store, err := repository.NewFileReceiptStore(cfg.Dir)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown receipts backend %q", cfg.Backend)
	}
}

func pricingPolicy(cfg config.StoreConfig) domain.PricingPolicy {
	return domain.PricingPolicy{
		FoodMarkup:            decimal.NewFromFloat(cfg.FoodMarkup),
		NonFoodMarkup:         decimal.NewFromFloat(cfg.NonFoodMarkup),
		ExpirationWarningDays: cfg.ExpirationWarningDays,
		NearExpiryDiscount:    decimal.NewFromFloat(cfg.NearExpiryDiscount),
	}
}

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env, cfg.Server.LogLevel, zap.String("store", cfg.Store.Name))
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting retail POS API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
		zap.String("receipts_backend", cfg.Receipts.Backend),
	)

	dbService, err := database.New(cfg.Database)
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	db := dbService.DB()
	log.Info("Database health check", zap.Any("health", dbService.Health()))

	if err := database.RunMigrations(db, log); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	if version, err := database.MigrationVersion(context.Background(), db); err == nil {
		log.Info("Database migrations completed successfully", zap.Int64("schema_version", version))
	}

	productRepo := repository.NewProductRepository(db)
	cashierRepo := repository.NewCashierRepository(db)
	registerRepo := repository.NewRegisterRepository(db)

	receiptStore, receiptCloser, err := openReceiptStore(cfg.Receipts, dbService)
	if err != nil {
		log.Fatal("Failed to open receipt store", zap.Error(err))
	}

	// Analytics: in-memory tracker, mirrored to Redis when it is reachable
	tracker := analytics.NewTracker()
	recorders := []analytics.Recorder{tracker}
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 2*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		log.Warn("Redis unavailable, rate limiting and shared counters disabled", zap.Error(err))
		redisClient.Close()
		redisClient = nil
	} else {
		recorders = append(recorders, analytics.NewRedisRecorder(redisClient, cfg.Redis.KeyPrefix))
	}
	cancelPing()
	dispatcher := analytics.NewDispatcher(log, cfg.Store.AnalyticsQueueSize, recorders...)

	ledger := inventory.NewLedger(log)
	registry := assignment.NewRegistry(log)
	numbers := sequence.NewWithLimit(cfg.Store.ReceiptNumberLimit)

	bootstrap := &service.Bootstrap{
		Products:  productRepo,
		Cashiers:  cashierRepo,
		Registers: registerRepo,
		Ledger:    ledger,
		Expenses:  dispatcher,
		Logger:    log,
	}
	if _, err := bootstrap.Run(context.Background()); err != nil {
		log.Fatal("Failed to load store", zap.Error(err))
	}

	saleService := service.NewSaleService(ledger, registry, numbers, receiptStore, dispatcher, pricingPolicy(cfg.Store), log)
	shiftService := service.NewShiftService(cashierRepo, registerRepo, registry, dispatcher,
		cfg.JWT.Secret, time.Duration(cfg.JWT.ShiftExpiry)*time.Hour, log)
	inventoryService := service.NewInventoryService(ledger, productRepo, dispatcher, log)

	// dispatcher drains before redis and the database are closed
	closers := []io.Closer{closerFunc(func() error {
		dispatcher.Close()
		return nil
	})}
	if receiptCloser != nil {
		closers = append(closers, receiptCloser)
	}

	var receipts transport.ReceiptFinder
	if finder, ok := receiptStore.(transport.ReceiptFinder); ok {
		receipts = finder
	}

	srv := server.NewServer(cfg, log, server.Dependencies{
		Database:  dbService,
		Redis:     redisClient,
		Sales:     saleService,
		Shifts:    shiftService,
		Inventory: inventoryService,
		Analytics: tracker,
		Receipts:  receipts,
		Closers:   closers,
	})

	done := make(chan bool, 1)
	go gracefulShutdown(srv, log, done)

	log.Info("Server listening", zap.String("addr", srv.Addr))

	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Fatal("HTTP server error", zap.Error(err))
	}

	<-done
	log.Info("Graceful shutdown complete")
}
