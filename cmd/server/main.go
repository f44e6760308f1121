package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	barcodeapp "github.com/gpms/backend/internal/application/barcode"
	catalogapp "github.com/gpms/backend/internal/application/catalog"
	"github.com/gpms/backend/internal/application/integrity"
	inventoryapp "github.com/gpms/backend/internal/application/inventory"
	"github.com/gpms/backend/internal/application/supplier"
	"github.com/gpms/backend/internal/domain/barcode"
	"github.com/gpms/backend/internal/infrastructure/cache"
	"github.com/gpms/backend/internal/infrastructure/config"
	"github.com/gpms/backend/internal/infrastructure/event"
	"github.com/gpms/backend/internal/infrastructure/logger"
	"github.com/gpms/backend/internal/infrastructure/migration"
	"github.com/gpms/backend/internal/infrastructure/persistence"
	"github.com/gpms/backend/internal/infrastructure/scheduler"
	"github.com/gpms/backend/internal/infrastructure/telemetry"
	"github.com/gpms/backend/internal/interfaces/http/handler"
	"github.com/gpms/backend/internal/interfaces/http/middleware"
	"github.com/gpms/backend/internal/interfaces/http/router"
	"github.com/gpms/backend/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting POS backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	metrics, err := telemetry.NewPOSMetrics(meterProvider.Meter(cfg.Telemetry.ServiceName))
	if err != nil {
		log.Fatal("Failed to register metrics", zap.Error(err))
	}

	db, err := persistence.NewDatabase(&cfg.Database, persistence.Options{
		Logger:   log,
		LogLevel: cfg.Log.Level,
		Tracing:  cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
	})
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", db.Driver))

	if err := migrateSchema(db, log); err != nil {
		log.Fatal("Failed to migrate schema", zap.Error(err))
	}

	// Repositories
	barcodeRepo := persistence.NewGormBarcodeRepository(db.DB)
	barcodeConfigRepo := persistence.NewGormBarcodeConfigRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	unitRepo := persistence.NewGormProductUnitRepository(db.DB)

	if err := barcodeConfigRepo.Initialize(ctx, &barcode.Config{
		Prefix: cfg.Barcode.Prefix,
		Format: barcode.FormatCode128,
		Counters: map[barcode.BarcodeType]int64{
			barcode.BarcodeTypeUnit:    cfg.Barcode.UnitCounterSeed,
			barcode.BarcodeTypeProduct: cfg.Barcode.ProductCounterSeed,
		},
	}); err != nil {
		// the generator falls back to defaults, so a failed seed is not fatal
		log.Warn("Failed to seed barcode configuration", zap.Error(err))
	}

	bus := event.NewInMemoryEventBus(log)

	// Application services
	barcodeService := barcodeapp.NewService(barcodeRepo, barcodeConfigRepo, barcodeRepo, bus, log,
		barcodeapp.WithMetrics(metrics),
		barcodeapp.WithAllocationTimeout(cfg.Barcode.AllocationTimeout),
	)
	productService := catalogapp.NewProductService(productRepo, barcodeService, bus, log)
	receivingService := supplier.NewReceivingService(productRepo, unitRepo, barcodeService, bus, log)
	integrityService := integrity.NewService(productRepo, unitRepo, barcodeRepo, barcodeService, bus, metrics, log)

	viewCache, err := cache.NewViewCache(ctx, cfg.Cache, cfg.Redis, cfg.App.Env != "production", log)
	if err != nil {
		log.Fatal("Failed to initialize view cache", zap.Error(err))
	}
	defer func() {
		if err := viewCache.Close(); err != nil {
			log.Error("Error closing view cache", zap.Error(err))
		}
	}()
	viewService := inventoryapp.NewViewService(productRepo, unitRepo, viewCache, metrics, log)
	unsubscribe := bus.Subscribe(inventoryapp.NewCacheInvalidationHandler(viewService, log))
	defer unsubscribe()

	integrityCheck := scheduler.NewIntegrityCheck(scheduler.IntegrityCheckConfig{
		Interval: cfg.Integrity.CheckInterval,
		AutoFix:  cfg.Integrity.AutoFix,
	}, integrityService, log)
	if err := integrityCheck.Start(ctx); err != nil {
		log.Fatal("Failed to start integrity check", zap.Error(err))
	}

	// HTTP
	engine, err := router.NewEngine(router.EngineOptions{
		HTTP: cfg.HTTP,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		},
		Release: cfg.App.Env == "production",
	}, log)
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	router.NewRouter(engine).Register(
		handler.NewHealthHandler(cfg.App.Name, map[string]handler.Pinger{"database": db}),
		handler.NewBarcodeHandler(barcodeService),
		handler.NewProductHandler(productService),
		handler.NewReceivingHandler(receivingService),
		handler.NewInventoryHandler(viewService),
		handler.NewIntegrityHandler(integrityService),
	).Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := integrityCheck.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping integrity check", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// migrateSchema applies the embedded SQL migrations on postgres. sqlite is
// used for local runs and tests and is built from the gorm models instead.
func migrateSchema(db *persistence.Database, log *zap.Logger) error {
	if db.Driver == "sqlite" {
		return db.AutoMigrate()
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	m, err := migration.New(sqlDB, migrations.FS, log)
	if err != nil {
		return err
	}
	// Close would also close sqlDB, which the server keeps using
	return m.Up()
}
