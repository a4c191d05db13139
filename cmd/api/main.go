package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/leaf-procure/api/internal/catalog"
	"github.com/leaf-procure/api/internal/handlers"
	"github.com/leaf-procure/api/internal/platform/config"
	"github.com/leaf-procure/api/internal/platform/idempotency"
	"github.com/leaf-procure/api/internal/platform/observability"
	"github.com/leaf-procure/api/internal/services"
)

func main() {
	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	store, err := catalog.NewStore(cfg.Catalog.ProductsFile, cfg.Catalog.InventoryFile, cfg.Catalog.DefaultOnHand)
	if err != nil {
		logger.Fatal("failed to load catalog",
			zap.String("products", cfg.Catalog.ProductsFile),
			zap.String("inventory", cfg.Catalog.InventoryFile),
			zap.Error(err))
	}
	logger.Info("catalog loaded",
		zap.String("products", cfg.Catalog.ProductsFile),
		zap.Int("count", store.Snapshot().Len()))

	extractorService, err := services.NewExtractorService(services.ExtractorServiceDeps{
		Logger: serviceLogger(logger.Named("extractor")),
	})
	if err != nil {
		logger.Fatal("failed to initialise extractor service", zap.Error(err))
	}

	alternativeService, err := services.NewAlternativeService(services.AlternativeServiceDeps{
		Catalog: store,
		Logger:  serviceLogger(logger.Named("alternatives")),
	})
	if err != nil {
		logger.Fatal("failed to initialise alternative service", zap.Error(err))
	}

	procurementService, err := services.NewProcurementService(services.ProcurementServiceDeps{
		Catalog: store,
		Clock:   time.Now,
		Logger:  serviceLogger(logger.Named("procurement")),
	})
	if err != nil {
		logger.Fatal("failed to initialise procurement service", zap.Error(err))
	}

	extractionHandlers, err := handlers.NewExtractionHandlers(extractorService, cfg.Documents.MaxBytes)
	if err != nil {
		logger.Fatal("failed to initialise extraction handlers", zap.Error(err))
	}
	alternativeHandlers, err := handlers.NewAlternativeHandlers(alternativeService, cfg.Documents.MaxBytes)
	if err != nil {
		logger.Fatal("failed to initialise alternative handlers", zap.Error(err))
	}
	orderHandlers, err := handlers.NewOrderHandlers(procurementService, cfg.Documents.MaxBytes)
	if err != nil {
		logger.Fatal("failed to initialise order handlers", zap.Error(err))
	}
	productHandlers, err := handlers.NewProductHandlers(store)
	if err != nil {
		logger.Fatal("failed to initialise product handlers", zap.Error(err))
	}

	idempotencyStore := idempotency.NewMemoryStore()
	idempotencyMiddleware := idempotency.Middleware(
		idempotencyStore,
		idempotency.WithMethods(http.MethodPost),
		idempotency.WithLogger(observability.NewPrintfAdapter(logger.Named("idempotency"))),
	)

	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(),
		handlers.RateLimitMiddleware(cfg.RateLimits.PerWindow, cfg.RateLimits.Window, time.Now),
		idempotencyMiddleware,
	}

	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithHealthVersion(buildVersion()),
		handlers.WithHealthReadiness(func(context.Context) error {
			if !store.Ready() {
				return catalog.ErrNotLoaded
			}
			return nil
		}),
	)

	router := handlers.NewRouter(
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithDocumentRoutes(extractionHandlers.Register),
		handlers.WithAlternativeRoutes(alternativeHandlers.Register),
		handlers.WithStockRoutes(orderHandlers.RegisterStock),
		handlers.WithOrderRoutes(orderHandlers.RegisterOrders),
		handlers.WithProductRoutes(productHandlers.Register),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	cleanupTicker := time.NewTicker(time.Hour)
	go func() {
		cleanupLogger := logger.Named("idempotency")
		for range cleanupTicker.C {
			removed, err := idempotencyStore.CleanupExpired(context.Background(), time.Now().UTC(), 0)
			if err != nil {
				cleanupLogger.Error("idempotency cleanup error", zap.Error(err))
				continue
			}
			if removed > 0 {
				cleanupLogger.Info("idempotency cleanup removed records", zap.Int("count", removed))
			}
		}
	}()

	if cfg.Catalog.ReloadOnSIGHUP {
		reload := make(chan os.Signal, 1)
		signal.Notify(reload, syscall.SIGHUP)
		go func() {
			reloadLogger := logger.Named("catalog")
			for range reload {
				if err := store.Reload(); err != nil {
					reloadLogger.Error("catalog reload failed; previous snapshot retained", zap.Error(err))
					continue
				}
				reloadLogger.Info("catalog reloaded", zap.Int("count", store.Snapshot().Len()))
			}
		}()
	}

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("leaf-procure api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	cleanupTicker.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func serviceLogger(logger *zap.Logger) func(context.Context, string, map[string]any) {
	return func(_ context.Context, event string, fields map[string]any) {
		zFields := make([]zap.Field, 0, len(fields)+1)
		zFields = append(zFields, zap.String("event", event))
		for k, v := range fields {
			zFields = append(zFields, zap.Any(k, v))
		}
		logger.Debug("service log", zFields...)
	}
}

func buildVersion() string {
	if v := strings.TrimSpace(os.Getenv("API_BUILD_VERSION")); v != "" {
		return v
	}
	return "dev"
}
