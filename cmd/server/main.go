package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"climate-platform/internal/catalog"
	"climate-platform/internal/config"
	"climate-platform/internal/handlers"
	"climate-platform/internal/reader"
	"climate-platform/internal/repository"
	"climate-platform/internal/services"
	"climate-platform/pkg/database"
	"climate-platform/pkg/logging"
	"climate-platform/pkg/metrics"
)

const version = "1.0.0"

// recordSource bundles what the API reads from one backing store
type recordSource struct {
	records services.RecordSource
	lister  services.DataSetLister
	health  handlers.HealthChecker
	close   func()
}

// openRecordSource serves builds from Postgres, or straight from catalog
// files when the data source is "files"
func openRecordSource(cfg *config.Config, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) (*recordSource, error) {
	if cfg.Data.Source == config.SourceFiles {
		cat, err := catalog.Load(cfg.Data.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog %s: %w", cfg.Data.CatalogPath, err)
		}
		files := services.NewFileSource(cat, reader.NewFileLocator(cfg.Data.DataDir), logger, metricsCollector)
		return &recordSource{records: files, lister: files, close: func() {}}, nil
	}

	db, err := database.NewPostgresDB(cfg.PostgresConfig(), logger, metricsCollector)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database %s@%s: %w", cfg.Database.Database, cfg.Database.Host, err)
	}
	recordRepo := repository.NewRecordRepository(db, logger, metricsCollector)
	return &recordSource{
		records: recordRepo,
		lister:  recordRepo,
		health:  recordRepo,
		close:   func() { db.Close() },
	}, nil
}

func newRouter(dataSetHandler *handlers.DataSetHandler) *mux.Router {
	router := mux.NewRouter()
	dataSetHandler.RegisterRoutes(router)

	router.HandleFunc("/api/docs/openapi.json", handlers.OpenAPIDocument).Methods("GET")
	router.HandleFunc("/api/docs", handlers.SwaggerUI).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	return router
}

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logLevel, _ := logging.ParseLevel(cfg.Logging.Level)
	logger := logging.NewStructuredLogger("climate-api", version, logLevel)

	ctx := context.Background()
	logger.Info(ctx, "[STARTUP] Starting climate platform API server", logging.Fields{
		"version":     version,
		"server_host": cfg.Server.Host,
		"server_port": cfg.Server.Port,
		"data_source": cfg.Data.Source,
	})

	metricsCollector := metrics.NewCollector("climate_platform")

	src, err := openRecordSource(cfg, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to open record source", logging.Fields{
			"data_source": cfg.Data.Source,
		}, err)
	}
	defer src.close()

	builder := services.NewDataSetBuilder(src.records, services.BuildDefaults{
		CupSize:                   cfg.Data.DefaultCupSize,
		RequiredCupDataProportion: cfg.Data.DefaultRequiredProportion,
	}, logger, metricsCollector)

	router := newRouter(handlers.NewDataSetHandler(builder, src.lister, src.health, logger, metricsCollector))

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info(ctx, "[SERVER_START] HTTP server listening", logging.Fields{
			"address": server.Addr,
		})
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "[SERVER_ERROR] Server failed", logging.Fields{}, err)
		}
		return
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "[SHUTDOWN] Shutting down server", logging.Fields{
		"timeout": cfg.Server.ShutdownTimeout.String(),
	})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "[SHUTDOWN_ERROR] Server forced to shutdown", logging.Fields{}, err)
	}

	logger.Info(shutdownCtx, "[SHUTDOWN_COMPLETE] Server stopped", logging.Fields{})
}
