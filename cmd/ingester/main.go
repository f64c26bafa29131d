package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"climate-platform/internal/catalog"
	"climate-platform/internal/config"
	"climate-platform/internal/reader"
	"climate-platform/internal/repository"
	"climate-platform/internal/scheduler"
	"climate-platform/internal/services"
	"climate-platform/pkg/database"
	"climate-platform/pkg/logging"
	"climate-platform/pkg/metrics"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Parse command-line flags; configuration supplies the defaults
	catalogPath := flag.String("catalog", cfg.Data.CatalogPath, "Path to the data set catalog")
	dataDir := flag.String("data-dir", cfg.Data.DataDir, "Directory containing data set files and archives")
	dataSets := flag.String("data-set", "", "Comma separated data set ids to ingest (default: all)")
	batchSize := flag.Int("batch-size", cfg.Ingest.BatchSize, "Number of records to copy in each batch")
	concurrency := flag.Int("concurrency", cfg.Ingest.Concurrency, "Number of data sets ingested in parallel (0: unlimited)")
	interval := flag.Duration("interval", cfg.Ingest.Interval, "Re-ingest periodically at this interval (0: run once)")
	flag.Parse()

	cfg.Data.CatalogPath = *catalogPath
	cfg.Data.DataDir = *dataDir
	cfg.Ingest.BatchSize = *batchSize
	cfg.Ingest.Concurrency = *concurrency
	cfg.Ingest.Interval = *interval

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logLevel, _ := logging.ParseLevel(cfg.Logging.Level)
	logger := logging.NewStructuredLogger("climate-ingester", version, logLevel)

	ctx := context.Background()
	logger.Info(ctx, "[INGESTER_START] Starting climate data ingestion", logging.Fields{
		"version":      version,
		"catalog_path": cfg.Data.CatalogPath,
		"data_dir":     cfg.Data.DataDir,
		"batch_size":   cfg.Ingest.BatchSize,
		"concurrency":  cfg.Ingest.Concurrency,
		"interval":     cfg.Ingest.Interval.String(),
	})

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("climate_ingester")

	cat, err := catalog.Load(cfg.Data.CatalogPath)
	if err != nil {
		logger.Fatal(ctx, "[INGESTER_ERROR] Failed to load catalog", logging.Fields{
			"catalog_path": cfg.Data.CatalogPath,
		}, err)
	}

	// Initialize database
	db, err := database.NewPostgresDB(cfg.PostgresConfig(), logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[INGESTER_ERROR] Failed to connect to database", logging.Fields{}, err)
	}
	defer db.Close()

	// Initialize repository and services
	recordRepo := repository.NewRecordRepository(db, logger, metricsCollector)
	files := services.NewFileSource(cat, reader.NewFileLocator(cfg.Data.DataDir), logger, metricsCollector)
	ingestionService := services.NewIngestionService(files, recordRepo, logger, metricsCollector)

	opts := services.IngestionOptions{
		BatchSize:   cfg.Ingest.BatchSize,
		Concurrency: cfg.Ingest.Concurrency,
		DataSetIDs:  splitIDs(*dataSets),
	}

	if cfg.Ingest.Interval > 0 {
		runScheduled(ingestionService, opts, cfg.Ingest.Interval, logger)
		return
	}

	// Ingest data
	result, err := ingestionService.IngestCatalog(ctx, opts)
	if err != nil {
		logger.Fatal(ctx, "[INGESTION_ERROR] Ingestion failed", logging.Fields{
			"error": err.Error(),
		}, err)
	}

	printResult(result)

	logger.Info(ctx, "[INGESTER_COMPLETE] Ingestion completed", logging.Fields{
		"succeeded_data_sets": result.SucceededDataSets,
		"failed_data_sets":    result.FailedDataSets,
		"total_records":       result.TotalRecords,
		"duration_seconds":    result.Duration.Seconds(),
	})

	if result.FailedDataSets > 0 {
		db.Close()
		os.Exit(2)
	}
}

func runScheduled(runner scheduler.Runner, opts services.IngestionOptions, interval time.Duration, logger *logging.StructuredLogger) {
	s := scheduler.New(runner, opts, interval, interval, logger)
	if err := s.Start(); err != nil {
		logger.Fatal(context.Background(), "[SCHEDULER_ERROR] Failed to start scheduler", logging.Fields{}, err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	s.Stop()
}

func splitIDs(list string) []string {
	var ids []string
	for _, id := range strings.Split(list, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func printResult(result *services.IngestionResult) {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("INGESTION COMPLETE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Data Sets:          %d\n", result.TotalDataSets)
	fmt.Printf("Succeeded:          %d\n", result.SucceededDataSets)
	fmt.Printf("Failed:             %d\n", result.FailedDataSets)
	fmt.Printf("Total Records:      %d\n", result.TotalRecords)
	fmt.Printf("Filler Records:     %d\n", result.FillerRecords)
	fmt.Printf("Dropped Records:    %d\n", result.DroppedRecords)
	fmt.Printf("Duration:           %v\n", result.Duration)

	if len(result.Errors) > 0 {
		fmt.Printf("\nErrors (%d):\n", len(result.Errors))
		for i, errMsg := range result.Errors {
			if i < 10 {
				fmt.Printf("  - %s\n", errMsg)
			}
		}
		if len(result.Errors) > 10 {
			fmt.Printf("  ... and %d more errors\n", len(result.Errors)-10)
		}
	}
}
