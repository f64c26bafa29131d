package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"climate-platform/internal/catalog"
	"climate-platform/internal/models"
	"climate-platform/pkg/logging"
	"climate-platform/pkg/metrics"
)

// RecordStore persists a whole data set at once
type RecordStore interface {
	ReplaceRecords(ctx context.Context, summary *models.DataSetSummary, records []models.DataRecord, batchSize int) error
}

// IngestionService reads catalog data sets from files and stores them
type IngestionService struct {
	files   *FileSource
	store   RecordStore
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// IngestionOptions tunes one ingestion run
type IngestionOptions struct {
	BatchSize   int
	Concurrency int
	// DataSetIDs limits the run to these data sets; empty means all
	DataSetIDs []string
}

// IngestionResult contains ingestion statistics
type IngestionResult struct {
	TotalDataSets     int
	SucceededDataSets int
	FailedDataSets    int
	TotalRecords      int
	FillerRecords     int
	DroppedRecords    int
	Duration          time.Duration
	Errors            []string
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(files *FileSource, store RecordStore, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *IngestionService {
	return &IngestionService{
		files:   files,
		store:   store,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// IngestCatalog ingests data sets concurrently. Files within one data set
// are still read and merged in catalog order. A failing data set is
// recorded in the result and does not stop the others.
func (s *IngestionService) IngestCatalog(ctx context.Context, opts IngestionOptions) (*IngestionResult, error) {
	startTime := time.Now()

	dataSets, err := s.selectDataSets(opts.DataSetIDs)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "[INGEST_START] Starting data ingestion", logging.Fields{
		"data_sets":   len(dataSets),
		"batch_size":  opts.BatchSize,
		"concurrency": opts.Concurrency,
		"stage":       "INITIALIZATION",
	})

	result := &IngestionResult{
		TotalDataSets: len(dataSets),
		Errors:        make([]string, 0),
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}

	for _, ds := range dataSets {
		ds := ds
		g.Go(func() error {
			summary, err := s.ingestDataSet(gctx, ds, opts.BatchSize)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				result.FailedDataSets++
				result.Errors = append(result.Errors, fmt.Sprintf("failed to ingest %s: %v", ds.ID, err))
				s.logger.Error(gctx, "[INGEST_DATASET_ERROR] Data set ingestion failed", logging.Fields{
					"data_set": ds.ID,
					"stage":    "DATASET_PROCESSING",
				}, err)
				s.metrics.RecordIngestionError("data_set_error")
				s.metrics.RecordDataSetIngestion(ds.ID, 0, time.Time{}, false)
				return nil
			}

			s.metrics.RecordDataSetIngestion(ds.ID, summary.RecordCount, *summary.IngestedAt, true)

			result.SucceededDataSets++
			result.TotalRecords += summary.RecordCount
			result.FillerRecords += summary.FillerRecords
			result.DroppedRecords += summary.DroppedRecords
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("ingestion interrupted: %w", err)
	}

	sort.Strings(result.Errors)
	result.Duration = time.Since(startTime)
	s.metrics.IngestionDuration.Observe(result.Duration.Seconds())

	s.logger.Info(ctx, "[INGEST_COMPLETE] Data ingestion completed", logging.Fields{
		"total_data_sets":  result.TotalDataSets,
		"succeeded":        result.SucceededDataSets,
		"failed":           result.FailedDataSets,
		"total_records":    result.TotalRecords,
		"filler_records":   result.FillerRecords,
		"dropped_records":  result.DroppedRecords,
		"duration_seconds": result.Duration.Seconds(),
		"stage":            "COMPLETE",
	})

	return result, nil
}

func (s *IngestionService) selectDataSets(ids []string) ([]*catalog.DataSet, error) {
	cat := s.files.catalog
	if len(ids) == 0 {
		out := make([]*catalog.DataSet, len(cat.DataSets))
		for i := range cat.DataSets {
			out[i] = &cat.DataSets[i]
		}
		return out, nil
	}

	out := make([]*catalog.DataSet, 0, len(ids))
	for _, id := range ids {
		ds, ok := cat.Find(id)
		if !ok {
			return nil, &UnknownDataSetError{ID: id}
		}
		out = append(out, ds)
	}
	return out, nil
}

// ingestDataSet reads one data set and replaces its stored records
func (s *IngestionService) ingestDataSet(ctx context.Context, ds *catalog.DataSet, batchSize int) (*models.DataSetSummary, error) {
	ctx = logging.WithDataSet(ctx, ds.ID)

	merged, err := s.files.Read(ctx, ds.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	summary := &models.DataSetSummary{
		ID:             ds.ID,
		Name:           ds.Name,
		Units:          ds.Units,
		Resolution:     ds.DataResolution(),
		FillerRecords:  merged.FillerRecords,
		DroppedRecords: merged.DroppedRecords,
		IngestedAt:     &now,
	}
	models.SummarizeRecords(summary, merged.Records)

	if err := s.store.ReplaceRecords(ctx, summary, merged.Records, batchSize); err != nil {
		return nil, fmt.Errorf("failed to store records: %w", err)
	}

	s.logger.Info(ctx, "[INGEST_DATASET_SUCCESS] Data set ingested successfully", logging.Fields{
		"records":         summary.RecordCount,
		"present_records": summary.PresentCount,
		"filler_records":  summary.FillerRecords,
		"dropped_records": summary.DroppedRecords,
		"warnings":        len(merged.Warnings),
		"stage":           "DATASET_COMPLETE",
	})

	return summary, nil
}
