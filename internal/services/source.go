package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"climate-platform/internal/catalog"
	"climate-platform/internal/models"
	"climate-platform/internal/reader"
	"climate-platform/pkg/logging"
	"climate-platform/pkg/metrics"
)

// RecordSource supplies the date-ordered records of one data set
type RecordSource interface {
	GetRecords(ctx context.Context, dataSetID string) ([]models.DataRecord, error)
}

// UnknownDataSetError is returned when a source has no data set with the id
type UnknownDataSetError struct {
	ID string
}

func (e *UnknownDataSetError) Error() string {
	return fmt.Sprintf("unknown data set %q", e.ID)
}

func (e *UnknownDataSetError) IsTransient() bool {
	return false
}

// MemorySource is an in-process RecordSource
type MemorySource struct {
	mu     sync.RWMutex
	series map[string][]models.DataRecord
}

// NewMemorySource creates an empty in-memory source
func NewMemorySource() *MemorySource {
	return &MemorySource{series: make(map[string][]models.DataRecord)}
}

// Put stores a copy of records under id, sorted by period
func (m *MemorySource) Put(id string, records []models.DataRecord) {
	cp := append([]models.DataRecord(nil), records...)
	sort.SliceStable(cp, func(i, j int) bool {
		return cp[i].PeriodStart().Before(cp[j].PeriodStart())
	})

	m.mu.Lock()
	defer m.mu.Unlock()
	m.series[id] = cp
}

// GetRecords returns a copy of the stored series
func (m *MemorySource) GetRecords(_ context.Context, dataSetID string) ([]models.DataRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records, ok := m.series[dataSetID]
	if !ok {
		return nil, &UnknownDataSetError{ID: dataSetID}
	}
	return append([]models.DataRecord(nil), records...), nil
}

// FileSource reads data sets straight from their catalog files on each request
type FileSource struct {
	catalog *catalog.Catalog
	lines   reader.LineSource
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewFileSource creates a catalog-backed source
func NewFileSource(cat *catalog.Catalog, lines reader.LineSource, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *FileSource {
	return &FileSource{
		catalog: cat,
		lines:   lines,
		logger:  logger.With(logging.Fields{"component": "file_source"}),
		metrics: metricsCollector,
	}
}

// GetRecords reads, gap-fills and merges every file of the data set
func (s *FileSource) GetRecords(ctx context.Context, dataSetID string) ([]models.DataRecord, error) {
	merged, err := s.Read(ctx, dataSetID)
	if err != nil {
		return nil, err
	}
	return merged.Records, nil
}

// Read returns the full merge result, including reader warnings
func (s *FileSource) Read(ctx context.Context, dataSetID string) (*reader.MergedResult, error) {
	ds, ok := s.catalog.Find(dataSetID)
	if !ok {
		return nil, &UnknownDataSetError{ID: dataSetID}
	}

	ctx = logging.WithDataSet(ctx, ds.ID)
	merged, err := reader.ReadAndMerge(ctx, s.lines, ds.Archive, ds.Segments(), ds.ReaderOptions())
	if err != nil {
		s.metrics.RecordIngestionError("read_error")
		return nil, fmt.Errorf("failed to read data set %s: %w", ds.ID, err)
	}

	s.metrics.RecordReaderOutcome(ds.ID, merged.FillerRecords, merged.DroppedRecords)
	logWarnings(ctx, s.logger, merged.Warnings)

	return merged, nil
}

// maxLoggedWarnings bounds per-read warning log lines; the rest are counted
const maxLoggedWarnings = 20

func logWarnings(ctx context.Context, logger *logging.StructuredLogger, warnings []reader.Warning) {
	for i, w := range warnings {
		if i == maxLoggedWarnings {
			logger.Warn(ctx, "[READER_WARNINGS_TRUNCATED] Further reader warnings suppressed", logging.Fields{
				"suppressed": len(warnings) - maxLoggedWarnings,
			})
			return
		}
		logger.Warn(ctx, "[READER_RECORD_DROPPED] Record dropped", logging.Fields{
			"line_number": w.LineNumber,
			"line":        w.Line,
			"reason":      w.Reason,
		})
	}
}

// DataSetLister lists the data sets a source can serve
type DataSetLister interface {
	ListDataSets(ctx context.Context) ([]*models.DataSetSummary, error)
}

// ListDataSets describes every catalog entry; record counters stay zero
// because nothing has been read yet
func (s *FileSource) ListDataSets(_ context.Context) ([]*models.DataSetSummary, error) {
	out := make([]*models.DataSetSummary, 0, len(s.catalog.DataSets))
	for i := range s.catalog.DataSets {
		ds := &s.catalog.DataSets[i]
		out = append(out, &models.DataSetSummary{
			ID:         ds.ID,
			Name:       ds.Name,
			Units:      ds.Units,
			Resolution: ds.DataResolution(),
		})
	}
	return out, nil
}

// ListDataSets summarizes every stored series, ordered by id
func (m *MemorySource) ListDataSets(_ context.Context) ([]*models.DataSetSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.DataSetSummary, 0, len(m.series))
	for id, records := range m.series {
		summary := &models.DataSetSummary{ID: id, Name: id}
		if len(records) > 0 {
			summary.Resolution = records[0].Resolution()
		}
		models.SummarizeRecords(summary, records)
		out = append(out, summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
