package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"climate-platform/internal/models"
	"climate-platform/pkg/database"
	"climate-platform/pkg/logging"
	"climate-platform/pkg/metrics"
)

// RecordRepository provides data access for stored climate series
type RecordRepository interface {
	// Data set operations
	UpsertDataSet(ctx context.Context, summary *models.DataSetSummary) error
	GetDataSet(ctx context.Context, id string) (*models.DataSetSummary, error)
	ListDataSets(ctx context.Context) ([]*models.DataSetSummary, error)

	// Record operations
	ReplaceRecords(ctx context.Context, summary *models.DataSetSummary, records []models.DataRecord, batchSize int) error
	GetRecords(ctx context.Context, dataSetID string) ([]models.DataRecord, error)
	GetRecordsInRange(ctx context.Context, dataSetID string, filter RecordFilter) ([]models.DataRecord, error)

	// Utility operations
	HealthCheck(ctx context.Context) error
}

// RecordFilter narrows a record query by year
type RecordFilter struct {
	StartYear *int
	EndYear   *int
}

// recordRepository implements RecordRepository
type recordRepository struct {
	db      *database.PostgresDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewRecordRepository creates a new record repository
func NewRecordRepository(db *database.PostgresDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) RecordRepository {
	return &recordRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

const upsertDataSetQuery = `
	INSERT INTO data_sets (
		id, name, units, resolution,
		record_count, present_count, first_year, last_year,
		filler_records, dropped_records, ingested_at
	)
	VALUES (:id, :name, :units, :resolution,
		:record_count, :present_count, :first_year, :last_year,
		:filler_records, :dropped_records, :ingested_at)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		units = EXCLUDED.units,
		resolution = EXCLUDED.resolution,
		record_count = EXCLUDED.record_count,
		present_count = EXCLUDED.present_count,
		first_year = EXCLUDED.first_year,
		last_year = EXCLUDED.last_year,
		filler_records = EXCLUDED.filler_records,
		dropped_records = EXCLUDED.dropped_records,
		ingested_at = EXCLUDED.ingested_at
`

// UpsertDataSet creates or updates a data set summary
func (r *recordRepository) UpsertDataSet(ctx context.Context, summary *models.DataSetSummary) error {
	if _, err := r.db.NamedExecContext(ctx, "upsert_data_set", upsertDataSetQuery, summary); err != nil {
		return fmt.Errorf("failed to upsert data set %s: %w", summary.ID, err)
	}
	return nil
}

// GetDataSet retrieves a data set summary by id
func (r *recordRepository) GetDataSet(ctx context.Context, id string) (*models.DataSetSummary, error) {
	query := `
		SELECT id, name, units, resolution, record_count, present_count,
		       first_year, last_year, filler_records, dropped_records, ingested_at
		FROM data_sets
		WHERE id = $1
	`

	var summary models.DataSetSummary
	err := r.db.GetContext(ctx, "get_data_set", &summary, query, id)

	if err == sql.ErrNoRows {
		return nil, &NotFoundError{
			Resource: "data_set",
			ID:       id,
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get data set: %w", err)
	}

	return &summary, nil
}

// ListDataSets retrieves every stored data set summary
func (r *recordRepository) ListDataSets(ctx context.Context) ([]*models.DataSetSummary, error) {
	query := `
		SELECT id, name, units, resolution, record_count, present_count,
		       first_year, last_year, filler_records, dropped_records, ingested_at
		FROM data_sets
		ORDER BY id
	`

	var summaries []*models.DataSetSummary
	if err := r.db.SelectContext(ctx, "list_data_sets", &summaries, query); err != nil {
		return nil, fmt.Errorf("failed to list data sets: %w", err)
	}

	return summaries, nil
}

// ReplaceRecords swaps a data set's stored records for records in one
// transaction, loading them with COPY in batches of batchSize
func (r *recordRepository) ReplaceRecords(ctx context.Context, summary *models.DataSetSummary, records []models.DataRecord, batchSize int) error {
	if batchSize <= 0 {
		batchSize = len(records)
	}

	timer := time.Now()

	err := r.db.WithTx(ctx, "replace_records", func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, upsertDataSetQuery, summary); err != nil {
			return fmt.Errorf("failed to upsert data set %s: %w", summary.ID, err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM climate_records WHERE data_set_id = $1`, summary.ID); err != nil {
			return fmt.Errorf("failed to clear records of %s: %w", summary.ID, err)
		}

		for start := 0; start < len(records); start += batchSize {
			end := min(start+batchSize, len(records))
			if err := copyBatch(ctx, tx.Tx, summary.ID, records[start:end]); err != nil {
				return err
			}
			r.metrics.IngestionBatchSize.Observe(float64(end - start))
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.logger.Debug(ctx, "[REPO_REPLACE_RECORDS] Records replaced", logging.Fields{
		"data_set":    summary.ID,
		"count":       len(records),
		"duration_ms": time.Since(timer).Milliseconds(),
	})

	return nil
}

func copyBatch(ctx context.Context, tx *sql.Tx, dataSetID string, batch []models.DataRecord) error {
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("climate_records", "data_set_id", "year", "month", "day", "value"))
	if err != nil {
		return fmt.Errorf("failed to prepare copy: %w", err)
	}
	defer stmt.Close()

	for _, rec := range batch {
		if _, err := stmt.ExecContext(ctx, dataSetID, rec.Year, rec.Month, rec.Day, rec.Value); err != nil {
			return fmt.Errorf("failed to copy record %s: %w", rec.Key(), err)
		}
	}

	// flush
	if _, err := stmt.ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to flush copy: %w", err)
	}
	return nil
}

// GetRecords retrieves all records of a data set in date order
func (r *recordRepository) GetRecords(ctx context.Context, dataSetID string) ([]models.DataRecord, error) {
	return r.GetRecordsInRange(ctx, dataSetID, RecordFilter{})
}

// GetRecordsInRange retrieves the records of a data set within the filter's years
func (r *recordRepository) GetRecordsInRange(ctx context.Context, dataSetID string, filter RecordFilter) ([]models.DataRecord, error) {
	query, args := buildRecordQuery(dataSetID, filter)

	var records []models.DataRecord
	if err := r.db.SelectContext(ctx, "get_records", &records, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get records of %s: %w", dataSetID, err)
	}

	if len(records) == 0 {
		if _, err := r.GetDataSet(ctx, dataSetID); err != nil {
			return nil, err
		}
	}

	return records, nil
}

func buildRecordQuery(dataSetID string, filter RecordFilter) (string, []interface{}) {
	query := `
		SELECT year, month, day, value
		FROM climate_records
		WHERE data_set_id = $1`
	args := []interface{}{dataSetID}
	argNum := 2

	if filter.StartYear != nil {
		query += fmt.Sprintf(" AND year >= $%d", argNum)
		args = append(args, *filter.StartYear)
		argNum++
	}

	if filter.EndYear != nil {
		query += fmt.Sprintf(" AND year <= $%d", argNum)
		args = append(args, *filter.EndYear)
	}

	query += " ORDER BY year, month, day"
	return query, args
}

// HealthCheck performs a repository health check
func (r *recordRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) IsTransient() bool {
	return false
}
