package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector provides application metrics collection
type Collector struct {
	// API Metrics
	APIRequestsTotal   *prometheus.CounterVec
	APIRequestDuration *prometheus.HistogramVec
	APIErrorsTotal     *prometheus.CounterVec

	// Ingestion Metrics
	IngestedRecordsTotal   *prometheus.CounterVec
	IngestionsTotal        *prometheus.CounterVec
	LastIngestionTimestamp *prometheus.GaugeVec
	IngestionDuration      prometheus.Histogram
	IngestionErrorsTotal   *prometheus.CounterVec
	IngestionBatchSize     prometheus.Histogram
	FillerRecordsTotal     *prometheus.CounterVec
	DroppedRecordsTotal    *prometheus.CounterVec

	// Database Metrics
	DBQueryDuration  *prometheus.HistogramVec
	DBConnectionPool *prometheus.GaugeVec
	DBErrorsTotal    *prometheus.CounterVec

	// Data set build metrics
	DataSetBuildsTotal        *prometheus.CounterVec
	DataSetBuildDuration      *prometheus.HistogramVec
	BinsRejectedTotal         *prometheus.CounterVec
	DataSetBuildFailuresTotal *prometheus.CounterVec
}

var (
	apiBuckets   = []float64{0.001, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 5.0}
	dbBuckets    = []float64{0.001, 0.002, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1.0, 5.0}
	buildBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0}
	runBuckets   = []float64{1, 5, 10, 30, 60, 120, 300, 600}
	batchBuckets = []float64{10, 50, 100, 500, 1000, 5000, 10000}
)

// factory registers namespaced metrics on one registerer
type factory struct {
	auto      promauto.Factory
	namespace string
}

func (f factory) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return f.auto.NewCounterVec(prometheus.CounterOpts{Namespace: f.namespace, Name: name, Help: help}, labels)
}

func (f factory) gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return f.auto.NewGaugeVec(prometheus.GaugeOpts{Namespace: f.namespace, Name: name, Help: help}, labels)
}

func (f factory) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return f.auto.NewHistogram(prometheus.HistogramOpts{Namespace: f.namespace, Name: name, Help: help, Buckets: buckets})
}

func (f factory) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return f.auto.NewHistogramVec(prometheus.HistogramOpts{Namespace: f.namespace, Name: name, Help: help, Buckets: buckets}, labels)
}

// NewCollector creates a collector registered on the default registry
func NewCollector(namespace string) *Collector {
	return NewCollectorWithRegisterer(namespace, prometheus.DefaultRegisterer)
}

// NewCollectorWithRegisterer creates a collector registered on reg.
// Tests pass a fresh prometheus.NewRegistry() to avoid duplicate registration.
func NewCollectorWithRegisterer(namespace string, reg prometheus.Registerer) *Collector {
	f := factory{auto: promauto.With(reg), namespace: namespace}

	return &Collector{
		APIRequestsTotal: f.counterVec("api_requests_total",
			"Total number of API requests by endpoint, method, and status", "endpoint", "method", "status"),
		APIRequestDuration: f.histogramVec("api_request_duration_seconds",
			"API request duration in seconds", apiBuckets, "endpoint"),
		APIErrorsTotal: f.counterVec("api_errors_total",
			"Total number of API errors by type", "error_type", "endpoint"),

		IngestedRecordsTotal: f.counterVec("ingested_records_total",
			"Climate records stored, by data set", "data_set"),
		IngestionsTotal: f.counterVec("data_set_ingestions_total",
			"Data set ingestions by outcome", "outcome"),
		LastIngestionTimestamp: f.gaugeVec("last_ingestion_timestamp_seconds",
			"Unix time of the last successful ingestion, by data set", "data_set"),
		IngestionDuration: f.histogram("ingestion_duration_seconds",
			"Duration of ingestion runs in seconds", runBuckets),
		IngestionErrorsTotal: f.counterVec("ingestion_errors_total",
			"Total number of ingestion errors by type", "error_type"),
		IngestionBatchSize: f.histogram("ingestion_batch_size",
			"Number of records per COPY batch during ingestion", batchBuckets),
		FillerRecordsTotal: f.counterVec("filler_records_total",
			"Null records inserted to fill calendar gaps, by data set", "data_set"),
		DroppedRecordsTotal: f.counterVec("dropped_records_total",
			"Duplicate, out-of-order or invalid rows dropped by the reader, by data set", "data_set"),

		DBQueryDuration: f.histogramVec("db_query_duration_seconds",
			"Database query duration in seconds by query type", dbBuckets, "query_type"),
		DBConnectionPool: f.gaugeVec("db_connection_pool",
			"Database connection pool statistics", "state"),
		DBErrorsTotal: f.counterVec("db_errors_total",
			"Total number of database errors by type", "error_type"),

		DataSetBuildsTotal: f.counterVec("dataset_builds_total",
			"Total number of data set builds by binning rule", "binning_rule"),
		DataSetBuildDuration: f.histogramVec("dataset_build_duration_seconds",
			"Duration of data set builds in seconds by binning rule", buildBuckets, "binning_rule"),
		BinsRejectedTotal: f.counterVec("bins_rejected_total",
			"Bins dropped for insufficient data, by binning rule", "binning_rule"),
		DataSetBuildFailuresTotal: f.counterVec("dataset_build_failures_total",
			"Failed data set builds by error type", "error_type"),
	}
}

// RecordAPIRequest increments API request counter
func (c *Collector) RecordAPIRequest(endpoint, method, status string) {
	c.APIRequestsTotal.WithLabelValues(endpoint, method, status).Inc()
}

// RecordAPIError increments API error counter
func (c *Collector) RecordAPIError(errorType, endpoint string) {
	c.APIErrorsTotal.WithLabelValues(errorType, endpoint).Inc()
}

// RecordIngestionError increments ingestion error counter
func (c *Collector) RecordIngestionError(errorType string) {
	c.IngestionErrorsTotal.WithLabelValues(errorType).Inc()
}

// RecordDataSetIngestion counts one data set ingestion; records and the
// timestamp only move on success
func (c *Collector) RecordDataSetIngestion(dataSet string, records int, at time.Time, succeeded bool) {
	if !succeeded {
		c.IngestionsTotal.WithLabelValues("failure").Inc()
		return
	}
	c.IngestionsTotal.WithLabelValues("success").Inc()
	c.IngestedRecordsTotal.WithLabelValues(dataSet).Add(float64(records))
	c.LastIngestionTimestamp.WithLabelValues(dataSet).Set(float64(at.Unix()))
}

// RecordReaderOutcome adds the reader's filler and dropped counts for a data set
func (c *Collector) RecordReaderOutcome(dataSet string, fillers, dropped int) {
	c.FillerRecordsTotal.WithLabelValues(dataSet).Add(float64(fillers))
	c.DroppedRecordsTotal.WithLabelValues(dataSet).Add(float64(dropped))
}

// RecordDBError increments database error counter
func (c *Collector) RecordDBError(errorType string) {
	c.DBErrorsTotal.WithLabelValues(errorType).Inc()
}

// UpdateDBConnectionPool updates database connection pool metrics
func (c *Collector) UpdateDBConnectionPool(inUse, idle, total int) {
	c.DBConnectionPool.WithLabelValues("in_use").Set(float64(inUse))
	c.DBConnectionPool.WithLabelValues("idle").Set(float64(idle))
	c.DBConnectionPool.WithLabelValues("total").Set(float64(total))
}

// RecordDataSetBuild counts a successful build and the bins it rejected
func (c *Collector) RecordDataSetBuild(binningRule string, rejected int, duration time.Duration) {
	c.DataSetBuildsTotal.WithLabelValues(binningRule).Inc()
	c.BinsRejectedTotal.WithLabelValues(binningRule).Add(float64(rejected))
	c.DataSetBuildDuration.WithLabelValues(binningRule).Observe(duration.Seconds())
}

// RecordDataSetBuildFailure counts a failed build
func (c *Collector) RecordDataSetBuildFailure(errorType string) {
	c.DataSetBuildFailuresTotal.WithLabelValues(errorType).Inc()
}
