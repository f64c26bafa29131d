package services

import (
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"climate-platform/internal/models"
	"climate-platform/pkg/logging"
	"climate-platform/pkg/metrics"
)

func testLogger(t *testing.T) *logging.StructuredLogger {
	t.Helper()
	logger := logging.NewStructuredLogger("climate-test", "test", logging.DebugLevel)
	logger.SetOutput(io.Discard)
	return logger
}

func testMetrics(t *testing.T) *metrics.Collector {
	t.Helper()
	return metrics.NewCollectorWithRegisterer("climate_test", prometheus.NewRegistry())
}

// dailySeries returns n consecutive daily records from y-m-d valued base, base+step, ...
func dailySeries(y, m, d, n int, base, step float64) []models.DataRecord {
	start := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	out := make([]models.DataRecord, n)
	for i := range out {
		day := start.AddDate(0, 0, i)
		out[i] = models.NewDailyRecord(day.Year(), int(day.Month()), day.Day(), models.Float(base+step*float64(i)))
	}
	return out
}

// dailyYear returns one record per day of year, valued by fn(month)
func dailyYear(year int, fn func(month int) float64) []models.DataRecord {
	var out []models.DataRecord
	for d := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC); d.Year() == year; d = d.AddDate(0, 0, 1) {
		out = append(out, models.NewDailyRecord(year, int(d.Month()), d.Day(), models.Float(fn(int(d.Month())))))
	}
	return out
}

func proportion(p float64) *float64 { return &p }
