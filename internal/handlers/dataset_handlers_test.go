package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"climate-platform/internal/models"
	"climate-platform/internal/services"
	"climate-platform/pkg/logging"
	"climate-platform/pkg/metrics"
)

type stubHealth struct {
	err error
}

func (s stubHealth) HealthCheck(context.Context) error { return s.err }

func newTestRouter(t *testing.T, health HealthChecker) *mux.Router {
	t.Helper()

	logger := logging.NewStructuredLogger("climate-test", "test", logging.DebugLevel)
	logger.SetOutput(io.Discard)
	collector := metrics.NewCollectorWithRegisterer("climate_test", prometheus.NewRegistry())

	source := services.NewMemorySource()
	source.Put("tmax", []models.DataRecord{
		models.NewMonthlyRecord(2020, 1, models.Float(29)),
		models.NewMonthlyRecord(2020, 2, models.Float(29)),
		models.NewMonthlyRecord(2021, 1, models.Float(31)),
	})

	builder := services.NewDataSetBuilder(source, services.BuildDefaults{CupSize: 14, RequiredCupDataProportion: 0}, logger, collector)
	router := mux.NewRouter()
	NewDataSetHandler(builder, source, health, logger, collector).RegisterRoutes(router)
	return router
}

func doRequest(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestBuildDataSet(t *testing.T) {
	router := newTestRouter(t, nil)

	body := `{
		"series": [{"data_set_id": "tmax"}],
		"binning_rule": "ByYear",
		"bin_aggregation": "Mean",
		"bucket_aggregation": "Mean",
		"cup_aggregation": "Mean"
	}`
	rec := doRequest(router, http.MethodPost, "/api/datasets/build", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var result services.BuildResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Points, 2)
	assert.Equal(t, "2020", result.Points[0].Label)
	require.NotNil(t, result.Points[0].Value)
	assert.InDelta(t, 29, *result.Points[0].Value, 1e-9)
	require.NotNil(t, result.Points[1].Value)
	assert.InDelta(t, 31, *result.Points[1].Value, 1e-9)
	assert.Equal(t, 3, result.RecordCount)
}

func TestBuildDataSet_Errors(t *testing.T) {
	router := newTestRouter(t, nil)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{
			name:   "empty body",
			body:   "",
			status: http.StatusBadRequest,
		},
		{
			name:   "malformed json",
			body:   `{"series": [`,
			status: http.StatusBadRequest,
		},
		{
			name:   "unknown field",
			body:   `{"series": [{"data_set_id": "tmax"}], "binning": "ByYear"}`,
			status: http.StatusBadRequest,
		},
		{
			name:   "missing aggregation",
			body:   `{"series": [{"data_set_id": "tmax"}], "binning_rule": "ByYear"}`,
			status: http.StatusBadRequest,
		},
		{
			name: "unknown data set",
			body: `{"series": [{"data_set_id": "nope"}], "binning_rule": "ByYear",
				"bin_aggregation": "Mean", "bucket_aggregation": "Mean", "cup_aggregation": "Mean"}`,
			status: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(router, http.MethodPost, "/api/datasets/build", tt.body)
			assert.Equal(t, tt.status, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.status, resp.Code)
			assert.NotEmpty(t, resp.Message)
			assert.Equal(t, rec.Header().Get("X-Request-ID"), resp.RequestID)
		})
	}
}

func TestBuildDataSet_MethodNotAllowed(t *testing.T) {
	router := newTestRouter(t, nil)
	rec := doRequest(router, http.MethodGet, "/api/datasets/build", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestListDataSets(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doRequest(router, http.MethodGet, "/api/datasets", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data  []models.DataSetSummary `json:"data"`
		Total int                     `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "tmax", resp.Data[0].ID)
	assert.Equal(t, 3, resp.Data[0].RecordCount)
	assert.Equal(t, models.Monthly, resp.Data[0].Resolution)
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name   string
		health HealthChecker
		status int
		want   string
	}{
		{name: "no checker", health: nil, status: http.StatusOK, want: "healthy"},
		{name: "store reachable", health: stubHealth{}, status: http.StatusOK, want: "healthy"},
		{name: "store down", health: stubHealth{err: errors.New("connection refused")}, status: http.StatusServiceUnavailable, want: "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, tt.health)
			rec := doRequest(router, http.MethodGet, "/health", "")
			assert.Equal(t, tt.status, rec.Code)

			var resp map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.want, resp["status"])
			assert.NotEmpty(t, resp["timestamp"])
		})
	}
}

func TestRequestIDMiddleware_ReusesHeader(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestOpenAPIDocument(t *testing.T) {
	rec := httptest.NewRecorder()
	OpenAPIDocument(rec, httptest.NewRequest(http.MethodGet, "/api/docs/openapi.json", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	paths, ok := doc["paths"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, paths, "/api/datasets/build")
	assert.Contains(t, paths, "/api/datasets")
}

func TestSwaggerUI(t *testing.T) {
	rec := httptest.NewRecorder()
	SwaggerUI(rec, httptest.NewRequest(http.MethodGet, "/api/docs", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Climate Platform API Documentation")
	assert.Contains(t, rec.Body.String(), "swagger-ui-dist@"+swaggerUIVersion)
}
