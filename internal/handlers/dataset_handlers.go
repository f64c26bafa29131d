package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"climate-platform/internal/services"
	"climate-platform/pkg/logging"
	"climate-platform/pkg/metrics"
)

const maxBuildRequestBytes = 1 << 20

// HealthChecker reports whether a backing store is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// DataSetHandler handles data set API endpoints
type DataSetHandler struct {
	builder *services.DataSetBuilder
	lister  services.DataSetLister
	health  HealthChecker
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewDataSetHandler creates a new data set handler. health may be nil.
func NewDataSetHandler(
	builder *services.DataSetBuilder,
	lister services.DataSetLister,
	health HealthChecker,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *DataSetHandler {
	return &DataSetHandler{
		builder: builder,
		lister:  lister,
		health:  health,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Code      int    `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// ListResponse wraps a list of items
type ListResponse struct {
	Data  interface{} `json:"data"`
	Total int         `json:"total"`
}

// BuildDataSet handles POST /api/datasets/build
func (h *DataSetHandler) BuildDataSet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/datasets/build").Observe(duration.Seconds())
	}()

	var req services.BuildRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBuildRequestBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		message := "invalid request body"
		if !errors.Is(err, io.EOF) {
			message = fmt.Sprintf("invalid request body: %v", err)
		}
		h.metrics.RecordAPIError("decode_error", "/api/datasets/build")
		h.sendError(w, r, message, http.StatusBadRequest)
		return
	}

	result, err := h.builder.BuildDataSet(ctx, req)
	if err != nil {
		errType := services.ErrorType(err)
		status := statusForErrorType(errType)
		message := err.Error()
		if status == http.StatusInternalServerError {
			message = "failed to build data set"
		}
		h.metrics.RecordAPIError(errType, "/api/datasets/build")
		h.sendError(w, r, message, status)
		return
	}

	h.metrics.RecordAPIRequest("/api/datasets/build", "POST", "200")
	h.sendJSON(w, result, http.StatusOK)
}

func statusForErrorType(errType string) int {
	switch errType {
	case "validation", "configuration":
		return http.StatusBadRequest
	case "unknown_data_set":
		return http.StatusNotFound
	case "cancelled":
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// ListDataSets handles GET /api/datasets
func (h *DataSetHandler) ListDataSets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/datasets").Observe(duration.Seconds())
	}()

	dataSets, err := h.lister.ListDataSets(ctx)
	if err != nil {
		h.logger.Error(ctx, "[API_LIST_DATASETS_ERROR] Failed to list data sets", logging.Fields{}, err)
		h.metrics.RecordAPIError("internal_error", "/api/datasets")
		h.sendError(w, r, "failed to list data sets", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/datasets", "GET", "200")
	h.sendJSON(w, ListResponse{Data: dataSets, Total: len(dataSets)}, http.StatusOK)
}

// HealthCheck handles GET /health
func (h *DataSetHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	code := http.StatusOK

	if h.health != nil {
		if err := h.health.HealthCheck(ctx); err != nil {
			h.logger.Warn(ctx, "[HEALTH_CHECK_FAILED] Backing store unreachable", logging.Fields{
				"error": err.Error(),
			})
			status["status"] = "unhealthy"
			code = http.StatusServiceUnavailable
		}
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{})
	h.sendJSON(w, status, code)
}

// sendJSON sends a JSON response
func (h *DataSetHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (h *DataSetHandler) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	h.metrics.RecordAPIRequest(r.URL.Path, r.Method, strconv.Itoa(statusCode))

	response := ErrorResponse{
		Error:     http.StatusText(statusCode),
		Message:   message,
		Code:      statusCode,
		RequestID: logging.RequestID(r.Context()),
	}

	h.sendJSON(w, response, statusCode)
}

// RequestIDMiddleware tags each request with an id, reusing X-Request-ID when the client sent one
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
	})
}

// RegisterRoutes registers all data set API routes
func (h *DataSetHandler) RegisterRoutes(router *mux.Router) {
	router.Use(RequestIDMiddleware)
	router.HandleFunc("/api/datasets/build", h.BuildDataSet).Methods("POST")
	router.HandleFunc("/api/datasets", h.ListDataSets).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
}
