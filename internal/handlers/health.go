package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"mini-qna/internal/contextutil"
	"mini-qna/internal/vectorstore"
)

// Pinger checks that a database connection is alive. *sql.DB implements it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// BreakerState reports the state of a circuit breaker ("closed", "open", "half-open").
type BreakerState interface {
	State() string
}

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	collections        vectorstore.CollectionManager
	db                 Pinger
	breaker            BreakerState
	collectionName     string
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler. breaker may be nil.
func NewHealthHandler(collections vectorstore.CollectionManager, db Pinger, breaker BreakerState, collectionName string) *HealthHandler {
	return &HealthHandler{
		collections:        collections,
		db:                 db,
		breaker:            breaker,
		collectionName:     collectionName,
		healthCheckTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
//
// swagger:model HealthResponse
type HealthResponse struct {
	// Overall health status: "healthy", "degraded", or "unhealthy"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Individual check results
	Checks map[string]string `json:"checks"`

	// Number of indexed vectors, when the collection is reachable
	Points int `json:"points,omitempty"`

	// List of issues (only present if status is degraded or unhealthy)
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP handles HTTP requests for health checks.
//
// swagger:route GET /api/health healthCheck
//
// # Health check endpoint
//
// Returns 200 OK if healthy, 503 Service Unavailable if degraded or unhealthy.
//
// responses:
//
//	'200': HealthResponse
//	'503': HealthResponse
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	checks := make(map[string]string)
	var issues []string
	response := HealthResponse{Checks: checks}

	if points, ok := h.checkVectorStore(checkCtx, logger); ok {
		checks["vector_store"] = "ok"
		response.Points = points
	} else {
		checks["vector_store"] = "error"
		issues = append(issues, "vector_store_unavailable")
	}

	if err := h.db.PingContext(checkCtx); err != nil {
		logger.WarnContext(ctx, "database health check failed", "error", err)
		checks["chunk_store"] = "error"
		issues = append(issues, "chunk_store_unavailable")
	} else {
		checks["chunk_store"] = "ok"
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if len(issues) > 0 {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	// An open breaker only degrades an otherwise healthy service.
	if h.breaker != nil {
		state := h.breaker.State()
		checks["embeddings_breaker"] = state
		if state == "open" {
			issues = append(issues, "embeddings_circuit_open")
			if status == "healthy" {
				status = "degraded"
				httpStatus = http.StatusServiceUnavailable
			}
		}
	}

	response.Status = status
	response.Timestamp = time.Now().UTC().Format(time.RFC3339)
	if len(issues) > 0 {
		response.Issues = issues
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.ErrorContext(ctx, "failed to encode health response", "error", err)
	}
}

// checkVectorStore checks that the collection exists and returns its point count.
func (h *HealthHandler) checkVectorStore(ctx context.Context, logger *slog.Logger) (int, bool) {
	info, err := h.collections.GetCollectionInfo(ctx, h.collectionName)
	if err != nil {
		logger.WarnContext(ctx, "vector store health check failed", "collection", h.collectionName, "error", err)
		return 0, false
	}
	return info.PointsCount, true
}
