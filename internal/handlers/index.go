package handlers

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"

	"mini-qna/internal/contextutil"
	"mini-qna/internal/indexer"
)

// Indexer runs ingestion and reports index coverage.
type Indexer interface {
	IndexAll(ctx context.Context, force bool) (indexer.Summary, error)
	CoverageStats(ctx context.Context, embeddingModelName string) (*indexer.CoverageStats, error)
}

// IndexHandler handles HTTP requests for triggering re-indexing.
type IndexHandler struct {
	indexer            Indexer
	embeddingModelName string
	running            atomic.Bool
	wg                 sync.WaitGroup
}

// NewIndexHandler creates a new IndexHandler.
func NewIndexHandler(idx Indexer, embeddingModelName string) *IndexHandler {
	return &IndexHandler{
		indexer:            idx,
		embeddingModelName: embeddingModelName,
	}
}

// IndexResponse represents the response from the index endpoint.
type IndexResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// ServeHTTP triggers ingestion in the background and returns 202 Accepted.
// A second request while a run is in progress gets 409 Conflict.
func (h *IndexHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	force := r.URL.Query().Get("force") == "true"

	logger.InfoContext(ctx, "re-indexing triggered via API", "force", force)
	if !h.Start(ctx, force) {
		logger.WarnContext(ctx, "re-indexing already running")
		writeError(w, http.StatusConflict, "Indexing already in progress")
		return
	}

	message := "Indexing started. Check server logs for progress."
	if force {
		message = "Force re-indexing started (unchanged sources are re-embedded). Check server logs for progress."
	}
	writeJSON(w, r, http.StatusAccepted, IndexResponse{
		Message: message,
		Status:  "accepted",
	})
}

// Start launches a background indexing run and reports whether it started.
// It returns false while another run is in progress. The run outlives ctx
// and only inherits its logger.
func (h *IndexHandler) Start(ctx context.Context, force bool) bool {
	if !h.running.CompareAndSwap(false, true) {
		return false
	}

	logger := contextutil.LoggerFromContext(ctx)
	indexCtx := contextutil.WithLogger(context.Background(), logger)
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer h.running.Store(false)

		summary, err := h.indexer.IndexAll(indexCtx, force)
		if err != nil {
			logger.ErrorContext(indexCtx, "re-indexing completed with errors", "error", err, "failed", summary.Failed)
			return
		}
		logger.InfoContext(indexCtx, "re-indexing completed successfully",
			"indexed", summary.Indexed, "skipped", summary.Skipped, "missing", summary.Missing, "chunks", summary.Chunks)
	}()
	return true
}

// Stats returns index coverage statistics.
func (h *IndexHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	stats, err := h.indexer.CoverageStats(ctx, h.embeddingModelName)
	if err != nil {
		logger.ErrorContext(ctx, "failed to compute coverage stats", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to compute index stats")
		return
	}
	writeJSON(w, r, http.StatusOK, stats)
}

// Wait blocks until any background indexing run has finished.
func (h *IndexHandler) Wait() {
	h.wg.Wait()
}
