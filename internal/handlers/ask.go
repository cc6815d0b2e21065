package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"mini-qna/internal/contextutil"
	"mini-qna/internal/rag"
	"mini-qna/internal/service"
)

// AskHandler handles HTTP requests for QnA queries.
type AskHandler struct {
	qnaService service.QnAService
}

// NewAskHandler creates a new AskHandler.
func NewAskHandler(qnaService service.QnAService) *AskHandler {
	return &AskHandler{qnaService: qnaService}
}

// AskRequest represents the HTTP request payload for QnA queries.
//
// swagger:model AskRequest
type AskRequest struct {
	Query string `json:"query"`
	K     int    `json:"k,omitempty"`
	// Mode is "baseline" or "hybrid-bm25".
	Mode string `json:"mode"`
}

// AskResponse represents the HTTP response payload for QnA queries.
//
// swagger:model AskResponse
type AskResponse struct {
	// The extracted answer, null when no passage was confident enough
	Answer *string `json:"answer"`

	// Citations and their scores, in answer order
	Contexts Contexts `json:"contexts"`

	// Retrieval mode used to answer
	Mode string `json:"mode"`

	// Debug contains every scored candidate when ?debug=true is set.
	Debug *DebugInfo `json:"debug,omitempty"`
}

// Contexts holds the citations backing an answer.
//
// swagger:model Contexts
type Contexts struct {
	Citations []rag.Citation `json:"citations"`
	Scores    []float64      `json:"scores"`
}

// DebugInfo contains debug information when debug mode is enabled.
//
// swagger:model DebugInfo
type DebugInfo struct {
	Candidates []DebugCandidate `json:"candidates"`
}

// DebugCandidate is one retrieved candidate with its score components.
//
// swagger:model DebugCandidate
type DebugCandidate struct {
	// Rank is 1-based.
	Rank         int               `json:"rank"`
	Metadata     rag.ChunkMetadata `json:"metadata"`
	Score        float64           `json:"score"`
	VectorScore  float64           `json:"vector_score"`
	LexicalScore float64           `json:"lexical_score"`
	Text         string            `json:"text"`
}

// ServeHTTP handles HTTP requests for QnA queries.
//
// swagger:route POST /api/v1/ask askQuestion
//
// # Ask a question
//
// Retrieves passages with the requested mode and returns a short extracted
// answer with citations. Use `debug=true` to include every scored candidate.
//
// responses:
//
//	'200': AskResponse
//	'400': ErrorResponse
//	'502': ErrorResponse
//	'503': ErrorResponse
func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	debug := false
	if debugParam := r.URL.Query().Get("debug"); debugParam != "" {
		debug = strings.ToLower(debugParam) == "true" || debugParam == "1"
	}

	resp, err := h.qnaService.Ask(ctx, service.AskRequest{
		Query: req.Query,
		K:     req.K,
		Mode:  req.Mode,
		Debug: debug,
	})
	if err != nil {
		writeServiceError(w, r, err, "Failed to answer question")
		return
	}

	httpResp := AskResponse{
		Answer: resp.Answer,
		Contexts: Contexts{
			Citations: resp.Citations,
			Scores:    resp.Scores,
		},
		Mode: resp.Mode,
	}
	if httpResp.Contexts.Citations == nil {
		httpResp.Contexts.Citations = []rag.Citation{}
	}
	if httpResp.Contexts.Scores == nil {
		httpResp.Contexts.Scores = []float64{}
	}

	if debug {
		candidates := make([]DebugCandidate, 0, len(resp.Candidates))
		for i, c := range resp.Candidates {
			candidates = append(candidates, DebugCandidate{
				Rank:         i + 1,
				Metadata:     c.Metadata,
				Score:        c.Score,
				VectorScore:  c.VectorScore,
				LexicalScore: c.LexicalScore,
				Text:         c.Text,
			})
		}
		httpResp.Debug = &DebugInfo{Candidates: candidates}
	}

	writeJSON(w, r, http.StatusOK, httpResp)
}
