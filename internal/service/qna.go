package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_qna_service.go -package=mocks -mock_names=QnAService=MockQnAService mini-qna/internal/service QnAService
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_recorder.go -package=mocks mini-qna/internal/service Recorder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mini-qna/internal/contextutil"
	"mini-qna/internal/rag"
)

// Retrieval modes accepted by Ask.
const (
	ModeBaseline = "baseline"
	ModeHybrid   = "hybrid-bm25"
)

const (
	outcomeOK      = "ok"
	outcomeInvalid = "invalid"
	outcomeError   = "error"
)

// Recorder receives one observation per Ask call.
type Recorder interface {
	RecordAsk(mode, outcome string, citations int, duration time.Duration)
}

// Options tunes retrieval. Non-positive counts and a negative threshold fall
// back to the package defaults; Alpha outside [0,1] falls back to
// rag.DefaultAlpha. A zero threshold keeps exact matches only.
type Options struct {
	DistanceThreshold float64
	HybridCandidates  int
	Alpha             float64
	DefaultK          int
	MaxK              int
}

// DefaultOptions returns the retrieval defaults.
func DefaultOptions() Options {
	return Options{
		DistanceThreshold: rag.DefaultDistanceThreshold,
		HybridCandidates:  rag.DefaultCandidatePool,
		Alpha:             rag.DefaultAlpha,
		DefaultK:          rag.DefaultTopN,
		MaxK:              20,
	}
}

// AskRequest is a question in the domain layer.
type AskRequest struct {
	Query string
	K     int
	Mode  string
	Debug bool
}

// AskResponse is a composed answer in the domain layer. Answer is nil when no
// candidate survived retrieval.
type AskResponse struct {
	Answer    *string
	Citations []rag.Citation
	Scores    []float64
	Mode      string
	// Candidates holds every scored candidate when Debug was requested.
	Candidates []rag.RankedResult
}

// QnAService answers questions from the indexed corpus.
type QnAService interface {
	// Ask retrieves candidates for req.Query and composes a cited answer.
	Ask(ctx context.Context, req AskRequest) (AskResponse, error)
}

type qnaService struct {
	searcher rag.Searcher
	reranker *rag.HybridReranker
	composer *rag.Composer
	recorder Recorder
	opts     Options
}

// NewQnAService creates a QnAService. recorder may be nil.
func NewQnAService(searcher rag.Searcher, composer *rag.Composer, recorder Recorder, opts Options) QnAService {
	defaults := DefaultOptions()
	if opts.HybridCandidates <= 0 {
		opts.HybridCandidates = defaults.HybridCandidates
	}
	if opts.DefaultK <= 0 {
		opts.DefaultK = defaults.DefaultK
	}
	if opts.MaxK <= 0 {
		opts.MaxK = defaults.MaxK
	}
	if opts.DistanceThreshold < 0 {
		opts.DistanceThreshold = defaults.DistanceThreshold
	}
	if opts.Alpha < 0 || opts.Alpha > 1 {
		opts.Alpha = defaults.Alpha
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}

	return &qnaService{
		searcher: searcher,
		reranker: rag.NewHybridReranker(searcher),
		composer: composer,
		recorder: recorder,
		opts:     opts,
	}
}

// Ask answers a question with the requested retrieval mode.
func (s *qnaService) Ask(ctx context.Context, req AskRequest) (AskResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)
	start := time.Now()

	k, err := s.validate(req)
	if err != nil {
		logger.WarnContext(ctx, "invalid ask request", "error", err)
		s.recorder.RecordAsk(req.Mode, outcomeInvalid, 0, time.Since(start))
		return AskResponse{}, err
	}

	logger.InfoContext(ctx, "ask started", "mode", req.Mode, "k", k, "query_length", len(req.Query))

	var candidates rag.Candidates
	var debug []rag.RankedResult
	switch req.Mode {
	case ModeBaseline:
		batch, err := s.searcher.Search(ctx, req.Query, k)
		if err != nil {
			logger.ErrorContext(ctx, "vector search failed", "error", err)
			s.recorder.RecordAsk(req.Mode, outcomeError, 0, time.Since(start))
			return AskResponse{}, externalError(err, "failed to search chunks")
		}
		filtered := rag.FilterByDistance(batch, s.opts.DistanceThreshold)
		logger.DebugContext(ctx, "threshold filter applied",
			"candidates", batch.Len(),
			"kept", filtered.Len(),
			"threshold", s.opts.DistanceThreshold,
		)
		candidates = filtered
		if req.Debug {
			debug = rag.Ranked(filtered)
		}
	case ModeHybrid:
		pool := max(s.opts.HybridCandidates, k)
		ranked, err := s.reranker.Rerank(ctx, req.Query, pool, s.opts.Alpha)
		if err != nil {
			logger.ErrorContext(ctx, "hybrid rerank failed", "error", err)
			s.recorder.RecordAsk(req.Mode, outcomeError, 0, time.Since(start))
			return AskResponse{}, externalError(err, "failed to rerank chunks")
		}
		logger.DebugContext(ctx, "hybrid rerank done", "pool", pool, "candidates", len(ranked), "alpha", s.opts.Alpha)
		candidates = rag.RankedList(ranked)
		if req.Debug {
			debug = ranked
		}
	}

	composition := s.composer.Compose(candidates, k)

	s.recorder.RecordAsk(req.Mode, outcomeOK, len(composition.Citations), time.Since(start))
	logger.InfoContext(ctx, "ask completed",
		"mode", req.Mode,
		"citations", len(composition.Citations),
		"answered", composition.Answer != nil,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	resp := AskResponse{
		Answer:    composition.Answer,
		Citations: composition.Citations,
		Scores:    composition.Scores,
		Mode:      req.Mode,
	}
	if req.Debug {
		if debug == nil {
			debug = []rag.RankedResult{}
		}
		resp.Candidates = debug
	}
	return resp, nil
}

// validate checks the request and returns the effective k.
func (s *qnaService) validate(req AskRequest) (int, error) {
	if strings.TrimSpace(req.Query) == "" {
		return 0, &ValidationError{Field: "query", Message: "cannot be empty"}
	}
	if req.Mode != ModeBaseline && req.Mode != ModeHybrid {
		return 0, &ValidationError{
			Field:   "mode",
			Message: fmt.Sprintf("must be %q or %q, got %q", ModeBaseline, ModeHybrid, req.Mode),
		}
	}

	k := req.K
	if k == 0 {
		k = s.opts.DefaultK
	}
	if k < 0 || k > s.opts.MaxK {
		return 0, &ValidationError{
			Field:   "k",
			Message: fmt.Sprintf("must be between 1 and %d", s.opts.MaxK),
		}
	}
	return k, nil
}

type nopRecorder struct{}

func (nopRecorder) RecordAsk(string, string, int, time.Duration) {}
