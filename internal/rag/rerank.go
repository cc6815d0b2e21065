package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_searcher.go -package=mocks mini-qna/internal/rag Searcher

import (
	"context"
	"fmt"
	"sort"
)

const (
	// DefaultCandidatePool is the number of vector candidates fetched for reranking.
	DefaultCandidatePool = 30
	// DefaultAlpha weights vector similarity against lexical score.
	DefaultAlpha = 0.6
)

// Searcher returns the n most similar stored chunks for a query.
type Searcher interface {
	Search(ctx context.Context, query string, n int) (Batch, error)
}

// HybridReranker fuses vector similarity with BM25 over the candidate pool.
type HybridReranker struct {
	searcher Searcher
}

// NewHybridReranker creates a reranker that pulls candidates from searcher.
func NewHybridReranker(searcher Searcher) *HybridReranker {
	return &HybridReranker{searcher: searcher}
}

// Rerank fetches k candidates for query and returns them ordered by blended score.
func (r *HybridReranker) Rerank(ctx context.Context, query string, k int, alpha float64) ([]RankedResult, error) {
	if k <= 0 {
		k = DefaultCandidatePool
	}
	if alpha < 0 || alpha > 1 {
		return nil, fmt.Errorf("alpha must be within [0,1], got %v", alpha)
	}

	batch, err := r.searcher.Search(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("failed to search candidates: %w", err)
	}

	return Fuse(query, batch, alpha), nil
}

// Fuse blends normalized vector and BM25 scores for every candidate in batch.
// Ordering is by descending blended score; equal scores keep batch order.
func Fuse(query string, batch Batch, alpha float64) []RankedResult {
	if batch.Len() == 0 {
		return []RankedResult{}
	}

	vectorScores := Normalize(batch.Similarities())
	lexicalScores := Normalize(newBM25Index(batch.Documents()).Scores(query))
	blended := BlendScores(vectorScores, lexicalScores, alpha)

	ranked := make([]RankedResult, batch.Len())
	for i, r := range batch.Results {
		ranked[i] = RankedResult{
			Text:         r.Text,
			Metadata:     r.Metadata,
			Score:        blended[i],
			VectorScore:  vectorScores[i],
			LexicalScore: lexicalScores[i],
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// BlendScores returns alpha*vector + (1-alpha)*lexical element-wise.
// Both inputs must already be normalized and have the same length.
func BlendScores(vector, lexical []float64, alpha float64) []float64 {
	out := make([]float64, len(vector))
	for i := range vector {
		var lex float64
		if i < len(lexical) {
			lex = lexical[i]
		}
		out[i] = alpha*vector[i] + (1-alpha)*lex
	}
	return out
}
