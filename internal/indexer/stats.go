package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"unicode/utf8"

	"mini-qna/internal/storage"
)

const (
	// ChunkerVersion is the version identifier for the chunker implementation.
	// Update this when chunking logic changes significantly.
	ChunkerVersion = "v2.0"
	// RunesPerToken is an approximation for token counting (4 chars per token).
	RunesPerToken = 4.0
)

// CoverageStats contains statistics about the current index.
type CoverageStats struct {
	// SourcesInCatalog is the number of sources listed in the catalog.
	SourcesInCatalog int `json:"sources_in_catalog"`
	// SourcesIndexed is the number of sources with an ingestion record.
	SourcesIndexed int `json:"sources_indexed"`
	// SourcesWith0Chunks is the number of ingested sources that produced no chunks.
	SourcesWith0Chunks int `json:"sources_with_0_chunks"`
	// MissingSources lists catalog IDs that were never ingested.
	MissingSources []string `json:"missing_sources"`
	// Chunks is the number of stored chunks.
	Chunks int `json:"chunks"`
	// ChunkTokenStats contains statistics about token counts per chunk.
	ChunkTokenStats ChunkTokenStats `json:"chunk_token_stats"`
	// ChunkerVersion is the version of the chunker used.
	ChunkerVersion string `json:"chunker_version"`
	// IndexVersion is a hash identifying the index build (chunker + embedding model + params).
	IndexVersion string `json:"index_version"`
}

// ChunkTokenStats contains statistics about token counts in chunks.
type ChunkTokenStats struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
	P95  int     `json:"p95"`
}

// CoverageStats computes index statistics from the chunk and source stores.
func (p *Pipeline) CoverageStats(ctx context.Context, embeddingModelName string) (*CoverageStats, error) {
	records, err := p.sources.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	counts, err := p.chunks.CountBySource(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count chunks: %w", err)
	}

	stats := &CoverageStats{
		SourcesInCatalog: p.catalog.Len(),
		SourcesIndexed:   len(records),
		MissingSources:   []string{},
		ChunkerVersion:   ChunkerVersion,
		IndexVersion:     indexVersion(embeddingModelName, p.splitter),
	}

	indexed := make(map[string]struct{}, len(records))
	for _, rec := range records {
		indexed[rec.SourceID] = struct{}{}
		if counts[rec.SourceID] == 0 {
			stats.SourcesWith0Chunks++
		}
	}
	for _, id := range p.catalog.IDs() {
		if _, ok := indexed[id]; !ok {
			stats.MissingSources = append(stats.MissingSources, id)
		}
	}

	var tokenCounts []int
	err = p.chunks.Each(ctx, func(rec *storage.ChunkRecord) error {
		tokenCounts = append(tokenCounts, estimateTokens(rec.Text))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan chunks: %w", err)
	}
	stats.Chunks = len(tokenCounts)
	stats.ChunkTokenStats = computeTokenStats(tokenCounts)

	return stats, nil
}

// estimateTokens approximates tokens from rune count, with a minimum of 1.
func estimateTokens(text string) int {
	tokens := int(math.Round(float64(utf8.RuneCountInString(text)) / RunesPerToken))
	return max(tokens, 1)
}

// indexVersion hashes the chunker version, embedding model and chunking params.
func indexVersion(embeddingModelName string, s *Splitter) string {
	input := fmt.Sprintf("%s|%s|chunkSize=%d|overlap=%d|separators=%q",
		ChunkerVersion, embeddingModelName, s.ChunkSize, s.Overlap, s.Separators)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])[:16]
}

// computeTokenStats computes min, max, mean, and p95 from token counts.
func computeTokenStats(tokenCounts []int) ChunkTokenStats {
	if len(tokenCounts) == 0 {
		return ChunkTokenStats{}
	}

	sorted := make([]int, len(tokenCounts))
	copy(sorted, tokenCounts)
	sort.Ints(sorted)

	sum := 0
	for _, count := range sorted {
		sum += count
	}
	mean := float64(sum) / float64(len(sorted))

	p95Index := int(math.Ceil(float64(len(sorted))*0.95)) - 1
	p95Index = min(max(p95Index, 0), len(sorted)-1)

	return ChunkTokenStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100,
		P95:  sorted[p95Index],
	}
}
