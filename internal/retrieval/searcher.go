// Package retrieval answers rag.Searcher queries from the embeddings
// provider, the vector store and the chunk store.
package retrieval

import (
	"context"
	"errors"
	"fmt"

	"mini-qna/internal/contextutil"
	"mini-qna/internal/llm"
	"mini-qna/internal/rag"
	"mini-qna/internal/storage"
	"mini-qna/internal/vectorstore"
)

// VectorSearcher implements rag.Searcher.
type VectorSearcher struct {
	embedder    llm.Embedder
	vectorStore vectorstore.VectorStore
	collection  string
	chunkStore  storage.ChunkStore
}

// NewVectorSearcher creates a searcher over collection.
func NewVectorSearcher(embedder llm.Embedder, vectorStore vectorstore.VectorStore, collection string, chunkStore storage.ChunkStore) *VectorSearcher {
	return &VectorSearcher{
		embedder:    embedder,
		vectorStore: vectorStore,
		collection:  collection,
		chunkStore:  chunkStore,
	}
}

// Search embeds query and returns up to n nearest chunks ordered by
// ascending cosine distance. Points whose chunk row is gone are skipped.
func (s *VectorSearcher) Search(ctx context.Context, query string, n int) (rag.Batch, error) {
	logger := contextutil.LoggerFromContext(ctx)

	embeddings, err := s.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return rag.Batch{}, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddings) == 0 {
		return rag.Batch{}, fmt.Errorf("no embedding returned for query")
	}

	hits, err := s.vectorStore.Search(ctx, s.collection, embeddings[0], n, nil)
	if err != nil {
		return rag.Batch{}, fmt.Errorf("failed to search vector store: %w", err)
	}

	results := make([]rag.SearchResult, 0, len(hits))
	for _, hit := range hits {
		meta := metadataFromPayload(hit.PointID, hit.Meta)

		chunk, err := s.chunkStore.GetByID(ctx, meta.ChunkID)
		if errors.Is(err, storage.ErrNotFound) {
			logger.WarnContext(ctx, "vector point has no chunk row", "chunk_id", meta.ChunkID)
			continue
		}
		if err != nil {
			return rag.Batch{}, fmt.Errorf("failed to fetch chunk %d: %w", meta.ChunkID, err)
		}
		if meta.SourceID == "" {
			meta.SourceID = chunk.SourceID
		}

		results = append(results, rag.SearchResult{
			Text:     chunk.Text,
			Metadata: meta,
			Distance: 1 - float64(hit.Score),
		})
	}

	logger.DebugContext(ctx, "vector search completed", "requested", n, "hits", len(hits), "results", len(results))
	return rag.Batch{Results: results}, nil
}

// metadataFromPayload reads chunk metadata from a vector payload. The point
// ID is the chunk ID when the payload does not carry one.
func metadataFromPayload(pointID uint64, payload map[string]any) rag.ChunkMetadata {
	meta := rag.ChunkMetadata{ChunkID: int64(pointID)}
	if id, ok := asInt64(payload["chunk_id"]); ok && id != 0 {
		meta.ChunkID = id
	}
	meta.SourceID, _ = payload["source_id"].(string)
	meta.Title, _ = payload["title"].(string)
	meta.URL, _ = payload["url"].(string)
	return meta
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

// Payload builds the vector payload stored alongside a chunk embedding.
func Payload(meta rag.ChunkMetadata) map[string]any {
	return map[string]any{
		"chunk_id":  meta.ChunkID,
		"source_id": meta.SourceID,
		"title":     meta.Title,
		"url":       meta.URL,
	}
}
