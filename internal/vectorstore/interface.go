package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks mini-qna/internal/vectorstore VectorStore,CollectionManager

import "context"

// Point is a chunk embedding keyed by its chunk_id.
type Point struct {
	ID   uint64
	Vec  []float32
	Meta map[string]any
}

// SearchResult is one nearest-neighbor match. Score is cosine similarity.
type SearchResult struct {
	PointID uint64
	Score   float32
	Meta    map[string]any
}

// VectorStore defines the interface for vector storage operations.
type VectorStore interface {
	// Upsert inserts or updates points in the collection.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search returns the k nearest points, optionally restricted by payload
	// filters. Supported filter keys: "source_id" (string).
	Search(ctx context.Context, collection string, query []float32, k int, filters map[string]any) ([]SearchResult, error)

	// Delete removes points by their IDs.
	Delete(ctx context.Context, collection string, ids []uint64) error
}

// CollectionManager creates and inspects collections.
type CollectionManager interface {
	// EnsureCollection creates the collection or validates its vector size.
	EnsureCollection(ctx context.Context, collection string, vectorSize int) error

	// GetCollectionInfo returns size and status details of a collection.
	GetCollectionInfo(ctx context.Context, collection string) (*CollectionInfo, error)
}

// CollectionInfo contains information about a collection.
type CollectionInfo struct {
	VectorSize  int
	PointsCount int
	Status      string
}
