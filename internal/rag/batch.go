package rag

// Batch is an ordered set of vector-search candidates for a single query.
// Results are kept as records so text, metadata and distance never drift
// apart when the batch is filtered or reordered.
type Batch struct {
	Results []SearchResult
}

// NewBatch builds a batch from the column layout returned by vector stores
// (documents, metadatas, distances). Columns are truncated to the shortest one.
func NewBatch(documents []string, metadatas []ChunkMetadata, distances []float64) Batch {
	n := min(len(documents), len(metadatas), len(distances))
	results := make([]SearchResult, n)
	for i := 0; i < n; i++ {
		results[i] = SearchResult{
			Text:     documents[i],
			Metadata: metadatas[i],
			Distance: distances[i],
		}
	}
	return Batch{Results: results}
}

// Len returns the number of candidates in the batch.
func (b Batch) Len() int {
	return len(b.Results)
}

// Documents returns the candidate texts in batch order.
func (b Batch) Documents() []string {
	out := make([]string, len(b.Results))
	for i, r := range b.Results {
		out[i] = r.Text
	}
	return out
}

// Metadatas returns the candidate metadata in batch order.
func (b Batch) Metadatas() []ChunkMetadata {
	out := make([]ChunkMetadata, len(b.Results))
	for i, r := range b.Results {
		out[i] = r.Metadata
	}
	return out
}

// Distances returns the candidate distances in batch order.
func (b Batch) Distances() []float64 {
	out := make([]float64, len(b.Results))
	for i, r := range b.Results {
		out[i] = r.Distance
	}
	return out
}

// Similarities returns 1 - distance for each candidate in batch order.
func (b Batch) Similarities() []float64 {
	out := make([]float64, len(b.Results))
	for i, r := range b.Results {
		out[i] = 1 - r.Distance
	}
	return out
}
