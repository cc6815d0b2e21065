package rag

// ChunkMetadata identifies a chunk and its source document.
type ChunkMetadata struct {
	// ChunkID is the chunk store primary key. Zero means unknown.
	ChunkID int64 `json:"chunk_id"`
	// SourceID is the source catalog identifier (e.g. "src03").
	SourceID string `json:"source_id"`
	// Title is the source document title.
	Title string `json:"title"`
	// URL is the source document URL.
	URL string `json:"url"`
}

// SearchResult is one vector-search candidate. Lower distance is more similar.
type SearchResult struct {
	Text     string        `json:"text"`
	Metadata ChunkMetadata `json:"metadata"`
	Distance float64       `json:"distance"`
}

// RankedResult is a candidate after hybrid fusion. Higher score is better.
type RankedResult struct {
	Text     string        `json:"text"`
	Metadata ChunkMetadata `json:"metadata"`
	// Score is the blended score used for ordering.
	Score float64 `json:"score"`
	// VectorScore is the normalized vector similarity component.
	VectorScore float64 `json:"vector_score"`
	// LexicalScore is the normalized BM25 component.
	LexicalScore float64 `json:"lexical_score"`
}

// Citation points an answer back to the chunk it was extracted from.
type Citation struct {
	ChunkID  string  `json:"chunk_id"`
	SourceID string  `json:"source_id"`
	Title    string  `json:"title"`
	URL      string  `json:"url"`
	Score    float64 `json:"score"`
}

// Composition is the composer output: a short answer plus its provenance.
type Composition struct {
	// Answer is nil when there were no candidates to answer from.
	Answer    *string    `json:"answer"`
	Citations []Citation `json:"citations"`
	Scores    []float64  `json:"scores"`
}
