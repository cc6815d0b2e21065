package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a record is not found.
var ErrNotFound = errors.New("record not found")

// ChunkRecord is one persisted chunk of a source document.
type ChunkRecord struct {
	ID       int64  // document_chunks.chunk_id, assigned on insert
	SourceID string // Source catalog ID (e.g. "src03")
	Text     string
}

// SourceRecord tracks the last successful ingestion of a source document.
type SourceRecord struct {
	SourceID   string
	FileName   string // Base name of the ingested file
	Hash       string // SHA256 hex string of file content
	ChunkCount int
	IngestedAt time.Time
}
