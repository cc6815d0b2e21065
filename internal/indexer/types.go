package indexer

// Ingestion outcomes reported to the IngestRecorder.
const (
	OutcomeIndexed = "indexed"
	OutcomeSkipped = "skipped"
	OutcomeError   = "error"
)

// SourceResult describes the ingestion of one catalog source.
type SourceResult struct {
	SourceID string `json:"source_id"`
	File     string `json:"file,omitempty"` // Base name of the ingested file
	Chunks   int    `json:"chunks"`
	Skipped  bool   `json:"skipped"` // Unchanged since the previous run
}

// Summary aggregates an IndexAll run.
type Summary struct {
	Indexed int `json:"indexed"`
	Skipped int `json:"skipped"`
	Missing int `json:"missing"`
	Failed  int `json:"failed"`
	Chunks  int `json:"chunks"`
}
