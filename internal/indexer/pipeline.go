package indexer

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"mini-qna/internal/catalog"
	"mini-qna/internal/contextutil"
	"mini-qna/internal/llm"
	"mini-qna/internal/retrieval"
	"mini-qna/internal/storage"
	"mini-qna/internal/vectorstore"
)

// DefaultEmbedBatchSize is the number of chunks embedded per request.
const DefaultEmbedBatchSize = 200

// ErrSourceFileMissing is returned when no document exists for a catalog source.
var ErrSourceFileMissing = errors.New("source file not found")

// IngestRecorder receives one observation per ingested source.
type IngestRecorder interface {
	RecordIngest(sourceID, outcome string, chunks int)
}

// TextTrainer learns word frequencies from ingested chunk text.
type TextTrainer interface {
	TrainText(text string)
}

// Dependencies are the collaborators of a Pipeline. Recorder and Trainer
// are optional.
type Dependencies struct {
	Catalog     *catalog.Catalog
	Sources     storage.SourceStore
	Chunks      storage.ChunkStore
	Embedder    llm.Embedder
	VectorStore vectorstore.VectorStore
	Collection  string
	Splitter    *Splitter
	Recorder    IngestRecorder
	Trainer     TextTrainer
}

// Pipeline ingests catalog sources from a data directory into SQLite and Qdrant.
type Pipeline struct {
	catalog     *catalog.Catalog
	dataPath    string
	sources     storage.SourceStore
	chunks      storage.ChunkStore
	embedder    llm.Embedder
	vectorStore vectorstore.VectorStore
	collection  string
	splitter    *Splitter
	extractor   *TextExtractor
	recorder    IngestRecorder
	trainer     TextTrainer
	batchSize   int
}

// NewPipeline creates a new ingestion pipeline reading documents from dataPath.
func NewPipeline(dataPath string, deps Dependencies) *Pipeline {
	splitter := deps.Splitter
	if splitter == nil {
		splitter = &Splitter{ChunkSize: DefaultChunkSize, Overlap: DefaultChunkOverlap, Separators: DefaultSeparators}
	}
	return &Pipeline{
		catalog:     deps.Catalog,
		dataPath:    dataPath,
		sources:     deps.Sources,
		chunks:      deps.Chunks,
		embedder:    deps.Embedder,
		vectorStore: deps.VectorStore,
		collection:  deps.Collection,
		splitter:    splitter,
		extractor:   NewTextExtractor(),
		recorder:    deps.Recorder,
		trainer:     deps.Trainer,
		batchSize:   DefaultEmbedBatchSize,
	}
}

// IndexSource ingests a single catalog source.
// It skips files whose hash is unchanged unless force is set, and otherwise
// replaces every stored chunk and vector of the source.
func (p *Pipeline) IndexSource(ctx context.Context, sourceID string, force bool) (SourceResult, error) {
	logger := contextutil.LoggerFromContext(ctx).With("source_id", sourceID)
	result := SourceResult{SourceID: sourceID}

	path := FindSourceFile(p.dataPath, sourceID)
	if path == "" {
		p.record(sourceID, OutcomeSkipped, 0)
		return result, fmt.Errorf("%w: %s", ErrSourceFileMissing, sourceID)
	}
	result.File = filepath.Base(path)

	content, err := os.ReadFile(path)
	if err != nil {
		p.record(sourceID, OutcomeError, 0)
		return result, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	hashHex := fmt.Sprintf("%x", sha256.Sum256(content))

	existing, err := p.sources.Get(ctx, sourceID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		p.record(sourceID, OutcomeError, 0)
		return result, fmt.Errorf("failed to check existing source: %w", err)
	}
	if !force && existing != nil && existing.Hash == hashHex && existing.FileName == result.File {
		logger.DebugContext(ctx, "skipping unchanged source", "file", result.File, "hash", hashHex)
		result.Skipped = true
		result.Chunks = existing.ChunkCount
		p.record(sourceID, OutcomeSkipped, 0)
		return result, nil
	}

	text, err := p.extractor.Extract(path)
	if err != nil {
		p.record(sourceID, OutcomeError, 0)
		return result, fmt.Errorf("failed to extract text: %w", err)
	}
	texts, err := p.splitter.Split(text)
	if err != nil {
		p.record(sourceID, OutcomeError, 0)
		return result, fmt.Errorf("failed to chunk text: %w", err)
	}
	if len(texts) == 0 {
		logger.WarnContext(ctx, "no chunks generated", "file", result.File)
	}

	if err := p.replaceChunks(ctx, sourceID, texts); err != nil {
		p.record(sourceID, OutcomeError, 0)
		return result, err
	}

	if err := p.sources.Upsert(ctx, &storage.SourceRecord{
		SourceID:   sourceID,
		FileName:   result.File,
		Hash:       hashHex,
		ChunkCount: len(texts),
		IngestedAt: time.Now().UTC(),
	}); err != nil {
		p.record(sourceID, OutcomeError, 0)
		return result, fmt.Errorf("failed to record source: %w", err)
	}

	if p.trainer != nil {
		for _, t := range texts {
			p.trainer.TrainText(t)
		}
	}

	result.Chunks = len(texts)
	p.record(sourceID, OutcomeIndexed, len(texts))
	logger.InfoContext(ctx, "indexed source", "file", result.File, "chunks", len(texts))
	return result, nil
}

// replaceChunks deletes the stored chunks and vectors of a source, then
// inserts texts and upserts their embeddings in batches.
func (p *Pipeline) replaceChunks(ctx context.Context, sourceID string, texts []string) error {
	logger := contextutil.LoggerFromContext(ctx)

	oldIDs, err := p.chunks.ListIDsBySource(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("failed to list old chunk IDs: %w", err)
	}
	if len(oldIDs) > 0 {
		pointIDs := make([]uint64, len(oldIDs))
		for i, id := range oldIDs {
			pointIDs[i] = uint64(id)
		}
		if err := p.vectorStore.Delete(ctx, p.collection, pointIDs); err != nil {
			logger.WarnContext(ctx, "failed to delete old vectors", "error", err, "count", len(pointIDs))
		}
		if err := p.chunks.DeleteBySource(ctx, sourceID); err != nil {
			return fmt.Errorf("failed to delete old chunks: %w", err)
		}
	}

	records := make([]*storage.ChunkRecord, 0, len(texts))
	for _, t := range texts {
		rec := &storage.ChunkRecord{SourceID: sourceID, Text: t}
		if err := p.chunks.Insert(ctx, rec); err != nil {
			p.rollback(ctx, sourceID, records)
			return fmt.Errorf("failed to insert chunk: %w", err)
		}
		records = append(records, rec)
	}

	for start := 0; start < len(records); start += p.batchSize {
		batch := records[start:min(start+p.batchSize, len(records))]
		if err := p.embedBatch(ctx, sourceID, batch); err != nil {
			p.rollback(ctx, sourceID, records)
			return err
		}
	}
	return nil
}

// rollback removes the rows and vectors written by a failed replaceChunks so
// that no chunk is left without its vector. The source record is dropped as
// well because its old chunks are already gone, so the next run ingests the
// source again even when the file is unchanged.
func (p *Pipeline) rollback(ctx context.Context, sourceID string, records []*storage.ChunkRecord) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := p.sources.Delete(ctx, sourceID); err != nil {
		logger.WarnContext(ctx, "failed to delete source record of failed ingest", "source_id", sourceID, "error", err)
	}
	if len(records) == 0 {
		return
	}

	pointIDs := make([]uint64, len(records))
	for i, rec := range records {
		pointIDs[i] = uint64(rec.ID)
	}
	if err := p.vectorStore.Delete(ctx, p.collection, pointIDs); err != nil {
		logger.WarnContext(ctx, "failed to delete vectors of failed ingest", "source_id", sourceID, "error", err, "count", len(pointIDs))
	}
	if err := p.chunks.DeleteBySource(ctx, sourceID); err != nil {
		logger.WarnContext(ctx, "failed to delete chunks of failed ingest", "source_id", sourceID, "error", err)
	}
}

func (p *Pipeline) embedBatch(ctx context.Context, sourceID string, batch []*storage.ChunkRecord) error {
	texts := make([]string, len(batch))
	for i, rec := range batch {
		texts[i] = rec.Text
	}

	embeddings, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(embeddings) != len(batch) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(batch), len(embeddings))
	}

	points := make([]vectorstore.Point, len(batch))
	for i, rec := range batch {
		points[i] = vectorstore.Point{
			ID:   uint64(rec.ID),
			Vec:  embeddings[i],
			Meta: retrieval.Payload(p.catalog.Metadata(rec.ID, sourceID)),
		}
	}

	if err := p.vectorStore.Upsert(ctx, p.collection, points); err != nil {
		return fmt.Errorf("failed to upsert vectors: %w", err)
	}
	return nil
}

// IndexAll ingests every catalog source in ID order.
// Missing files and per-source errors are logged and do not stop the run.
func (p *Pipeline) IndexAll(ctx context.Context, force bool) (Summary, error) {
	logger := contextutil.LoggerFromContext(ctx)

	ids := p.catalog.IDs()
	logger.InfoContext(ctx, "starting ingestion", "sources", len(ids), "force", force)

	var summary Summary
	for _, id := range ids {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		res, err := p.IndexSource(ctx, id, force)
		switch {
		case errors.Is(err, ErrSourceFileMissing):
			summary.Missing++
			logger.WarnContext(ctx, "source file missing", "source_id", id, "data_path", p.dataPath)
		case err != nil:
			summary.Failed++
			logger.ErrorContext(ctx, "failed to index source", "source_id", id, "error", err)
		case res.Skipped:
			summary.Skipped++
		default:
			summary.Indexed++
			summary.Chunks += res.Chunks
		}
	}

	logger.InfoContext(ctx, "ingestion completed",
		"sources", len(ids),
		"indexed", summary.Indexed,
		"skipped", summary.Skipped,
		"missing", summary.Missing,
		"errors", summary.Failed,
		"chunks", summary.Chunks,
	)

	if summary.Failed > 0 {
		return summary, fmt.Errorf("ingestion completed with %d errors", summary.Failed)
	}
	return summary, nil
}

func (p *Pipeline) record(sourceID, outcome string, chunks int) {
	if p.recorder != nil {
		p.recorder.RecordIngest(sourceID, outcome, chunks)
	}
}
