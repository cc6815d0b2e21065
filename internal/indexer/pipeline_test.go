package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mini-qna/internal/catalog"
	llm_mocks "mini-qna/internal/llm/mocks"
	"mini-qna/internal/storage"
	"mini-qna/internal/vectorstore"
	vectorstore_mocks "mini-qna/internal/vectorstore/mocks"

	"go.uber.org/mock/gomock"
)

type fakeRecorder struct {
	outcomes map[string][]string
	chunks   int
}

func (r *fakeRecorder) RecordIngest(sourceID, outcome string, chunks int) {
	if r.outcomes == nil {
		r.outcomes = make(map[string][]string)
	}
	r.outcomes[sourceID] = append(r.outcomes[sourceID], outcome)
	r.chunks += chunks
}

type fakeTrainer struct {
	texts []string
}

func (t *fakeTrainer) TrainText(text string) {
	t.texts = append(t.texts, text)
}

type pipelineFixture struct {
	pipeline    *Pipeline
	dataDir     string
	chunks      *storage.ChunkRepo
	sources     *storage.SourceRepo
	embedder    *llm_mocks.MockEmbedder
	vectorStore *vectorstore_mocks.MockVectorStore
	recorder    *fakeRecorder
	trainer     *fakeTrainer
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()

	db, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := storage.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	ctrl := gomock.NewController(t)
	f := &pipelineFixture{
		dataDir:     t.TempDir(),
		chunks:      storage.NewChunkRepo(db),
		sources:     storage.NewSourceRepo(db),
		embedder:    llm_mocks.NewMockEmbedder(ctrl),
		vectorStore: vectorstore_mocks.NewMockVectorStore(ctrl),
		recorder:    &fakeRecorder{},
		trainer:     &fakeTrainer{},
	}

	splitter, err := NewSplitter(80, 10, DefaultSeparators)
	if err != nil {
		t.Fatalf("NewSplitter() unexpected error: %v", err)
	}

	cat := catalog.New([]catalog.Source{
		{ID: "faq", Title: "Customer FAQ", URL: "https://example.com/faq"},
		{ID: "manual", Title: "User Manual"},
	})

	f.pipeline = NewPipeline(f.dataDir, Dependencies{
		Catalog:     cat,
		Sources:     f.sources,
		Chunks:      f.chunks,
		Embedder:    f.embedder,
		VectorStore: f.vectorStore,
		Collection:  "test-collection",
		Splitter:    splitter,
		Recorder:    f.recorder,
		Trainer:     f.trainer,
	})
	return f
}

func (f *pipelineFixture) writeSource(t *testing.T, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(f.dataDir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write source: %v", err)
	}
}

func fakeEmbeddings(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i), 1, 0}
	}
	return out, nil
}

const faqText = "Refunds are issued within thirty days of purchase for unused items.\n\n" +
	"Shipping takes about five business days for domestic orders in most cases.\n\n" +
	"Gift cards never expire and can be combined with other promotions at checkout."

func TestNewPipeline_Defaults(t *testing.T) {
	p := NewPipeline("data", Dependencies{Collection: "test-collection"})

	if p.splitter == nil || p.splitter.ChunkSize != DefaultChunkSize {
		t.Errorf("NewPipeline() splitter = %+v, want default splitter", p.splitter)
	}
	if p.extractor == nil {
		t.Error("NewPipeline() extractor should not be nil")
	}
	if p.batchSize != DefaultEmbedBatchSize {
		t.Errorf("NewPipeline() batchSize = %d, want %d", p.batchSize, DefaultEmbedBatchSize)
	}
	if p.collection != "test-collection" {
		t.Errorf("NewPipeline() collection = %v, want test-collection", p.collection)
	}
}

func TestPipeline_IndexAll(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(t)
	f.writeSource(t, "faq.txt", faqText)

	var upserted []vectorstore.Point
	f.embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).DoAndReturn(fakeEmbeddings).Times(1)
	f.vectorStore.EXPECT().Upsert(gomock.Any(), "test-collection", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, points []vectorstore.Point) error {
			upserted = append(upserted, points...)
			return nil
		}).Times(1)

	summary, err := f.pipeline.IndexAll(ctx, false)
	if err != nil {
		t.Fatalf("IndexAll() unexpected error: %v", err)
	}
	if summary.Indexed != 1 || summary.Missing != 1 || summary.Failed != 0 {
		t.Errorf("IndexAll() summary = %+v", summary)
	}
	if summary.Chunks != 3 {
		t.Errorf("IndexAll() chunks = %d, want 3", summary.Chunks)
	}

	ids, err := f.chunks.ListIDsBySource(ctx, "faq")
	if err != nil {
		t.Fatalf("ListIDsBySource() unexpected error: %v", err)
	}
	if len(ids) != 3 || len(upserted) != 3 {
		t.Fatalf("stored %d chunks and %d points, want 3 each", len(ids), len(upserted))
	}
	for i, point := range upserted {
		if point.ID != uint64(ids[i]) {
			t.Errorf("point %d ID = %d, want chunk_id %d", i, point.ID, ids[i])
		}
		if point.Meta["source_id"] != "faq" || point.Meta["title"] != "Customer FAQ" || point.Meta["url"] != "https://example.com/faq" {
			t.Errorf("point %d payload = %v", i, point.Meta)
		}
		if point.Meta["chunk_id"] != ids[i] {
			t.Errorf("point %d chunk_id payload = %v, want %d", i, point.Meta["chunk_id"], ids[i])
		}
	}

	rec, err := f.sources.Get(ctx, "faq")
	if err != nil {
		t.Fatalf("Get() unexpected error: %v", err)
	}
	if rec.FileName != "faq.txt" || rec.ChunkCount != 3 || rec.Hash == "" {
		t.Errorf("source record = %+v", rec)
	}

	if len(f.trainer.texts) != 3 {
		t.Errorf("trainer saw %d texts, want 3", len(f.trainer.texts))
	}
	if got := f.recorder.outcomes["faq"]; len(got) != 1 || got[0] != OutcomeIndexed {
		t.Errorf("faq outcomes = %v", got)
	}
	if got := f.recorder.outcomes["manual"]; len(got) != 1 || got[0] != OutcomeSkipped {
		t.Errorf("manual outcomes = %v", got)
	}

	// Unchanged content is skipped without embedding again.
	summary, err = f.pipeline.IndexAll(ctx, false)
	if err != nil {
		t.Fatalf("second IndexAll() unexpected error: %v", err)
	}
	if summary.Skipped != 1 || summary.Indexed != 0 {
		t.Errorf("second IndexAll() summary = %+v", summary)
	}
}

func TestPipeline_IndexSource_ReplacesChunks(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(t)
	f.writeSource(t, "faq.txt", faqText)

	f.embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).DoAndReturn(fakeEmbeddings).Times(2)
	f.vectorStore.EXPECT().Upsert(gomock.Any(), "test-collection", gomock.Any()).Return(nil).Times(2)

	if _, err := f.pipeline.IndexSource(ctx, "faq", false); err != nil {
		t.Fatalf("IndexSource() unexpected error: %v", err)
	}
	oldIDs, err := f.chunks.ListIDsBySource(ctx, "faq")
	if err != nil {
		t.Fatalf("ListIDsBySource() unexpected error: %v", err)
	}

	wantDeleted := make([]uint64, len(oldIDs))
	for i, id := range oldIDs {
		wantDeleted[i] = uint64(id)
	}
	f.vectorStore.EXPECT().Delete(gomock.Any(), "test-collection", wantDeleted).Return(errors.New("qdrant down"))

	res, err := f.pipeline.IndexSource(ctx, "faq", true)
	if err != nil {
		t.Fatalf("forced IndexSource() unexpected error: %v", err)
	}
	if res.Skipped || res.Chunks != 3 {
		t.Errorf("forced IndexSource() result = %+v", res)
	}

	newIDs, err := f.chunks.ListIDsBySource(ctx, "faq")
	if err != nil {
		t.Fatalf("ListIDsBySource() unexpected error: %v", err)
	}
	if len(newIDs) != 3 {
		t.Fatalf("len(newIDs) = %d, want 3", len(newIDs))
	}
	for _, id := range newIDs {
		for _, old := range oldIDs {
			if id == old {
				t.Errorf("chunk %d survived re-indexing", id)
			}
		}
	}
}

func TestPipeline_IndexSource_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing file", func(t *testing.T) {
		f := newPipelineFixture(t)
		_, err := f.pipeline.IndexSource(ctx, "manual", false)
		if !errors.Is(err, ErrSourceFileMissing) {
			t.Errorf("IndexSource() error = %v, want ErrSourceFileMissing", err)
		}
	})

	t.Run("embedding failure", func(t *testing.T) {
		f := newPipelineFixture(t)
		f.writeSource(t, "faq.md", "# FAQ\n\n"+faqText)
		f.embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).Return(nil, errors.New("embedding service down"))
		f.vectorStore.EXPECT().Delete(gomock.Any(), "test-collection", gomock.Any()).Return(nil)

		_, err := f.pipeline.IndexSource(ctx, "faq", false)
		if err == nil || !strings.Contains(err.Error(), "failed to generate embeddings") {
			t.Errorf("IndexSource() error = %v", err)
		}
		if _, err := f.sources.Get(ctx, "faq"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("source should not be recorded after a failure, got %v", err)
		}
		if got := f.recorder.outcomes["faq"]; len(got) != 1 || got[0] != OutcomeError {
			t.Errorf("faq outcomes = %v", got)
		}
		ids, err := f.chunks.ListIDsBySource(ctx, "faq")
		if err != nil {
			t.Fatalf("ListIDsBySource() unexpected error: %v", err)
		}
		if len(ids) != 0 {
			t.Errorf("chunks without vectors left behind: %v", ids)
		}
	})

	t.Run("embedding count mismatch", func(t *testing.T) {
		f := newPipelineFixture(t)
		f.writeSource(t, "faq.txt", faqText)
		f.embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).Return([][]float32{{1, 0, 0}}, nil)
		f.vectorStore.EXPECT().Delete(gomock.Any(), "test-collection", gomock.Any()).Return(nil)

		_, err := f.pipeline.IndexSource(ctx, "faq", false)
		if err == nil || !strings.Contains(err.Error(), "embedding count mismatch") {
			t.Errorf("IndexSource() error = %v", err)
		}
	})

	t.Run("IndexAll reports failures", func(t *testing.T) {
		f := newPipelineFixture(t)
		f.writeSource(t, "faq.txt", faqText)
		f.embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).Return(nil, errors.New("boom"))
		f.vectorStore.EXPECT().Delete(gomock.Any(), "test-collection", gomock.Any()).Return(nil)

		summary, err := f.pipeline.IndexAll(ctx, false)
		if err == nil {
			t.Fatal("IndexAll() expected error, got nil")
		}
		if summary.Failed != 1 || summary.Missing != 1 {
			t.Errorf("IndexAll() summary = %+v", summary)
		}
	})
}

func TestPipeline_EmbedsInBatches(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(t)
	f.pipeline.batchSize = 2
	f.writeSource(t, "faq.txt", faqText)

	var batchSizes []int
	f.embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, texts []string) ([][]float32, error) {
			batchSizes = append(batchSizes, len(texts))
			return fakeEmbeddings(ctx, texts)
		}).Times(2)
	f.vectorStore.EXPECT().Upsert(gomock.Any(), "test-collection", gomock.Any()).Return(nil).Times(2)

	if _, err := f.pipeline.IndexSource(ctx, "faq", false); err != nil {
		t.Fatalf("IndexSource() unexpected error: %v", err)
	}
	if len(batchSizes) != 2 || batchSizes[0] != 2 || batchSizes[1] != 1 {
		t.Errorf("batch sizes = %v, want [2 1]", batchSizes)
	}
}

func TestPipeline_IndexSource_RollsBackPartialIngest(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(t)
	f.pipeline.batchSize = 2
	f.writeSource(t, "faq.txt", faqText)

	var upserted []uint64
	gomock.InOrder(
		f.embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).DoAndReturn(fakeEmbeddings),
		f.embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).Return(nil, errors.New("embedding service down")),
	)
	f.vectorStore.EXPECT().Upsert(gomock.Any(), "test-collection", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, points []vectorstore.Point) error {
			for _, p := range points {
				upserted = append(upserted, p.ID)
			}
			return nil
		})

	var deleted []uint64
	f.vectorStore.EXPECT().Delete(gomock.Any(), "test-collection", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, ids []uint64) error {
			deleted = ids
			return nil
		})

	if _, err := f.pipeline.IndexSource(ctx, "faq", false); err == nil {
		t.Fatal("IndexSource() expected error, got nil")
	}

	if len(deleted) != 3 {
		t.Fatalf("deleted points = %v, want all 3 inserted chunks", deleted)
	}
	for _, id := range upserted {
		found := false
		for _, d := range deleted {
			found = found || d == id
		}
		if !found {
			t.Errorf("upserted point %d was not deleted", id)
		}
	}
	ids, err := f.chunks.ListIDsBySource(ctx, "faq")
	if err != nil {
		t.Fatalf("ListIDsBySource() unexpected error: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("chunks left behind: %v", ids)
	}
}

func TestPipeline_IndexSource_FailedForceReingestIsRetried(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(t)
	f.writeSource(t, "faq.txt", faqText)

	f.embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).DoAndReturn(fakeEmbeddings)
	f.vectorStore.EXPECT().Upsert(gomock.Any(), "test-collection", gomock.Any()).Return(nil)
	if _, err := f.pipeline.IndexSource(ctx, "faq", false); err != nil {
		t.Fatalf("IndexSource() unexpected error: %v", err)
	}

	// Old vectors, then the rollback of the new ones.
	f.vectorStore.EXPECT().Delete(gomock.Any(), "test-collection", gomock.Any()).Return(nil).Times(2)
	f.embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).Return(nil, errors.New("embedding service down"))
	if _, err := f.pipeline.IndexSource(ctx, "faq", true); err == nil {
		t.Fatal("forced IndexSource() expected error, got nil")
	}

	// The file is unchanged but its chunks are gone, so it must not be skipped.
	f.embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).DoAndReturn(fakeEmbeddings)
	f.vectorStore.EXPECT().Upsert(gomock.Any(), "test-collection", gomock.Any()).Return(nil)
	res, err := f.pipeline.IndexSource(ctx, "faq", false)
	if err != nil {
		t.Fatalf("IndexSource() after failure unexpected error: %v", err)
	}
	if res.Skipped || res.Chunks != 3 {
		t.Errorf("IndexSource() after failure = %+v, want 3 indexed chunks", res)
	}
}
