// Package app wires configuration into the stores, clients and services
// shared by the API server and the ingest command.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"mini-qna/internal/catalog"
	"mini-qna/internal/config"
	"mini-qna/internal/contextutil"
	"mini-qna/internal/indexer"
	"mini-qna/internal/llm"
	"mini-qna/internal/metrics"
	"mini-qna/internal/rag"
	"mini-qna/internal/retrieval"
	"mini-qna/internal/service"
	"mini-qna/internal/storage"
	"mini-qna/internal/vectorstore"
)

// App holds the long-lived components built from a Config.
type App struct {
	Config *config.Config

	DB      *sql.DB
	Chunks  *storage.ChunkRepo
	Sources *storage.SourceRepo
	Catalog *catalog.Catalog
	Vectors *vectorstore.QdrantStore

	Embedder llm.Embedder
	// Breaker is nil when the embeddings circuit breaker is disabled.
	Breaker *llm.BreakerEmbedder

	Metrics  *metrics.Metrics
	Speller  *rag.DictionarySpeller
	Pipeline *indexer.Pipeline
	QnA      service.QnAService
}

// New opens the chunk store, loads the source catalog and creates every
// client. It does not contact Qdrant or the embeddings provider.
func New(cfg *config.Config) (*App, error) {
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := storage.Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	cat, err := catalog.Load(cfg.SourcesPath)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	vectors, err := vectorstore.NewQdrantStore(cfg.QdrantURL, cfg.QdrantAPIKey)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	separators := cfg.ChunkSeparators
	if separators == nil {
		separators = indexer.DefaultSeparators
	}
	splitter, err := indexer.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap, separators)
	if err != nil {
		_ = vectors.Close()
		_ = db.Close()
		return nil, err
	}

	a := &App{
		Config:  cfg,
		DB:      db,
		Chunks:  storage.NewChunkRepo(db),
		Sources: storage.NewSourceRepo(db),
		Catalog: cat,
		Vectors: vectors,
		Metrics: metrics.New(),
		Speller: rag.NewDictionarySpeller(),
	}

	var embedder llm.Embedder = llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModelName, cfg.QdrantVectorSize)
	if cfg.EmbeddingBreakerEnabled {
		a.Breaker = llm.NewBreakerEmbedder(embedder, llm.DefaultBreakerSettings())
		embedder = a.Breaker
	}
	a.Embedder = embedder

	a.Pipeline = indexer.NewPipeline(cfg.DataPath, indexer.Dependencies{
		Catalog:     cat,
		Sources:     a.Sources,
		Chunks:      a.Chunks,
		Embedder:    embedder,
		VectorStore: vectors,
		Collection:  cfg.QdrantCollection,
		Splitter:    splitter,
		Recorder:    a.Metrics,
		Trainer:     a.Speller,
	})

	searcher := retrieval.NewVectorSearcher(embedder, vectors, cfg.QdrantCollection, a.Chunks)
	a.QnA = service.NewQnAService(searcher, rag.NewComposer(a.Speller), a.Metrics, service.Options{
		DistanceThreshold: cfg.DistanceThreshold,
		HybridCandidates:  cfg.HybridCandidates,
		Alpha:             cfg.HybridAlpha,
		DefaultK:          cfg.DefaultK,
		MaxK:              cfg.MaxK,
	})

	return a, nil
}

// EnsureCollection creates the vector collection or checks its vector size.
func (a *App) EnsureCollection(ctx context.Context) error {
	if err := a.Vectors.EnsureCollection(ctx, a.Config.QdrantCollection, a.Config.QdrantVectorSize); err != nil {
		return fmt.Errorf("failed to ensure Qdrant collection: %w", err)
	}
	return nil
}

// ValidateEmbeddings embeds a probe string and checks the vector size.
func (a *App) ValidateEmbeddings(ctx context.Context) error {
	vecs, err := a.Embedder.EmbedTexts(ctx, []string{"test"})
	if err != nil {
		return fmt.Errorf("failed to validate embedding client: %w", err)
	}
	if len(vecs) == 0 || len(vecs[0]) != a.Config.QdrantVectorSize {
		got := 0
		if len(vecs) > 0 {
			got = len(vecs[0])
		}
		return fmt.Errorf("embedding vector size mismatch: expected %d, got %d", a.Config.QdrantVectorSize, got)
	}
	return nil
}

// TrainSpeller loads the bundled and optional word lists as the speller
// vocabulary, then weights it with the stored chunks. It returns the
// vocabulary size.
func (a *App) TrainSpeller(ctx context.Context) (int, error) {
	logger := contextutil.LoggerFromContext(ctx)

	a.Speller.TrainBaseVocabulary()
	if path := a.Config.SpellDictionaryPath; path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return 0, fmt.Errorf("failed to read spell dictionary: %w", err)
		}
		a.Speller.TrainVocabulary(string(data))
		logger.DebugContext(ctx, "spell dictionary loaded", "path", path)
	}

	err := a.Chunks.Each(ctx, func(rec *storage.ChunkRecord) error {
		a.Speller.TrainText(rec.Text)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to train speller from chunks: %w", err)
	}
	return a.Speller.Size(), nil
}

// Close releases the database and Qdrant connections.
func (a *App) Close() error {
	return errors.Join(a.Vectors.Close(), a.DB.Close())
}
