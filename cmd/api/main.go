package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mini-qna/internal/app"
	"mini-qna/internal/config"
	"mini-qna/internal/handlers"
	"mini-qna/internal/http"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API answers questions from an indexed document collection with short
// extracted answers and citations.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: Mini QnA API
//   description: |
//     Retrieval QnA over ingested PDF, Markdown and text sources.
//     Answers are extracted sentences from the best matching passages,
//     retrieved by vector search alone (baseline) or fused with BM25 (hybrid-bm25).
//   version: 1.0.0
// schemes:
//   - http
//   - https
// consumes:
//   - application/json
// produces:
//   - application/json

const shutdownTimeout = 15 * time.Second

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := cfg.NewLogger(os.Stdout)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel, "format", cfg.LogFormat)

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Error("Failed to close resources", "error", err)
		}
	}()
	slog.Info("Chunk store ready", "path", cfg.DBPath, "sources", a.Catalog.Len())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.EnsureCollection(ctx); err != nil {
		log.Fatalf("%v", err)
	}
	slog.Info("Qdrant collection ready", "collection", cfg.QdrantCollection, "vector_size", cfg.QdrantVectorSize)

	// Fail fast on a misconfigured embeddings model
	if err := a.ValidateEmbeddings(ctx); err != nil {
		log.Fatalf("%v", err)
	}
	slog.Info("Embedding client validated", "model", cfg.EmbeddingModelName, "vector_size", cfg.QdrantVectorSize)

	words, err := a.TrainSpeller(ctx)
	if err != nil {
		log.Fatalf("Failed to build spelling dictionary: %v", err)
	}
	slog.Info("Spelling dictionary ready", "words", words)

	var breaker handlers.BreakerState
	if a.Breaker != nil {
		breaker = a.Breaker
	}
	indexHandler := handlers.NewIndexHandler(a.Pipeline, cfg.EmbeddingModelName)
	router := http.NewRouter(&http.Deps{
		QnAService: a.QnA,
		Health:     handlers.NewHealthHandler(a.Vectors, a.DB, breaker, cfg.QdrantCollection),
		Index:      indexHandler,
		Metrics:    a.Metrics,
	})

	// Pick up new or changed sources in the background
	slog.Info("Starting background indexing of sources")
	indexHandler.Start(ctx, false)

	server := &nethttp.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Starting API server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			slog.Error("API server failed", "error", err)
		}
	case <-ctx.Done():
		slog.Info("Shutting down API server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}

	// Let an in-flight indexing run finish before closing the stores
	indexHandler.Wait()
}
