package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"mini-qna/internal/app"
	"mini-qna/internal/config"
	"mini-qna/internal/contextutil"
)

func main() {
	force := flag.Bool("force", false, "re-ingest sources whose content is unchanged")
	source := flag.String("source", "", "ingest only this catalog source ID")
	stats := flag.Bool("stats", false, "print index coverage statistics and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Logs go to stderr so stdout stays machine-readable
	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx = contextutil.WithLogger(ctx, logger)

	err = run(ctx, cfg, *source, *force, *stats)
	stop()
	if err != nil {
		slog.Error("Ingestion failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, source string, force, stats bool) error {
	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()

	if stats {
		coverage, err := a.Pipeline.CoverageStats(ctx, cfg.EmbeddingModelName)
		if err != nil {
			return fmt.Errorf("failed to compute coverage stats: %w", err)
		}
		printJSON(coverage)
		return nil
	}

	if err := a.EnsureCollection(ctx); err != nil {
		return err
	}

	if source != "" {
		if _, ok := a.Catalog.Get(source); !ok {
			return fmt.Errorf("unknown source %q", source)
		}
		result, err := a.Pipeline.IndexSource(ctx, source, force)
		if err != nil {
			return fmt.Errorf("failed to ingest %s: %w", source, err)
		}
		printJSON(result)
		return nil
	}

	summary, err := a.Pipeline.IndexAll(ctx, force)
	printJSON(summary)
	return err
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
