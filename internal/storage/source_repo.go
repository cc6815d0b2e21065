package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_source_store.go -package=mocks mini-qna/internal/storage SourceStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SourceStore records which source documents have been ingested.
type SourceStore interface {
	// Get returns the ingestion record of a source. Returns ErrNotFound if
	// the source was never ingested.
	Get(ctx context.Context, sourceID string) (*SourceRecord, error)
	// Upsert inserts or replaces the ingestion record of a source.
	Upsert(ctx context.Context, rec *SourceRecord) error
	// List returns every ingestion record ordered by source ID.
	List(ctx context.Context) ([]SourceRecord, error)
	// Delete removes the ingestion record of a source. Deleting a missing
	// record is not an error.
	Delete(ctx context.Context, sourceID string) error
}

// SourceRepo implements SourceStore on SQLite.
type SourceRepo struct {
	db *sql.DB
}

// NewSourceRepo creates a new SourceRepo.
func NewSourceRepo(db *sql.DB) *SourceRepo {
	return &SourceRepo{db: db}
}

// Get returns the ingestion record of a source.
func (r *SourceRepo) Get(ctx context.Context, sourceID string) (*SourceRecord, error) {
	var rec SourceRecord
	var ingestedAt string

	err := r.db.QueryRowContext(ctx,
		"SELECT source_id, file_name, hash, chunk_count, ingested_at FROM ingested_sources WHERE source_id = ?",
		sourceID,
	).Scan(&rec.SourceID, &rec.FileName, &rec.Hash, &rec.ChunkCount, &ingestedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query source: %w", err)
	}

	rec.IngestedAt, err = parseTimestamp(ingestedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Upsert inserts or replaces the ingestion record of a source.
func (r *SourceRepo) Upsert(ctx context.Context, rec *SourceRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ingested_sources (source_id, file_name, hash, chunk_count, ingested_at)
		 VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (source_id) DO UPDATE SET
		 file_name = excluded.file_name, hash = excluded.hash,
		 chunk_count = excluded.chunk_count, ingested_at = CURRENT_TIMESTAMP`,
		rec.SourceID, rec.FileName, rec.Hash, rec.ChunkCount,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert source: %w", err)
	}
	return nil
}

// Delete removes the ingestion record of a source.
func (r *SourceRepo) Delete(ctx context.Context, sourceID string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM ingested_sources WHERE source_id = ?", sourceID); err != nil {
		return fmt.Errorf("failed to delete source: %w", err)
	}
	return nil
}

// List returns every ingestion record ordered by source ID.
func (r *SourceRepo) List(ctx context.Context) ([]SourceRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT source_id, file_name, hash, chunk_count, ingested_at FROM ingested_sources ORDER BY source_id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query sources: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []SourceRecord
	for rows.Next() {
		var rec SourceRecord
		var ingestedAt string
		if err := rows.Scan(&rec.SourceID, &rec.FileName, &rec.Hash, &rec.ChunkCount, &ingestedAt); err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		if rec.IngestedAt, err = parseTimestamp(ingestedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}

// parseTimestamp accepts both DATETIME layouts SQLite may return.
func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp: %w", err)
	}
	return t, nil
}
