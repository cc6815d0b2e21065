package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chunk_store.go -package=mocks mini-qna/internal/storage ChunkStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ChunkStore defines the interface for chunk storage operations.
type ChunkStore interface {
	// Insert inserts a chunk and sets chunk.ID to the assigned chunk_id.
	Insert(ctx context.Context, chunk *ChunkRecord) error
	// GetByID gets a chunk by its ID. Returns ErrNotFound if not found.
	GetByID(ctx context.Context, id int64) (*ChunkRecord, error)
	// ListIDsBySource returns chunk IDs for a source in insertion order.
	ListIDsBySource(ctx context.Context, sourceID string) ([]int64, error)
	// DeleteBySource deletes every chunk of a source.
	DeleteBySource(ctx context.Context, sourceID string) error
	// CountBySource returns the number of chunks stored per source.
	CountBySource(ctx context.Context) (map[string]int, error)
	// Each calls fn for every stored chunk in chunk_id order.
	Each(ctx context.Context, fn func(*ChunkRecord) error) error
}

// ChunkRepo provides methods for chunk operations.
// It implements the ChunkStore interface.
type ChunkRepo struct {
	db *sql.DB
}

// NewChunkRepo creates a new ChunkRepo.
func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// Insert inserts a chunk and sets chunk.ID to the assigned chunk_id.
func (r *ChunkRepo) Insert(ctx context.Context, chunk *ChunkRecord) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO document_chunks (chunk_src, chunk) VALUES (?, ?)",
		chunk.SourceID, chunk.Text,
	)
	if err != nil {
		return fmt.Errorf("failed to insert chunk: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read chunk id: %w", err)
	}
	chunk.ID = id
	return nil
}

// GetByID gets a chunk by its ID. Returns ErrNotFound if not found.
func (r *ChunkRepo) GetByID(ctx context.Context, id int64) (*ChunkRecord, error) {
	var chunk ChunkRecord
	err := r.db.QueryRowContext(ctx,
		"SELECT chunk_id, chunk_src, chunk FROM document_chunks WHERE chunk_id = ?",
		id,
	).Scan(&chunk.ID, &chunk.SourceID, &chunk.Text)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk: %w", err)
	}

	return &chunk, nil
}

// ListIDsBySource returns chunk IDs for a source in insertion order.
// Returns an empty slice if no chunks exist (not an error).
// Used to get vector point IDs for deletion before re-ingesting.
func (r *ChunkRepo) ListIDsBySource(ctx context.Context, sourceID string) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT chunk_id FROM document_chunks WHERE chunk_src = ? ORDER BY chunk_id",
		sourceID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk IDs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan chunk ID: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return ids, nil
}

// DeleteBySource deletes every chunk of a source.
func (r *ChunkRepo) DeleteBySource(ctx context.Context, sourceID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM document_chunks WHERE chunk_src = ?", sourceID)
	if err != nil {
		return fmt.Errorf("failed to delete chunks by source: %w", err)
	}
	return nil
}

// CountBySource returns the number of chunks stored per source.
func (r *ChunkRepo) CountBySource(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT chunk_src, COUNT(*) FROM document_chunks GROUP BY chunk_src",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count chunks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	counts := make(map[string]int)
	for rows.Next() {
		var src string
		var n int
		if err := rows.Scan(&src, &n); err != nil {
			return nil, fmt.Errorf("failed to scan chunk count: %w", err)
		}
		counts[src] = n
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return counts, nil
}

// Each calls fn for every stored chunk in chunk_id order. Iteration stops at
// the first error returned by fn.
func (r *ChunkRepo) Each(ctx context.Context, fn func(*ChunkRecord) error) error {
	rows, err := r.db.QueryContext(ctx,
		"SELECT chunk_id, chunk_src, chunk FROM document_chunks ORDER BY chunk_id",
	)
	if err != nil {
		return fmt.Errorf("failed to query chunks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var chunk ChunkRecord
		if err := rows.Scan(&chunk.ID, &chunk.SourceID, &chunk.Text); err != nil {
			return fmt.Errorf("failed to scan chunk: %w", err)
		}
		if err := fn(&chunk); err != nil {
			return err
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("row iteration error: %w", err)
	}

	return nil
}
