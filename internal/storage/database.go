package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// dsnOptions put the database in WAL mode so background ingestion does not
// block ask requests, and make writers wait instead of failing with SQLITE_BUSY.
const dsnOptions = "_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"

// New opens the chunk store at path.
func New(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", path, dsnOptions))
	if err != nil {
		return nil, err
	}

	// SQLite allows one writer; readers share the remaining connections.
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate creates the chunk and ingestion tables. It is idempotent.
func Migrate(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS document_chunks (
			chunk_id INTEGER PRIMARY KEY AUTOINCREMENT,
			chunk_src TEXT NOT NULL,
			chunk TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_document_chunks_src ON document_chunks (chunk_src);`,
		`CREATE TABLE IF NOT EXISTS ingested_sources (
			source_id TEXT PRIMARY KEY,
			file_name TEXT NOT NULL,
			hash TEXT NOT NULL,
			chunk_count INTEGER NOT NULL,
			ingested_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	return nil
}
