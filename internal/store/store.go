// Package store implements the Resume Store: a durable map from (job id,
// chunk index) to (bytes written, complete flag).
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// ChunkProgress is one row of the resume log.
type ChunkProgress struct {
	ChunkIndex int
	Downloaded int64
	Complete   bool
}

// Store is the durable resume log, backed by SQLite. A single connection
// serializes writers; the store need not be transactional across rows — each
// row is independently meaningful.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS chunk_state (
	download_id TEXT NOT NULL,
	chunk_index INTEGER NOT NULL,
	downloaded INTEGER NOT NULL,
	complete INTEGER NOT NULL,
	PRIMARY KEY (download_id, chunk_index)
);
`

// Open opens (creating if necessary) the resume store at path. Use ":memory:"
// for an ephemeral, test-only store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening resume store: %w", err)
	}
	// A single writer at a time is sufficient (spec's §5 shared-resource
	// policy); this also avoids SQLITE_BUSY under modernc.org/sqlite.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating resume store schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save durably upserts the progress row keyed by (downloadID, chunkIndex).
// Semantically atomic per call.
func (s *Store) Save(ctx context.Context, downloadID string, chunkIndex int, downloaded int64, complete bool) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chunk_state (download_id, chunk_index, downloaded, complete)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (download_id, chunk_index) DO UPDATE SET
			downloaded = excluded.downloaded,
			complete = excluded.complete
	`, downloadID, chunkIndex, downloaded, boolToInt(complete))
	if err != nil {
		return fmt.Errorf("saving chunk progress for %s[%d]: %w", downloadID, chunkIndex, err)
	}
	return nil
}

// Load returns all progress rows for downloadID; order is unspecified.
func (s *Store) Load(ctx context.Context, downloadID string) ([]ChunkProgress, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT chunk_index, downloaded, complete
		FROM chunk_state
		WHERE download_id = ?
	`, downloadID)
	if err != nil {
		return nil, fmt.Errorf("loading chunk progress for %s: %w", downloadID, err)
	}
	defer rows.Close()

	var out []ChunkProgress
	for rows.Next() {
		var (
			row      ChunkProgress
			complete int
		)
		if err := rows.Scan(&row.ChunkIndex, &row.Downloaded, &complete); err != nil {
			return nil, fmt.Errorf("scanning chunk progress row: %w", err)
		}
		row.Complete = complete != 0
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunk progress rows: %w", err)
	}

	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
