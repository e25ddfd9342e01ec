// internal/pipeline/retrieve/store/sqlite.go
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"corep-assist/internal/embedding"
)

// SQLiteStore is the default embedded backend. Vectors are stored as
// little-endian float32 BLOBs and similarity is computed in Go with a
// brute-force scan, which is adequate for regulatory corpora of a few
// thousand chunks.
type SQLiteStore struct {
	mu sync.RWMutex
	db *sql.DB
}

var _ VectorStore = (*SQLiteStore)(nil)

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS chunks (
		id TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		document_type TEXT NOT NULL,
		source TEXT,
		chunk_index INTEGER NOT NULL,
		embedding BLOB NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_chunks_document_type ON chunks(document_type);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Upsert(ctx context.Context, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO chunks (id, content, document_type, source, chunk_index, embedding)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		_, err = stmt.ExecContext(ctx,
			r.ID,
			r.Content,
			r.DocumentType,
			r.Source,
			r.ChunkIndex,
			embedding.EncodeVector(r.Vector),
		)
		if err != nil {
			return fmt.Errorf("inserting chunk %s: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) Search(ctx context.Context, vector []float32, k int) ([]Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content, document_type, source, chunk_index, embedding
		FROM chunks
	`)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	records, err := scanChunks(rows)
	if err != nil {
		return nil, err
	}

	return rankByDistance(records, vector, k), nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM chunks")
	return err
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&count)
	return count, err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// scanChunks reads rows from the shared column layout. Rows whose
// embedding blob cannot be decoded are skipped.
func scanChunks(rows *sql.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var r Record
		var blob []byte

		if err := rows.Scan(&r.ID, &r.Content, &r.DocumentType, &r.Source, &r.ChunkIndex, &blob); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		vector, err := embedding.DecodeVector(blob)
		if err != nil {
			continue
		}
		r.Vector = vector
		records = append(records, r)
	}

	return records, rows.Err()
}
