// internal/pipeline/retrieve/store/postgres.go
package store

import (
	"context"
	"database/sql"
	"fmt"

	"corep-assist/internal/embedding"
)

// PostgresStore keeps the same logical schema as the SQLite backend with
// BYTEA vectors. Ranking happens in Go after a candidate scan; the
// database handles concurrent access.
type PostgresStore struct {
	db *sql.DB
}

var _ VectorStore = (*PostgresStore)(nil)

func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	s := &PostgresStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS chunks (
		id TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		document_type TEXT NOT NULL,
		source TEXT,
		chunk_index INTEGER NOT NULL,
		embedding BYTEA NOT NULL,
		created_at TIMESTAMPTZ DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_chunks_document_type ON chunks(document_type);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *PostgresStore) Upsert(ctx context.Context, records []Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, content, document_type, source, chunk_index, embedding)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			document_type = EXCLUDED.document_type,
			source = EXCLUDED.source,
			chunk_index = EXCLUDED.chunk_index,
			embedding = EXCLUDED.embedding
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

func (s *PostgresStore) Search(ctx context.Context, vector []float32, k int) ([]Match, error) {
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

func (s *PostgresStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM chunks")
	return err
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&count)
	return count, err
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
