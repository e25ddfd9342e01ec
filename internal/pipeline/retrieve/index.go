// internal/pipeline/retrieve/index.go
package retrieve

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"corep-assist/internal/common/logger"
	"corep-assist/internal/common/metrics"
	"corep-assist/internal/embedding"
	"corep-assist/internal/models"
	"corep-assist/internal/pipeline/chunk"
	"corep-assist/internal/pipeline/retrieve/store"
)

var (
	ErrIngestionFailed  = errors.New("INGESTION_FAILED")
	ErrStoreQueryFailed = errors.New("STORE_QUERY_FAILED")
)

const defaultMaxResults = 5

type Config struct {
	MaxResults int
}

// Index ties the chunker, an embedder and a vector store together into
// the retrieval side of the pipeline.
type Index struct {
	config   *Config
	store    store.VectorStore
	embedder embedding.Embedder
	logger   logger.Logger
}

func NewIndex(config *Config, vectorStore store.VectorStore, embedder embedding.Embedder, log logger.Logger) *Index {
	return &Index{
		config:   config,
		store:    vectorStore,
		embedder: embedder,
		logger: log.WithFields(map[string]interface{}{
			"component": "retrieval-index",
		}),
	}
}

// Ingest chunks a document, embeds every chunk and upserts the records.
// Chunk IDs are derived from the document type and position, so
// re-ingesting a document overwrites its previous chunks instead of
// duplicating them. Returns the number of chunks stored.
func (idx *Index) Ingest(ctx context.Context, path, documentType string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("%w: reading %s: %v", ErrIngestionFailed, path, err)
	}

	chunks := chunk.Chunk(string(content))
	if len(chunks) == 0 {
		idx.logger.Warn("document produced no chunks", map[string]interface{}{
			"path": path,
		})
		return 0, nil
	}

	records := make([]store.Record, 0, len(chunks))
	for i, text := range chunks {
		vector, err := idx.embedder.Embed(ctx, text)
		if err != nil {
			return 0, fmt.Errorf("%w: embedding chunk %d: %v", ErrIngestionFailed, i, err)
		}
		records = append(records, store.Record{
			ID:           fmt.Sprintf("%s_%d", documentType, i),
			Content:      text,
			DocumentType: documentType,
			Source:       filepath.Base(path),
			ChunkIndex:   i,
			Vector:       vector,
		})
	}

	if err := idx.store.Upsert(ctx, records); err != nil {
		return 0, fmt.Errorf("%w: storing chunks: %v", ErrIngestionFailed, err)
	}

	metrics.DocumentsIngested.WithLabelValues(documentType).Inc()
	metrics.ChunksIngested.WithLabelValues(documentType).Add(float64(len(records)))

	idx.logger.Info("document ingested", map[string]interface{}{
		"path":         path,
		"documentType": documentType,
		"chunks":       len(records),
	})

	return len(records), nil
}

// Query embeds the text and returns the k nearest chunks in ascending
// distance order. k <= 0 falls back to the configured maximum. An empty
// store yields an empty result, not an error.
func (idx *Index) Query(ctx context.Context, text string, k int) ([]models.RetrievedContext, error) {
	if k <= 0 {
		k = idx.config.MaxResults
	}
	if k <= 0 {
		k = defaultMaxResults
	}

	vector, err := idx.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	matches, err := idx.store.Search(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreQueryFailed, err)
	}

	results := make([]models.RetrievedContext, 0, len(matches))
	for _, m := range matches {
		results = append(results, models.RetrievedContext{
			Content: m.Content,
			Metadata: models.ChunkMetadata{
				DocumentType: m.DocumentType,
				Source:       m.Source,
				ChunkIndex:   m.ChunkIndex,
			},
			Distance: m.Distance,
		})
	}

	metrics.RetrievalResults.Observe(float64(len(results)))
	return results, nil
}

// Clear drops every stored chunk.
func (idx *Index) Clear(ctx context.Context) error {
	if err := idx.store.Clear(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreQueryFailed, err)
	}
	idx.logger.Info("index cleared", nil)
	return nil
}

// Count reports the number of stored chunks.
func (idx *Index) Count(ctx context.Context) (int, error) {
	count, err := idx.store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreQueryFailed, err)
	}
	return count, nil
}
