package retrieve

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corep-assist/internal/common/database"
	"corep-assist/internal/common/logger"
	"corep-assist/internal/embedding"
	"corep-assist/internal/pipeline/retrieve/store"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestIndex(t *testing.T) *Index {
	t.Helper()

	client, err := database.NewSQLite(t.TempDir())
	require.NoError(t, err)

	vectorStore, err := store.NewSQLiteStore(client.GetDB())
	require.NoError(t, err)
	t.Cleanup(func() { vectorStore.Close() })

	return NewIndex(
		&Config{MaxResults: 5},
		vectorStore,
		embedding.NewLocalEmbedder(128),
		logger.NewTestLogger(t),
	)
}

func writeTestDocument(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("embedding service unavailable")
}

func (failingEmbedder) Dimensions() int { return 4 }

const praSample = `## Chapter 1 - Own Funds

### 1.1 CET1 Capital Instruments
Capital instruments qualify as Common Equity Tier 1 instruments only where
the conditions laid down in Article 28 of the CRR are met at all times.

### 2.1 Deductions from CET1
Institutions shall deduct goodwill and other intangible assets from
Common Equity Tier 1 items in accordance with Article 36 of the CRR.
`

// ==========================
// Core Functionality Tests
// ==========================

func TestIndex_Ingest(t *testing.T) {
	idx := createTestIndex(t)
	ctx := context.Background()

	path := writeTestDocument(t, "pra_rulebook_sample.txt", praSample)

	n, err := idx.Ingest(ctx, path, "PRA_Rulebook")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestIndex_ReingestIsIdempotent(t *testing.T) {
	idx := createTestIndex(t)
	ctx := context.Background()

	path := writeTestDocument(t, "pra_rulebook_sample.txt", praSample)

	_, err := idx.Ingest(ctx, path, "PRA_Rulebook")
	require.NoError(t, err)
	_, err = idx.Ingest(ctx, path, "PRA_Rulebook")
	require.NoError(t, err)

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestIndex_QueryReturnsRelevantChunks(t *testing.T) {
	idx := createTestIndex(t)
	ctx := context.Background()

	path := writeTestDocument(t, "pra_rulebook_sample.txt", praSample)
	_, err := idx.Ingest(ctx, path, "PRA_Rulebook")
	require.NoError(t, err)

	results, err := idx.Query(ctx, "goodwill and intangible assets deduction", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	assert.Contains(t, results[0].Content, "goodwill")
	assert.Equal(t, "PRA_Rulebook", results[0].Metadata.DocumentType)
	assert.Equal(t, "pra_rulebook_sample.txt", results[0].Metadata.Source)

	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i-1].Distance, results[i].Distance)
	}
}

func TestIndex_QueryDefaultsK(t *testing.T) {
	idx := createTestIndex(t)
	ctx := context.Background()

	var content string
	for i := 0; i < 8; i++ {
		content += "## Section\nA regulatory paragraph long enough to form its own chunk here.\n\n"
	}
	path := writeTestDocument(t, "corep_instructions_sample.txt", content)
	_, err := idx.Ingest(ctx, path, "COREP_Instructions")
	require.NoError(t, err)

	results, err := idx.Query(ctx, "regulatory paragraph", 0)
	require.NoError(t, err)
	assert.Len(t, results, 5)

	results, err = idx.Query(ctx, "regulatory paragraph", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestIndex_Clear(t *testing.T) {
	idx := createTestIndex(t)
	ctx := context.Background()

	path := writeTestDocument(t, "pra_rulebook_sample.txt", praSample)
	_, err := idx.Ingest(ctx, path, "PRA_Rulebook")
	require.NoError(t, err)

	require.NoError(t, idx.Clear(ctx))

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

// ==========================
// Edge Cases
// ==========================

func TestIndex_IngestMissingFile(t *testing.T) {
	idx := createTestIndex(t)

	_, err := idx.Ingest(context.Background(), "/nonexistent/file.txt", "PRA_Rulebook")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIngestionFailed)
}

func TestIndex_IngestEmptyDocument(t *testing.T) {
	idx := createTestIndex(t)

	path := writeTestDocument(t, "empty.txt", "\n\n\n")
	n, err := idx.Ingest(context.Background(), path, "PRA_Rulebook")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestIndex_IngestEmbeddingFailure(t *testing.T) {
	client, err := database.NewSQLite(t.TempDir())
	require.NoError(t, err)
	vectorStore, err := store.NewSQLiteStore(client.GetDB())
	require.NoError(t, err)
	t.Cleanup(func() { vectorStore.Close() })

	idx := NewIndex(&Config{MaxResults: 5}, vectorStore, failingEmbedder{}, logger.NewTestLogger(t))

	path := writeTestDocument(t, "pra_rulebook_sample.txt", praSample)
	_, err = idx.Ingest(context.Background(), path, "PRA_Rulebook")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIngestionFailed)
	assert.Contains(t, err.Error(), "embedding chunk")
}

func TestIndex_QueryEmptyStore(t *testing.T) {
	idx := createTestIndex(t)

	results, err := idx.Query(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}
