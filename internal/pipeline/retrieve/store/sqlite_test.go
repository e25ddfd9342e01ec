package store

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corep-assist/internal/common/database"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	client, err := database.NewSQLite(t.TempDir())
	require.NoError(t, err)

	s, err := NewSQLiteStore(client.GetDB())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func testRecord(id string, vector []float32) Record {
	return Record{
		ID:           id,
		Content:      "content for " + id,
		DocumentType: "PRA_Rulebook",
		Source:       "pra_rulebook_sample.txt",
		ChunkIndex:   0,
		Vector:       vector,
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestSQLiteStore_UpsertAndSearch(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	records := []Record{
		testRecord("PRA_Rulebook_0", []float32{1, 0, 0}),
		testRecord("PRA_Rulebook_1", []float32{0.7, 0.7, 0}),
		testRecord("PRA_Rulebook_2", []float32{0, 1, 0}),
	}
	require.NoError(t, s.Upsert(ctx, records))

	matches, err := s.Search(ctx, []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	require.Len(t, matches, 3)

	assert.Equal(t, "PRA_Rulebook_0", matches[0].ID)
	assert.Equal(t, "PRA_Rulebook_1", matches[1].ID)
	assert.Equal(t, "PRA_Rulebook_2", matches[2].ID)

	assert.InDelta(t, 0, matches[0].Distance, 1e-6)
	assert.InDelta(t, 0.2929, matches[1].Distance, 1e-3)
	assert.InDelta(t, 1, matches[2].Distance, 1e-6)

	assert.Equal(t, "content for PRA_Rulebook_0", matches[0].Content)
	assert.Equal(t, "PRA_Rulebook", matches[0].DocumentType)
}

func TestSQLiteStore_UpsertOverwritesSameID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first := testRecord("PRA_Rulebook_0", []float32{1, 0})
	require.NoError(t, s.Upsert(ctx, []Record{first}))

	updated := first
	updated.Content = "updated content"
	require.NoError(t, s.Upsert(ctx, []Record{updated}))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	matches, err := s.Search(ctx, []float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "updated content", matches[0].Content)
}

func TestSQLiteStore_SearchTruncatesToK(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	var records []Record
	for i := 0; i < 10; i++ {
		records = append(records, testRecord(fmt.Sprintf("PRA_Rulebook_%d", i), []float32{float32(i), 1}))
	}
	require.NoError(t, s.Upsert(ctx, records))

	matches, err := s.Search(ctx, []float32{1, 1}, 3)
	require.NoError(t, err)
	assert.Len(t, matches, 3)
}

func TestSQLiteStore_Clear(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, []Record{testRecord("PRA_Rulebook_0", []float32{1, 0})}))
	require.NoError(t, s.Clear(ctx))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	// clearing an empty store is fine
	assert.NoError(t, s.Clear(ctx))
}

// ==========================
// Edge Cases
// ==========================

func TestSQLiteStore_SearchEmptyStore(t *testing.T) {
	s := createTestStore(t)

	matches, err := s.Search(context.Background(), []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSQLiteStore_UpsertEmptyBatch(t *testing.T) {
	s := createTestStore(t)
	assert.NoError(t, s.Upsert(context.Background(), nil))
}

func TestSQLiteStore_ConcurrentAccess(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, []Record{
		testRecord("PRA_Rulebook_0", []float32{1, 0}),
		testRecord("PRA_Rulebook_1", []float32{0, 1}),
	}))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%3 == 0 {
				_ = s.Upsert(ctx, []Record{testRecord(fmt.Sprintf("COREP_Instructions_%d", i), []float32{0.5, 0.5})})
				return
			}
			_, err := s.Search(ctx, []float32{1, 0}, 5)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, 2)
}
