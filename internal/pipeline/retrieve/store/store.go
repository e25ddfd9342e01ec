// internal/pipeline/retrieve/store/store.go
package store

import (
	"context"
	"sort"

	"corep-assist/internal/embedding"
)

// Record is one embedded document chunk as persisted by a backend.
type Record struct {
	ID           string
	Content      string
	DocumentType string
	Source       string
	ChunkIndex   int
	Vector       []float32
}

// Match is a search result with its cosine distance to the query vector.
type Match struct {
	Record
	Distance float64
}

// VectorStore persists embedded chunks and answers nearest-neighbour
// queries. Upsert overwrites records that share an ID, so re-ingesting a
// document never duplicates it.
type VectorStore interface {
	Upsert(ctx context.Context, records []Record) error
	Search(ctx context.Context, vector []float32, k int) ([]Match, error)
	Clear(ctx context.Context) error
	Count(ctx context.Context) (int, error)
	Close() error
}

// rankByDistance scores candidates against the query vector and returns
// the k nearest in ascending distance order.
func rankByDistance(records []Record, vector []float32, k int) []Match {
	matches := make([]Match, 0, len(records))
	for _, r := range records {
		matches = append(matches, Match{
			Record:   r,
			Distance: embedding.CosineDistance(vector, r.Vector),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches
}
