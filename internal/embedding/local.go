// internal/embedding/local.go
package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

const defaultDimensions = 384

// LocalEmbedder produces deterministic token-hash embeddings without an
// external service. Tokens are lowercased, hashed with FNV-1a and counted
// into a fixed-dimension bag, then L2-normalized so cosine similarity
// behaves the same way it does for model embeddings.
type LocalEmbedder struct {
	dimensions int
}

var _ Embedder = (*LocalEmbedder)(nil)

func NewLocalEmbedder(dimensions int) *LocalEmbedder {
	if dimensions <= 0 {
		dimensions = defaultDimensions
	}
	return &LocalEmbedder{dimensions: dimensions}
}

func (e *LocalEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vector := make([]float32, e.dimensions)
	for _, token := range tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(token))
		vector[h.Sum32()%uint32(e.dimensions)]++
	}

	var norm float64
	for _, v := range vector {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vector {
			vector[i] *= scale
		}
	}

	return vector, nil
}

func (e *LocalEmbedder) Dimensions() int {
	return e.dimensions
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
