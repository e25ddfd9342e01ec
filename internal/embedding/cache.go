// internal/embedding/cache.go
package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"corep-assist/internal/common/database"
	"corep-assist/internal/common/logger"
)

// CachedEmbedder wraps another Embedder with a Redis cache keyed by
// model and text hash. Cache failures degrade to direct computation and
// never fail the request.
type CachedEmbedder struct {
	inner  Embedder
	redis  *database.RedisClient
	model  string
	ttl    time.Duration
	logger logger.Logger
}

var _ Embedder = (*CachedEmbedder)(nil)

func NewCachedEmbedder(inner Embedder, redisClient *database.RedisClient, model string, ttl time.Duration, log logger.Logger) *CachedEmbedder {
	return &CachedEmbedder{
		inner:  inner,
		redis:  redisClient,
		model:  model,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{
			"component": "embedding-cache",
		}),
	}
}

func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := e.cacheKey(text)

	cached, err := e.redis.Get(ctx, key)
	if err == nil {
		vector, decodeErr := DecodeVector([]byte(cached))
		if decodeErr == nil {
			return vector, nil
		}
		e.logger.Warn("discarding undecodable cache entry", map[string]interface{}{
			"key":   key,
			"error": decodeErr.Error(),
		})
	} else if !errors.Is(err, redis.Nil) {
		e.logger.Warn("embedding cache read failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	vector, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := e.redis.Set(ctx, key, EncodeVector(vector), e.ttl); err != nil {
		e.logger.Warn("embedding cache write failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return vector, nil
}

func (e *CachedEmbedder) Dimensions() int {
	return e.inner.Dimensions()
}

func (e *CachedEmbedder) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("embed:%s:%s", e.model, hex.EncodeToString(sum[:]))
}
