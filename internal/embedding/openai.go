// internal/embedding/openai.go
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"corep-assist/internal/common/logger"
)

var (
	ErrEmbeddingTimeout = errors.New("EMBEDDING_TIMEOUT")
	ErrEmbeddingFailed  = errors.New("EMBEDDING_FAILED")
)

// OpenAIConfig carries the settings for the embeddings API client.
type OpenAIConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	Dimensions int
	MaxRetries int
}

// OpenAIEmbedder calls the OpenAI embeddings endpoint. Timeouts come
// from the request context; transient failures are retried with
// exponential backoff.
type OpenAIEmbedder struct {
	config *OpenAIConfig
	client *http.Client
	logger logger.Logger
}

var _ Embedder = (*OpenAIEmbedder)(nil)

func NewOpenAIEmbedder(config *OpenAIConfig, log logger.Logger) *OpenAIEmbedder {
	return &OpenAIEmbedder{
		config: config,
		client: &http.Client{
			// No client timeout - rely only on context
		},
		logger: log.WithFields(map[string]interface{}{
			"component": "openai-embedder",
		}),
	}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	requestBody := map[string]interface{}{
		"model": e.config.Model,
		"input": text,
	}
	body, _ := json.Marshal(requestBody)

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= e.config.MaxRetries; attempt++ {
		if attempt > 0 {
			// Apply exponential backoff
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
				// Continue with retry
			case <-ctx.Done():
				return nil, ErrEmbeddingTimeout
			}
		}

		req, err := http.NewRequestWithContext(ctx, "POST", e.config.BaseURL+"/v1/embeddings", bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+e.config.APIKey)

		resp, lastErr = e.client.Do(req)
		if lastErr == nil {
			if resp.StatusCode == http.StatusOK {
				break
			}
			// Non-OK status codes are treated as errors and retried
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			resp = nil
		}

		if ctx.Err() != nil {
			return nil, ErrEmbeddingTimeout
		}
	}

	if lastErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrEmbeddingTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, lastErr)
	}

	if resp == nil {
		return nil, fmt.Errorf("%w: no successful response after retries", ErrEmbeddingFailed)
	}
	defer resp.Body.Close()

	var apiResponse struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrEmbeddingFailed, err)
	}

	if len(apiResponse.Data) == 0 || len(apiResponse.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("%w: empty embedding in response", ErrEmbeddingFailed)
	}

	vector := apiResponse.Data[0].Embedding
	e.logger.Debug("embedding generated", map[string]interface{}{
		"model":      e.config.Model,
		"dimensions": len(vector),
	})

	return vector, nil
}

func (e *OpenAIEmbedder) Dimensions() int {
	return e.config.Dimensions
}
