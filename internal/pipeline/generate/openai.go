// internal/pipeline/generate/openai.go
package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"corep-assist/internal/common/logger"
	"corep-assist/internal/models"
)

// ModelConfig carries the settings for the chat completions client.
type ModelConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	MaxRetries  int
}

// ModelStrategy asks an OpenAI chat model for a schema-constrained JSON
// response. The response is validated against responseSchema before it
// is accepted; anything else is an error the Generator recovers.
type ModelStrategy struct {
	config *ModelConfig
	client *http.Client
	logger logger.Logger
}

var _ Strategy = (*ModelStrategy)(nil)

func NewModelStrategy(config *ModelConfig, log logger.Logger) *ModelStrategy {
	return &ModelStrategy{
		config: config,
		client: &http.Client{
			// No client timeout - rely only on context
		},
		logger: log.WithFields(map[string]interface{}{
			"component": "model-strategy",
		}),
	}
}

func (s *ModelStrategy) Name() string {
	return "model"
}

func (s *ModelStrategy) Generate(ctx context.Context, input *Input) (*models.GenerationResult, error) {
	requestBody := map[string]interface{}{
		"model": s.config.Model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": buildUserPrompt(input)},
		},
		"response_format": map[string]string{"type": "json_object"},
		"temperature":     s.config.Temperature,
		"max_tokens":      s.config.MaxTokens,
	}
	body, _ := json.Marshal(requestBody)

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= s.config.MaxRetries; attempt++ {
		if attempt > 0 {
			// Apply exponential backoff
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
				// Continue with retry
			case <-ctx.Done():
				return nil, ErrLLMTimeout
			}
		}

		req, err := http.NewRequestWithContext(ctx, "POST", s.config.BaseURL+"/v1/chat/completions", bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

		resp, lastErr = s.client.Do(req)
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
			return nil, ErrLLMTimeout
		}
	}

	if lastErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrLLMTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, lastErr)
	}

	if resp == nil {
		return nil, fmt.Errorf("%w: no successful response after retries", ErrGenerationFailed)
	}
	defer resp.Body.Close()

	var apiResponse struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrGenerationFailed, err)
	}

	if len(apiResponse.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in response", ErrGenerationFailed)
	}

	result, err := parseModelResponse(apiResponse.Choices[0].Message.Content, input.TemplateCode)
	if err != nil {
		return nil, err
	}

	s.logger.Info("model response accepted", map[string]interface{}{
		"model":  s.config.Model,
		"fields": len(result.Fields),
	})

	return result, nil
}

// responseSchema is the contract the model must satisfy. It mirrors the
// schema embedded in the user prompt.
var responseSchema = map[string]interface{}{
	"type":     "object",
	"required": []string{"template", "fields"},
	"properties": map[string]interface{}{
		"template": map[string]interface{}{"type": "string"},
		"fields": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type":     "object",
				"required": []string{"field_code", "field_name", "value", "justification", "source_rule"},
				"properties": map[string]interface{}{
					"field_code":    map[string]interface{}{"type": "string"},
					"field_name":    map[string]interface{}{"type": "string"},
					"value":         map[string]interface{}{"type": "string"},
					"justification": map[string]interface{}{"type": "string"},
					"source_rule":   map[string]interface{}{"type": "string"},
				},
			},
		},
		"validation_flags": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
		"audit_log": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
	},
}

func parseModelResponse(content, templateCode string) (*models.GenerationResult, error) {
	schemaLoader := gojsonschema.NewGoLoader(responseSchema)
	documentLoader := gojsonschema.NewStringLoader(content)

	validation, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing response: %v", ErrGenerationFailed, err)
	}
	if !validation.Valid() {
		issues := make([]string, 0, len(validation.Errors()))
		for _, desc := range validation.Errors() {
			issues = append(issues, desc.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrSchemaValidationFailed, strings.Join(issues, "; "))
	}

	var result models.GenerationResult
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrGenerationFailed, err)
	}

	if result.Template == "" {
		result.Template = templateCode
	}
	if result.Fields == nil {
		result.Fields = []models.GeneratedField{}
	}
	if result.ValidationFlags == nil {
		result.ValidationFlags = []string{}
	}
	if result.AuditLog == nil {
		result.AuditLog = []string{}
	}

	return &result, nil
}
