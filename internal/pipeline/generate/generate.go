// internal/pipeline/generate/generate.go
package generate

import (
	"context"
	"errors"
	"fmt"

	"corep-assist/internal/common/logger"
	"corep-assist/internal/common/metrics"
	"corep-assist/internal/models"
)

var (
	ErrLLMTimeout             = errors.New("LLM_TIMEOUT")
	ErrGenerationFailed       = errors.New("GENERATION_FAILED")
	ErrSchemaValidationFailed = errors.New("SCHEMA_VALIDATION_FAILED")
)

// Input carries everything a strategy needs to populate a template.
type Input struct {
	Question     string
	Scenario     string
	TemplateCode string
	Context      []models.RetrievedContext
}

// Strategy produces a structured template response. The strategy is
// chosen once at construction time, never per request.
type Strategy interface {
	Name() string
	Generate(ctx context.Context, input *Input) (*models.GenerationResult, error)
}

type Generator struct {
	strategy Strategy
	logger   logger.Logger
}

func NewGenerator(strategy Strategy, log logger.Logger) *Generator {
	return &Generator{
		strategy: strategy,
		logger: log.WithFields(map[string]interface{}{
			"component": "generator",
			"strategy":  strategy.Name(),
		}),
	}
}

// Generate never fails the request. A strategy error is recovered into
// an error-shaped result that downstream validation and the API layer
// can report.
func (g *Generator) Generate(ctx context.Context, input *Input) *models.GenerationResult {
	result, err := g.strategy.Generate(ctx, input)
	if err != nil {
		errorCode := mapErrorToCode(err)
		metrics.GenerationFailures.WithLabelValues(g.strategy.Name(), errorCode).Inc()
		g.logger.Error("generation failed", map[string]interface{}{
			"errorCode": errorCode,
			"error":     err.Error(),
		})
		return &models.GenerationResult{
			Template:        input.TemplateCode,
			Fields:          []models.GeneratedField{},
			ValidationFlags: []string{fmt.Sprintf("LLM Error: %v", err)},
			AuditLog:        []string{},
			Error:           err.Error(),
		}
	}
	return result
}

func mapErrorToCode(err error) string {
	if errors.Is(err, ErrLLMTimeout) {
		return "LLM_TIMEOUT"
	} else if errors.Is(err, ErrSchemaValidationFailed) {
		return "SCHEMA_VALIDATION_FAILED"
	}
	return "GENERATION_FAILED"
}
