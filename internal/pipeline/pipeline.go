// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"corep-assist/internal/common/logger"
	"corep-assist/internal/common/metrics"
	"corep-assist/internal/common/observability"
	"corep-assist/internal/models"
	"corep-assist/internal/pipeline/generate"
	"corep-assist/internal/pipeline/retrieve"
	"corep-assist/internal/pipeline/validate"
	"corep-assist/pkg/templates"
)

var (
	ErrRetrievalEmpty = errors.New("RETRIEVAL_EMPTY")
	ErrGeneration     = errors.New("GENERATION_ERROR")
)

// contextPreviewRunes is how much of each retrieved passage is echoed
// back to the caller for provenance.
const contextPreviewRunes = 200

type Config struct {
	GenerationTimeout time.Duration
}

// Pipeline runs one query through retrieval, generation, validation and
// rendering. All collaborators are injected at construction.
type Pipeline struct {
	config    *Config
	index     *retrieve.Index
	generator *generate.Generator
	validator *validate.Validator
	registry  *templates.Registry
	obs       *observability.Observability
	logger    logger.Logger
}

func New(config *Config, index *retrieve.Index, generator *generate.Generator, validator *validate.Validator, registry *templates.Registry, obs *observability.Observability, log logger.Logger) *Pipeline {
	return &Pipeline{
		config:    config,
		index:     index,
		generator: generator,
		validator: validator,
		registry:  registry,
		obs:       obs,
		logger: log.WithFields(map[string]interface{}{
			"component": "pipeline",
		}),
	}
}

// Process answers one regulatory query. The returned response always
// carries the audit trail and validation flags produced along the way;
// a non-nil error means no usable response could be built.
func (p *Pipeline) Process(ctx context.Context, req *models.QueryRequest) (*models.QueryResponse, error) {
	start := time.Now()

	templateCode := req.TemplateCode
	if templateCode == "" {
		templateCode = models.DefaultTemplateCode
	}

	ctx, span := p.obs.StartSpan(ctx, "pipeline.process")
	defer span.End()

	retrieveStart := time.Now()
	retrieveCtx, retrieveSpan := p.obs.StartSpan(ctx, "pipeline.retrieve")
	searchText := fmt.Sprintf("%s %s", req.Question, req.Scenario)
	contexts, err := p.index.Query(retrieveCtx, searchText, 0)
	retrieveSpan.End()
	metrics.QueryStageDuration.WithLabelValues("retrieve").Observe(time.Since(retrieveStart).Seconds())
	if err != nil {
		p.recordOutcome(ctx, start, "error")
		return nil, err
	}
	if len(contexts) == 0 {
		p.recordOutcome(ctx, start, "no_context")
		return nil, ErrRetrievalEmpty
	}

	generateStart := time.Now()
	generateCtx, generateSpan := p.obs.StartSpan(ctx, "pipeline.generate")
	if p.config.GenerationTimeout > 0 {
		var cancel context.CancelFunc
		generateCtx, cancel = context.WithTimeout(generateCtx, p.config.GenerationTimeout)
		defer cancel()
	}
	result := p.generator.Generate(generateCtx, &generate.Input{
		Question:     req.Question,
		Scenario:     req.Scenario,
		TemplateCode: templateCode,
		Context:      contexts,
	})
	generateSpan.End()
	metrics.QueryStageDuration.WithLabelValues("generate").Observe(time.Since(generateStart).Seconds())
	if result.Error != "" {
		p.recordOutcome(ctx, start, "error")
		return nil, fmt.Errorf("%w: %s", ErrGeneration, result.Error)
	}

	validateStart := time.Now()
	_, validateSpan := p.obs.StartSpan(ctx, "pipeline.validate")
	result = p.validator.Validate(result)
	result.ValidationFlags = appendUnique(result.ValidationFlags, p.validator.CheckConsistency(result))
	result.AuditLog = p.validator.BuildAuditTrail(result)
	validateSpan.End()
	metrics.QueryStageDuration.WithLabelValues("validate").Observe(time.Since(validateStart).Seconds())

	response := &models.QueryResponse{
		Template:         result.Template,
		Fields:           result.Fields,
		ValidationFlags:  result.ValidationFlags,
		AuditLog:         result.AuditLog,
		FormattedOutput:  p.registry.FormatOutput(result.Template, fieldValues(result.Fields)),
		RetrievedContext: contextPreviews(contexts),
	}

	p.recordOutcome(ctx, start, "success")
	p.logger.Info("query processed", map[string]interface{}{
		"template":   response.Template,
		"fields":     len(response.Fields),
		"contexts":   len(contexts),
		"durationMs": time.Since(start).Milliseconds(),
	})

	return response, nil
}

// DocumentCount reports how many chunks the vector store holds. Used by
// the health endpoint.
func (p *Pipeline) DocumentCount(ctx context.Context) (int, error) {
	return p.index.Count(ctx)
}

func (p *Pipeline) recordOutcome(ctx context.Context, start time.Time, status string) {
	metrics.QueriesProcessed.WithLabelValues(status).Inc()
	p.obs.RecordQueryProcessed(ctx, status)
	p.obs.RecordQueryDuration(ctx, time.Since(start), status)
}

func fieldValues(fields []models.GeneratedField) []templates.FieldValue {
	values := make([]templates.FieldValue, 0, len(fields))
	for _, f := range fields {
		values = append(values, templates.FieldValue{
			FieldCode:     f.FieldCode,
			Value:         f.Value,
			Justification: f.Justification,
		})
	}
	return values
}

// contextPreviews keeps the first three passages, cut to a fixed rune
// budget so the response stays small regardless of chunk size.
func contextPreviews(contexts []models.RetrievedContext) []models.ContextPreview {
	limit := 3
	if len(contexts) < limit {
		limit = len(contexts)
	}

	previews := make([]models.ContextPreview, 0, limit)
	for _, c := range contexts[:limit] {
		content := []rune(c.Content)
		if len(content) > contextPreviewRunes {
			content = content[:contextPreviewRunes]
		}
		previews = append(previews, models.ContextPreview{
			Content: string(content) + "...",
			Source:  c.Metadata.DocumentType,
		})
	}
	return previews
}

func appendUnique(flags, additions []string) []string {
	seen := make(map[string]struct{}, len(flags))
	for _, f := range flags {
		seen[f] = struct{}{}
	}
	for _, a := range additions {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		flags = append(flags, a)
	}
	return flags
}
