// internal/pipeline/generate/deterministic.go
package generate

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"corep-assist/internal/models"
	"corep-assist/pkg/templates"
)

// Amount extraction anchors each figure to the keyword that follows it,
// so "£300 million of shares and £150 million retained earnings" yields
// 150 for retained earnings rather than the first amount in the text.
var (
	amountPattern     = regexp.MustCompile(`£(\d+)\s*million`)
	retainedPattern   = regexp.MustCompile(`£(\d+)\s*million[^£]*retained`)
	intangiblePattern = regexp.MustCompile(`£(\d+)\s*million[^£]*intangible`)
	deferredPattern   = regexp.MustCompile(`£(\d+)\s*million[^£]*deferred`)
	ownPattern        = regexp.MustCompile(`£(\d+)\s*million[^£]*own`)
)

// DeterministicStrategy populates templates from scenario keyword
// analysis alone. It needs no network and always produces the same
// output for the same input, which makes it the default when no LLM
// API key is configured.
type DeterministicStrategy struct {
	registry *templates.Registry
}

var _ Strategy = (*DeterministicStrategy)(nil)

func NewDeterministicStrategy(registry *templates.Registry) *DeterministicStrategy {
	return &DeterministicStrategy{registry: registry}
}

func (s *DeterministicStrategy) Name() string {
	return "deterministic"
}

func (s *DeterministicStrategy) Generate(ctx context.Context, input *Input) (*models.GenerationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	scenario := strings.ToLower(input.Scenario)
	fields := []models.GeneratedField{}

	switch {
	case strings.Contains(scenario, "ordinary shares") || strings.Contains(scenario, "common equity") || strings.Contains(scenario, "cet1"):
		fields = append(fields, s.field("C_01.00_r010",
			formatAmount(extractAmount(amountPattern, input.Scenario, "500")),
			"Ordinary shares meeting CRR Article 28 criteria qualify as CET1 capital instruments",
			"PRA Rulebook 1.1.1 - CET1 capital instruments criteria"))

		if strings.Contains(scenario, "retained earnings") {
			fields = append(fields, s.field("C_01.00_r020",
				formatAmount(extractAmount(retainedPattern, input.Scenario, "200")),
				"Verified retained earnings net of foreseeable dividends",
				"PRA Rulebook 1.1.3 - Retained earnings requirements"))
		}

		if strings.Contains(scenario, "comprehensive income") || strings.Contains(scenario, "reserves") {
			fields = append(fields, s.field("C_01.00_r030",
				"£50M",
				"Disclosed reserves recognized in equity",
				"PRA Rulebook 1.1.4 - Other comprehensive income"))
		}

	case strings.Contains(scenario, "at1") || strings.Contains(scenario, "additional tier 1") || strings.Contains(scenario, "subordinated bonds"):
		fields = append(fields, s.field("C_01.00_r130",
			formatAmount(extractAmount(amountPattern, input.Scenario, "100")),
			"Perpetual subordinated instruments with loss absorption mechanism qualify as AT1",
			"PRA Rulebook 1.2.1 - AT1 capital instruments criteria"))

	case strings.Contains(scenario, "goodwill") || strings.Contains(scenario, "intangible") || strings.Contains(scenario, "deduction"):
		if strings.Contains(scenario, "goodwill") || strings.Contains(scenario, "intangible") {
			fields = append(fields, s.field("C_01.00_r070",
				formatAmount(extractAmount(intangiblePattern, input.Scenario, "75")),
				"Goodwill and intangible assets must be deducted from CET1 capital",
				"PRA Rulebook 2.1.2 - Intangible assets deduction"))
		}

		if strings.Contains(scenario, "deferred tax") {
			fields = append(fields, s.field("C_01.00_r080",
				formatAmount(extractAmount(deferredPattern, input.Scenario, "30")),
				"Deferred tax assets relying on future profitability are deducted",
				"PRA Rulebook 2.1.3 - Deferred tax assets deduction"))
		}

		if strings.Contains(scenario, "own") && strings.Contains(scenario, "instruments") {
			fields = append(fields, s.field("C_01.00_r100",
				formatAmount(extractAmount(ownPattern, input.Scenario, "10")),
				"Holdings of own CET1 instruments must be deducted",
				"PRA Rulebook 2.1.5 - Own instruments deduction"))
		}
	}

	return &models.GenerationResult{
		Template: input.TemplateCode,
		Fields:   fields,
		ValidationFlags: []string{
			"DEMO MODE: This is a simulated response for demonstration purposes",
			"To use real LLM responses, configure an OpenAI API key and set generation.strategy=model",
		},
		AuditLog: []string{
			"Demo mode active - response generated from scenario keyword analysis",
			"Retrieved regulatory context from RAG engine",
			fmt.Sprintf("Analyzed scenario and identified %d relevant COREP fields", len(fields)),
		},
	}, nil
}

// field resolves the display name from the template registry so the
// output always matches the declared schema.
func (s *DeterministicStrategy) field(code, value, justification, sourceRule string) models.GeneratedField {
	var name string
	if tmpl, ok := s.registry.Get(models.DefaultTemplateCode); ok {
		if def, found := tmpl.Field(code); found {
			name = def.FieldName
		}
	}
	return models.GeneratedField{
		FieldCode:     code,
		FieldName:     name,
		Value:         value,
		Justification: justification,
		SourceRule:    sourceRule,
	}
}

func extractAmount(pattern *regexp.Regexp, scenario, fallback string) string {
	if m := pattern.FindStringSubmatch(scenario); m != nil {
		return m[1]
	}
	return fallback
}

func formatAmount(amount string) string {
	return fmt.Sprintf("£%sM", amount)
}
