// internal/pipeline/validate/validate.go
package validate

import (
	"fmt"
	"strconv"
	"strings"

	"corep-assist/internal/models"
	"corep-assist/pkg/templates"
)

// Validator checks generated results against the declared template
// schema. It never rejects a result; problems are reported as
// validation flags so the caller always gets an auditable response.
type Validator struct {
	registry *templates.Registry
}

func NewValidator(registry *templates.Registry) *Validator {
	return &Validator{registry: registry}
}

// Validate extends the result's validation flags with every schema
// problem it finds. The same result pointer is returned; flags are
// deduplicated keeping the first occurrence.
func (v *Validator) Validate(result *models.GenerationResult) *models.GenerationResult {
	flags := append([]string{}, result.ValidationFlags...)

	tmpl, ok := v.registry.Get(result.Template)
	if !ok {
		flags = append(flags, fmt.Sprintf("Unknown template: %s", result.Template))
		result.ValidationFlags = dedupe(flags)
		return result
	}

	for _, field := range result.Fields {
		def, found := tmpl.Field(field.FieldCode)
		if !found {
			flags = append(flags, fmt.Sprintf("Unknown field code: %s", field.FieldCode))
			continue
		}

		if field.Value == models.ValueNotDetermined || field.Value == "" {
			flags = append(flags, fmt.Sprintf("Field %s (%s) has no value", field.FieldCode, def.FieldName))
		}

		if field.Justification == "" {
			flags = append(flags, fmt.Sprintf("Field %s missing justification", field.FieldCode))
		}

		if field.SourceRule == "" {
			flags = append(flags, fmt.Sprintf("Field %s missing regulatory source reference", field.FieldCode))
		}

		for _, rule := range def.ValidationRules {
			if !strings.Contains(strings.ToLower(rule), "non-negative") {
				continue
			}
			// Only plain numeric strings are checked; formatted values
			// like "£300M" do not parse.
			if num, err := strconv.ParseFloat(field.Value, 64); err == nil && num < 0 {
				flags = append(flags, fmt.Sprintf("Field %s must be non-negative", field.FieldCode))
			}
		}
	}

	result.ValidationFlags = dedupe(flags)
	return result
}

// CheckConsistency applies the cross-field capital structure rules.
// Fields whose values do not parse as plain numbers are treated as
// absent rather than violations.
func (v *Validator) CheckConsistency(result *models.GenerationResult) []string {
	values := make(map[string]float64, len(result.Fields))
	for _, field := range result.Fields {
		if num, err := strconv.ParseFloat(field.Value, 64); err == nil {
			values[field.FieldCode] = num
		}
	}

	issues := []string{}

	cet1, hasCET1 := values["C_01.00_r120"]
	tier1, hasTier1 := values["C_01.00_r170"]
	total, hasTotal := values["C_01.00_r230"]

	if hasCET1 && cet1 <= 0 {
		issues = append(issues, "CET1 capital (r120) must be positive")
	}
	if hasCET1 && hasTier1 && tier1 < cet1 {
		issues = append(issues, "Tier 1 capital must be >= CET1 capital")
	}
	if hasTier1 && hasTotal && total < tier1 {
		issues = append(issues, "Total capital must be >= Tier 1 capital")
	}

	return issues
}

// BuildAuditTrail appends one provenance line per populated field to
// the generation audit log. Purely additive; the input order of the
// fields is preserved.
func (v *Validator) BuildAuditTrail(result *models.GenerationResult) []string {
	trail := make([]string, 0, len(result.AuditLog)+len(result.Fields))
	trail = append(trail, result.AuditLog...)

	for _, field := range result.Fields {
		trail = append(trail, fmt.Sprintf("[%s] %s: %s | Source: %s | Reasoning: %s",
			field.FieldCode, field.FieldName, field.Value, field.SourceRule, field.Justification))
	}

	return trail
}

func dedupe(flags []string) []string {
	seen := make(map[string]struct{}, len(flags))
	out := make([]string, 0, len(flags))
	for _, flag := range flags {
		if _, ok := seen[flag]; ok {
			continue
		}
		seen[flag] = struct{}{}
		out = append(out, flag)
	}
	return out
}
