// internal/pipeline/validate/validate_test.go
package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corep-assist/internal/models"
	"corep-assist/pkg/templates"
)

// ==========================================
// Test Helper Functions
// ==========================================

func createValidator() *Validator {
	return NewValidator(templates.NewRegistry())
}

func completeField(code, name, value string) models.GeneratedField {
	return models.GeneratedField{
		FieldCode:     code,
		FieldName:     name,
		Value:         value,
		Justification: "Derived from the reporting scenario",
		SourceRule:    "PRA Rulebook 1.1.1",
	}
}

func resultWithFields(fields ...models.GeneratedField) *models.GenerationResult {
	return &models.GenerationResult{
		Template:        models.DefaultTemplateCode,
		Fields:          fields,
		ValidationFlags: []string{},
		AuditLog:        []string{},
	}
}

// ==========================================
// Validate Tests
// ==========================================

func TestValidator_Validate(t *testing.T) {
	validator := createValidator()

	tests := []struct {
		name          string
		result        *models.GenerationResult
		expectedFlags []string
	}{
		{
			name:          "complete field passes without flags",
			result:        resultWithFields(completeField("C_01.00_r010", "Capital instruments and related share premium accounts", "£300M")),
			expectedFlags: []string{},
		},
		{
			name: "unknown template short-circuits field checks",
			result: &models.GenerationResult{
				Template: "C_99.99",
				Fields:   []models.GeneratedField{{FieldCode: "bogus"}},
			},
			expectedFlags: []string{"Unknown template: C_99.99"},
		},
		{
			name:          "unknown field code skips remaining checks for that field",
			result:        resultWithFields(models.GeneratedField{FieldCode: "C_01.00_r999"}),
			expectedFlags: []string{"Unknown field code: C_01.00_r999"},
		},
		{
			name:          "not determined value is flagged with the field name",
			result:        resultWithFields(completeField("C_01.00_r020", "Retained earnings", "N/A")),
			expectedFlags: []string{"Field C_01.00_r020 (Retained earnings) has no value"},
		},
		{
			name:          "empty value is flagged like N/A",
			result:        resultWithFields(completeField("C_01.00_r020", "Retained earnings", "")),
			expectedFlags: []string{"Field C_01.00_r020 (Retained earnings) has no value"},
		},
		{
			name: "missing justification and source are both flagged",
			result: resultWithFields(models.GeneratedField{
				FieldCode: "C_01.00_r010",
				FieldName: "Capital instruments and related share premium accounts",
				Value:     "£300M",
			}),
			expectedFlags: []string{
				"Field C_01.00_r010 missing justification",
				"Field C_01.00_r010 missing regulatory source reference",
			},
		},
		{
			name:          "negative numeric value violates the non-negative rule",
			result:        resultWithFields(completeField("C_01.00_r010", "Capital instruments and related share premium accounts", "-300")),
			expectedFlags: []string{"Field C_01.00_r010 must be non-negative"},
		},
		{
			name:          "formatted amount skips the numeric rule",
			result:        resultWithFields(completeField("C_01.00_r010", "Capital instruments and related share premium accounts", "£300M")),
			expectedFlags: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validated := validator.Validate(tt.result)

			assert.Same(t, tt.result, validated)
			assert.Equal(t, tt.expectedFlags, validated.ValidationFlags)
		})
	}
}

func TestValidator_Validate_PreservesExistingFlags(t *testing.T) {
	validator := createValidator()

	result := resultWithFields(completeField("C_01.00_r020", "Retained earnings", "N/A"))
	result.ValidationFlags = []string{"DEMO MODE: This is a simulated response for demonstration purposes"}

	validated := validator.Validate(result)

	assert.Equal(t, []string{
		"DEMO MODE: This is a simulated response for demonstration purposes",
		"Field C_01.00_r020 (Retained earnings) has no value",
	}, validated.ValidationFlags)
}

func TestValidator_Validate_DeduplicatesFlags(t *testing.T) {
	validator := createValidator()

	// Two fields with the same unknown code produce the flag once, and a
	// pre-existing duplicate collapses into its first occurrence.
	result := resultWithFields(
		models.GeneratedField{FieldCode: "C_01.00_r999"},
		models.GeneratedField{FieldCode: "C_01.00_r999"},
	)
	result.ValidationFlags = []string{"repeated", "repeated"}

	validated := validator.Validate(result)

	assert.Equal(t, []string{"repeated", "Unknown field code: C_01.00_r999"}, validated.ValidationFlags)
}

// ==========================================
// Consistency Tests
// ==========================================

func TestValidator_CheckConsistency(t *testing.T) {
	validator := createValidator()

	tests := []struct {
		name     string
		fields   []models.GeneratedField
		expected []string
	}{
		{
			name: "consistent capital structure passes",
			fields: []models.GeneratedField{
				completeField("C_01.00_r120", "Common Equity Tier 1 (CET1) capital", "500"),
				completeField("C_01.00_r170", "Tier 1 capital (T1 = CET1 + AT1)", "600"),
				completeField("C_01.00_r230", "Total capital (TC = T1 + T2)", "700"),
			},
			expected: []string{},
		},
		{
			name: "zero CET1 must be flagged positive",
			fields: []models.GeneratedField{
				completeField("C_01.00_r120", "Common Equity Tier 1 (CET1) capital", "0"),
			},
			expected: []string{"CET1 capital (r120) must be positive"},
		},
		{
			name: "tier 1 below CET1 is inconsistent",
			fields: []models.GeneratedField{
				completeField("C_01.00_r120", "Common Equity Tier 1 (CET1) capital", "500"),
				completeField("C_01.00_r170", "Tier 1 capital (T1 = CET1 + AT1)", "400"),
			},
			expected: []string{"Tier 1 capital must be >= CET1 capital"},
		},
		{
			name: "total below tier 1 is inconsistent",
			fields: []models.GeneratedField{
				completeField("C_01.00_r170", "Tier 1 capital (T1 = CET1 + AT1)", "600"),
				completeField("C_01.00_r230", "Total capital (TC = T1 + T2)", "550"),
			},
			expected: []string{"Total capital must be >= Tier 1 capital"},
		},
		{
			name: "multiple violations are all reported",
			fields: []models.GeneratedField{
				completeField("C_01.00_r120", "Common Equity Tier 1 (CET1) capital", "-100"),
				completeField("C_01.00_r170", "Tier 1 capital (T1 = CET1 + AT1)", "-200"),
				completeField("C_01.00_r230", "Total capital (TC = T1 + T2)", "-300"),
			},
			expected: []string{
				"CET1 capital (r120) must be positive",
				"Tier 1 capital must be >= CET1 capital",
				"Total capital must be >= Tier 1 capital",
			},
		},
		{
			name: "unparsable values are treated as absent",
			fields: []models.GeneratedField{
				completeField("C_01.00_r120", "Common Equity Tier 1 (CET1) capital", "£500M"),
				completeField("C_01.00_r170", "Tier 1 capital (T1 = CET1 + AT1)", "N/A"),
			},
			expected: []string{},
		},
		{
			name:     "no capital fields means nothing to check",
			fields:   []models.GeneratedField{completeField("C_01.00_r010", "Capital instruments and related share premium accounts", "300")},
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := validator.CheckConsistency(resultWithFields(tt.fields...))
			assert.Equal(t, tt.expected, issues)
		})
	}
}

// ==========================================
// Audit Trail Tests
// ==========================================

func TestValidator_BuildAuditTrail(t *testing.T) {
	validator := createValidator()

	result := resultWithFields(
		models.GeneratedField{
			FieldCode:     "C_01.00_r010",
			FieldName:     "Capital instruments and related share premium accounts",
			Value:         "£300M",
			Justification: "Ordinary shares qualify as CET1",
			SourceRule:    "PRA Rulebook 1.1.1",
		},
		models.GeneratedField{
			FieldCode:     "C_01.00_r020",
			FieldName:     "Retained earnings",
			Value:         "£150M",
			Justification: "Audited retained earnings",
			SourceRule:    "PRA Rulebook 1.1.3",
		},
	)
	result.AuditLog = []string{"Retrieved regulatory context from RAG engine"}

	trail := validator.BuildAuditTrail(result)

	require.Len(t, trail, 3)
	assert.Equal(t, "Retrieved regulatory context from RAG engine", trail[0])
	assert.Equal(t,
		"[C_01.00_r010] Capital instruments and related share premium accounts: £300M | Source: PRA Rulebook 1.1.1 | Reasoning: Ordinary shares qualify as CET1",
		trail[1])
	assert.Equal(t,
		"[C_01.00_r020] Retained earnings: £150M | Source: PRA Rulebook 1.1.3 | Reasoning: Audited retained earnings",
		trail[2])
}

func TestValidator_BuildAuditTrail_NoFields(t *testing.T) {
	validator := createValidator()

	result := resultWithFields()
	result.AuditLog = []string{"first", "second"}

	trail := validator.BuildAuditTrail(result)

	assert.Equal(t, []string{"first", "second"}, trail)
	// The original log is not mutated.
	assert.Len(t, result.AuditLog, 2)
}
