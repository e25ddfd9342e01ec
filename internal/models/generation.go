// internal/models/generation.go
package models

// ValueNotDetermined is the sentinel a generator reports when the
// retrieved context does not support a concrete figure for a field.
const ValueNotDetermined = "N/A"

// GeneratedField is one populated template cell with its supporting
// reasoning and the regulatory rule it was derived from.
type GeneratedField struct {
	FieldCode     string `json:"field_code"`
	FieldName     string `json:"field_name"`
	Value         string `json:"value"`
	Justification string `json:"justification"`
	SourceRule    string `json:"source_rule"`
}

// GenerationResult is the structured outcome of one generation pass.
// Error is empty on success; on failure Fields is empty and
// ValidationFlags carries the error description.
type GenerationResult struct {
	Template        string           `json:"template"`
	Fields          []GeneratedField `json:"fields"`
	ValidationFlags []string         `json:"validation_flags"`
	AuditLog        []string         `json:"audit_log"`
	Error           string           `json:"error,omitempty"`
}
