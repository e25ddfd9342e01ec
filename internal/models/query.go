// internal/models/query.go
package models

const DefaultTemplateCode = "C_01.00"

type QueryRequest struct {
	Question     string `json:"question"`
	Scenario     string `json:"scenario"`
	TemplateCode string `json:"template_code"`
}

// ContextPreview is a truncated retrieved passage echoed back to the
// caller for provenance.
type ContextPreview struct {
	Content string `json:"content"`
	Source  string `json:"source"`
}

type QueryResponse struct {
	Template         string           `json:"template"`
	Fields           []GeneratedField `json:"fields"`
	ValidationFlags  []string         `json:"validation_flags"`
	AuditLog         []string         `json:"audit_log"`
	FormattedOutput  string           `json:"formatted_output"`
	RetrievedContext []ContextPreview `json:"retrieved_context"`
}
