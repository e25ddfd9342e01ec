// pkg/templates/schema.go
package templates

// TemplateField defines a single reportable cell of a COREP template.
type TemplateField struct {
	FieldCode       string   `json:"field_code"`
	FieldName       string   `json:"field_name"`
	Description     string   `json:"description"`
	IsDeduction     bool     `json:"is_deduction"`
	Calculation     string   `json:"calculation,omitempty"`
	ValidationRules []string `json:"validation_rules"`
}

// Template is a COREP template definition. Definitions are immutable
// after construction.
type Template struct {
	TemplateCode string          `json:"template_code"`
	TemplateName string          `json:"template_name"`
	Description  string          `json:"description"`
	Fields       []TemplateField `json:"fields"`
}

// Field returns the definition for a field code, if the template has it.
func (t *Template) Field(code string) (*TemplateField, bool) {
	for i := range t.Fields {
		if t.Fields[i].FieldCode == code {
			return &t.Fields[i], true
		}
	}
	return nil, false
}

// Summary is the listing form of a template.
type Summary struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// FieldValue is a populated cell as supplied by a generator, in the
// minimal shape the formatter needs.
type FieldValue struct {
	FieldCode     string
	Value         string
	Justification string
}
