// pkg/templates/format.go
package templates

import (
	"fmt"
	"strings"
)

// FormatOutput renders populated template fields into the human-readable
// report block. Fields whose code is not part of the template are
// silently skipped.
func (r *Registry) FormatOutput(templateCode string, fields []FieldValue) string {
	t, ok := r.Get(templateCode)
	if !ok {
		return "Template not found"
	}

	output := []string{
		fmt.Sprintf("COREP Template: %s (%s)", t.TemplateName, t.TemplateCode),
		strings.Repeat("=", 80),
		"",
	}

	for _, fv := range fields {
		def, ok := t.Field(fv.FieldCode)
		if !ok {
			continue
		}
		output = append(output, fmt.Sprintf("[%s] %s", fv.FieldCode, def.FieldName))
		output = append(output, fmt.Sprintf("  Value: %s", fv.Value))
		if fv.Justification != "" {
			output = append(output, fmt.Sprintf("  Justification: %s", fv.Justification))
		}
		output = append(output, "")
	}

	return strings.Join(output, "\n")
}
