// pkg/templates/registry.go
package templates

import (
	"encoding/json"
	"fmt"
)

// Registry holds the known COREP template definitions. The set is fixed
// at construction and safe for concurrent readers.
type Registry struct {
	templates map[string]*Template
	order     []string
}

// NewRegistry builds the registry of supported templates.
func NewRegistry() *Registry {
	r := &Registry{templates: make(map[string]*Template)}
	r.add(ownFundsTemplate)
	return r
}

func (r *Registry) add(t *Template) {
	r.templates[t.TemplateCode] = t
	r.order = append(r.order, t.TemplateCode)
}

// Get returns a template by code.
func (r *Registry) Get(code string) (*Template, bool) {
	t, ok := r.templates[code]
	return t, ok
}

// List returns summaries of all templates in registration order.
func (r *Registry) List() []Summary {
	out := make([]Summary, 0, len(r.order))
	for _, code := range r.order {
		t := r.templates[code]
		out = append(out, Summary{
			Code:        t.TemplateCode,
			Name:        t.TemplateName,
			Description: t.Description,
		})
	}
	return out
}

// Export renders a template definition as indented JSON.
func (r *Registry) Export(code string) ([]byte, error) {
	t, ok := r.Get(code)
	if !ok {
		return nil, fmt.Errorf("unknown template %q", code)
	}
	return json.MarshalIndent(t, "", "  ")
}
