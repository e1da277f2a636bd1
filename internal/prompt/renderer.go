package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

// Slot names with their template files
const (
	SlotPathParams  = "path-parameters"
	SlotQueryParams = "query-parameters"
	SlotBodyParams  = "body-parameters"
)

// ConnectionEntry is one upstream data source exposed to the template
type ConnectionEntry struct {
	SourceEndpoint string
	Mapping        string
	ResponseData   string
}

// SeedEntry is one sampled database table exposed to the template
type SeedEntry struct {
	Table string
	Rows  string
}

// Context carries the variables the engine contracts to provide to every
// slot template.
type Context struct {
	Schema                   string
	NaturalLanguageInput     string
	HasConnections           bool
	ConnectionContextSummary string
	ConnectionData           []ConnectionEntry
	HasSeedData              bool
	SeedData                 []SeedEntry
}

// Renderer renders slot prompts from templates. Templates can be overridden
// per slot by dropping a <slot>.tmpl file into a template directory.
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer returns a renderer with the built-in slot templates
func NewRenderer() *Renderer {
	r := &Renderer{templates: make(map[string]*template.Template)}
	for slot, text := range defaultTemplates {
		r.templates[slot] = template.Must(template.New(slot).Parse(text))
	}
	return r
}

// NewRendererFromDir loads <slot>.tmpl files from dir, falling back to the
// built-in template for any slot without a file.
func NewRendererFromDir(dir string) (*Renderer, error) {
	r := NewRenderer()
	for slot := range defaultTemplates {
		path := filepath.Join(dir, slot+".tmpl")
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", path, err)
		}
		tmpl, err := template.New(slot).Parse(string(data))
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", path, err)
		}
		r.templates[slot] = tmpl
	}
	return r, nil
}

// Render renders the template for the named slot against the context
func (r *Renderer) Render(slot string, ctx Context) (string, error) {
	tmpl, ok := r.templates[slot]
	if !ok {
		return "", fmt.Errorf("no template for slot %q", slot)
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, ctx); err != nil {
		return "", fmt.Errorf("failed to render %s template: %w", slot, err)
	}
	return sb.String(), nil
}

var defaultTemplates = map[string]string{
	SlotPathParams: `Resolve the path parameters for an API call.

Intent: {{.NaturalLanguageInput}}

Path parameter schema:
{{.Schema}}
{{if .HasConnections}}
Available upstream data: {{.ConnectionContextSummary}}
{{range .ConnectionData}}
Source endpoint: {{.SourceEndpoint}}
Mapping: {{.Mapping}}
Response data: {{.ResponseData}}
{{end}}{{end}}{{if .HasSeedData}}
Sample database records:
{{range .SeedData}}Table {{.Table}}: {{.Rows}}
{{end}}{{end}}
Respond with only a JSON object whose keys exactly match the path parameter schema. No prose, no markdown.`,

	SlotQueryParams: `Resolve the query parameters for an API call.

Intent: {{.NaturalLanguageInput}}

Query parameter schema:
{{.Schema}}
{{if .HasConnections}}
Available upstream data: {{.ConnectionContextSummary}}
{{range .ConnectionData}}
Source endpoint: {{.SourceEndpoint}}
Mapping: {{.Mapping}}
Response data: {{.ResponseData}}
{{end}}{{end}}{{if .HasSeedData}}
Sample database records:
{{range .SeedData}}Table {{.Table}}: {{.Rows}}
{{end}}{{end}}
Respond with only a JSON object whose keys exactly match the query parameter schema. No prose, no markdown.`,

	SlotBodyParams: `Resolve the request body for an API call.

Intent: {{.NaturalLanguageInput}}

Body schema:
{{.Schema}}
{{if .HasConnections}}
Available upstream data: {{.ConnectionContextSummary}}
{{range .ConnectionData}}
Source endpoint: {{.SourceEndpoint}}
Mapping: {{.Mapping}}
Response data: {{.ResponseData}}
{{end}}{{end}}{{if .HasSeedData}}
Sample database records:
{{range .SeedData}}Table {{.Table}}: {{.Rows}}
{{end}}{{end}}
Respond with only a JSON object whose keys exactly match the body schema. No prose, no markdown.`,
}
