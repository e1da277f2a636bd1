package openapi

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"api-orchestrator/internal/types"

	"github.com/getkin/kin-openapi/openapi3"
)

// Importer builds endpoint definitions from a service's OpenAPI document
type Importer struct {
	baseURL string
	client  *http.Client
	doc     *openapi3.T
}

// NewImporter creates an importer for the service at baseURL
func NewImporter(baseURL string) *Importer {
	return &Importer{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{},
	}
}

// ImportEndpoints fetches the OpenAPI document from one of the well-known
// locations and converts every operation into an endpoint definition.
func (p *Importer) ImportEndpoints() ([]*types.Endpoint, error) {
	urls := []string{
		fmt.Sprintf("%s/swagger/v1/swagger.json", p.baseURL),
		fmt.Sprintf("%s/swagger.json", p.baseURL),
		fmt.Sprintf("%s/v1/swagger.json", p.baseURL),
		fmt.Sprintf("%s/api/swagger.json", p.baseURL),
		fmt.Sprintf("%s/api/v1/swagger.json", p.baseURL),
		fmt.Sprintf("%s/openapi.json", p.baseURL),
	}

	var lastErr error
	for _, url := range urls {
		p.doc, lastErr = p.fetchDoc(url)
		if lastErr == nil {
			break
		}
	}
	if p.doc == nil {
		return nil, fmt.Errorf("failed to fetch OpenAPI documentation from any known URL, last error: %v", lastErr)
	}

	return p.extractEndpoints(), nil
}

// ImportFromData parses an OpenAPI document already in hand
func (p *Importer) ImportFromData(data []byte) ([]*types.Endpoint, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI doc: %v", err)
	}
	p.doc = doc
	return p.extractEndpoints(), nil
}

func (p *Importer) fetchDoc(url string) (*openapi3.T, error) {
	resp, err := p.client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %v", err)
	}

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI doc: %v", err)
	}
	return doc, nil
}

func (p *Importer) extractEndpoints() []*types.Endpoint {
	var endpoints []*types.Endpoint

	paths := p.doc.Paths.Map()
	for path, pathItem := range paths {
		for method, operation := range pathItem.Operations() {
			ep := &types.Endpoint{
				ID:          endpointID(method, path),
				Method:      strings.ToUpper(method),
				BaseURL:     p.baseURL,
				Path:        path,
				PathParams:  make(map[string]*types.ParameterDefinition),
				QueryParams: make(map[string]*types.ParameterDefinition),
			}

			for _, paramRef := range operation.Parameters {
				param := paramRef.Value
				if param == nil {
					continue
				}
				def := convertSchemaRef(param.Schema)
				if def == nil {
					def = &types.ParameterDefinition{Type: types.TypeString}
				}
				def.Name = param.Name
				def.Required = param.Required
				switch param.In {
				case "path":
					def.Required = true
					ep.PathParams[param.Name] = def
				case "query":
					ep.QueryParams[param.Name] = def
				}
			}

			if operation.RequestBody != nil && operation.RequestBody.Value != nil {
				for contentType, content := range operation.RequestBody.Value.Content {
					if content.Schema == nil {
						continue
					}
					ep.Body = &types.BodyDefinition{
						ContentType: contentType,
						Schema:      convertBodySchema(content.Schema),
					}
					break
				}
			}

			for statusCode, responseRef := range operation.Responses.Map() {
				code := 0
				fmt.Sscanf(statusCode, "%d", &code)
				if code == 0 || responseRef.Value == nil {
					continue
				}
				expected := types.ExpectedResponse{StatusCode: code}
				if content, ok := responseRef.Value.Content["application/json"]; ok && content != nil {
					expected.BodySchema = convertBodySchema(content.Schema)
				}
				ep.ExpectedResponses = append(ep.ExpectedResponses, expected)
			}

			endpoints = append(endpoints, ep)
		}
	}

	return endpoints
}

// endpointID derives a stable id like "get-products-id" from method and path
func endpointID(method, path string) string {
	cleaned := strings.NewReplacer("{", "", "}", "", "/", "-").Replace(strings.Trim(path, "/"))
	return strings.ToLower(method) + "-" + strings.ToLower(cleaned)
}

// convertBodySchema flattens a top-level object schema into the per-field
// definition map the validator consumes
func convertBodySchema(ref *openapi3.SchemaRef) map[string]*types.ParameterDefinition {
	def := convertSchemaRef(ref)
	if def == nil {
		return nil
	}
	if def.Type == types.TypeObject && len(def.Properties) > 0 {
		return def.Properties
	}
	// Non-object bodies (e.g. a top-level array) keep a single entry so
	// the shape is still validated
	return map[string]*types.ParameterDefinition{"body": def}
}

func convertSchemaRef(ref *openapi3.SchemaRef) *types.ParameterDefinition {
	if ref == nil || ref.Value == nil {
		return nil
	}
	return convertSchema(ref.Value)
}

func convertSchema(s *openapi3.Schema) *types.ParameterDefinition {
	def := &types.ParameterDefinition{Type: schemaType(s)}
	def.DefaultValue = s.Default

	var validation types.Validation
	hasValidation := false
	if s.Min != nil {
		validation.Min = s.Min
		hasValidation = true
	}
	if s.Max != nil {
		validation.Max = s.Max
		hasValidation = true
	}
	if s.Pattern != "" {
		validation.Pattern = s.Pattern
		hasValidation = true
	}
	if len(s.Enum) > 0 {
		validation.Enum = s.Enum
		hasValidation = true
	}
	if hasValidation {
		def.Validation = &validation
	}

	switch def.Type {
	case types.TypeObject:
		if len(s.Properties) > 0 {
			def.Properties = make(map[string]*types.ParameterDefinition, len(s.Properties))
			required := make(map[string]bool, len(s.Required))
			for _, name := range s.Required {
				required[name] = true
			}
			for name, propRef := range s.Properties {
				prop := convertSchemaRef(propRef)
				if prop == nil {
					continue
				}
				prop.Name = name
				prop.Required = required[name]
				def.Properties[name] = prop
			}
		}
	case types.TypeArray:
		def.Items = convertSchemaRef(s.Items)
	}

	return def
}

func schemaType(s *openapi3.Schema) string {
	if s.Type == nil {
		return types.TypeString
	}
	switch {
	case s.Type.Is("integer"), s.Type.Is("number"):
		return types.TypeNumber
	case s.Type.Is("boolean"):
		return types.TypeBoolean
	case s.Type.Is("array"):
		return types.TypeArray
	case s.Type.Is("object"):
		return types.TypeObject
	default:
		return types.TypeString
	}
}
