package types

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"api-orchestrator/internal/transform"

	"github.com/google/uuid"
)

// Target locations a connection can write into
const (
	LocationQuery  = "query"
	LocationBody   = "body"
	LocationHeader = "header"
	LocationPath   = "path"
)

// Parameter type names, shared with the transform compatibility matrix
const (
	TypeString  = transform.TypeString
	TypeNumber  = transform.TypeNumber
	TypeBoolean = transform.TypeBoolean
	TypeArray   = transform.TypeArray
	TypeObject  = transform.TypeObject
)

// Validation holds optional constraints attached to a parameter definition
type Validation struct {
	Min     *float64      `json:"min,omitempty"`
	Max     *float64      `json:"max,omitempty"`
	Pattern string        `json:"pattern,omitempty"`
	Enum    []interface{} `json:"enum,omitempty"`
}

// ParameterDefinition declares the type and constraints of one parameter.
// Items is only meaningful for type "array", Properties only for type
// "object". Definitions are created when the endpoint is defined and never
// mutated afterwards.
type ParameterDefinition struct {
	Name         string                          `json:"name"`
	Type         string                          `json:"type"`
	Required     bool                            `json:"required"`
	DefaultValue interface{}                     `json:"default,omitempty"`
	Items        *ParameterDefinition            `json:"items,omitempty"`
	Properties   map[string]*ParameterDefinition `json:"properties,omitempty"`
	Validation   *Validation                     `json:"validation,omitempty"`
}

// ValidationResult is the transient outcome of a validator run
type ValidationResult struct {
	IsValid  bool
	Errors   []string
	Warnings []string
}

// AddError appends an error and marks the result invalid
func (r *ValidationResult) AddError(format string, args ...interface{}) {
	r.IsValid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// AddWarning appends a non-fatal warning
func (r *ValidationResult) AddWarning(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Merge folds another result into this one
func (r *ValidationResult) Merge(other ValidationResult) {
	if !other.IsValid {
		r.IsValid = false
	}
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// BodyDefinition describes an endpoint's request body
type BodyDefinition struct {
	ContentType   string                          `json:"content_type"`
	Schema        map[string]*ParameterDefinition `json:"schema,omitempty"`
	StaticContent interface{}                     `json:"static_content,omitempty"`
}

// ExpectedResponse declares a status code the endpoint may legitimately return
type ExpectedResponse struct {
	StatusCode int                             `json:"status_code"`
	BodySchema map[string]*ParameterDefinition `json:"body_schema,omitempty"`
}

// AuthConfig selects an authentication handler by type tag
type AuthConfig struct {
	Type   string            `json:"type"` // apiKey|bearerToken|basic|custom|none
	Config map[string]string `json:"config,omitempty"`
}

// Connection is a declared data-flow edge from a source endpoint's response
// field into a target endpoint's request slot.
type Connection struct {
	ID                     string `json:"id"`
	SourceEndpointID       string `json:"source_endpoint_id"`
	TargetEndpointID       string `json:"target_endpoint_id"`
	SourceFieldPath        string `json:"source_field_path"`
	TargetFieldName        string `json:"target_field_name"`
	TargetLocation         string `json:"target_location"`
	NaturalLanguageMapping string `json:"natural_language_mapping,omitempty"`
	TransformName          string `json:"transform,omitempty"`
	SourceType             string `json:"source_type,omitempty"`
	TargetType             string `json:"target_type,omitempty"`
	Validated              bool   `json:"-"`
}

// Endpoint is the static configuration of one API call. It is owned by the
// caller that constructs it; the engine only reads it.
type Endpoint struct {
	ID                   string                          `json:"id"`
	Method               string                          `json:"method"`
	BaseURL              string                          `json:"base_url"`
	Path                 string                          `json:"path"` // may contain {name} placeholders
	PathParams           map[string]*ParameterDefinition `json:"path_params,omitempty"`
	QueryParams          map[string]*ParameterDefinition `json:"query_params,omitempty"`
	Body                 *BodyDefinition                 `json:"body,omitempty"`
	Headers              map[string]string               `json:"headers,omitempty"`
	Auth                 *AuthConfig                     `json:"auth,omitempty"`
	ExpectedResponses    []ExpectedResponse              `json:"expected_responses,omitempty"`
	NaturalLanguageInput string                          `json:"natural_language_input,omitempty"`
	Connections          []*Connection                   `json:"connections,omitempty"`
	Timeout              time.Duration                   `json:"-"`
	Retries              int                             `json:"retries,omitempty"`
}

// AddConnection appends a connection targeting this endpoint, enforcing the
// type compatibility matrix at construction time. An incompatible typed
// pairing fails fast here so the flow never starts with a bad edge.
func (e *Endpoint) AddConnection(c *Connection) error {
	if c.SourceEndpointID == "" {
		return fmt.Errorf("connection requires a source endpoint id")
	}
	if c.TargetFieldName == "" {
		return fmt.Errorf("connection requires a target field name")
	}
	switch c.TargetLocation {
	case LocationQuery, LocationBody, LocationHeader, LocationPath:
	default:
		return fmt.Errorf("invalid target location %q for connection to %s", c.TargetLocation, e.ID)
	}
	if c.TransformName != "" && !transform.KnownTransform(c.TransformName) {
		return fmt.Errorf("unknown transform %q on connection to %s", c.TransformName, e.ID)
	}
	if c.SourceType != "" && c.TargetType != "" {
		if c.TransformName != "" {
			if !transform.ValidTransform(c.TransformName, c.SourceType, c.TargetType) {
				return fmt.Errorf("transform %q cannot convert %s to %s (connection %s -> %s.%s)",
					c.TransformName, c.SourceType, c.TargetType, c.SourceEndpointID, e.ID, c.TargetFieldName)
			}
		} else if !transform.Compatible(c.SourceType, c.TargetType) {
			return fmt.Errorf("incompatible types %s -> %s with no transform (connection %s -> %s.%s)",
				c.SourceType, c.TargetType, c.SourceEndpointID, e.ID, c.TargetFieldName)
		}
		c.Validated = true
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.TargetEndpointID = e.ID
	e.Connections = append(e.Connections, c)
	return nil
}

// BuildURL renders the endpoint's URL with path placeholders substituted and
// percent-encoded.
func (e *Endpoint) BuildURL(pathParams map[string]interface{}) string {
	path := e.Path
	for name, value := range pathParams {
		placeholder := "{" + name + "}"
		path = strings.ReplaceAll(path, placeholder, url.PathEscape(formatParam(value)))
	}
	return strings.TrimSuffix(e.BaseURL, "/") + path
}

// PathPlaceholders returns the {name} placeholders present in the path
// template, in order of appearance.
func (e *Endpoint) PathPlaceholders() []string {
	var names []string
	rest := e.Path
	for {
		open := strings.Index(rest, "{")
		if open < 0 {
			return names
		}
		end := strings.Index(rest[open:], "}")
		if end < 0 {
			return names
		}
		names = append(names, rest[open+1:open+end])
		rest = rest[open+end+1:]
	}
}

// formatParam renders a parameter value the way it should appear in a URL.
// JSON numbers decode to float64, so whole numbers must not pick up a
// trailing ".0" (7, not 7.000000).
func formatParam(value interface{}) string {
	if f, ok := value.(float64); ok && f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprint(value)
}

// FormatParam is the exported form used when writing query and header values.
func FormatParam(value interface{}) string {
	return formatParam(value)
}
