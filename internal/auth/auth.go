package auth

import (
	"net/http"
	"strings"
)

// Handler applies one authentication strategy to an outgoing request.
// Handlers are non-throwing: when required config is missing they return the
// request unmodified rather than failing the flow.
type Handler interface {
	Apply(req *http.Request, config map[string]string, vars map[string]interface{}) (*http.Request, error)
}

// HandlerFunc adapts a function to the Handler interface
type HandlerFunc func(req *http.Request, config map[string]string, vars map[string]interface{}) (*http.Request, error)

// Apply implements Handler
func (f HandlerFunc) Apply(req *http.Request, config map[string]string, vars map[string]interface{}) (*http.Request, error) {
	return f(req, config, vars)
}

// Registry maps auth-type tags to handlers. Adding a new auth type is
// registering a new handler, not modifying the dispatcher.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry returns a registry preloaded with the built-in handlers
func NewRegistry() *Registry {
	r := &Registry{handlers: make(map[string]Handler)}
	r.Register("none", HandlerFunc(applyNone))
	r.Register("apiKey", HandlerFunc(applyAPIKey))
	r.Register("bearerToken", HandlerFunc(applyBearerToken))
	r.Register("basic", HandlerFunc(applyBasic))
	r.Register("custom", HandlerFunc(applyCustom))
	return r
}

// Register adds or replaces the handler for an auth type
func (r *Registry) Register(authType string, handler Handler) {
	r.handlers[authType] = handler
}

// Apply dispatches to the handler registered for authType. An unknown type
// leaves the request untouched.
func (r *Registry) Apply(authType string, req *http.Request, config map[string]string, vars map[string]interface{}) (*http.Request, error) {
	handler, ok := r.handlers[authType]
	if !ok {
		return req, nil
	}
	return handler.Apply(req, config, vars)
}

func applyNone(req *http.Request, _ map[string]string, _ map[string]interface{}) (*http.Request, error) {
	return req, nil
}

func applyAPIKey(req *http.Request, config map[string]string, vars map[string]interface{}) (*http.Request, error) {
	key := resolveValue(config["key"], vars)
	if key == "" {
		return req, nil
	}
	header := config["header"]
	if header == "" {
		header = "X-API-Key"
	}
	if config["in"] == "query" {
		name := config["name"]
		if name == "" {
			name = "api_key"
		}
		q := req.URL.Query()
		q.Set(name, key)
		req.URL.RawQuery = q.Encode()
		return req, nil
	}
	req.Header.Set(header, key)
	return req, nil
}

func applyBearerToken(req *http.Request, config map[string]string, vars map[string]interface{}) (*http.Request, error) {
	token := resolveValue(config["token"], vars)
	if token == "" {
		return req, nil
	}
	if !strings.HasPrefix(token, "Bearer ") {
		token = "Bearer " + token
	}
	req.Header.Set("Authorization", token)
	return req, nil
}

func applyBasic(req *http.Request, config map[string]string, vars map[string]interface{}) (*http.Request, error) {
	username := resolveValue(config["username"], vars)
	password := resolveValue(config["password"], vars)
	if username == "" {
		return req, nil
	}
	req.SetBasicAuth(username, password)
	return req, nil
}

// applyCustom sets every config pair as a request header
func applyCustom(req *http.Request, config map[string]string, vars map[string]interface{}) (*http.Request, error) {
	for name, value := range config {
		resolved := resolveValue(value, vars)
		if resolved == "" {
			continue
		}
		req.Header.Set(name, resolved)
	}
	return req, nil
}

// resolveValue resolves "var:name" references against the run's variables,
// so credentials seeded into the execution context can be used without
// embedding them in endpoint definitions.
func resolveValue(value string, vars map[string]interface{}) string {
	if name, ok := strings.CutPrefix(value, "var:"); ok {
		if v, present := vars[name]; present {
			if s, isString := v.(string); isString {
				return s
			}
		}
		return ""
	}
	return value
}
