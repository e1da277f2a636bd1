package flowdef

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"api-orchestrator/internal/types"
)

// Definition is the on-disk shape of a flow: a named set of endpoints with
// their connections and natural-language intents.
type Definition struct {
	Name           string         `json:"name,omitempty"`
	DefaultBaseURL string         `json:"default_base_url,omitempty"`
	Endpoints      []*endpointDef `json:"endpoints"`
}

type endpointDef struct {
	types.Endpoint
	TimeoutSeconds int `json:"timeout_seconds,omitempty"`
}

// Load reads a flow definition file and materializes its endpoints.
// Connections are re-attached through the endpoint builder so the same
// construction-time type checks run for file-defined flows as for
// programmatic ones.
func Load(path string) ([]*types.Endpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read flow definition: %w", err)
	}
	return Parse(data)
}

// Parse materializes endpoints from flow definition JSON
func Parse(data []byte) ([]*types.Endpoint, error) {
	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse flow definition: %w", err)
	}
	if len(def.Endpoints) == 0 {
		return nil, fmt.Errorf("flow definition declares no endpoints")
	}

	seen := make(map[string]bool, len(def.Endpoints))
	endpoints := make([]*types.Endpoint, 0, len(def.Endpoints))
	for _, entry := range def.Endpoints {
		ep := entry.Endpoint
		if ep.ID == "" {
			return nil, fmt.Errorf("flow definition contains an endpoint without an id")
		}
		if seen[ep.ID] {
			return nil, fmt.Errorf("duplicate endpoint id %q in flow definition", ep.ID)
		}
		seen[ep.ID] = true

		if ep.BaseURL == "" {
			ep.BaseURL = def.DefaultBaseURL
		}
		if entry.TimeoutSeconds > 0 {
			ep.Timeout = time.Duration(entry.TimeoutSeconds) * time.Second
		}

		connections := ep.Connections
		ep.Connections = nil
		for _, conn := range connections {
			if err := ep.AddConnection(conn); err != nil {
				return nil, fmt.Errorf("endpoint %q: %w", ep.ID, err)
			}
		}

		endpoint := ep
		endpoints = append(endpoints, &endpoint)
	}
	return endpoints, nil
}

// Save writes endpoints back out as a flow definition skeleton, used by the
// import command to hand the user an editable starting point.
func Save(path, name, baseURL string, endpoints []*types.Endpoint) error {
	def := Definition{Name: name, DefaultBaseURL: baseURL}
	for _, ep := range endpoints {
		entry := &endpointDef{Endpoint: *ep}
		if ep.Timeout > 0 {
			entry.TimeoutSeconds = int(ep.Timeout / time.Second)
		}
		def.Endpoints = append(def.Endpoints, entry)
	}

	data, err := json.MarshalIndent(def, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal flow definition: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write flow definition: %w", err)
	}
	return nil
}
