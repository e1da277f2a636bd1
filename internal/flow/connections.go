package flow

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"api-orchestrator/internal/transform"
	"api-orchestrator/internal/types"
)

// maxSiblingHints caps how many sibling field names a skipped-connection
// warning lists to aid debugging
const maxSiblingHints = 5

// ResolveConnections produces the merged request data for a target endpoint.
// Merge precedence, later overriding earlier: static defaults declared on
// parameter definitions, a previously cached resolution for this endpoint,
// then values pulled from connections whose source endpoint succeeded.
// Skipped connections (failed source, missing field) are surfaced as
// warnings, never errors.
func ResolveConnections(ep *types.Endpoint, execCtx *types.ExecutionContext) (*types.ResolvedRequest, []string) {
	req := types.NewResolvedRequest()
	var warnings []string

	applyDefaults(ep, req)
	applyCached(ep, execCtx, req)

	for _, conn := range ep.Connections {
		result, ok := execCtx.GetResult(conn.SourceEndpointID)
		if !ok {
			warnings = append(warnings, fmt.Sprintf(
				"connection %s skipped: source endpoint %q has no recorded result", conn.ID, conn.SourceEndpointID))
			continue
		}
		if !result.Success {
			warnings = append(warnings, fmt.Sprintf(
				"connection %s skipped: source endpoint %q failed", conn.ID, conn.SourceEndpointID))
			continue
		}

		value, found, siblings := extractField(result.ResponseData.Body, conn.SourceFieldPath)
		if !found {
			warning := fmt.Sprintf("connection %s skipped: field %q not present in response of %q",
				conn.ID, conn.SourceFieldPath, conn.SourceEndpointID)
			if len(siblings) > 0 {
				warning += fmt.Sprintf(" (available fields: %s)", strings.Join(siblings, ", "))
			}
			warnings = append(warnings, warning)
			continue
		}

		if conn.TransformName != "" {
			transformed, err := transform.Apply(conn.TransformName, value)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf(
					"connection %s skipped: transform %q failed: %v", conn.ID, conn.TransformName, err))
				continue
			}
			value = transformed
		}

		switch conn.TargetLocation {
		case types.LocationQuery:
			req.QueryParams[conn.TargetFieldName] = value
		case types.LocationPath:
			req.PathParams[conn.TargetFieldName] = value
		case types.LocationBody:
			req.Body[conn.TargetFieldName] = value
		case types.LocationHeader:
			req.Headers[conn.TargetFieldName] = types.FormatParam(value)
		}
	}

	return req, warnings
}

// ValidateConnections reruns the typed-connection checks that AddConnection
// performed at construction time. Definitions can be mutated between
// construction and execution, so the executor checks again before trusting
// an edge.
func ValidateConnections(ep *types.Endpoint) types.ValidationResult {
	result := types.ValidationResult{IsValid: true}
	for _, conn := range ep.Connections {
		switch conn.TargetLocation {
		case types.LocationQuery, types.LocationBody, types.LocationHeader, types.LocationPath:
		default:
			result.AddError("connection %s has invalid target location %q", conn.ID, conn.TargetLocation)
			continue
		}
		if conn.TransformName != "" && !transform.KnownTransform(conn.TransformName) {
			result.AddError("connection %s uses unknown transform %q", conn.ID, conn.TransformName)
			continue
		}
		if conn.SourceType == "" || conn.TargetType == "" {
			continue
		}
		if conn.TransformName != "" {
			if !transform.ValidTransform(conn.TransformName, conn.SourceType, conn.TargetType) {
				result.AddError("connection %s: transform %q cannot convert %s to %s",
					conn.ID, conn.TransformName, conn.SourceType, conn.TargetType)
			}
		} else if !transform.Compatible(conn.SourceType, conn.TargetType) {
			result.AddError("connection %s: incompatible types %s -> %s with no transform",
				conn.ID, conn.SourceType, conn.TargetType)
		}
	}
	return result
}

func applyDefaults(ep *types.Endpoint, req *types.ResolvedRequest) {
	for name, def := range ep.PathParams {
		if def != nil && def.DefaultValue != nil {
			req.PathParams[name] = def.DefaultValue
		}
	}
	for name, def := range ep.QueryParams {
		if def != nil && def.DefaultValue != nil {
			req.QueryParams[name] = def.DefaultValue
		}
	}
	for name, value := range ep.Headers {
		req.Headers[name] = value
	}
	if ep.Body != nil {
		if content, ok := ep.Body.StaticContent.(map[string]interface{}); ok {
			for key, value := range content {
				req.Body[key] = value
			}
		} else if ep.Body.StaticContent != nil {
			req.RawBody = ep.Body.StaticContent
		}
		for name, def := range ep.Body.Schema {
			if def != nil && def.DefaultValue != nil {
				if _, present := req.Body[name]; !present {
					req.Body[name] = def.DefaultValue
				}
			}
		}
	}
}

// applyCached merges a resolution cached from an earlier execution of the
// same endpoint within this run, so re-execution does not need a fresh
// model round trip.
func applyCached(ep *types.Endpoint, execCtx *types.ExecutionContext, req *types.ResolvedRequest) {
	cached, ok := execCtx.GetVariable(resolutionCacheKey(ep.ID))
	if !ok {
		return
	}
	prior, ok := cached.(*types.ResolvedRequest)
	if !ok {
		return
	}
	for k, v := range prior.PathParams {
		req.PathParams[k] = v
	}
	for k, v := range prior.QueryParams {
		req.QueryParams[k] = v
	}
	for k, v := range prior.Body {
		req.Body[k] = v
	}
	for k, v := range prior.Headers {
		req.Headers[k] = v
	}
	if prior.RawBody != nil {
		req.RawBody = prior.RawBody
	}
}

func resolutionCacheKey(endpointID string) string {
	return "resolved:" + endpointID
}

// extractField walks a dot-separated path into a decoded response body. An
// empty path or "." yields the whole body. Numeric segments index into
// arrays. When a segment is missing, the sibling keys present at the failure
// point are returned (bounded) for diagnostics.
func extractField(body interface{}, path string) (interface{}, bool, []string) {
	path = strings.TrimSpace(path)
	if path == "" || path == "." {
		return body, true, nil
	}

	current := body
	for _, segment := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]interface{}:
			value, present := node[segment]
			if !present {
				return nil, false, siblingKeys(node)
			}
			current = value
		case []interface{}:
			index, err := strconv.Atoi(segment)
			if err != nil || index < 0 || index >= len(node) {
				return nil, false, []string{fmt.Sprintf("array of length %d", len(node))}
			}
			current = node[index]
		default:
			return nil, false, nil
		}
	}
	return current, true, nil
}

func siblingKeys(node map[string]interface{}) []string {
	keys := make([]string, 0, len(node))
	for key := range node {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	if len(keys) > maxSiblingHints {
		keys = keys[:maxSiblingHints]
	}
	return keys
}
