package airesolver

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"api-orchestrator/internal/llm"
	"api-orchestrator/internal/logger"
	"api-orchestrator/internal/prompt"
	"api-orchestrator/internal/schema"
	"api-orchestrator/internal/types"
)

// DefaultMaxBodyBytes caps the serialized size of an AI-resolved body
const DefaultMaxBodyBytes = 64 * 1024

// previewLimit bounds the upstream response JSON embedded in a prompt so a
// large body cannot blow the token budget
const previewLimit = 600

// Resolver drives the per-slot resolution pipeline: assemble context, render
// the slot prompt, call the completion service, sanitize and parse the
// reply, re-validate it against the slot schema, and merge survivors into
// the resolved request.
type Resolver struct {
	client       llm.CompletionClient
	renderer     *prompt.Renderer
	logger       *logger.Logger
	model        string
	maxBodyBytes int
}

// NewResolver creates a resolver. model may be empty to use the client's
// configured default; maxBodyBytes <= 0 selects DefaultMaxBodyBytes.
func NewResolver(client llm.CompletionClient, renderer *prompt.Renderer, log *logger.Logger, model string, maxBodyBytes int) *Resolver {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &Resolver{
		client:       client,
		renderer:     renderer,
		logger:       log,
		model:        model,
		maxBodyBytes: maxBodyBytes,
	}
}

// ResolveEndpoint resolves every applicable slot of the endpoint and merges
// the results into req. Path and query slots apply when the endpoint
// declares parameters for them; the body slot applies when the method can
// carry a body and a body schema exists. Any error is fatal to the
// endpoint's execution attempt.
func (r *Resolver) ResolveEndpoint(ctx context.Context, ep *types.Endpoint, execCtx *types.ExecutionContext, req *types.ResolvedRequest) error {
	if strings.TrimSpace(ep.NaturalLanguageInput) == "" {
		return nil
	}

	promptCtx := r.buildConnectionContext(ep, execCtx)

	if len(ep.PathParams) > 0 {
		resolved, err := r.resolveSlot(ctx, prompt.SlotPathParams, ep, ep.PathParams, promptCtx)
		if err != nil {
			return err
		}
		mergeDeclared(req.PathParams, resolved, ep.PathParams)
	}

	if len(ep.QueryParams) > 0 {
		resolved, err := r.resolveSlot(ctx, prompt.SlotQueryParams, ep, ep.QueryParams, promptCtx)
		if err != nil {
			return err
		}
		mergeDeclared(req.QueryParams, resolved, ep.QueryParams)
	}

	if bodyApplicable(ep) {
		resolved, err := r.resolveSlot(ctx, prompt.SlotBodyParams, ep, ep.Body.Schema, promptCtx)
		if err != nil {
			return err
		}
		// Shallow merge, AI wins on key conflicts
		for key, value := range resolved {
			req.Body[key] = value
		}
		serialized, err := json.Marshal(req.Body)
		if err != nil {
			return &ResolutionError{Kind: ErrKindParse, Slot: prompt.SlotBodyParams, Message: "merged body is not serializable", Cause: err}
		}
		if len(serialized) > r.maxBodyBytes {
			return &ResolutionError{
				Kind:    ErrKindOversizedBody,
				Slot:    prompt.SlotBodyParams,
				Message: fmt.Sprintf("merged body is %d bytes, ceiling is %d", len(serialized), r.maxBodyBytes),
			}
		}
	}

	return nil
}

// resolveSlot runs the prompt/complete/sanitize/parse/validate stages for
// one slot and returns the validated object.
func (r *Resolver) resolveSlot(ctx context.Context, slot string, ep *types.Endpoint, defs map[string]*types.ParameterDefinition, promptCtx prompt.Context) (map[string]interface{}, error) {
	schemaJSON, err := json.MarshalIndent(defs, "", "  ")
	if err != nil {
		return nil, &ResolutionError{Kind: ErrKindPrompt, Slot: slot, Message: "cannot serialize slot schema", Cause: err}
	}
	promptCtx.Schema = string(schemaJSON)
	promptCtx.NaturalLanguageInput = ep.NaturalLanguageInput

	rendered, err := r.renderer.Render(slot, promptCtx)
	if err != nil {
		return nil, &ResolutionError{Kind: ErrKindPrompt, Slot: slot, Message: err.Error(), Cause: err}
	}

	response, err := r.client.Complete(ctx, rendered, r.model)
	if err != nil {
		return nil, &ResolutionError{Kind: ErrKindCompletion, Slot: slot, Message: err.Error(), Cause: err}
	}
	if r.logger != nil {
		r.logger.LogLLMInteraction("ResolveSlot", map[string]interface{}{
			"endpoint": ep.ID,
			"slot":     slot,
		}, response, nil)
	}

	candidate, err := Sanitize(slot, response)
	if err != nil {
		return nil, err
	}

	var parsed interface{}
	if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
		return nil, &ResolutionError{Kind: ErrKindParse, Slot: slot, Message: "extracted JSON failed to parse", Raw: response, Cause: err}
	}
	obj, ok := parsed.(map[string]interface{})
	if !ok {
		return nil, &ResolutionError{Kind: ErrKindParse, Slot: slot, Message: fmt.Sprintf("expected a JSON object, got %T", parsed), Raw: response}
	}

	validation := schema.ValidateParameters(obj, defs)
	if !validation.IsValid {
		return nil, &ResolutionError{
			Kind:    ErrKindSchema,
			Slot:    slot,
			Message: "model output failed schema validation: " + strings.Join(validation.Errors, "; "),
		}
	}
	for _, warning := range validation.Warnings {
		if r.logger != nil {
			r.logger.LogFlowEvent(ep.ID, "ai resolution warning", warning)
		}
	}

	return obj, nil
}

// buildConnectionContext summarizes the upstream data available to the
// endpoint for inclusion in slot prompts.
func (r *Resolver) buildConnectionContext(ep *types.Endpoint, execCtx *types.ExecutionContext) prompt.Context {
	ctx := prompt.Context{}
	if execCtx == nil {
		return ctx
	}

	var summaries []string
	for _, conn := range ep.Connections {
		result, ok := execCtx.GetResult(conn.SourceEndpointID)
		if !ok || !result.Success {
			continue
		}
		summaries = append(summaries, fmt.Sprintf("%s.%s -> %s (%s)",
			conn.SourceEndpointID, conn.SourceFieldPath, conn.TargetFieldName, conn.TargetLocation))
		ctx.ConnectionData = append(ctx.ConnectionData, prompt.ConnectionEntry{
			SourceEndpoint: conn.SourceEndpointID,
			Mapping:        conn.NaturalLanguageMapping,
			ResponseData:   previewJSON(result.ResponseData.Body),
		})
	}
	ctx.HasConnections = len(ctx.ConnectionData) > 0
	ctx.ConnectionContextSummary = strings.Join(summaries, "; ")

	// Seeded database samples ground completions in real records
	tables := make([]string, 0)
	for name := range execCtx.Variables {
		if strings.HasPrefix(name, "db:") {
			tables = append(tables, name)
		}
	}
	sort.Strings(tables)
	for _, name := range tables {
		value, _ := execCtx.GetVariable(name)
		ctx.SeedData = append(ctx.SeedData, prompt.SeedEntry{
			Table: strings.TrimPrefix(name, "db:"),
			Rows:  previewJSON(value),
		})
	}
	ctx.HasSeedData = len(ctx.SeedData) > 0
	return ctx
}

// previewJSON serializes a value and truncates it to a prompt-safe preview
func previewJSON(value interface{}) string {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	if len(data) > previewLimit {
		return string(data[:previewLimit]) + "..."
	}
	return string(data)
}

// mergeDeclared copies only keys that the target slot declares, so the model
// cannot introduce parameters the endpoint never defined.
func mergeDeclared(dst map[string]interface{}, src map[string]interface{}, defs map[string]*types.ParameterDefinition) {
	for key, value := range src {
		if _, declared := defs[key]; declared {
			dst[key] = value
		}
	}
}

// bodyApplicable reports whether the endpoint's body slot is subject to AI
// resolution: a body schema exists and the method is not read-only.
func bodyApplicable(ep *types.Endpoint) bool {
	if ep.Body == nil || len(ep.Body.Schema) == 0 {
		return false
	}
	switch strings.ToUpper(ep.Method) {
	case "GET", "HEAD", "OPTIONS":
		return false
	}
	return true
}
