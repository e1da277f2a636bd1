package flow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"api-orchestrator/internal/airesolver"
	"api-orchestrator/internal/auth"
	"api-orchestrator/internal/logger"
	"api-orchestrator/internal/schema"
	"api-orchestrator/internal/transport"
	"api-orchestrator/internal/types"
)

// Execution states of the per-endpoint state machine. Failed is absorbing
// and reachable from every step.
const (
	StateValidating           = "Validating"
	StateResolvingConnections = "ResolvingConnections"
	StateResolvingAI          = "ResolvingAI"
	StateBuildingRequest      = "BuildingRequest"
	StateAuthenticating       = "Authenticating"
	StateSendingRequest       = "SendingRequest"
	StateRecordingResult      = "RecordingResult"
	StateValidatingResponse   = "ValidatingResponse"
	StateDone                 = "Done"
	StateFailed               = "Failed"
)

// DefaultTimeout bounds a single HTTP attempt when the endpoint does not
// declare its own timeout
const DefaultTimeout = 30 * time.Second

// ValidationError reports static endpoint or connection problems detected
// before any network call
type ValidationError struct {
	EndpointID string
	Problems   []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("endpoint %q failed validation: %s", e.EndpointID, strings.Join(e.Problems, "; "))
}

// ResponseValidationError reports a structurally successful call whose
// status code the endpoint did not declare. The result is already recorded
// in the context when this error is raised.
type ResponseValidationError struct {
	EndpointID string
	StatusCode int
}

func (e *ResponseValidationError) Error() string {
	return fmt.Sprintf("unexpected status code %d from endpoint %q", e.StatusCode, e.EndpointID)
}

// Config holds executor behavior knobs
type Config struct {
	// ValidateResponses opts into checking status codes against each
	// endpoint's expected responses
	ValidateResponses bool
	// ContinueOnError keeps the flow running past a failed endpoint
	ContinueOnError bool
	// DefaultTimeout bounds one HTTP attempt; zero selects DefaultTimeout
	DefaultTimeout time.Duration
	// BackoffBase is the unit of the exponential retry backoff
	// (base * 2^attempt); zero selects one second
	BackoffBase time.Duration
}

// Executor drives endpoints through the per-endpoint state machine and
// whole flows through dependency-ordered execution.
type Executor struct {
	config    Config
	transport *transport.Client
	auth      *auth.Registry
	ai        *airesolver.Resolver
	logger    *logger.Logger
}

// NewExecutor creates a flow executor. ai may be nil to disable AI
// resolution; log may be nil.
func NewExecutor(config Config, client *transport.Client, authRegistry *auth.Registry, ai *airesolver.Resolver, log *logger.Logger) *Executor {
	if config.DefaultTimeout <= 0 {
		config.DefaultTimeout = DefaultTimeout
	}
	if config.BackoffBase <= 0 {
		config.BackoffBase = time.Second
	}
	if client == nil {
		client = transport.NewClient(nil)
	}
	if authRegistry == nil {
		authRegistry = auth.NewRegistry()
	}
	return &Executor{
		config:    config,
		transport: client,
		auth:      authRegistry,
		ai:        ai,
		logger:    log,
	}
}

// ExecuteFlow resolves the dependency order once up front, then drives each
// endpoint through the state machine strictly in that order. A cycle aborts
// the whole flow before any endpoint runs. By default the flow stops at the
// first failed endpoint; ContinueOnError keeps going so independent branches
// still run.
func (e *Executor) ExecuteFlow(ctx context.Context, endpoints []*types.Endpoint, execCtx *types.ExecutionContext) ([]*types.ExecutionResult, error) {
	ordered, err := Order(endpoints)
	if err != nil {
		return nil, err
	}

	results := make([]*types.ExecutionResult, 0, len(ordered))
	for _, ep := range ordered {
		result, err := e.ExecuteEndpoint(ctx, ep, execCtx)
		if result != nil {
			results = append(results, result)
		}
		if err != nil && !e.config.ContinueOnError {
			return results, err
		}
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
	}
	return results, nil
}

// ExecuteEndpoint runs one endpoint through the state machine. The returned
// result is always recorded into the context, including synthetic failure
// results, so downstream dependents can observe what happened. The error is
// non-nil whenever the endpoint ended in the Failed state.
func (e *Executor) ExecuteEndpoint(ctx context.Context, ep *types.Endpoint, execCtx *types.ExecutionContext) (*types.ExecutionResult, error) {
	e.logEvent(ep.ID, StateValidating, nil)
	if validation := e.validateEndpoint(ep); !validation.IsValid {
		err := &ValidationError{EndpointID: ep.ID, Problems: validation.Errors}
		return e.recordFailure(execCtx, ep, nil, err), err
	}

	e.logEvent(ep.ID, StateResolvingConnections, nil)
	req, warnings := ResolveConnections(ep, execCtx)
	for _, warning := range warnings {
		e.logEvent(ep.ID, "connection warning", warning)
	}

	if e.ai != nil && strings.TrimSpace(ep.NaturalLanguageInput) != "" {
		e.logEvent(ep.ID, StateResolvingAI, nil)
		if err := e.ai.ResolveEndpoint(ctx, ep, execCtx, req); err != nil {
			return e.recordFailure(execCtx, ep, req, err), err
		}
	}
	execCtx.SetVariable(resolutionCacheKey(ep.ID), req)

	e.logEvent(ep.ID, StateBuildingRequest, nil)
	if err := e.checkResolvedParameters(ep, req); err != nil {
		return e.recordFailure(execCtx, ep, req, err), err
	}
	url := ep.BuildURL(req.PathParams)

	resp, err := e.sendWithRetry(ctx, ep, url, req, execCtx)
	if err != nil {
		return e.recordFailure(execCtx, ep, req, err), err
	}

	e.logEvent(ep.ID, StateRecordingResult, resp.StatusCode)
	result := &types.ExecutionResult{
		EndpointID:     ep.ID,
		Success:        resp.StatusCode >= 200 && resp.StatusCode < 300,
		StatusCode:     resp.StatusCode,
		ResponseTimeMs: resp.ElapsedMs,
		RequestData:    req,
		ResponseData: types.ResponseData{
			Headers: resp.Headers,
			Body:    resp.Body,
			Size:    resp.Size,
		},
		Timestamp: time.Now(),
	}
	if !result.Success {
		result.Error = fmt.Sprintf("request returned status %d", resp.StatusCode)
	}
	execCtx.SetResult(result)

	if e.config.ValidateResponses && len(ep.ExpectedResponses) > 0 {
		e.logEvent(ep.ID, StateValidatingResponse, nil)
		if !expectedStatus(ep, resp.StatusCode) {
			// The recorded result keeps its real status and body so
			// downstream connections can still read it; only the
			// success flag and error string change.
			failed := *result
			failed.Success = false
			err := &ResponseValidationError{EndpointID: ep.ID, StatusCode: resp.StatusCode}
			failed.Error = err.Error()
			execCtx.SetResult(&failed)
			e.logEvent(ep.ID, StateFailed, failed.Error)
			return &failed, err
		}
	}

	if !result.Success {
		e.logEvent(ep.ID, StateFailed, result.Error)
		return result, fmt.Errorf("endpoint %q failed: %s", ep.ID, result.Error)
	}
	e.logEvent(ep.ID, StateDone, nil)
	return result, nil
}

// attemptResponse augments the transport response with timing
type attemptResponse struct {
	*transport.Response
	ElapsedMs int64
}

// sendWithRetry covers the Authenticating and SendingRequest states. Network
// failures, including per-attempt timeouts, retry with exponential backoff
// (base * 2^attempt) up to the endpoint's retry budget.
func (e *Executor) sendWithRetry(ctx context.Context, ep *types.Endpoint, url string, req *types.ResolvedRequest, execCtx *types.ExecutionContext) (*attemptResponse, error) {
	timeout := ep.Timeout
	if timeout <= 0 {
		timeout = e.config.DefaultTimeout
	}
	contentType := ""
	if ep.Body != nil {
		contentType = ep.Body.ContentType
	}

	var lastErr error
	for attempt := 0; attempt <= ep.Retries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)

		httpReq, err := e.transport.PrepareRequest(attemptCtx, ep.Method, url, req, contentType)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to build request for %q: %w", ep.ID, err)
		}

		if ep.Auth != nil && ep.Auth.Type != "" {
			e.logEvent(ep.ID, StateAuthenticating, ep.Auth.Type)
			httpReq, err = e.auth.Apply(ep.Auth.Type, httpReq, ep.Auth.Config, execCtx.Variables)
			if err != nil {
				cancel()
				return nil, fmt.Errorf("auth handler %q failed for %q: %w", ep.Auth.Type, ep.ID, err)
			}
		}

		e.logEvent(ep.ID, StateSendingRequest, fmt.Sprintf("attempt %d", attempt+1))
		start := time.Now()
		resp, err := e.transport.Do(httpReq)
		elapsed := time.Since(start)
		cancel()

		if err == nil {
			return &attemptResponse{Response: resp, ElapsedMs: elapsed.Milliseconds()}, nil
		}
		lastErr = err
		e.logEvent(ep.ID, "attempt failed", err.Error())

		if attempt == ep.Retries {
			break
		}
		backoff := e.config.BackoffBase << uint(attempt)
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, fmt.Errorf("endpoint %q failed after %d attempts: %w", ep.ID, ep.Retries+1, lastErr)
}

// validateEndpoint covers the Validating state: endpoint self-validation
// plus typed-connection validation. The connection check reruns the
// compatibility matrix even for edges validated at construction time, in
// case definitions were mutated afterwards.
func (e *Executor) validateEndpoint(ep *types.Endpoint) types.ValidationResult {
	result := types.ValidationResult{IsValid: true}
	if ep.ID == "" {
		result.AddError("endpoint id is required")
	}
	if ep.Method == "" {
		result.AddError("endpoint %q has no HTTP method", ep.ID)
	}
	if ep.BaseURL == "" {
		result.AddError("endpoint %q has no base URL", ep.ID)
	}
	for _, name := range ep.PathPlaceholders() {
		if _, declared := ep.PathParams[name]; !declared {
			result.AddError("endpoint %q path placeholder {%s} has no parameter definition", ep.ID, name)
		}
	}
	result.Merge(ValidateConnections(ep))
	return result
}

// checkResolvedParameters verifies that required path and query parameters
// survived resolution and conform to their definitions. This is the last
// gate before a URL is built from them.
func (e *Executor) checkResolvedParameters(ep *types.Endpoint, req *types.ResolvedRequest) error {
	result := types.ValidationResult{IsValid: true}
	if len(ep.PathParams) > 0 {
		result.Merge(schema.ValidateParameters(req.PathParams, ep.PathParams))
	}
	if len(ep.QueryParams) > 0 {
		result.Merge(schema.ValidateParameters(req.QueryParams, ep.QueryParams))
	}
	for _, warning := range result.Warnings {
		e.logEvent(ep.ID, "parameter warning", warning)
	}
	if !result.IsValid {
		return &ValidationError{EndpointID: ep.ID, Problems: result.Errors}
	}
	return nil
}

// recordFailure stores a synthetic failed result so downstream dependents
// can observe the failure, then reports the Failed state.
func (e *Executor) recordFailure(execCtx *types.ExecutionContext, ep *types.Endpoint, req *types.ResolvedRequest, cause error) *types.ExecutionResult {
	result := &types.ExecutionResult{
		EndpointID:  ep.ID,
		Success:     false,
		StatusCode:  0,
		RequestData: req,
		Error:       cause.Error(),
		Timestamp:   time.Now(),
	}
	execCtx.SetResult(result)
	e.logEvent(ep.ID, StateFailed, cause.Error())
	return result
}

func expectedStatus(ep *types.Endpoint, statusCode int) bool {
	for _, expected := range ep.ExpectedResponses {
		if expected.StatusCode == statusCode {
			return true
		}
	}
	return false
}

func (e *Executor) logEvent(endpointID, event string, detail interface{}) {
	if e.logger != nil {
		e.logger.LogFlowEvent(endpointID, event, detail)
	}
}
