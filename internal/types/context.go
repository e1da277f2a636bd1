package types

import "time"

// ResponseData captures the decoded response of one endpoint execution
type ResponseData struct {
	Headers map[string]string `json:"headers,omitempty"`
	Body    interface{}       `json:"body,omitempty"`
	Size    int               `json:"size"`
}

// ResolvedRequest is the merged request data an endpoint is executed with.
// RawBody carries non-object static content; Body is the flat map that
// connection and AI resolution write into. When Body has entries it wins
// over RawBody.
type ResolvedRequest struct {
	PathParams  map[string]interface{} `json:"path_params,omitempty"`
	QueryParams map[string]interface{} `json:"query_params,omitempty"`
	Body        map[string]interface{} `json:"body,omitempty"`
	RawBody     interface{}            `json:"raw_body,omitempty"`
	Headers     map[string]string      `json:"headers,omitempty"`
}

// NewResolvedRequest returns an empty request with all maps allocated
func NewResolvedRequest() *ResolvedRequest {
	return &ResolvedRequest{
		PathParams:  make(map[string]interface{}),
		QueryParams: make(map[string]interface{}),
		Body:        make(map[string]interface{}),
		Headers:     make(map[string]string),
	}
}

// ExecutionResult records the final state of one endpoint execution attempt.
// It is immutable after insertion into the context.
type ExecutionResult struct {
	EndpointID     string           `json:"endpoint_id"`
	Success        bool             `json:"success"`
	StatusCode     int              `json:"status_code"`
	ResponseTimeMs int64            `json:"response_time_ms"`
	RequestData    *ResolvedRequest `json:"request_data,omitempty"`
	ResponseData   ResponseData     `json:"response_data"`
	Error          string           `json:"error,omitempty"`
	Timestamp      time.Time        `json:"timestamp"`
}

// ExecutionContext stores results and variables for one orchestration run.
// It is mutated only by the currently running endpoint's completion step, so
// no locking is needed; callers running concurrent flows must construct one
// context per run. Clear it explicitly between independent runs.
type ExecutionContext struct {
	Results   map[string]*ExecutionResult
	Variables map[string]interface{}
}

// NewExecutionContext creates an empty execution context
func NewExecutionContext() *ExecutionContext {
	return &ExecutionContext{
		Results:   make(map[string]*ExecutionResult),
		Variables: make(map[string]interface{}),
	}
}

// SetResult records an endpoint's execution result, keyed by its id
func (c *ExecutionContext) SetResult(result *ExecutionResult) {
	c.Results[result.EndpointID] = result
}

// GetResult returns the last recorded result for an endpoint
func (c *ExecutionContext) GetResult(endpointID string) (*ExecutionResult, bool) {
	r, ok := c.Results[endpointID]
	return r, ok
}

// SetVariable stores a named variable for the run
func (c *ExecutionContext) SetVariable(name string, value interface{}) {
	c.Variables[name] = value
}

// GetVariable returns a named variable
func (c *ExecutionContext) GetVariable(name string) (interface{}, bool) {
	v, ok := c.Variables[name]
	return v, ok
}

// Clear drops all results and variables so the context can be reused for a
// new run
func (c *ExecutionContext) Clear() {
	c.Results = make(map[string]*ExecutionResult)
	c.Variables = make(map[string]interface{})
}
