package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"api-orchestrator/internal/types"
)

// Doer is the request/response surface the engine needs from an HTTP client
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Error wraps a network-level failure so the executor can distinguish
// retryable transport problems from everything else.
type Error struct {
	URL string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transport error calling %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Response is the decoded outcome of one HTTP attempt
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       interface{}
	Size       int
}

// Client performs HTTP requests for the flow executor, decoding JSON
// responses by content type and returning everything else as text.
type Client struct {
	doer Doer
}

// NewClient wraps a Doer; nil selects a plain http.Client. Timeouts are
// controlled per attempt through the request context, not the client.
func NewClient(doer Doer) *Client {
	if doer == nil {
		doer = &http.Client{}
	}
	return &Client{doer: doer}
}

// PrepareRequest builds the outgoing request without sending it, so auth
// handlers can be applied before the call goes out.
func (c *Client) PrepareRequest(ctx context.Context, method, rawURL string, req *types.ResolvedRequest, contentType string) (*http.Request, error) {
	fullURL, err := appendQuery(rawURL, req.QueryParams)
	if err != nil {
		return nil, err
	}

	var bodyReader io.Reader
	if payload := requestPayload(req); payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return nil, err
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}
	if bodyReader != nil && httpReq.Header.Get("Content-Type") == "" {
		if contentType == "" {
			contentType = "application/json"
		}
		httpReq.Header.Set("Content-Type", contentType)
	}
	return httpReq, nil
}

// Do sends an already prepared (and possibly authenticated) request
func (c *Client) Do(httpReq *http.Request) (*Response, error) {
	resp, err := c.doer.Do(httpReq)
	if err != nil {
		return nil, &Error{URL: httpReq.URL.String(), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{URL: httpReq.URL.String(), Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	return decodeResponse(resp, raw), nil
}

func requestPayload(req *types.ResolvedRequest) interface{} {
	if len(req.Body) > 0 {
		return req.Body
	}
	if req.RawBody != nil {
		return req.RawBody
	}
	return nil
}

func appendQuery(rawURL string, queryParams map[string]interface{}) (string, error) {
	if len(queryParams) == 0 {
		return rawURL, nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := parsed.Query()
	for key, value := range queryParams {
		q.Set(key, types.FormatParam(value))
	}
	parsed.RawQuery = q.Encode()
	return parsed.String(), nil
}

func decodeResponse(resp *http.Response, raw []byte) *Response {
	out := &Response{
		StatusCode: resp.StatusCode,
		Headers:    make(map[string]string, len(resp.Header)),
		Size:       len(raw),
	}
	for key := range resp.Header {
		out.Headers[key] = resp.Header.Get(key)
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		var decoded interface{}
		if err := json.Unmarshal(raw, &decoded); err == nil {
			out.Body = decoded
			return out
		}
	}
	if len(raw) > 0 {
		out.Body = string(raw)
	}
	return out
}
