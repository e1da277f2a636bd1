package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func newRequest(t *testing.T, url string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	return req
}

func TestApplyBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		config map[string]string
		vars   map[string]interface{}
		want   string
	}{
		{
			name:   "plain token gets prefix",
			config: map[string]string{"token": "abc123"},
			want:   "Bearer abc123",
		},
		{
			name:   "already prefixed token stays",
			config: map[string]string{"token": "Bearer abc123"},
			want:   "Bearer abc123",
		},
		{
			name:   "token from context variable",
			config: map[string]string{"token": "var:session_token"},
			vars:   map[string]interface{}{"session_token": "xyz"},
			want:   "Bearer xyz",
		},
		{
			name:   "missing variable leaves request untouched",
			config: map[string]string{"token": "var:absent"},
			want:   "",
		},
		{
			name:   "empty config leaves request untouched",
			config: map[string]string{},
			want:   "",
		},
	}

	registry := NewRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := registry.Apply("bearerToken", newRequest(t, "http://example.com/"), tt.config, tt.vars)
			if err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			if got := req.Header.Get("Authorization"); got != tt.want {
				t.Errorf("Authorization = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestApplyAPIKey(t *testing.T) {
	registry := NewRegistry()

	t.Run("default header", func(t *testing.T) {
		req, err := registry.Apply("apiKey", newRequest(t, "http://example.com/"), map[string]string{"key": "k1"}, nil)
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		if got := req.Header.Get("X-API-Key"); got != "k1" {
			t.Errorf("X-API-Key = %q, want k1", got)
		}
	})

	t.Run("custom header name", func(t *testing.T) {
		config := map[string]string{"key": "k2", "header": "X-Custom-Key"}
		req, err := registry.Apply("apiKey", newRequest(t, "http://example.com/"), config, nil)
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		if got := req.Header.Get("X-Custom-Key"); got != "k2" {
			t.Errorf("X-Custom-Key = %q, want k2", got)
		}
	})

	t.Run("query placement", func(t *testing.T) {
		config := map[string]string{"key": "k3", "in": "query", "name": "token"}
		req, err := registry.Apply("apiKey", newRequest(t, "http://example.com/items?page=2"), config, nil)
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		q := req.URL.Query()
		if q.Get("token") != "k3" {
			t.Errorf("query token = %q, want k3", q.Get("token"))
		}
		if q.Get("page") != "2" {
			t.Error("existing query parameters must survive key injection")
		}
	})
}

func TestApplyBasic(t *testing.T) {
	registry := NewRegistry()
	config := map[string]string{"username": "alice", "password": "s3cret"}
	req, err := registry.Apply("basic", newRequest(t, "http://example.com/"), config, nil)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	user, pass, ok := req.BasicAuth()
	if !ok || user != "alice" || pass != "s3cret" {
		t.Errorf("BasicAuth() = %q/%q ok=%v, want alice/s3cret", user, pass, ok)
	}
}

func TestApplyCustomHeaders(t *testing.T) {
	registry := NewRegistry()
	config := map[string]string{
		"X-Tenant-ID": "t-42",
		"X-Trace":     "var:trace_id",
	}
	vars := map[string]interface{}{"trace_id": "trace-1"}
	req, err := registry.Apply("custom", newRequest(t, "http://example.com/"), config, vars)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got := req.Header.Get("X-Tenant-ID"); got != "t-42" {
		t.Errorf("X-Tenant-ID = %q, want t-42", got)
	}
	if got := req.Header.Get("X-Trace"); got != "trace-1" {
		t.Errorf("X-Trace = %q, want trace-1", got)
	}
}

func TestApplyUnknownTypeIsNoOp(t *testing.T) {
	registry := NewRegistry()
	req, err := registry.Apply("kerberos", newRequest(t, "http://example.com/"), map[string]string{"x": "y"}, nil)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(req.Header) != 0 {
		t.Errorf("headers = %v, want none for an unknown auth type", req.Header)
	}
}

func TestRegisterReplacesHandler(t *testing.T) {
	registry := NewRegistry()
	registry.Register("bearerToken", HandlerFunc(func(req *http.Request, _ map[string]string, _ map[string]interface{}) (*http.Request, error) {
		req.Header.Set("Authorization", "Overridden")
		return req, nil
	}))
	req, err := registry.Apply("bearerToken", newRequest(t, "http://example.com/"), map[string]string{"token": "t"}, nil)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got := req.Header.Get("Authorization"); got != "Overridden" {
		t.Errorf("Authorization = %q, want the replacement handler's value", got)
	}
}
