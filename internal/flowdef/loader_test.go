package flowdef

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleDefinition = `{
  "name": "product-flow",
  "default_base_url": "http://api.example.com",
  "endpoints": [
    {
      "id": "get-products",
      "method": "GET",
      "path": "/products"
    },
    {
      "id": "get-product",
      "method": "GET",
      "path": "/products/{id}",
      "timeout_seconds": 5,
      "path_params": {
        "id": {"name": "id", "type": "number", "required": true}
      },
      "connections": [
        {
          "source_endpoint_id": "get-products",
          "source_field_path": "0.id",
          "target_field_name": "id",
          "target_location": "path",
          "source_type": "number",
          "target_type": "number"
        }
      ]
    }
  ]
}`

func TestParse(t *testing.T) {
	endpoints, err := Parse([]byte(sampleDefinition))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(endpoints) != 2 {
		t.Fatalf("Parse() returned %d endpoints, want 2", len(endpoints))
	}

	getProducts := endpoints[0]
	if getProducts.BaseURL != "http://api.example.com" {
		t.Errorf("BaseURL = %q, want the default applied", getProducts.BaseURL)
	}

	getProduct := endpoints[1]
	if getProduct.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", getProduct.Timeout)
	}
	if len(getProduct.Connections) != 1 {
		t.Fatal("connection should survive parsing")
	}
	conn := getProduct.Connections[0]
	if !conn.Validated {
		t.Error("typed connection should be validated during rebuild")
	}
	if conn.ID == "" {
		t.Error("rebuilt connection should receive an id")
	}
	if conn.TargetEndpointID != "get-product" {
		t.Errorf("TargetEndpointID = %q, want get-product", conn.TargetEndpointID)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantMsg string
	}{
		{
			name:    "invalid json",
			data:    `{"endpoints": [`,
			wantMsg: "failed to parse",
		},
		{
			name:    "no endpoints",
			data:    `{"name": "empty", "endpoints": []}`,
			wantMsg: "declares no endpoints",
		},
		{
			name:    "missing id",
			data:    `{"endpoints": [{"method": "GET", "path": "/x"}]}`,
			wantMsg: "without an id",
		},
		{
			name: "duplicate id",
			data: `{"endpoints": [
				{"id": "a", "method": "GET", "path": "/x"},
				{"id": "a", "method": "GET", "path": "/y"}
			]}`,
			wantMsg: "duplicate endpoint id",
		},
		{
			name: "incompatible connection types",
			data: `{"endpoints": [{
				"id": "a", "method": "GET", "path": "/x",
				"connections": [{
					"source_endpoint_id": "b",
					"source_field_path": "n",
					"target_field_name": "n",
					"target_location": "query",
					"source_type": "number",
					"target_type": "boolean"
				}]
			}]}`,
			wantMsg: "incompatible types",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if err == nil {
				t.Fatal("Parse() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Parse() error = %q, want it to contain %q", err, tt.wantMsg)
			}
		})
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	endpoints, err := Parse([]byte(sampleDefinition))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "flow.json")
	if err := Save(path, "product-flow", "http://api.example.com", endpoints); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(reloaded) != len(endpoints) {
		t.Fatalf("reloaded %d endpoints, want %d", len(reloaded), len(endpoints))
	}
	if reloaded[1].Timeout != 5*time.Second {
		t.Errorf("Timeout = %v after round trip, want 5s", reloaded[1].Timeout)
	}
	if len(reloaded[1].Connections) != 1 {
		t.Error("connection should survive the round trip")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err == nil || !strings.Contains(err.Error(), "failed to read") {
		t.Errorf("Load() error = %v, want a read failure", err)
	}
}
