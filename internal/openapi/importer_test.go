package openapi

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"api-orchestrator/internal/types"
)

const productsSpec = `{
  "openapi": "3.0.0",
  "info": {"title": "Products API", "version": "1.0"},
  "paths": {
    "/products": {
      "get": {
        "parameters": [
          {
            "name": "category",
            "in": "query",
            "schema": {"type": "string", "enum": ["books", "games"]}
          },
          {
            "name": "limit",
            "in": "query",
            "schema": {"type": "integer", "minimum": 1, "maximum": 100}
          }
        ],
        "responses": {
          "200": {
            "description": "ok",
            "content": {
              "application/json": {
                "schema": {"type": "array", "items": {"type": "object"}}
              }
            }
          }
        }
      },
      "post": {
        "requestBody": {
          "content": {
            "application/json": {
              "schema": {
                "type": "object",
                "required": ["name"],
                "properties": {
                  "name": {"type": "string"},
                  "price": {"type": "number"}
                }
              }
            }
          }
        },
        "responses": {
          "201": {"description": "created"}
        }
      }
    },
    "/products/{id}": {
      "get": {
        "parameters": [
          {
            "name": "id",
            "in": "path",
            "required": true,
            "schema": {"type": "integer"}
          }
        ],
        "responses": {
          "200": {"description": "ok"},
          "404": {"description": "missing"}
        }
      }
    }
  }
}`

func importFixture(t *testing.T) map[string]*types.Endpoint {
	t.Helper()
	importer := NewImporter("http://api.example.com")
	endpoints, err := importer.ImportFromData([]byte(productsSpec))
	if err != nil {
		t.Fatalf("ImportFromData() error = %v", err)
	}
	byID := make(map[string]*types.Endpoint, len(endpoints))
	for _, ep := range endpoints {
		byID[ep.ID] = ep
	}
	return byID
}

func TestImportFromData(t *testing.T) {
	byID := importFixture(t)
	if len(byID) != 3 {
		t.Fatalf("imported %d endpoints, want 3", len(byID))
	}
	for _, id := range []string{"get-products", "post-products", "get-products-id"} {
		if _, ok := byID[id]; !ok {
			t.Errorf("missing endpoint %q", id)
		}
	}
}

func TestImportQueryParameters(t *testing.T) {
	ep := importFixture(t)["get-products"]

	category := ep.QueryParams["category"]
	if category == nil || category.Type != types.TypeString {
		t.Fatalf("category = %+v, want a string parameter", category)
	}
	if category.Validation == nil || len(category.Validation.Enum) != 2 {
		t.Errorf("category validation = %+v, want the enum carried over", category.Validation)
	}

	limit := ep.QueryParams["limit"]
	if limit == nil || limit.Type != types.TypeNumber {
		t.Fatalf("limit = %+v, want integer mapped to number", limit)
	}
	if limit.Validation == nil || limit.Validation.Min == nil || *limit.Validation.Min != 1 {
		t.Errorf("limit validation = %+v, want min 1", limit.Validation)
	}
	if limit.Validation.Max == nil || *limit.Validation.Max != 100 {
		t.Errorf("limit validation = %+v, want max 100", limit.Validation)
	}
}

func TestImportPathParameters(t *testing.T) {
	ep := importFixture(t)["get-products-id"]
	id := ep.PathParams["id"]
	if id == nil {
		t.Fatal("path parameter id should be imported")
	}
	if id.Type != types.TypeNumber || !id.Required {
		t.Errorf("id = %+v, want a required number", id)
	}
	if len(ep.ExpectedResponses) != 2 {
		t.Errorf("expected responses = %d, want 200 and 404", len(ep.ExpectedResponses))
	}
}

func TestImportRequestBody(t *testing.T) {
	ep := importFixture(t)["post-products"]
	if ep.Body == nil {
		t.Fatal("request body schema should be imported")
	}
	if ep.Body.ContentType != "application/json" {
		t.Errorf("ContentType = %q, want application/json", ep.Body.ContentType)
	}
	name := ep.Body.Schema["name"]
	if name == nil || name.Type != types.TypeString || !name.Required {
		t.Errorf("name = %+v, want a required string", name)
	}
	price := ep.Body.Schema["price"]
	if price == nil || price.Type != types.TypeNumber || price.Required {
		t.Errorf("price = %+v, want an optional number", price)
	}
}

func TestImportEndpointsProbesKnownLocations(t *testing.T) {
	var probed []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		probed = append(probed, r.URL.Path)
		if r.URL.Path != "/openapi.json" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, productsSpec)
	}))
	defer server.Close()

	importer := NewImporter(server.URL)
	endpoints, err := importer.ImportEndpoints()
	if err != nil {
		t.Fatalf("ImportEndpoints() error = %v", err)
	}
	if len(endpoints) != 3 {
		t.Errorf("imported %d endpoints, want 3", len(endpoints))
	}
	if len(probed) < 2 {
		t.Errorf("probed paths = %v, want earlier locations tried before /openapi.json", probed)
	}
	if probed[len(probed)-1] != "/openapi.json" {
		t.Errorf("last probe = %q, want /openapi.json", probed[len(probed)-1])
	}
}

func TestImportEndpointsNoDocAnywhere(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	importer := NewImporter(server.URL)
	if _, err := importer.ImportEndpoints(); err == nil {
		t.Fatal("ImportEndpoints() should fail when no document is served")
	}
}

func TestEndpointID(t *testing.T) {
	tests := []struct {
		method, path, want string
	}{
		{"GET", "/products", "get-products"},
		{"GET", "/products/{id}", "get-products-id"},
		{"POST", "/users/{uid}/orders", "post-users-uid-orders"},
	}
	for _, tt := range tests {
		if got := endpointID(tt.method, tt.path); got != tt.want {
			t.Errorf("endpointID(%s, %s) = %q, want %q", tt.method, tt.path, got, tt.want)
		}
	}
}
