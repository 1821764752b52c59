package http_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
)

// loadOpenAPISpec walks up from the test directory to api/openapi.yaml.
func loadOpenAPISpec(t *testing.T) *openapi3.T {
	t.Helper()
	dir, _ := os.Getwd()
	for i := 0; i < 5; i++ {
		candidate := filepath.Join(dir, "api", "openapi.yaml")
		if data, err := os.ReadFile(candidate); err == nil {
			loader := &openapi3.Loader{IsExternalRefsAllowed: false}
			spec, err := loader.LoadFromData(data)
			if err != nil {
				t.Fatalf("failed to parse OpenAPI spec: %v", err)
			}
			return spec
		}
		dir = filepath.Dir(dir)
	}
	t.Fatalf("could not find api/openapi.yaml")
	return nil
}

func TestOpenAPISpec(t *testing.T) {
	spec := loadOpenAPISpec(t)

	if err := spec.Validate(context.Background()); err != nil {
		t.Fatalf("OpenAPI spec validation failed: %v", err)
	}

	expectedPaths := []string{
		"/v1/health",
		"/v1/ready",
		"/v1/geographic/advanced-search",
		"/v1/geographic/search",
		"/v1/geographic/nearby",
		"/v1/geographic/search-by-services",
		"/v1/geographic/search-by-brand",
		"/v1/geographic/search-open-now",
		"/v1/geographic/geocode",
		"/v1/geographic/reverse-geocode",
		"/v1/geographic/distance",
		"/v1/geographic/cities",
		"/v1/geographic/search-suggestions",
		"/v1/geographic/filter-options",
		"/v1/workshops/{id}",
		"/v1/workshops/{id}/availability",
		"/graphql",
	}
	for _, path := range expectedPaths {
		if item := spec.Paths.Find(path); item == nil {
			t.Errorf("expected path %s not found in spec", path)
		}
	}

	if op := spec.Paths.Find("/v1/geographic/search").Post; op == nil || !op.Deprecated {
		t.Error("expected POST /v1/geographic/search to be marked deprecated")
	}

	expectedSchemas := []string{
		"Workshop",
		"WorkshopResult",
		"SearchCriteria",
		"SearchResult",
		"Availability",
		"ScoreBreakdown",
		"GeocodeResult",
		"DistanceResult",
		"FilterOptions",
		"SearchSuggestions",
		"APIError",
	}
	for _, schema := range expectedSchemas {
		if spec.Components.Schemas[schema] == nil {
			t.Errorf("expected schema %s not found", schema)
		}
	}
}

func TestOpenAPIInfo(t *testing.T) {
	spec := loadOpenAPISpec(t)

	if spec.Info.Title != "MechLink API" {
		t.Errorf("expected title 'MechLink API', got %q", spec.Info.Title)
	}
	if spec.Info.Version != "1.0.0" {
		t.Errorf("expected version 1.0.0, got %q", spec.Info.Version)
	}
	if len(spec.Servers) == 0 {
		t.Error("expected at least one server")
	}
}
