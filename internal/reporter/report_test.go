package reporter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"api-orchestrator/internal/types"
)

func sampleResults() []*types.ExecutionResult {
	return []*types.ExecutionResult{
		{
			EndpointID: "get-products",
			Success:    true,
			StatusCode: 200,
			RequestData: &types.ResolvedRequest{
				QueryParams: map[string]interface{}{"limit": float64(10)},
			},
			ResponseData: types.ResponseData{
				Body: []interface{}{map[string]interface{}{"id": float64(7)}},
				Size: 42,
			},
			Timestamp: time.Now(),
		},
		{
			EndpointID: "get-product",
			Success:    false,
			StatusCode: 404,
			Error:      "request returned status 404",
			Timestamp:  time.Now(),
		},
	}
}

func readReport(t *testing.T, dir string) Report {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("report dir holds %d files, want 1", len(entries))
	}
	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatal(err)
	}
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	return report
}

func TestGenerateReportCounts(t *testing.T) {
	dir := t.TempDir()
	r := NewReporter(ReportingConfig{Format: []string{"json"}, OutputDir: dir, Detailed: true})

	if err := r.GenerateReport("run-1", "product-flow", sampleResults()); err != nil {
		t.Fatalf("GenerateReport() error = %v", err)
	}

	report := readReport(t, dir)
	if report.RunID != "run-1" || report.FlowName != "product-flow" {
		t.Errorf("report header = %q/%q", report.RunID, report.FlowName)
	}
	if report.Total != 2 || report.Succeeded != 1 || report.Failed != 1 {
		t.Errorf("counts = %d/%d/%d, want 2/1/1", report.Total, report.Succeeded, report.Failed)
	}
	if report.Results[0].RequestData == nil {
		t.Error("detailed report should keep request payloads")
	}
}

func TestGenerateReportCompactTrimsPayloads(t *testing.T) {
	dir := t.TempDir()
	r := NewReporter(ReportingConfig{Format: []string{"json"}, OutputDir: dir})
	results := sampleResults()

	if err := r.GenerateReport("run-2", "", results); err != nil {
		t.Fatalf("GenerateReport() error = %v", err)
	}

	report := readReport(t, dir)
	first := report.Results[0]
	if first.RequestData != nil || first.ResponseData.Body != nil {
		t.Errorf("compact result = %+v, want payloads trimmed", first)
	}
	if first.ResponseData.Size != 42 {
		t.Errorf("Size = %d, want the payload size retained", first.ResponseData.Size)
	}
	// Trimming must not mutate the caller's results
	if results[0].RequestData == nil {
		t.Error("original results should be untouched")
	}
}

func TestGenerateReportUnsupportedFormat(t *testing.T) {
	r := NewReporter(ReportingConfig{Format: []string{"xml"}, OutputDir: t.TempDir()})
	if err := r.GenerateReport("run-3", "", nil); err == nil {
		t.Fatal("GenerateReport() should reject an unknown format")
	}
}
