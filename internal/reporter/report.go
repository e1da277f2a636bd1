package reporter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"api-orchestrator/internal/types"
)

// Report summarizes one flow run
type Report struct {
	RunID     string                   `json:"run_id"`
	FlowName  string                   `json:"flow_name,omitempty"`
	Timestamp time.Time                `json:"timestamp"`
	Total     int                      `json:"total"`
	Succeeded int                      `json:"succeeded"`
	Failed    int                      `json:"failed"`
	Results   []*types.ExecutionResult `json:"results"`
}

// ReportingConfig holds the configuration for reporting
type ReportingConfig struct {
	Format    []string
	OutputDir string
	Detailed  bool
}

// Reporter writes flow run reports
type Reporter struct {
	config ReportingConfig
}

// NewReporter creates a new instance of Reporter
func NewReporter(config ReportingConfig) *Reporter {
	return &Reporter{config: config}
}

// GenerateReport writes the run report in each configured format
func (r *Reporter) GenerateReport(runID, flowName string, results []*types.ExecutionResult) error {
	report := Report{
		RunID:     runID,
		FlowName:  flowName,
		Timestamp: time.Now(),
		Total:     len(results),
		Results:   results,
	}
	for _, result := range results {
		if result.Success {
			report.Succeeded++
		} else {
			report.Failed++
		}
	}

	if !r.config.Detailed {
		// Trim request/response payloads, keep the outcome per endpoint
		trimmed := make([]*types.ExecutionResult, len(report.Results))
		for i, result := range report.Results {
			compact := *result
			compact.RequestData = nil
			compact.ResponseData = types.ResponseData{Size: result.ResponseData.Size}
			trimmed[i] = &compact
		}
		report.Results = trimmed
	}

	for _, format := range r.config.Format {
		switch format {
		case "json":
			if err := r.generateJSONReport(report); err != nil {
				return fmt.Errorf("failed to generate JSON report: %v", err)
			}
		default:
			return fmt.Errorf("unsupported report format: %s", format)
		}
	}
	return nil
}

func (r *Reporter) generateJSONReport(report Report) error {
	if err := os.MkdirAll(r.config.OutputDir, 0755); err != nil {
		return err
	}

	reportPath := filepath.Join(r.config.OutputDir,
		fmt.Sprintf("report_%s.json", report.Timestamp.Format("20060102_150405")))

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(reportPath, data, 0644)
}
