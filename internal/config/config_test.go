package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
environment:
  base_url: http://api.example.com
  auth:
    type: bearerToken
    token: file-token
flow:
  timeout: 10
  retries: 2
  continue_on_error: true
  validate_responses: true
ai:
  enabled: true
  model: gpt-4
reporting:
  format: [json]
  detailed: true
`)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if config.Environment.BaseURL != "http://api.example.com" {
		t.Errorf("BaseURL = %q", config.Environment.BaseURL)
	}
	if config.Flow.Timeout != 10 || config.Flow.Retries != 2 {
		t.Errorf("Flow = %+v, want timeout 10 retries 2", config.Flow)
	}
	if !config.Flow.ContinueOnError || !config.Flow.ValidateResponses {
		t.Errorf("Flow = %+v, want both flags set", config.Flow)
	}
	if !config.AI.Enabled || config.AI.Model != "gpt-4" {
		t.Errorf("AI = %+v", config.AI)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
environment:
  base_url: http://api.example.com
`)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if config.Flow.Timeout != 30 {
		t.Errorf("Timeout = %d, want default 30", config.Flow.Timeout)
	}
	if config.Flow.Retries != 3 {
		t.Errorf("Retries = %d, want default 3", config.Flow.Retries)
	}
	if config.AI.MaxBodyBytes != 64*1024 {
		t.Errorf("MaxBodyBytes = %d, want default 64KiB", config.AI.MaxBodyBytes)
	}
	if len(config.Reporting.Format) != 1 || config.Reporting.Format[0] != "json" {
		t.Errorf("Format = %v, want [json]", config.Reporting.Format)
	}
	if config.LogDir != "logs" {
		t.Errorf("LogDir = %q, want logs", config.LogDir)
	}
}

func TestLoadConfigTokenOverride(t *testing.T) {
	path := writeConfig(t, `
environment:
  auth:
    type: bearerToken
    token: file-token
`)

	t.Setenv("AUTH_TOKEN", "env-token")
	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if config.Environment.Auth.Token != "env-token" {
		t.Errorf("Token = %q, want the environment override", config.Environment.Auth.Token)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("LoadConfig() should fail for a missing file")
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := writeConfig(t, "environment: [not a map")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("LoadConfig() should fail for malformed YAML")
	}
}
