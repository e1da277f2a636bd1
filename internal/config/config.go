package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Environment Environment     `yaml:"environment"`
	Flow        FlowConfig      `yaml:"flow"`
	AI          AIConfig        `yaml:"ai"`
	Reporting   ReportingConfig `yaml:"reporting"`
	LogDir      string          `yaml:"log_dir"`
}

// Environment holds environment-specific configuration
type Environment struct {
	BaseURL string     `yaml:"base_url"`
	Auth    AuthConfig `yaml:"auth"`
}

// AuthConfig holds default authentication configuration applied to
// endpoints that declare none of their own
type AuthConfig struct {
	Type  string `yaml:"type"`
	Token string `yaml:"token"`
}

// FlowConfig holds flow execution configuration
type FlowConfig struct {
	Timeout           int  `yaml:"timeout"` // seconds per HTTP attempt
	Retries           int  `yaml:"retries"`
	ContinueOnError   bool `yaml:"continue_on_error"`
	ValidateResponses bool `yaml:"validate_responses"`
}

// AIConfig holds AI parameter resolution configuration
type AIConfig struct {
	Enabled      bool   `yaml:"enabled"`
	ConfigPath   string `yaml:"config_path"` // JSON file for the completion service
	Model        string `yaml:"model"`
	TemplateDir  string `yaml:"template_dir"`
	MaxBodyBytes int    `yaml:"max_body_bytes"`
}

// ReportingConfig holds reporting configuration
type ReportingConfig struct {
	Format    []string `yaml:"format"`
	OutputDir string   `yaml:"output_dir"`
	Detailed  bool     `yaml:"detailed"`
}

// LoadConfig loads the configuration from a YAML file, applying environment
// overrides and defaults for unset values
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found at %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %v", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %v", err)
	}

	// Override auth token from environment variable if set
	if token := os.Getenv("AUTH_TOKEN"); token != "" {
		config.Environment.Auth.Token = token
	}

	applyDefaults(&config)
	return &config, nil
}

func applyDefaults(config *Config) {
	if config.Flow.Timeout == 0 {
		config.Flow.Timeout = 30
	}
	if config.Flow.Retries == 0 {
		config.Flow.Retries = 3
	}
	if config.AI.MaxBodyBytes == 0 {
		config.AI.MaxBodyBytes = 64 * 1024
	}
	if config.AI.ConfigPath == "" {
		config.AI.ConfigPath = "config/llm.json"
	}
	if len(config.Reporting.Format) == 0 {
		config.Reporting.Format = []string{"json"}
	}
	if config.Reporting.OutputDir == "" {
		config.Reporting.OutputDir = filepath.Join("reports")
	}
	if config.LogDir == "" {
		config.LogDir = "logs"
	}
}
