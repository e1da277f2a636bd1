package llm

import (
	"fmt"

	"api-orchestrator/internal/logger"
)

// NewClient creates a new completion client based on the configured provider
func NewClient(config *Config, log *logger.Logger) (CompletionClient, error) {
	switch config.Provider {
	case "openai":
		return NewOpenAIClient(config, log), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", config.Provider)
	}
}
