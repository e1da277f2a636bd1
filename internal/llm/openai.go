package llm

import (
	"context"
	"fmt"

	"api-orchestrator/internal/logger"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient implements the CompletionClient interface using OpenAI's API
type OpenAIClient struct {
	config *Config
	client *openai.Client
	logger *logger.Logger
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(config *Config, log *logger.Logger) *OpenAIClient {
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	return &OpenAIClient{
		config: config,
		client: openai.NewClientWithConfig(clientConfig),
		logger: log,
	}
}

// Complete sends the prompt as a chat completion and returns the raw reply
// text. The model argument overrides the configured model when non-empty.
func (c *OpenAIClient) Complete(ctx context.Context, prompt, model string) (string, error) {
	if model == "" {
		model = c.config.Model
	}

	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model:       model,
			Temperature: float32(c.config.Temperature),
			MaxTokens:   c.config.MaxTokens,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: "You are a helpful assistant that resolves API request parameters. Always respond with JSON only, no prose.",
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
		},
	)
	if err != nil {
		if c.logger != nil {
			c.logger.LogLLMInteraction("Complete", map[string]interface{}{"model": model}, nil, err)
		}
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	content := resp.Choices[0].Message.Content
	if c.logger != nil {
		c.logger.LogLLMInteraction("Complete", map[string]interface{}{"model": model}, content, nil)
	}
	return content, nil
}
