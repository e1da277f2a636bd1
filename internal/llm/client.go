package llm

import (
	"context"
	"time"

	"api-orchestrator/internal/logger"
)

// CompletionClient is the language-model collaborator. Implementations
// return best-effort natural text; callers must never assume the reply is
// valid JSON without sanitation.
type CompletionClient interface {
	Complete(ctx context.Context, prompt, model string) (string, error)
}

// CompleteWithRetry calls the client up to attempts times with a linear
// backoff between attempts (delay, 2*delay, ...). On exhaustion it returns
// an empty JSON object rather than an error, so callers that opt into this
// helper degrade to "no resolved fields" instead of failing the endpoint.
// The main resolution pipeline deliberately does not use it: there a
// malformed reply is a terminal failure.
func CompleteWithRetry(ctx context.Context, client CompletionClient, log *logger.Logger, prompt, model string, attempts int, delay time.Duration) string {
	if attempts < 1 {
		attempts = 1
	}
	for attempt := 1; attempt <= attempts; attempt++ {
		response, err := client.Complete(ctx, prompt, model)
		if err == nil && response != "" {
			return response
		}
		if log != nil {
			log.LogLLMInteraction("CompleteWithRetry", map[string]interface{}{
				"attempt": attempt,
				"model":   model,
			}, nil, err)
		}
		if attempt == attempts {
			break
		}
		timer := time.NewTimer(time.Duration(attempt) * delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "{}"
		case <-timer.C:
		}
	}
	return "{}"
}
