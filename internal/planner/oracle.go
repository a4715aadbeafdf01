// Package planner turns natural-language sales goals into structured
// QuerySpecs through an external planning oracle. The oracle is the most
// likely source of malformed input in the system, so everything it
// returns crosses a strict parse-or-reject boundary before reaching the
// search queue.
package planner

import (
	"context"
	"time"

	"github.com/leadscout/leadscout/internal/model"
)

// Oracle defines the interface for planning oracle backends.
type Oracle interface {
	// Name returns the oracle backend name.
	Name() string

	// Complete sends one prompt and returns the raw completion text.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// CompletionRequest contains the input for one oracle call.
type CompletionRequest struct {
	// System primes the oracle's role for the whole conversation.
	System string

	// Prompt is the operation-specific instruction.
	Prompt string

	// Model overrides the configured model (optional).
	Model string

	// MaxTokens limits the response length.
	MaxTokens int
}

// CompletionResponse contains the oracle's raw output.
type CompletionResponse struct {
	// Text is the completion text, unparsed.
	Text string

	// Model is the model that generated the response.
	Model string

	// TokensUsed tracks token consumption.
	TokensUsed int
}

// Config holds planning oracle configuration.
type Config struct {
	// Provider name: "openai", "anthropic", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout time.Duration

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider:  "openai",
		Timeout:   60 * time.Second,
		MaxTokens: 2000,
	}
}

// ConfigFromModel converts model.PlannerConfig to planner.Config.
func ConfigFromModel(cfg model.PlannerConfig) Config {
	out := Config{
		Provider:   cfg.Provider,
		Model:      cfg.Model,
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Timeout:    cfg.Timeout,
		MaxTokens:  cfg.MaxTokens,
		HTTPProxy:  cfg.HTTPProxy,
		HTTPSProxy: cfg.HTTPSProxy,
	}
	if out.Timeout == 0 {
		out.Timeout = 60 * time.Second
	}
	if out.MaxTokens == 0 {
		out.MaxTokens = 2000
	}
	return out
}
