package planner

import (
	"fmt"
	"strings"
)

// NewOracle creates a planning oracle backend based on configuration.
func NewOracle(config Config) (Oracle, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIOracle(config)

	case "anthropic", "claude":
		return NewAnthropicOracle(config)

	case "ollama":
		return NewOllamaOracle(config)

	default:
		return nil, fmt.Errorf("unknown planner provider: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
}
