package planner

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/leadscout/leadscout/internal/util"
)

// OpenAIOracle implements the Oracle interface for OpenAI models.
type OpenAIOracle struct {
	client *openai.Client
	config Config
}

// NewOpenAIOracle creates a new OpenAI oracle.
func NewOpenAIOracle(config Config) (*OpenAIOracle, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{
		Timeout: config.Timeout,
		Transport: &http.Transport{
			Proxy: util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy),
		},
	}

	return &OpenAIOracle{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the oracle backend name.
func (o *OpenAIOracle) Name() string {
	return "openai"
}

// Complete sends one prompt using OpenAI's Chat Completions API.
func (o *OpenAIOracle) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = o.config.Model
	}
	if model == "" {
		model = openai.GPT4oMini
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = o.config.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = 2000
	}

	chatReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: req.System,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: req.Prompt,
			},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.3, // Lower temperature for structured, parseable output
	}

	resp, err := o.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	return &CompletionResponse{
		Text:       strings.TrimSpace(resp.Choices[0].Message.Content),
		Model:      model,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}
