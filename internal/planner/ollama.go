package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/leadscout/leadscout/internal/util"
)

// OllamaOracle implements the Oracle interface for Ollama local models.
type OllamaOracle struct {
	baseURL    string
	httpClient *http.Client
	config     Config
}

// Ollama API structures
type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	System  string        `json:"system,omitempty"`
	Options ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"` // Max tokens
}

type ollamaResponse struct {
	Model           string `json:"model"`
	CreatedAt       string `json:"created_at"`
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count,omitempty"`
	EvalCount       int    `json:"eval_count,omitempty"`
}

type ollamaError struct {
	Error string `json:"error"`
}

// NewOllamaOracle creates a new Ollama oracle. Ollama needs no API key.
func NewOllamaOracle(config Config) (*OllamaOracle, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second // Local models can be slow
	}

	return &OllamaOracle{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy),
			},
		},
		config: config,
	}, nil
}

// Name returns the oracle backend name.
func (o *OllamaOracle) Name() string {
	return "ollama"
}

// Complete sends one prompt using Ollama's generate API.
func (o *OllamaOracle) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = o.config.Model
	}
	if model == "" {
		return nil, fmt.Errorf("Ollama model name is required")
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = o.config.MaxTokens
	}

	apiReq := ollamaRequest{
		Model:  model,
		Prompt: req.Prompt,
		System: req.System,
		Stream: false,
		Options: ollamaOptions{
			Temperature: 0.3,
			NumPredict:  maxTokens,
		},
	}

	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/generate", o.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		var apiErr ollamaError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("API error (%d): %s", httpResp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("API error (%d): %s", httpResp.StatusCode, string(respBody))
	}

	var resp ollamaResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return &CompletionResponse{
		Text:       strings.TrimSpace(resp.Response),
		Model:      resp.Model,
		TokensUsed: resp.PromptEvalCount + resp.EvalCount,
	}, nil
}
