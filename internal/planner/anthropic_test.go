package planner

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestAnthropicOracle_Complete_Success(t *testing.T) {
	// Mock server
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Verify request
		if r.URL.Path != "/v1/messages" {
			t.Errorf("Expected path /v1/messages, got %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("Expected x-api-key header test-key, got %s", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") != "2023-06-01" {
			t.Errorf("Expected anthropic-version header 2023-06-01, got %s", r.Header.Get("anthropic-version"))
		}

		var apiReq anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&apiReq); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		if apiReq.System == "" {
			t.Error("Expected system prompt to be set")
		}

		resp := anthropicResponse{
			ID:   "msg_123",
			Type: "message",
			Role: "assistant",
			Content: []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			}{
				{
					Type: "text",
					Text: `[{"titles": ["CEO"], "person_seniorities": ["c_suite"]}]`,
				},
			},
			Model: "claude-3-5-haiku-20241022",
			Usage: struct {
				InputTokens  int `json:"input_tokens"`
				OutputTokens int `json:"output_tokens"`
			}{
				InputTokens:  40,
				OutputTokens: 30,
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	oracle, err := NewAnthropicOracle(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "claude-3-5-haiku-20241022",
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to create oracle: %v", err)
	}

	resp, err := oracle.Complete(context.Background(), CompletionRequest{
		System:    systemPrompt,
		Prompt:    BuildInitialPrompt("find founders", ""),
		MaxTokens: 1000,
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if !strings.Contains(resp.Text, `"titles"`) {
		t.Errorf("Unexpected response text: %s", resp.Text)
	}
	if resp.TokensUsed != 70 {
		t.Errorf("Expected 70 tokens used, got %d", resp.TokensUsed)
	}

	// The oracle output must round-trip through the strict parser.
	specs, err := ParseQuerySpecs(resp.Text, maxInitialSpecs)
	if err != nil {
		t.Fatalf("ParseQuerySpecs failed: %v", err)
	}
	if len(specs) != 1 || specs[0].Titles[0] != "CEO" {
		t.Errorf("Unexpected specs: %+v", specs)
	}
}

func TestAnthropicOracle_Complete_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer server.Close()

	oracle, err := NewAnthropicOracle(Config{
		APIKey:  "bad-key",
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to create oracle: %v", err)
	}

	_, err = oracle.Complete(context.Background(), CompletionRequest{Prompt: "hi"})
	if err == nil {
		t.Fatal("Expected error for 401 response")
	}
	if !strings.Contains(err.Error(), "authentication_error") {
		t.Errorf("Expected API error details, got: %v", err)
	}
}

func TestNewAnthropicOracle_RequiresKey(t *testing.T) {
	if _, err := NewAnthropicOracle(Config{}); err == nil {
		t.Error("Expected error when API key is missing")
	}
}

func TestNewOracle_Factory(t *testing.T) {
	oracle, err := NewOracle(Config{Provider: "anthropic", APIKey: "k"})
	if err != nil {
		t.Fatalf("Expected anthropic oracle, got error %v", err)
	}
	if oracle.Name() != "anthropic" {
		t.Errorf("Expected anthropic, got %s", oracle.Name())
	}

	if _, err := NewOracle(Config{Provider: "psychic"}); err == nil {
		t.Error("Expected error for unknown provider")
	}

	oracle, err = NewOracle(Config{Provider: "ollama"})
	if err != nil {
		t.Fatalf("Expected ollama oracle, got error %v", err)
	}
	if oracle.Name() != "ollama" {
		t.Errorf("Expected ollama, got %s", oracle.Name())
	}
}
