// Package llm provides LLM client interfaces and implementations.
package llm

import (
	"context"
	"errors"
)

// ErrNoProvider is returned when no provider has an API key.
var ErrNoProvider = errors.New("no LLM provider configured")

// CompletionRequest represents a completion request.
type CompletionRequest struct {
	Model       string
	System      string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
}

// ChatMessage represents a chat message for LLM.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionResponse represents a completion response.
type CompletionResponse struct {
	Content    string
	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
	LatencyMs  int64
}

// Client is the interface for LLM providers.
type Client interface {
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
	Name() string
}

// Provider is the type of LLM provider.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// Keys carries the provider credentials.
type Keys struct {
	Anthropic string
	OpenAI    string
}

// NewClient picks preferred when its key is set and falls back to the
// other provider otherwise.
func NewClient(preferred Provider, keys Keys) (Client, error) {
	switch {
	case preferred == ProviderOpenAI && keys.OpenAI != "":
		return NewOpenAIClient(keys.OpenAI)
	case keys.Anthropic != "":
		return NewAnthropicClient(keys.Anthropic)
	case keys.OpenAI != "":
		return NewOpenAIClient(keys.OpenAI)
	default:
		return nil, ErrNoProvider
	}
}

func withDefaults(req *CompletionRequest, model string) (string, int) {
	if req.Model != "" {
		model = req.Model
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1024
	}
	return model, maxTokens
}
