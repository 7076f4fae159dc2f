// Package llm generates assistant replies for the chat backend.
package llm

import (
	"context"
)

// CompletionRequest represents a completion request.
type CompletionRequest struct {
	Model        string
	SystemPrompt string
	Messages     []ChatMessage
	MaxTokens    int
	Temperature  float64
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
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider name.
	Name() string

	// Models returns available models.
	Models() []string
}

// Provider is the type of LLM provider.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderEcho      Provider = "echo"
)

// Keys holds provider credentials; empty keys disable a provider.
type Keys struct {
	Anthropic string
	OpenAI    string

	// OpenAIBaseURL and OpenAIModels select an OpenAI-compatible gateway.
	OpenAIBaseURL string
	OpenAIModels  []string
}

// NewClient picks the preferred provider that has a key, falling back to the
// other keyed provider and finally to the echo client.
func NewClient(preferred Provider, keys Keys) (Client, error) {
	order := []Provider{ProviderAnthropic, ProviderOpenAI}
	if preferred == ProviderOpenAI {
		order = []Provider{ProviderOpenAI, ProviderAnthropic}
	}

	for _, p := range order {
		switch {
		case p == ProviderAnthropic && keys.Anthropic != "":
			return NewAnthropicClient(keys.Anthropic)
		case p == ProviderOpenAI && keys.OpenAI != "":
			return NewOpenAICompatibleClient(OpenAIOptions{
				APIKey:  keys.OpenAI,
				BaseURL: keys.OpenAIBaseURL,
				Models:  keys.OpenAIModels,
			})
		}
	}
	return NewEchoClient(), nil
}
