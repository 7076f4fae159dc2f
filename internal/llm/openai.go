package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

var defaultOpenAIModels = []string{
	"gpt-4o",
	"gpt-4o-mini",
	"gpt-4-turbo",
}

// OpenAIOptions configures an OpenAI-compatible endpoint.
type OpenAIOptions struct {
	APIKey string
	// BaseURL points at a compatible gateway; empty uses api.openai.com.
	BaseURL string
	// Models served by the endpoint, first is the default.
	Models []string
}

// OpenAIClient talks to OpenAI or any endpoint speaking its chat completions API.
type OpenAIClient struct {
	client *openai.Client
	models []string
}

// NewOpenAIClient creates a client for api.openai.com.
func NewOpenAIClient(apiKey string) (*OpenAIClient, error) {
	return NewOpenAICompatibleClient(OpenAIOptions{APIKey: apiKey})
}

// NewOpenAICompatibleClient creates a client for the endpoint described by opts.
func NewOpenAICompatibleClient(opts OpenAIOptions) (*OpenAIClient, error) {
	if opts.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	config := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		config.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	models := opts.Models
	if len(models) == 0 {
		models = defaultOpenAIModels
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(config),
		models: append([]string(nil), models...),
	}, nil
}

// Name returns the provider name.
func (c *OpenAIClient) Name() string {
	return string(ProviderOpenAI)
}

// Models returns available models.
func (c *OpenAIClient) Models() []string {
	return append([]string(nil), c.models...)
}

// Complete sends a completion request.
func (c *OpenAIClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	model := req.Model
	if !contains(c.models, model) {
		model = c.models[0]
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	for _, msg := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: float32(req.Temperature),
	})
	if err != nil {
		return nil, err
	}

	var content, stopReason string
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
		stopReason = string(resp.Choices[0].FinishReason)
	}

	return &CompletionResponse{
		Content:    content,
		Model:      resp.Model,
		TokensIn:   resp.Usage.PromptTokens,
		TokensOut:  resp.Usage.CompletionTokens,
		StopReason: stopReason,
		LatencyMs:  time.Since(start).Milliseconds(),
	}, nil
}
