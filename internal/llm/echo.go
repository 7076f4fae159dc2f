package llm

import (
	"context"
	"strings"
	"time"
)

// EchoClient answers by repeating the last user turn. It needs no credentials.
type EchoClient struct{}

// NewEchoClient creates an echo client.
func NewEchoClient() *EchoClient {
	return &EchoClient{}
}

func (c *EchoClient) Name() string {
	return string(ProviderEcho)
}

func (c *EchoClient) Models() []string {
	return []string{"echo"}
}

func (c *EchoClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	var last string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			last = req.Messages[i].Content
			break
		}
	}

	return &CompletionResponse{
		Content:    "Echo: " + last,
		Model:      "echo",
		TokensIn:   len(strings.Fields(last)),
		TokensOut:  len(strings.Fields(last)) + 1,
		StopReason: "end_turn",
		LatencyMs:  time.Since(start).Milliseconds(),
	}, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
