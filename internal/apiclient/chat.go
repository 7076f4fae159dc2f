package apiclient

import (
	"context"
	"net/http"

	"github.com/capitalize-ai/aichat/internal/model"
)

// SendMessage handles POST /chat/send. Content starting with the reasoning-mode
// marker gets the extended timeout.
func (c *Client) SendMessage(ctx context.Context, req model.SendMessageRequest) (*model.Message, error) {
	var reply model.Message
	err := c.Do(ctx, Request{
		Method:  http.MethodPost,
		Path:    "/chat/send",
		Body:    req,
		Timeout: c.ChatTimeout(req.Content),
	}, &reply)
	if err != nil {
		return nil, err
	}
	return &reply, nil
}
