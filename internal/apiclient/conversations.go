package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/capitalize-ai/aichat/internal/model"
)

// CreateConversation handles POST /conversations.
func (c *Client) CreateConversation(ctx context.Context, req model.CreateConversationRequest) (*model.Conversation, error) {
	var conv model.Conversation
	if err := c.Do(ctx, Request{Method: http.MethodPost, Path: "/conversations", Body: req}, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListConversations handles GET /conversations.
func (c *Client) ListConversations(ctx context.Context) ([]model.Conversation, error) {
	var convs []model.Conversation
	if err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/conversations"}, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

// GetConversation handles GET /conversations/{id}.
func (c *Client) GetConversation(ctx context.Context, id int64) (*model.Conversation, error) {
	var conv model.Conversation
	if err := c.Do(ctx, Request{Method: http.MethodGet, Path: conversationPath(id)}, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// DeleteConversation handles DELETE /conversations/{id}?permanent=bool.
func (c *Client) DeleteConversation(ctx context.Context, id int64, permanent bool) error {
	return c.Do(ctx, Request{
		Method: http.MethodDelete,
		Path:   conversationPath(id),
		Query:  url.Values{"permanent": {strconv.FormatBool(permanent)}},
	}, nil)
}

// ListDeletedConversations handles GET /conversations/deleted.
func (c *Client) ListDeletedConversations(ctx context.Context) ([]model.Conversation, error) {
	var convs []model.Conversation
	if err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/conversations/deleted"}, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

// RestoreConversation handles POST /conversations/{id}/restore.
func (c *Client) RestoreConversation(ctx context.Context, id int64) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: conversationPath(id) + "/restore"}, nil)
}

// EmptyRecycleBin handles DELETE /conversations/recycle-bin/empty.
func (c *Client) EmptyRecycleBin(ctx context.Context) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: "/conversations/recycle-bin/empty"}, nil)
}

// UpdateConversationModel handles PUT /conversations/{id}/model.
func (c *Client) UpdateConversationModel(ctx context.Context, id int64, selectedModel string) error {
	return c.Do(ctx, Request{
		Method: http.MethodPut,
		Path:   conversationPath(id) + "/model",
		Body:   model.UpdateModelRequest{SelectedModel: selectedModel},
	}, nil)
}

func conversationPath(id int64) string {
	return fmt.Sprintf("/conversations/%d", id)
}
