package service

import (
	"context"

	"github.com/capitalize-ai/aichat/internal/model"
)

// EventPublisher receives conversation lifecycle events.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event *model.ConversationEvent) (uint64, error)
}

// NopPublisher drops every event. It is used when no event stream is configured.
type NopPublisher struct{}

func (NopPublisher) PublishEvent(context.Context, *model.ConversationEvent) (uint64, error) {
	return 0, nil
}
