package model

import (
	"time"
)

// EventType represents the type of conversation lifecycle event.
type EventType string

const (
	EventTypeCreated  EventType = "created"
	EventTypeDeleted  EventType = "deleted"
	EventTypePurged   EventType = "purged"
	EventTypeRestored EventType = "restored"
	EventTypeMessage  EventType = "message"
)

// ConversationEvent represents an event in a conversation's lifecycle.
type ConversationEvent struct {
	ID             string            `json:"id"`
	ConversationID int64             `json:"conversationId"`
	UserID         int64             `json:"userId"`
	Type           EventType         `json:"type"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
}
