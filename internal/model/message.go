package model

import (
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ThinkingModeMarker prefixes content that asks for the long-running reasoning mode.
// It is sent as part of the content.
const ThinkingModeMarker = "[THINKING_MODE]"

// Message represents a conversation message.
type Message struct {
	ID         int64     `json:"id"`
	Content    string    `json:"content"`
	Role       Role      `json:"role"`
	TokenCount int       `json:"tokenCount,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// SendMessageRequest is the body of POST /chat/send.
type SendMessageRequest struct {
	ConversationID int64  `json:"conversationId"`
	Content        string `json:"content"`
	AIRoleID       *int64 `json:"aiRoleId,omitempty"`
	Model          string `json:"model,omitempty"`
}
