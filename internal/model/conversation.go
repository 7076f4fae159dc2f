// Package model defines data structures shared by the chat client and backend.
package model

import (
	"time"
)

// DefaultConversationTitle is assigned when a conversation is created without a title.
const DefaultConversationTitle = "New Chat"

// Conversation represents a conversation thread.
type Conversation struct {
	ID                int64      `json:"id"`
	Title             string     `json:"title"`
	AIRoleID          *int64     `json:"aiRoleId,omitempty"`
	AIRoleName        string     `json:"aiRoleName,omitempty"`
	AIRoleDescription string     `json:"aiRoleDescription,omitempty"`
	SelectedModel     string     `json:"selectedModel,omitempty"`
	Messages          []Message  `json:"messages"`
	CreatedAt         time.Time  `json:"createdAt"`
	LastMessageAt     *time.Time `json:"lastMessageAt,omitempty"`
	DeletedAt         *time.Time `json:"deletedAt,omitempty"`
}

// Recycled reports whether the conversation sits in the recycle bin.
func (c *Conversation) Recycled() bool {
	return c.DeletedAt != nil
}

// RoleID returns the AI role id or zero when none is attached.
func (c *Conversation) RoleID() int64 {
	if c.AIRoleID == nil {
		return 0
	}
	return *c.AIRoleID
}

// CreateConversationRequest is the request to create a new conversation.
type CreateConversationRequest struct {
	Title         string `json:"title"`
	AIRoleID      *int64 `json:"aiRoleId,omitempty"`
	SelectedModel string `json:"selectedModel,omitempty"`
}

// UpdateModelRequest changes the model bound to a conversation.
type UpdateModelRequest struct {
	SelectedModel string `json:"selectedModel"`
}
