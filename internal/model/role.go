package model

import "time"

// AIRole is a reusable system-prompt preset.
type AIRole struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	SystemPrompt string    `json:"systemPrompt,omitempty"`
	Model        string    `json:"model,omitempty"`
	IsPublic     bool      `json:"isPublic"`
	CreatedAt    time.Time `json:"createdAt"`
}

// RoleRequest is the body for creating or updating an AI role.
type RoleRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	SystemPrompt string `json:"systemPrompt,omitempty"`
	Model        string `json:"model,omitempty"`
	IsPublic     bool   `json:"isPublic"`
}

// AIModel describes a model the backend can route to.
type AIModel struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Available bool   `json:"available"`
}

// Statistics summarizes a user's usage.
type Statistics struct {
	TotalConversations   int `json:"totalConversations"`
	TotalMessages        int `json:"totalMessages"`
	DeletedConversations int `json:"deletedConversations"`
	TotalRoles           int `json:"totalRoles"`
}

// ExportFormat selects the rendering of an exported conversation.
type ExportFormat string

const (
	ExportText     ExportFormat = "text"
	ExportJSON     ExportFormat = "json"
	ExportMarkdown ExportFormat = "markdown"
)

// Valid reports whether f is a supported export format.
func (f ExportFormat) Valid() bool {
	switch f {
	case ExportText, ExportJSON, ExportMarkdown:
		return true
	}
	return false
}
