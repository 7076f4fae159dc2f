package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/capitalize-ai/aichat/internal/model"
)

const exportTimeLayout = "2006-01-02 15:04:05"

// Export renders a conversation in the requested format.
func (s *ConversationService) Export(ctx context.Context, userID, id int64, format model.ExportFormat) ([]byte, error) {
	if !format.Valid() {
		return nil, Invalid(fmt.Sprintf("unsupported export format %q", format))
	}
	conv, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return Render(conv, format)
}

// ExportFilename is the attachment name of an exported conversation.
func ExportFilename(id int64, format model.ExportFormat) string {
	ext := "txt"
	switch format {
	case model.ExportJSON:
		ext = "json"
	case model.ExportMarkdown:
		ext = "md"
	}
	return fmt.Sprintf("conversation_%d.%s", id, ext)
}

// ExportContentType is the media type of an exported conversation.
func ExportContentType(format model.ExportFormat) string {
	switch format {
	case model.ExportJSON:
		return "application/json"
	case model.ExportMarkdown:
		return "text/markdown; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Render formats a conversation and its messages.
func Render(conv model.Conversation, format model.ExportFormat) ([]byte, error) {
	switch format {
	case model.ExportText:
		return renderText(conv), nil
	case model.ExportJSON:
		return renderJSON(conv)
	case model.ExportMarkdown:
		return renderMarkdown(conv), nil
	}
	return nil, Invalid(fmt.Sprintf("unsupported export format %q", format))
}

func roleName(conv model.Conversation) string {
	if conv.AIRoleName == "" {
		return "None"
	}
	return conv.AIRoleName
}

func renderText(conv model.Conversation) []byte {
	var b bytes.Buffer
	rule := strings.Repeat("=", 36)
	fmt.Fprintf(&b, "%s\nConversation Export\n%s\n\n", rule, rule)
	fmt.Fprintf(&b, "Title: %s\n", conv.Title)
	fmt.Fprintf(&b, "AI Role: %s\n", roleName(conv))
	fmt.Fprintf(&b, "Created: %s\n", conv.CreatedAt.Format(exportTimeLayout))
	fmt.Fprintf(&b, "Messages: %d\n", len(conv.Messages))
	fmt.Fprintf(&b, "\n%s\n\n", rule)

	for _, msg := range conv.Messages {
		fmt.Fprintf(&b, "[%s] %s:\n", msg.CreatedAt.Format(exportTimeLayout), strings.ToUpper(string(msg.Role)))
		fmt.Fprintf(&b, "%s\n\n---\n\n", msg.Content)
	}
	return b.Bytes()
}

type exportedMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

type exportedConversation struct {
	ConversationID int64             `json:"conversationId"`
	Title          string            `json:"title"`
	AIRole         string            `json:"aiRole"`
	Model          string            `json:"model,omitempty"`
	CreatedAt      string            `json:"createdAt"`
	Messages       []exportedMessage `json:"messages"`
}

func renderJSON(conv model.Conversation) ([]byte, error) {
	out := exportedConversation{
		ConversationID: conv.ID,
		Title:          conv.Title,
		AIRole:         roleName(conv),
		Model:          conv.SelectedModel,
		CreatedAt:      conv.CreatedAt.Format(exportTimeLayout),
		Messages:       make([]exportedMessage, 0, len(conv.Messages)),
	}
	for _, msg := range conv.Messages {
		out.Messages = append(out.Messages, exportedMessage{
			Role:      string(msg.Role),
			Content:   msg.Content,
			Timestamp: msg.CreatedAt.Format(exportTimeLayout),
		})
	}
	return json.MarshalIndent(out, "", "  ")
}

func renderMarkdown(conv model.Conversation) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "# %s\n\n", conv.Title)
	fmt.Fprintf(&b, "**AI Role:** %s\n\n", roleName(conv))
	fmt.Fprintf(&b, "**Created:** %s\n\n", conv.CreatedAt.Format(exportTimeLayout))
	fmt.Fprintf(&b, "**Messages:** %d\n\n---\n\n", len(conv.Messages))

	for _, msg := range conv.Messages {
		switch msg.Role {
		case model.RoleUser:
			b.WriteString("### User\n")
		case model.RoleAssistant:
			b.WriteString("### Assistant\n")
		default:
			b.WriteString("### System\n")
		}
		fmt.Fprintf(&b, "*%s*\n\n%s\n\n", msg.CreatedAt.Format(exportTimeLayout), msg.Content)
	}
	return b.Bytes()
}
