package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/aichat/internal/llm"
	"github.com/capitalize-ai/aichat/internal/model"
	"github.com/capitalize-ai/aichat/pkg/logger"
	"github.com/capitalize-ai/aichat/pkg/metrics"
)

const (
	defaultSystemPrompt = "You are a helpful assistant."
	maxContextMessages  = 20
	defaultMaxTokens    = 4096
	thinkingMaxTokens   = 16384
)

// ChatService generates assistant replies.
type ChatService struct {
	conversations *ConversationService
	roles         *RoleService
	llmClient     llm.Client
	logger        *logger.Logger
}

// NewChatService creates a new chat service.
func NewChatService(conversations *ConversationService, roles *RoleService, llmClient llm.Client, log *logger.Logger) *ChatService {
	return &ChatService{
		conversations: conversations,
		roles:         roles,
		llmClient:     llmClient,
		logger:        log,
	}
}

// Send stores the user's message, asks the model for a reply and stores the
// reply. Provider failures become an error reply rather than a failed request.
func (s *ChatService) Send(ctx context.Context, userID int64, req model.SendMessageRequest) (model.Message, error) {
	conv, err := s.conversations.Get(ctx, userID, req.ConversationID)
	if err != nil {
		return model.Message{}, err
	}

	prompt, thinking := splitThinking(req.Content)

	history := conv.Messages
	if len(history) > maxContextMessages {
		history = history[len(history)-maxContextMessages:]
	}
	turns := make([]llm.ChatMessage, 0, len(history)+1)
	for _, msg := range history {
		content, _ := splitThinking(msg.Content)
		turns = append(turns, llm.ChatMessage{Role: string(msg.Role), Content: content})
	}
	turns = append(turns, llm.ChatMessage{Role: string(model.RoleUser), Content: prompt})

	modelName := req.Model
	if modelName == "" {
		modelName = conv.SelectedModel
	}
	maxTokens := defaultMaxTokens
	if thinking {
		maxTokens = thinkingMaxTokens
	}

	reply := model.Message{Role: model.RoleAssistant}
	resp, err := s.llmClient.Complete(ctx, &llm.CompletionRequest{
		Model:        modelName,
		SystemPrompt: s.systemPrompt(userID, conv, req.AIRoleID),
		Messages:     turns,
		MaxTokens:    maxTokens,
	})
	if err != nil {
		metrics.RecordLLMCompletion(s.llmClient.Name(), "error", 0, 0, 0)
		s.logger.Error("llm completion failed",
			zap.Int64("conversation_id", conv.ID),
			zap.String("provider", s.llmClient.Name()),
			zap.Error(err),
		)
		reply.Content = "[Error] Failed to get AI response: " + err.Error()
	} else {
		metrics.RecordLLMCompletion(s.llmClient.Name(), "success",
			(time.Duration(resp.LatencyMs) * time.Millisecond).Seconds(), resp.TokensIn, resp.TokensOut)
		reply.Content = resp.Content
		reply.TokenCount = resp.TokensOut
	}

	user := model.Message{Role: model.RoleUser, Content: req.Content}
	return s.conversations.appendExchange(ctx, userID, conv.ID, prompt, user, reply)
}

func (s *ChatService) systemPrompt(userID int64, conv model.Conversation, override *int64) string {
	roleID := conv.RoleID()
	if override != nil {
		roleID = *override
	}
	if roleID != 0 {
		if role, ok := s.roles.Visible(userID, roleID); ok && role.SystemPrompt != "" {
			return role.SystemPrompt
		}
	}
	return defaultSystemPrompt
}

// splitThinking strips the reasoning-mode marker and the newline that follows it.
func splitThinking(content string) (string, bool) {
	rest, ok := strings.CutPrefix(content, model.ThinkingModeMarker)
	if !ok {
		return content, false
	}
	return strings.TrimPrefix(rest, "\n"), true
}
