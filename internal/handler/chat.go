package handler

import (
	"net/http"

	"github.com/capitalize-ai/aichat/internal/middleware"
	"github.com/capitalize-ai/aichat/internal/model"
	"github.com/capitalize-ai/aichat/internal/service"
	"github.com/capitalize-ai/aichat/pkg/logger"
)

// ChatHandler handles message sending.
type ChatHandler struct {
	chat   *service.ChatService
	logger *logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(chat *service.ChatService, log *logger.Logger) *ChatHandler {
	return &ChatHandler{chat: chat, logger: log}
}

// Send handles POST /api/chat/send
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.SendMessageRequest
	if !decode(w, r, &req) {
		return
	}
	if err := middleware.ValidateMessageContent(req.Content); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ConversationID <= 0 {
		writeError(w, http.StatusBadRequest, "conversationId is required")
		return
	}

	reply, err := h.chat.Send(ctx, middleware.GetUserID(ctx), req)
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}

	writeOK(w, "", reply)
}
