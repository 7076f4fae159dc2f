// Package handler provides HTTP handlers for the chat backend.
package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/capitalize-ai/aichat/internal/middleware"
	"github.com/capitalize-ai/aichat/internal/model"
	"github.com/capitalize-ai/aichat/internal/service"
	"github.com/capitalize-ai/aichat/pkg/logger"
)

// ConversationHandler handles conversation endpoints.
type ConversationHandler struct {
	service *service.ConversationService
	logger  *logger.Logger
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(svc *service.ConversationService, log *logger.Logger) *ConversationHandler {
	return &ConversationHandler{
		service: svc,
		logger:  log,
	}
}

// Create handles POST /api/conversations
func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.CreateConversationRequest
	if !decode(w, r, &req) {
		return
	}
	if err := middleware.ValidateTitle(req.Title); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conv, err := h.service.Create(ctx, middleware.GetUserID(ctx), req)
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}

	writeOK(w, "Conversation created", conv)
}

// List handles GET /api/conversations
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	writeOK(w, "", h.service.List(ctx, middleware.GetUserID(ctx)))
}

// ListDeleted handles GET /api/conversations/deleted
func (h *ConversationHandler) ListDeleted(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	writeOK(w, "", h.service.ListDeleted(ctx, middleware.GetUserID(ctx)))
}

// Get handles GET /api/conversations/{id}
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	conv, err := h.service.Get(ctx, middleware.GetUserID(ctx), id)
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}

	writeOK(w, "", conv)
}

// Delete handles DELETE /api/conversations/{id}?permanent=bool
func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	permanent := false
	if raw := r.URL.Query().Get("permanent"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid permanent flag")
			return
		}
		permanent = parsed
	}

	if err := h.service.Delete(ctx, middleware.GetUserID(ctx), id, permanent); err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}

	message := "Conversation moved to recycle bin"
	if permanent {
		message = "Conversation permanently deleted"
	}
	writeOK(w, message, nil)
}

// Restore handles POST /api/conversations/{id}/restore
func (h *ConversationHandler) Restore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Restore(ctx, middleware.GetUserID(ctx), id); err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}

	writeOK(w, "Conversation restored", nil)
}

// EmptyRecycleBin handles DELETE /api/conversations/recycle-bin/empty
func (h *ConversationHandler) EmptyRecycleBin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.service.EmptyRecycleBin(ctx, middleware.GetUserID(ctx))
	writeOK(w, "Recycle bin emptied", nil)
}

// UpdateModel handles PUT /api/conversations/{id}/model
func (h *ConversationHandler) UpdateModel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req model.UpdateModelRequest
	if !decode(w, r, &req) {
		return
	}

	conv, err := h.service.UpdateModel(ctx, middleware.GetUserID(ctx), id, req.SelectedModel)
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}

	writeOK(w, "Model updated", conv)
}

// Export handles GET /api/export/conversation/{id}/{format}. The body is the
// rendered document, not an envelope.
func (h *ConversationHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	format := model.ExportFormat(chi.URLParam(r, "format"))

	body, err := h.service.Export(ctx, middleware.GetUserID(ctx), id, format)
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", service.ExportContentType(format))
	w.Header().Set("Content-Disposition", `attachment; filename="`+service.ExportFilename(id, format)+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
