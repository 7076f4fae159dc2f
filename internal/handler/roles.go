package handler

import (
	"net/http"

	"github.com/capitalize-ai/aichat/internal/middleware"
	"github.com/capitalize-ai/aichat/internal/model"
	"github.com/capitalize-ai/aichat/internal/service"
	"github.com/capitalize-ai/aichat/pkg/logger"
)

// RoleHandler handles AI role endpoints.
type RoleHandler struct {
	roles  *service.RoleService
	logger *logger.Logger
}

// NewRoleHandler creates a new role handler.
func NewRoleHandler(roles *service.RoleService, log *logger.Logger) *RoleHandler {
	return &RoleHandler{roles: roles, logger: log}
}

// Create handles POST /api/roles
func (h *RoleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.RoleRequest
	if !decode(w, r, &req) {
		return
	}
	role, err := h.roles.Create(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	writeOK(w, "Role created", role)
}

// Mine handles GET /api/roles/mine
func (h *RoleHandler) Mine(w http.ResponseWriter, r *http.Request) {
	writeOK(w, "", h.roles.Mine(r.Context(), middleware.GetUserID(r.Context())))
}

// Public handles GET /api/roles/public
func (h *RoleHandler) Public(w http.ResponseWriter, r *http.Request) {
	writeOK(w, "", h.roles.Public(r.Context()))
}

// Update handles PUT /api/roles/{id}
func (h *RoleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req model.RoleRequest
	if !decode(w, r, &req) {
		return
	}
	role, err := h.roles.Update(r.Context(), middleware.GetUserID(r.Context()), id, req)
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	writeOK(w, "Role updated", role)
}

// Delete handles DELETE /api/roles/{id}
func (h *RoleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.roles.Delete(r.Context(), middleware.GetUserID(r.Context()), id); err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	writeOK(w, "Role deleted", nil)
}
