package handler

import (
	"net/http"

	"github.com/capitalize-ai/aichat/internal/middleware"
	"github.com/capitalize-ai/aichat/internal/model"
	"github.com/capitalize-ai/aichat/internal/service"
	"github.com/capitalize-ai/aichat/pkg/logger"
)

// AuthHandler handles account endpoints.
type AuthHandler struct {
	users  *service.UserService
	issuer *middleware.TokenIssuer
	logger *logger.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(users *service.UserService, issuer *middleware.TokenIssuer, log *logger.Logger) *AuthHandler {
	return &AuthHandler{users: users, issuer: issuer, logger: log}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if !decode(w, r, &req) {
		return
	}

	user, err := h.users.Register(r.Context(), req)
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}

	writeOK(w, "Registration successful", user)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decode(w, r, &req) {
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}

	token, err := h.issuer.Issue(user)
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}

	writeOK(w, "Login successful", model.LoginResponse{Token: token, User: user})
}

// Profile handles GET /api/auth/profile
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	writeOK(w, "", user)
}

// UpdateProfile handles PUT /api/auth/profile
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateProfileRequest
	if !decode(w, r, &req) {
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	writeOK(w, "Profile updated", user)
}

// ChangePassword handles POST /api/auth/change-password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req model.ChangePasswordRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.users.ChangePassword(r.Context(), middleware.GetUserID(r.Context()), req); err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	writeOK(w, "Password changed", nil)
}
