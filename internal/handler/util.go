package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/capitalize-ai/aichat/internal/middleware"
	"github.com/capitalize-ai/aichat/internal/model"
	"github.com/capitalize-ai/aichat/internal/service"
	"github.com/capitalize-ai/aichat/pkg/logger"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeOK wraps data in a successful envelope.
func writeOK(w http.ResponseWriter, message string, data interface{}) {
	env, err := model.Success(data)
	if err != nil {
		middleware.WriteEnvelope(w, http.StatusInternalServerError, model.Failure(http.StatusInternalServerError, "failed to encode response"))
		return
	}
	if message != "" {
		env.Message = message
	}
	middleware.WriteEnvelope(w, http.StatusOK, env)
}

// writeError reports a business failure: HTTP 200 with the code in the envelope.
func writeError(w http.ResponseWriter, code int, message string) {
	middleware.WriteEnvelope(w, http.StatusOK, model.Failure(code, message))
}

// writeFailure maps a service error onto the envelope. Unknown errors are
// logged and reported as HTTP 500.
func writeFailure(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	var be *service.Error
	if errors.As(err, &be) {
		writeError(w, be.Code, be.Message)
		return
	}
	ctx := r.Context()
	log.WithContext(middleware.GetCorrelationID(ctx), strconv.FormatInt(middleware.GetUserID(ctx), 10)).
		Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	middleware.WriteEnvelope(w, http.StatusInternalServerError,
		model.Failure(http.StatusInternalServerError, "An unexpected error occurred"))
}

// decode reads a JSON request body. It writes the failure itself and reports
// whether the handler may continue.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// pathID parses the {id} URL parameter.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := middleware.ParseID(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return 0, false
	}
	return id, true
}
