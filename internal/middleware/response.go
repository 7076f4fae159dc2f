package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/capitalize-ai/aichat/internal/model"
)

// WriteEnvelope writes env as the JSON response body.
func WriteEnvelope(w http.ResponseWriter, status int, env *model.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(env)
}
