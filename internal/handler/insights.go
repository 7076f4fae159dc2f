package handler

import (
	"net/http"

	"github.com/capitalize-ai/aichat/internal/middleware"
	"github.com/capitalize-ai/aichat/internal/service"
)

// InsightsHandler serves the model catalog and usage statistics.
type InsightsHandler struct {
	models *service.ModelCatalog
	stats  *service.StatisticsService
}

func NewInsightsHandler(models *service.ModelCatalog, stats *service.StatisticsService) *InsightsHandler {
	return &InsightsHandler{models: models, stats: stats}
}

// Models handles GET /api/ai-models
func (h *InsightsHandler) Models(w http.ResponseWriter, r *http.Request) {
	writeOK(w, "", h.models.List(r.Context()))
}

// Statistics handles GET /api/statistics
func (h *InsightsHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	writeOK(w, "", h.stats.Get(r.Context(), middleware.GetUserID(r.Context())))
}
