package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/dropwatch/internal/response"
	"github.com/stemsi/dropwatch/internal/service"
)

// DashboardSource builds the dashboard payload, from cache or the store.
type DashboardSource interface {
	GetDashboardData(ctx context.Context) (*service.DashboardData, error)
}

// DashboardHandler serves the risk overview for counselors.
type DashboardHandler struct {
	source DashboardSource
	log    zerolog.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(source DashboardSource, log zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{source: source, log: log.With().Str("component", "dashboard_handler").Logger()}
}

// GetDashboardData godoc
// GET /api/v1/admin/dashboard
//
// data holds:
//   - total_students, scored_students, unscored_students
//   - average_risk_score (null until a student is scored)
//   - level_distribution: counts keyed by low, medium and high
//   - departments: per-department counts and averages, riskiest first
//   - top_at_risk: the highest scored students
//   - generated_at: when the figures were computed; cached copies keep it
func (h *DashboardHandler) GetDashboardData(c *gin.Context) {
	data, err := h.source.GetDashboardData(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build dashboard")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, data)
}
