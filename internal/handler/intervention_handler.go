package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/dropwatch/internal/middleware"
	"github.com/stemsi/dropwatch/internal/model"
	"github.com/stemsi/dropwatch/internal/repository"
	"github.com/stemsi/dropwatch/internal/response"
	"github.com/stemsi/dropwatch/internal/service"
	"github.com/stemsi/dropwatch/internal/validator"
)

// InterventionHandler handles intervention notes attached to students.
type InterventionHandler struct {
	interventionService *service.InterventionService
}

// NewInterventionHandler creates a new InterventionHandler.
func NewInterventionHandler(interventionService *service.InterventionService) *InterventionHandler {
	return &InterventionHandler{interventionService: interventionService}
}

// ListInterventions godoc
// GET /api/v1/admin/students/:id/interventions
func (h *InterventionHandler) ListInterventions(c *gin.Context) {
	studentID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	notes, err := h.interventionService.List(c.Request.Context(), studentID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if notes == nil {
		notes = []model.InterventionNote{}
	}
	response.Success(c, http.StatusOK, gin.H{"interventions": notes})
}

// CreateIntervention godoc
// POST /api/v1/admin/students/:id/interventions
// Records a note authored by the calling admin.
func (h *InterventionHandler) CreateIntervention(c *gin.Context) {
	studentID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.CreateInterventionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	claims := middleware.GetClaims(c)
	note, err := h.interventionService.Create(c.Request.Context(), studentID, claims.AdminID, &req)
	if err != nil {
		if errors.Is(err, repository.ErrStudentNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"intervention": note})
}

// DeleteIntervention godoc
// DELETE /api/v1/admin/interventions/:id
func (h *InterventionHandler) DeleteIntervention(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.interventionService.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrInterventionNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "intervention deleted successfully"})
}
