package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stemsi/dropwatch/internal/model"
	"github.com/stemsi/dropwatch/internal/repository"
	"github.com/stemsi/dropwatch/internal/response"
	"github.com/stemsi/dropwatch/internal/risk"
	"github.com/stemsi/dropwatch/internal/service"
	"github.com/stemsi/dropwatch/internal/validator"
)

// StudentHandler handles admin-facing student management.
type StudentHandler struct {
	studentService *service.StudentService
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(studentService *service.StudentService) *StudentHandler {
	return &StudentHandler{studentService: studentService}
}

type studentListQuery struct {
	Page       int    `form:"page"`
	PerPage    int    `form:"per_page"`
	RiskLevel  string `form:"risk_level" binding:"omitempty,risklevel"`
	Department string `form:"department" binding:"max=100"`
	Search     string `form:"search" binding:"max=100"`
	Unscored   bool   `form:"unscored"`
}

// ListStudents godoc
// GET /api/v1/admin/students
// Lists students riskiest first, filtered by risk_level, department,
// unscored and a free-text search over name, email and student_id.
func (h *StudentHandler) ListStudents(c *gin.Context) {
	q := studentListQuery{Page: 1, PerPage: 10}
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	filter := model.StudentFilter{Department: q.Department, Search: q.Search, Unscored: q.Unscored}
	if q.RiskLevel != "" {
		level := risk.Level(q.RiskLevel)
		filter.RiskLevel = &level
	}

	students, pagination, err := h.studentService.ListStudents(c.Request.Context(), filter, q.Page, q.PerPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"students": students}, pagination)
}

// GetStudent godoc
// GET /api/v1/admin/students/:id
func (h *StudentHandler) GetStudent(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	student, err := h.studentService.GetByID(c.Request.Context(), id)
	if err != nil {
		failStudentErr(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"student": student})
}

// CreateStudent godoc
// POST /api/v1/admin/students
// Creates a new, unscored student.
func (h *StudentHandler) CreateStudent(c *gin.Context) {
	var req model.CreateStudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, err := h.studentService.Create(c.Request.Context(), &req)
	if err != nil {
		failStudentErr(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"student": student})
}

// UpdateStudent godoc
// PUT /api/v1/admin/students/:id
// Replaces a student's attributes. Whether the stored prediction survives
// depends on SCORE_EDIT_POLICY.
func (h *StudentHandler) UpdateStudent(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.UpdateStudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, err := h.studentService.Update(c.Request.Context(), id, &req)
	if err != nil {
		failStudentErr(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"student": student})
}

// DeleteStudent godoc
// DELETE /api/v1/admin/students/:id
func (h *StudentHandler) DeleteStudent(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.studentService.Delete(c.Request.Context(), id); err != nil {
		failStudentErr(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "student deleted successfully"})
}

// PreviewRisk godoc
// GET /api/v1/admin/students/:id/risk
// Computes the student's assessment from current attributes without saving it.
func (h *StudentHandler) PreviewRisk(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	preview, err := h.studentService.PreviewRisk(c.Request.Context(), id)
	if err != nil {
		failStudentErr(c, err)
		return
	}
	response.Success(c, http.StatusOK, preview)
}

func failStudentErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrStudentNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, repository.ErrDuplicateStudent):
		response.FailWithMessage(c, http.StatusConflict, response.ErrConflict, "A student with this student ID or email already exists.")
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// parseUUIDParam parses a path parameter, writing a 400 when it is not a UUID.
func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}
