package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/dropwatch/internal/middleware"
	"github.com/stemsi/dropwatch/internal/model"
	"github.com/stemsi/dropwatch/internal/repository"
	"github.com/stemsi/dropwatch/internal/response"
	"github.com/stemsi/dropwatch/internal/service"
	"github.com/stemsi/dropwatch/internal/validator"
)

// AdminUserHandler handles dashboard admin management.
type AdminUserHandler struct {
	adminService *service.AdminService
	authService  *service.AuthService
}

// NewAdminUserHandler creates a new AdminUserHandler.
func NewAdminUserHandler(adminService *service.AdminService, authService *service.AuthService) *AdminUserHandler {
	return &AdminUserHandler{adminService: adminService, authService: authService}
}

// ListAdmins godoc
// GET /api/v1/admin/users?page=1&per_page=20
func (h *AdminUserHandler) ListAdmins(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	admins, pagination, err := h.adminService.ListAdmins(c.Request.Context(), page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"admins": admins}, pagination)
}

// CreateAdmin godoc
// POST /api/v1/admin/users
func (h *AdminUserHandler) CreateAdmin(c *gin.Context) {
	var req model.CreateAdminRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	hash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	admin := &model.Admin{Email: req.Email, Name: req.Name, PasswordHash: hash, RoleID: req.RoleID}
	if err := h.adminService.Create(c.Request.Context(), admin); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateAdmin):
			response.FailWithMessage(c, http.StatusConflict, response.ErrConflict, "An admin with this email already exists.")
		case errors.Is(err, repository.ErrRoleNotFound):
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{"role_id": "role_id does not exist"})
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}
	admin.PasswordHash = ""

	response.Success(c, http.StatusCreated, gin.H{"admin": admin})
}

// DeleteAdmin godoc
// DELETE /api/v1/admin/users/:id
func (h *AdminUserHandler) DeleteAdmin(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	claims := middleware.GetClaims(c)
	if err := h.adminService.Delete(c.Request.Context(), id, claims.AdminID); err != nil {
		switch {
		case errors.Is(err, service.ErrSelfDelete):
			response.FailWithMessage(c, http.StatusBadRequest, response.ErrForbidden, "You cannot delete your own account.")
		case errors.Is(err, repository.ErrAdminNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "admin deleted successfully"})
}

// ListRoles godoc
// GET /api/v1/admin/roles
// Lists roles and their permissions for the admin creation form.
func (h *AdminUserHandler) ListRoles(c *gin.Context) {
	roles, err := h.adminService.ListRoles(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"roles": roles})
}
