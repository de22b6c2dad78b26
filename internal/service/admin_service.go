package service

import (
	"context"
	"errors"

	"github.com/stemsi/dropwatch/internal/model"
	"github.com/stemsi/dropwatch/internal/repository"
	"github.com/stemsi/dropwatch/internal/response"
)

// AdminService handles dashboard user business logic.
type AdminService struct {
	adminRepo *repository.AdminRepository
	roleRepo  *repository.RoleRepository
}

// NewAdminService creates a new AdminService.
func NewAdminService(adminRepo *repository.AdminRepository, roleRepo *repository.RoleRepository) *AdminService {
	return &AdminService{adminRepo: adminRepo, roleRepo: roleRepo}
}

// GetByEmail retrieves an admin by email.
func (s *AdminService) GetByEmail(ctx context.Context, email string) (*model.Admin, error) {
	return s.adminRepo.GetByEmail(ctx, email)
}

// GetByID retrieves an admin by ID.
func (s *AdminService) GetByID(ctx context.Context, id int) (*model.Admin, error) {
	return s.adminRepo.GetByID(ctx, id)
}

// GetPermissions retrieves permission codes for an admin's role.
func (s *AdminService) GetPermissions(ctx context.Context, roleID int) ([]string, error) {
	return s.roleRepo.GetPermissionsByRoleID(ctx, roleID)
}

// Create creates a new admin.
func (s *AdminService) Create(ctx context.Context, admin *model.Admin) error {
	return s.adminRepo.Create(ctx, admin)
}

// SyncRolePermissions registers every known permission code and grants
// all of them to roleID.
func (s *AdminService) SyncRolePermissions(ctx context.Context, roleID int) error {
	if err := s.roleRepo.EnsurePermissions(ctx, model.AllPermissions); err != nil {
		return err
	}
	return s.roleRepo.ReplaceRolePermissions(ctx, roleID, model.AllPermissions)
}

// ErrSelfDelete is returned when an admin tries to remove their own account.
var ErrSelfDelete = errors.New("admins cannot delete their own account")

// ListAdmins retrieves admins with pagination.
func (s *AdminService) ListAdmins(ctx context.Context, page, perPage int) ([]model.Admin, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	admins, total, err := s.adminRepo.ListPaginated(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	if admins == nil {
		admins = []model.Admin{}
	}
	return admins, response.NewPagination(page, perPage, total), nil
}

// Delete removes admin id on behalf of callerID.
func (s *AdminService) Delete(ctx context.Context, id, callerID int) error {
	if id == callerID {
		return ErrSelfDelete
	}
	return s.adminRepo.Delete(ctx, id)
}

// ListRoles retrieves all roles with their permissions.
func (s *AdminService) ListRoles(ctx context.Context) ([]model.RoleWithPermissions, error) {
	return s.roleRepo.ListRolesWithPermissions(ctx)
}
