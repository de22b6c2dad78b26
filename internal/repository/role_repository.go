package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/dropwatch/internal/model"
)

// RoleRepository handles role and permission data access.
type RoleRepository struct {
	pool *pgxpool.Pool
}

// NewRoleRepository creates a new RoleRepository.
func NewRoleRepository(pool *pgxpool.Pool) *RoleRepository {
	return &RoleRepository{pool: pool}
}

// GetPermissionsByRoleID retrieves all permission codes for a given role.
func (r *RoleRepository) GetPermissionsByRoleID(ctx context.Context, roleID int) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.code
		 FROM permissions p
		 JOIN role_permissions rp ON p.id = rp.permission_id
		 WHERE rp.role_id = $1
		 ORDER BY p.code`, roleID,
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// EnsurePermissions inserts any permission codes missing from the table.
func (r *RoleRepository) EnsurePermissions(ctx context.Context, codes []model.Permission) error {
	raw := make([]string, len(codes))
	for i, c := range codes {
		raw[i] = string(c)
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO permissions (code) SELECT unnest($1::text[]) ON CONFLICT (code) DO NOTHING`, raw,
	)
	return err
}

// ReplaceRolePermissions grants exactly the given permission codes to a
// role, in one transaction.
func (r *RoleRepository) ReplaceRolePermissions(ctx context.Context, roleID int, codes []model.Permission) error {
	raw := make([]string, len(codes))
	for i, c := range codes {
		raw[i] = string(c)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
		return err
	}

	rows, err := tx.Query(ctx, `SELECT id FROM permissions WHERE code = ANY($1)`, raw)
	if err != nil {
		return err
	}
	permissionIDs, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return err
	}

	if len(permissionIDs) > 0 {
		_, err = tx.CopyFrom(
			ctx,
			pgx.Identifier{"role_permissions"},
			[]string{"role_id", "permission_id"},
			pgx.CopyFromSlice(len(permissionIDs), func(i int) ([]interface{}, error) {
				return []interface{}{roleID, permissionIDs[i]}, nil
			}),
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// ListRolesWithPermissions retrieves every role and its permission codes.
func (r *RoleRepository) ListRolesWithPermissions(ctx context.Context) ([]model.RoleWithPermissions, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT r.id, r.name,
		        COALESCE(array_agg(p.code ORDER BY p.code) FILTER (WHERE p.code IS NOT NULL), '{}')
		 FROM roles r
		 LEFT JOIN role_permissions rp ON rp.role_id = r.id
		 LEFT JOIN permissions p ON p.id = rp.permission_id
		 GROUP BY r.id, r.name
		 ORDER BY r.id`,
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[model.RoleWithPermissions])
}
