package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/dropwatch/internal/model"
)

var (
	ErrAdminNotFound  = errors.New("admin not found")
	ErrDuplicateAdmin = errors.New("admin with this email already exists")
	ErrRoleNotFound   = errors.New("role not found")
)

const adminSelect = `SELECT a.id, a.email, a.name, a.password_hash, a.role_id, r.name, a.created_at, a.updated_at
	FROM admins a JOIN roles r ON a.role_id = r.id`

// AdminRepository handles dashboard user data access.
type AdminRepository struct {
	pool *pgxpool.Pool
}

// NewAdminRepository creates a new AdminRepository.
func NewAdminRepository(pool *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{pool: pool}
}

func (r *AdminRepository) scanOne(ctx context.Context, where string, arg interface{}) (*model.Admin, error) {
	a := &model.Admin{}
	err := r.pool.QueryRow(ctx, adminSelect+` WHERE `+where, arg).
		Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.RoleID, &a.RoleName, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAdminNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetByID retrieves an admin by ID.
func (r *AdminRepository) GetByID(ctx context.Context, id int) (*model.Admin, error) {
	return r.scanOne(ctx, `a.id = $1`, id)
}

// GetByEmail retrieves an admin by their unique email (case-insensitive).
func (r *AdminRepository) GetByEmail(ctx context.Context, email string) (*model.Admin, error) {
	return r.scanOne(ctx, `lower(a.email) = lower($1)`, email)
}

// Create inserts a new admin.
func (r *AdminRepository) Create(ctx context.Context, a *model.Admin) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO admins (email, name, password_hash, role_id)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		a.Email, a.Name, a.PasswordHash, a.RoleID,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrDuplicateAdmin
		case "23503":
			return ErrRoleNotFound
		}
	}
	return err
}

// ListPaginated retrieves admins, newest first, without password hashes.
func (r *AdminRepository) ListPaginated(ctx context.Context, limit, offset int) ([]model.Admin, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM admins`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		adminSelect+` ORDER BY a.created_at DESC, a.id DESC LIMIT $1 OFFSET $2`, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	admins, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Admin, error) {
		var a model.Admin
		err := row.Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.RoleID, &a.RoleName, &a.CreatedAt, &a.UpdatedAt)
		a.PasswordHash = ""
		return a, err
	})
	return admins, total, err
}

// Delete removes an admin. Notes they authored are kept without an author.
func (r *AdminRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM admins WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAdminNotFound
	}
	return nil
}
