package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/dropwatch/internal/model"
)

var ErrInterventionNotFound = errors.New("intervention note not found")

// InterventionRepository handles intervention note data access.
type InterventionRepository struct {
	pool *pgxpool.Pool
}

// NewInterventionRepository creates a new InterventionRepository.
func NewInterventionRepository(pool *pgxpool.Pool) *InterventionRepository {
	return &InterventionRepository{pool: pool}
}

// ListByStudent retrieves a student's notes, newest first.
func (r *InterventionRepository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]model.InterventionNote, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT n.id, n.student_id, COALESCE(n.author_id, 0), COALESCE(a.name, ''), n.kind, n.note, n.follow_up_date, n.created_at
		 FROM intervention_notes n
		 LEFT JOIN admins a ON a.id = n.author_id
		 WHERE n.student_id = $1
		 ORDER BY n.created_at DESC`, studentID,
	)
	if err != nil {
		return nil, err
	}
	notes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.InterventionNote, error) {
		var n model.InterventionNote
		err := row.Scan(&n.ID, &n.StudentID, &n.AuthorID, &n.AuthorName, &n.Kind, &n.Note, &n.FollowUpDate, &n.CreatedAt)
		return n, err
	})
	if notes == nil {
		notes = []model.InterventionNote{}
	}
	return notes, err
}

// Create inserts a note. A missing student surfaces as ErrStudentNotFound.
func (r *InterventionRepository) Create(ctx context.Context, n *model.InterventionNote) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO intervention_notes (student_id, author_id, kind, note, follow_up_date)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		n.StudentID, n.AuthorID, n.Kind, n.Note, n.FollowUpDate,
	).Scan(&n.ID, &n.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return ErrStudentNotFound
	}
	return err
}

// Delete removes a note by ID.
func (r *InterventionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM intervention_notes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInterventionNotFound
	}
	return nil
}
