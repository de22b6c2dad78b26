package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/dropwatch/internal/model"
)

var (
	ErrDuplicateStudent = errors.New("student with this student_id or email already exists")
	ErrStudentNotFound  = errors.New("student not found")
)

const studentColumns = `id, student_id, name, email, phone, gender, date_of_birth, department, semester,
	attendance_percentage, cgpa, sgpa, fee_default, scholarship, disciplinary_actions,
	extracurricular_activities, family_income, distance_from_home, hostel_accommodation,
	previous_education_gap, risk_score, risk_level, prediction_factors, predicted_at,
	created_at, updated_at`

// StudentRepository is the PostgreSQL-backed student record store.
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

func scanStudent(row pgx.Row) (*model.Student, error) {
	s := &model.Student{}
	err := row.Scan(
		&s.ID, &s.StudentID, &s.Name, &s.Email, &s.Phone, &s.Gender, &s.DateOfBirth, &s.Department, &s.Semester,
		&s.AttendancePercentage, &s.CGPA, &s.SGPA, &s.FeeDefault, &s.Scholarship, &s.DisciplinaryActions,
		&s.ExtracurricularActivities, &s.FamilyIncome, &s.DistanceFromHome, &s.HostelAccommodation,
		&s.PreviousEducationGap, &s.RiskScore, &s.RiskLevel, &s.PredictionFactors, &s.PredictedAt,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func collectStudents(rows pgx.Rows) ([]model.Student, error) {
	defer rows.Close()

	var students []model.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, *s)
	}
	return students, rows.Err()
}

// GetByID retrieves a student by ID.
func (r *StudentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Student, error) {
	s, err := scanStudent(r.pool.QueryRow(ctx,
		`SELECT `+studentColumns+` FROM students WHERE id = $1`, id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrStudentNotFound
	}
	return s, err
}

// ListPaginated retrieves students matching the filter, highest risk first.
func (r *StudentRepository) ListPaginated(ctx context.Context, f model.StudentFilter, limit, offset int) ([]model.Student, int, error) {
	var (
		conds []string
		args  []interface{}
	)
	if f.RiskLevel != nil {
		args = append(args, string(*f.RiskLevel))
		conds = append(conds, `risk_level = $`+strconv.Itoa(len(args)))
	}
	if f.Department != "" {
		args = append(args, f.Department)
		conds = append(conds, `department = $`+strconv.Itoa(len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := strconv.Itoa(len(args))
		conds = append(conds, `(name ILIKE $`+n+` OR email ILIKE $`+n+` OR student_id ILIKE $`+n+`)`)
	}
	if f.Unscored {
		conds = append(conds, `risk_score IS NULL`)
	}

	where := ""
	if len(conds) > 0 {
		where = ` WHERE ` + strings.Join(conds, ` AND `)
	}

	// 1. Get total count
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM students`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	// 2. Get paginated data
	query := `SELECT ` + studentColumns + ` FROM students` + where +
		` ORDER BY risk_score DESC NULLS LAST, name` +
		` LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	students, err := collectStudents(rows)
	return students, total, err
}

// Create inserts a new, unscored student.
func (r *StudentRepository) Create(ctx context.Context, s *model.Student) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO students (student_id, name, email, phone, gender, date_of_birth, department, semester,
			attendance_percentage, cgpa, sgpa, fee_default, scholarship, disciplinary_actions,
			extracurricular_activities, family_income, distance_from_home, hostel_accommodation,
			previous_education_gap)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		 RETURNING id, created_at, updated_at`,
		insertArgs(s)...,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	return mapWriteErr(err)
}

const insertIgnoringConflictsSQL = `INSERT INTO students (student_id, name, email, phone, gender, date_of_birth, department, semester,
		attendance_percentage, cgpa, sgpa, fee_default, scholarship, disciplinary_actions,
		extracurricular_activities, family_income, distance_from_home, hostel_accommodation,
		previous_education_gap)
	 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	 ON CONFLICT DO NOTHING`

// CreateMany inserts a chunk of students. Rows clashing with an existing
// student_id or email are counted as duplicates.
//
// The chunk is first sent as one batch in a transaction. If a row breaks
// a constraint the batch rolls back and the chunk is inserted row by row,
// so only the offending rows are rejected. A connection-level error stops
// the chunk and is returned together with the progress made so far.
func (r *StudentRepository) CreateMany(ctx context.Context, students []model.Student) (*model.BulkInsertResult, error) {
	res := &model.BulkInsertResult{}
	if len(students) == 0 {
		return res, nil
	}

	inserted, err := r.insertBatch(ctx, students)
	if err == nil {
		res.Inserted = inserted
		res.Duplicates = len(students) - inserted
		return res, nil
	}
	if !isRowError(err) {
		return res, err
	}

	for i := range students {
		tag, err := r.pool.Exec(ctx, insertIgnoringConflictsSQL, insertArgs(&students[i])...)
		switch {
		case err == nil && tag.RowsAffected() == 0:
			res.Duplicates++
		case err == nil:
			res.Inserted++
		case isRowError(err):
			res.Rejected = append(res.Rejected, model.RowRejection{Index: i, Reason: rowErrorReason(err)})
		default:
			return res, err
		}
	}
	return res, nil
}

func (r *StudentRepository) insertBatch(ctx context.Context, students []model.Student) (int, error) {
	batch := &pgx.Batch{}
	for i := range students {
		batch.Queue(insertIgnoringConflictsSQL, insertArgs(&students[i])...)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	results := tx.SendBatch(ctx, batch)
	inserted := 0
	for range students {
		tag, err := results.Exec()
		if err != nil {
			_ = results.Close()
			return 0, err
		}
		inserted += int(tag.RowsAffected())
	}
	if err := results.Close(); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return inserted, nil
}

// isRowError reports errors caused by the row's own data: SQLSTATE
// class 22 (data exception) or 23 (integrity constraint violation).
func isRowError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return strings.HasPrefix(pgErr.Code, "22") || strings.HasPrefix(pgErr.Code, "23")
}

func rowErrorReason(err error) string {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err.Error()
	}
	if pgErr.ConstraintName != "" {
		return pgErr.Message + " (" + pgErr.ConstraintName + ")"
	}
	return pgErr.Message
}

// Update replaces a student's raw attributes. When clearPrediction is set
// the stored score, level and factors are nulled in the same statement.
func (r *StudentRepository) Update(ctx context.Context, s *model.Student, clearPrediction bool) error {
	query := `UPDATE students SET student_id = $1, name = $2, email = $3, phone = $4, gender = $5,
			date_of_birth = $6, department = $7, semester = $8, attendance_percentage = $9, cgpa = $10,
			sgpa = $11, fee_default = $12, scholarship = $13, disciplinary_actions = $14,
			extracurricular_activities = $15, family_income = $16, distance_from_home = $17,
			hostel_accommodation = $18, previous_education_gap = $19, updated_at = CURRENT_TIMESTAMP`
	if clearPrediction {
		query += `, risk_score = NULL, risk_level = NULL, prediction_factors = NULL, predicted_at = NULL`
	}
	query += ` WHERE id = $20`

	tag, err := r.pool.Exec(ctx, query, append(insertArgs(s), s.ID)...)
	if err != nil {
		return mapWriteErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStudentNotFound
	}
	return nil
}

// Delete removes a student by ID.
func (r *StudentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStudentNotFound
	}
	return nil
}

// ─── Prediction store ─────────────────────────────────────────────────

// ListUnscored selects every student whose risk score is null.
func (r *StudentRepository) ListUnscored(ctx context.Context) ([]model.Student, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+studentColumns+` FROM students WHERE risk_score IS NULL ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, err
	}
	return collectStudents(rows)
}

// CountUnscored counts students whose risk score is null.
func (r *StudentRepository) CountUnscored(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM students WHERE risk_score IS NULL`).Scan(&n)
	return n, err
}

// ListByIDs selects the students with the given IDs. Unknown IDs are ignored.
func (r *StudentRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Student, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+studentColumns+` FROM students WHERE id = ANY($1) ORDER BY created_at, id`, ids,
	)
	if err != nil {
		return nil, err
	}
	return collectStudents(rows)
}

// UpdatePredictions writes one batch of scores with a single UNNEST update.
func (r *StudentRepository) UpdatePredictions(ctx context.Context, batch []model.PredictionUpdate) error {
	n := len(batch)
	if n == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, n)
	scores := make([]float64, 0, n)
	levels := make([]string, 0, n)
	factors := make([]string, 0, n)

	for _, u := range batch {
		raw, err := json.Marshal(u.Factors)
		if err != nil {
			return fmt.Errorf("encode factors for %s: %w", u.ID, err)
		}
		ids = append(ids, u.ID)
		scores = append(scores, u.Score)
		levels = append(levels, string(u.Level))
		factors = append(factors, string(raw))
	}

	query := `
		UPDATE students AS s
		SET risk_score = t.score,
		    risk_level = t.level,
		    prediction_factors = t.factors::jsonb,
		    predicted_at = NOW(),
		    updated_at = NOW()
		FROM UNNEST(
			$1::uuid[],
			$2::float8[],
			$3::text[],
			$4::text[]
		) AS t (id, score, level, factors)
		WHERE s.id = t.id
	`

	_, err := r.pool.Exec(ctx, query, ids, scores, levels, factors)
	return err
}

func insertArgs(s *model.Student) []interface{} {
	return []interface{}{
		s.StudentID, s.Name, s.Email, s.Phone, s.Gender, s.DateOfBirth, s.Department, s.Semester,
		s.AttendancePercentage, s.CGPA, s.SGPA, s.FeeDefault, s.Scholarship, s.DisciplinaryActions,
		s.ExtracurricularActivities, s.FamilyIncome, s.DistanceFromHome, s.HostelAccommodation,
		s.PreviousEducationGap,
	}
}

func mapWriteErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateStudent
	}
	return err
}
