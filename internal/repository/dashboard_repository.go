package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/dropwatch/internal/risk"
)

// DashboardRepository handles admin dashboard data access.
type DashboardRepository struct {
	pool *pgxpool.Pool
}

// NewDashboardRepository creates a new DashboardRepository.
func NewDashboardRepository(pool *pgxpool.Pool) *DashboardRepository {
	return &DashboardRepository{pool: pool}
}

// DashboardTotals holds the stat-card numbers.
type DashboardTotals struct {
	TotalStudents    int      `json:"total_students"`
	ScoredStudents   int      `json:"scored_students"`
	UnscoredStudents int      `json:"unscored_students"`
	AverageRiskScore *float64 `json:"average_risk_score"`
}

// GetTotals retrieves the high-level counts for the dashboard.
func (r *DashboardRepository) GetTotals(ctx context.Context) (DashboardTotals, error) {
	var t DashboardTotals
	err := r.pool.QueryRow(ctx,
		`SELECT
			COUNT(*),
			COUNT(risk_score),
			COUNT(*) FILTER (WHERE risk_score IS NULL),
			ROUND(AVG(risk_score)::numeric, 2)::float8
		 FROM students`,
	).Scan(&t.TotalStudents, &t.ScoredStudents, &t.UnscoredStudents, &t.AverageRiskScore)
	return t, err
}

// GetLevelDistribution counts scored students per risk level. Every level
// is present in the result, zero when empty.
func (r *DashboardRepository) GetLevelDistribution(ctx context.Context) (map[risk.Level]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT risk_level, COUNT(*) FROM students WHERE risk_level IS NOT NULL GROUP BY risk_level`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[risk.Level]int{risk.LevelLow: 0, risk.LevelMedium: 0, risk.LevelHigh: 0}
	for rows.Next() {
		var level risk.Level
		var count int
		if err := rows.Scan(&level, &count); err != nil {
			return nil, err
		}
		counts[level] = count
	}
	return counts, rows.Err()
}

// DashboardDepartment is the per-department breakdown row.
type DashboardDepartment struct {
	Department       string   `json:"department"`
	Students         int      `json:"students"`
	HighRisk         int      `json:"high_risk"`
	MediumRisk       int      `json:"medium_risk"`
	AverageRiskScore *float64 `json:"average_risk_score"`
}

// GetDepartmentBreakdown groups students by department, riskiest first.
func (r *DashboardRepository) GetDepartmentBreakdown(ctx context.Context) ([]DashboardDepartment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT
			department,
			COUNT(*),
			COUNT(*) FILTER (WHERE risk_level = 'high'),
			COUNT(*) FILTER (WHERE risk_level = 'medium'),
			ROUND(AVG(risk_score)::numeric, 2)::float8
		 FROM students
		 GROUP BY department
		 ORDER BY 3 DESC, department`,
	)
	if err != nil {
		return nil, err
	}
	depts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (DashboardDepartment, error) {
		var d DashboardDepartment
		err := row.Scan(&d.Department, &d.Students, &d.HighRisk, &d.MediumRisk, &d.AverageRiskScore)
		return d, err
	})
	if depts == nil {
		depts = []DashboardDepartment{}
	}
	return depts, err
}

// DashboardAtRiskStudent is a minimal row for the top at-risk list.
type DashboardAtRiskStudent struct {
	ID         uuid.UUID  `json:"id"`
	StudentID  string     `json:"student_id"`
	Name       string     `json:"name"`
	Department string     `json:"department"`
	RiskScore  float64    `json:"risk_score"`
	RiskLevel  risk.Level `json:"risk_level"`
}

// GetTopAtRisk retrieves the N highest-scored students.
func (r *DashboardRepository) GetTopAtRisk(ctx context.Context, limit int) ([]DashboardAtRiskStudent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, student_id, name, department, risk_score, risk_level
		 FROM students
		 WHERE risk_score IS NOT NULL
		 ORDER BY risk_score DESC, name
		 LIMIT $1`, limit,
	)
	if err != nil {
		return nil, err
	}
	students, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (DashboardAtRiskStudent, error) {
		var s DashboardAtRiskStudent
		err := row.Scan(&s.ID, &s.StudentID, &s.Name, &s.Department, &s.RiskScore, &s.RiskLevel)
		return s, err
	})
	if students == nil {
		students = []DashboardAtRiskStudent{}
	}
	return students, err
}
