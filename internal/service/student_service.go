package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stemsi/dropwatch/internal/config"
	"github.com/stemsi/dropwatch/internal/model"
	"github.com/stemsi/dropwatch/internal/response"
	"github.com/stemsi/dropwatch/internal/risk"
)

// StudentStore is the record store capability behind student CRUD.
type StudentStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Student, error)
	ListPaginated(ctx context.Context, f model.StudentFilter, limit, offset int) ([]model.Student, int, error)
	Create(ctx context.Context, s *model.Student) error
	Update(ctx context.Context, s *model.Student, clearPrediction bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// StudentService handles student business logic.
type StudentService struct {
	store    StudentStore
	policy   config.ScoreEditPolicy
	notifier DashboardInvalidator
}

// DashboardInvalidator drops cached dashboard data after a write.
type DashboardInvalidator interface {
	InvalidateDashboard(ctx context.Context)
}

// NewStudentService creates a new StudentService. notifier may be nil.
func NewStudentService(store StudentStore, policy config.ScoreEditPolicy, notifier DashboardInvalidator) *StudentService {
	return &StudentService{store: store, policy: policy, notifier: notifier}
}

// GetByID retrieves a student by ID.
func (s *StudentService) GetByID(ctx context.Context, id uuid.UUID) (*model.Student, error) {
	return s.store.GetByID(ctx, id)
}

// ListStudents retrieves students with pagination and filters.
func (s *StudentService) ListStudents(ctx context.Context, f model.StudentFilter, page, perPage int) ([]model.Student, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	students, total, err := s.store.ListPaginated(ctx, f, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	if students == nil {
		students = []model.Student{}
	}
	return students, response.NewPagination(page, perPage, total), nil
}

// Create inserts a new, unscored student.
func (s *StudentService) Create(ctx context.Context, req *model.CreateStudentRequest) (*model.Student, error) {
	student := req.ToStudent()
	if err := s.store.Create(ctx, student); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return student, nil
}

// Update replaces a student's raw attributes. Under ScoreEditInvalidate the
// stored prediction is cleared so the student rejoins the unscored backlog;
// under ScoreEditKeep it is left as is.
func (s *StudentService) Update(ctx context.Context, id uuid.UUID, req *model.UpdateStudentRequest) (*model.Student, error) {
	student := req.ToStudent()
	student.ID = id

	if err := s.store.Update(ctx, student, s.policy == config.ScoreEditInvalidate); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return s.store.GetByID(ctx, id)
}

// Delete removes a student by ID.
func (s *StudentService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// PreviewRisk computes a student's assessment from the current attributes
// without persisting it.
func (s *StudentService) PreviewRisk(ctx context.Context, id uuid.UUID) (*model.RiskPreview, error) {
	student, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	a := risk.Assess(student.RiskInput())
	stored := student.Scored() && *student.RiskScore == a.Score &&
		student.RiskLevel != nil && *student.RiskLevel == a.Level
	return &model.RiskPreview{StudentID: id, Assessment: a, Stored: stored}, nil
}

func (s *StudentService) invalidate(ctx context.Context) {
	if s.notifier != nil {
		s.notifier.InvalidateDashboard(ctx)
	}
}
