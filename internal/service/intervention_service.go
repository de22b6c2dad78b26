package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stemsi/dropwatch/internal/model"
	"github.com/stemsi/dropwatch/internal/repository"
)

// InterventionService handles intervention note business logic.
type InterventionService struct {
	repo *repository.InterventionRepository
}

// NewInterventionService creates a new InterventionService.
func NewInterventionService(repo *repository.InterventionRepository) *InterventionService {
	return &InterventionService{repo: repo}
}

// List retrieves a student's notes, newest first.
func (s *InterventionService) List(ctx context.Context, studentID uuid.UUID) ([]model.InterventionNote, error) {
	return s.repo.ListByStudent(ctx, studentID)
}

// Create records a note authored by the given admin.
func (s *InterventionService) Create(ctx context.Context, studentID uuid.UUID, authorID int, req *model.CreateInterventionRequest) (*model.InterventionNote, error) {
	note := &model.InterventionNote{
		StudentID:    studentID,
		AuthorID:     authorID,
		Kind:         req.Kind,
		Note:         req.Note,
		FollowUpDate: req.FollowUpDate,
	}
	if err := s.repo.Create(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

// Delete removes a note by ID.
func (s *InterventionService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
