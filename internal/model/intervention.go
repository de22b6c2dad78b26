package model

import (
	"time"

	"github.com/google/uuid"
)

// InterventionKind classifies an intervention note.
type InterventionKind string

const (
	InterventionCounseling      InterventionKind = "counseling"
	InterventionAcademicSupport InterventionKind = "academic_support"
	InterventionFinancialAid    InterventionKind = "financial_aid"
	InterventionMentoring       InterventionKind = "mentoring"
	InterventionOther           InterventionKind = "other"
)

// InterventionNote records an action taken for an at-risk student.
type InterventionNote struct {
	ID           uuid.UUID        `json:"id"`
	StudentID    uuid.UUID        `json:"student_id"`
	AuthorID     int              `json:"author_id"`
	AuthorName   string           `json:"author_name,omitempty"`
	Kind         InterventionKind `json:"kind"`
	Note         string           `json:"note"`
	FollowUpDate *time.Time       `json:"follow_up_date"`
	CreatedAt    time.Time        `json:"created_at"`
}

// CreateInterventionRequest is the payload for adding a note to a student.
type CreateInterventionRequest struct {
	Kind         InterventionKind `json:"kind" binding:"required,oneof=counseling academic_support financial_aid mentoring other"`
	Note         string           `json:"note" binding:"required,min=1,max=4000"`
	FollowUpDate *time.Time       `json:"follow_up_date"`
}
