package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/dropwatch/internal/risk"
)

// Gender represents the student's recorded gender.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Student is a tracked university student together with the latest
// stored risk prediction. RiskScore, RiskLevel and PredictionFactors are
// nil until the student has been scored.
type Student struct {
	ID                        uuid.UUID     `json:"id"`
	StudentID                 string        `json:"student_id"`
	Name                      string        `json:"name"`
	Email                     string        `json:"email"`
	Phone                     *string       `json:"phone"`
	Gender                    Gender        `json:"gender"`
	DateOfBirth               *time.Time    `json:"date_of_birth"`
	Department                string        `json:"department"`
	Semester                  int           `json:"semester"`
	AttendancePercentage      float64       `json:"attendance_percentage"`
	CGPA                      float64       `json:"cgpa"`
	SGPA                      float64       `json:"sgpa"`
	FeeDefault                bool          `json:"fee_default"`
	Scholarship               bool          `json:"scholarship"`
	DisciplinaryActions       int           `json:"disciplinary_actions"`
	ExtracurricularActivities int           `json:"extracurricular_activities"`
	FamilyIncome              *float64      `json:"family_income"`
	DistanceFromHome          *float64      `json:"distance_from_home"`
	HostelAccommodation       bool          `json:"hostel_accommodation"`
	PreviousEducationGap      bool          `json:"previous_education_gap"`
	RiskScore                 *float64      `json:"risk_score"`
	RiskLevel                 *risk.Level   `json:"risk_level"`
	PredictionFactors         *risk.Factors `json:"prediction_factors"`
	PredictedAt               *time.Time    `json:"predicted_at"`
	CreatedAt                 time.Time     `json:"created_at"`
	UpdatedAt                 time.Time     `json:"updated_at"`
}

// Scored reports whether the student carries a stored prediction.
func (s *Student) Scored() bool {
	return s.RiskScore != nil
}

// RiskInput extracts the attributes read by the risk calculators.
func (s *Student) RiskInput() risk.Input {
	return risk.Input{
		AttendancePercentage:      s.AttendancePercentage,
		CGPA:                      s.CGPA,
		SGPA:                      s.SGPA,
		Semester:                  s.Semester,
		FeeDefault:                s.FeeDefault,
		Scholarship:               s.Scholarship,
		DisciplinaryActions:       s.DisciplinaryActions,
		ExtracurricularActivities: s.ExtracurricularActivities,
		FamilyIncome:              s.FamilyIncome,
		DistanceFromHome:          s.DistanceFromHome,
		HostelAccommodation:       s.HostelAccommodation,
		PreviousEducationGap:      s.PreviousEducationGap,
	}
}

// StudentFilter narrows the admin student listing.
type StudentFilter struct {
	RiskLevel  *risk.Level
	Department string
	Search     string
	Unscored   bool
}

// CreateStudentRequest is the payload for creating a student, both from
// the admin API and from upload rows. `binding` rules apply to the JSON
// API. `ingest` rules apply to upload rows: only the four identifying
// fields are required, and every value must fit the students table.
type CreateStudentRequest struct {
	StudentID                 string     `json:"student_id" binding:"required,min=1,max=50" ingest:"required,max=50"`
	Name                      string     `json:"name" binding:"required,min=2,max=150" ingest:"required,max=150"`
	Email                     string     `json:"email" binding:"required,email,max=255" ingest:"required,max=255"`
	Phone                     *string    `json:"phone" binding:"omitempty,max=30" ingest:"omitempty,max=30"`
	Gender                    Gender     `json:"gender" binding:"omitempty,oneof=male female other"`
	DateOfBirth               *time.Time `json:"date_of_birth"`
	Department                string     `json:"department" binding:"required,min=1,max=100" ingest:"required,max=100"`
	Semester                  int        `json:"semester" binding:"required,min=1,max=16" ingest:"min=1"`
	AttendancePercentage      float64    `json:"attendance_percentage" binding:"min=0,max=100" ingest:"min=0,max=100"`
	CGPA                      float64    `json:"cgpa" binding:"min=0,max=10" ingest:"min=0,max=10"`
	SGPA                      float64    `json:"sgpa" binding:"min=0,max=10" ingest:"min=0,max=10"`
	FeeDefault                bool       `json:"fee_default"`
	Scholarship               bool       `json:"scholarship"`
	DisciplinaryActions       int        `json:"disciplinary_actions" binding:"min=0" ingest:"min=0"`
	ExtracurricularActivities int        `json:"extracurricular_activities" binding:"min=0" ingest:"min=0"`
	FamilyIncome              *float64   `json:"family_income" binding:"omitempty,min=0" ingest:"omitempty,min=0"`
	DistanceFromHome          *float64   `json:"distance_from_home" binding:"omitempty,min=0" ingest:"omitempty,min=0"`
	HostelAccommodation       bool       `json:"hostel_accommodation"`
	PreviousEducationGap      bool       `json:"previous_education_gap"`
}

// UpdateStudentRequest replaces a student's raw attributes.
type UpdateStudentRequest = CreateStudentRequest

// ToStudent builds an unscored Student from the request.
func (r *CreateStudentRequest) ToStudent() *Student {
	gender := r.Gender
	if gender == "" {
		gender = GenderOther
	}
	return &Student{
		StudentID:                 r.StudentID,
		Name:                      r.Name,
		Email:                     r.Email,
		Phone:                     r.Phone,
		Gender:                    gender,
		DateOfBirth:               r.DateOfBirth,
		Department:                r.Department,
		Semester:                  r.Semester,
		AttendancePercentage:      r.AttendancePercentage,
		CGPA:                      r.CGPA,
		SGPA:                      r.SGPA,
		FeeDefault:                r.FeeDefault,
		Scholarship:               r.Scholarship,
		DisciplinaryActions:       r.DisciplinaryActions,
		ExtracurricularActivities: r.ExtracurricularActivities,
		FamilyIncome:              r.FamilyIncome,
		DistanceFromHome:          r.DistanceFromHome,
		HostelAccommodation:       r.HostelAccommodation,
		PreviousEducationGap:      r.PreviousEducationGap,
	}
}
