package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/dropwatch/internal/risk"
)

// PredictionRequest selects the students a prediction run scores.
// ProcessNewStudents selects every unscored student; otherwise StudentIDs
// must be present and non-empty.
type PredictionRequest struct {
	ProcessNewStudents bool        `json:"processNewStudents"`
	StudentIDs         []uuid.UUID `json:"studentIds"`
}

// PredictionSummary reports the outcome of a prediction run.
// ProcessedCount counts students whose update batch was written;
// TotalCount counts students selected.
type PredictionSummary struct {
	Message        string `json:"message"`
	ProcessedCount int    `json:"processedCount"`
	TotalCount     int    `json:"totalCount"`
	SkippedCount   int    `json:"skippedCount"`
	FailedBatches  int    `json:"failedBatches"`
}

// PredictionUpdate is one row of a batched score write.
type PredictionUpdate struct {
	ID      uuid.UUID
	Score   float64
	Level   risk.Level
	Factors risk.Factors
}

// RiskPreview is a computed but unpersisted assessment for one student.
type RiskPreview struct {
	StudentID  uuid.UUID       `json:"student_id"`
	Assessment risk.Assessment `json:"assessment"`
	Stored     bool            `json:"stored"`
}

// PredictionTrigger names what started a prediction run.
type PredictionTrigger string

const (
	TriggerAPI    PredictionTrigger = "api"
	TriggerQueue  PredictionTrigger = "queue"
	TriggerImport PredictionTrigger = "import"
	TriggerSweep  PredictionTrigger = "sweep"
	TriggerCLI    PredictionTrigger = "cli"
)

// PredictionJob is a queued prediction request.
type PredictionJob struct {
	Trigger PredictionTrigger `json:"trigger"`
	Request PredictionRequest `json:"request"`
}

// PredictionEvent is published after every completed run.
type PredictionEvent struct {
	Trigger    PredictionTrigger `json:"trigger"`
	Summary    PredictionSummary `json:"summary"`
	DurationMS int64             `json:"duration_ms"`
	FinishedAt time.Time         `json:"finished_at"`
}
