package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/dropwatch/internal/metrics"
	"github.com/stemsi/dropwatch/internal/model"
	"github.com/stemsi/dropwatch/internal/risk"
)

// Prediction run errors.
var (
	ErrInvalidRequest = errors.New("either processNewStudents or a non-empty studentIds list is required")
	ErrStoreRead      = errors.New("select students for prediction")
	ErrStoreWrite     = errors.New("persist predictions")
)

// DefaultPredictionBatchSize is the number of records written per batch.
const DefaultPredictionBatchSize = 50

// PredictionStore is the record store capability a prediction run needs.
type PredictionStore interface {
	ListUnscored(ctx context.Context) ([]model.Student, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Student, error)
	UpdatePredictions(ctx context.Context, batch []model.PredictionUpdate) error
}

// RunNotifier is told about every completed run.
type RunNotifier interface {
	PredictionFinished(ctx context.Context, ev model.PredictionEvent)
}

// PredictionService scores students and persists the results in
// fixed-size batches. Batches are written in order; a failed batch is
// logged and dropped, and the run moves on to the next one.
type PredictionService struct {
	store     PredictionStore
	notifier  RunNotifier
	batchSize int
	log       zerolog.Logger
}

// NewPredictionService creates a new PredictionService. A batchSize below
// 1 uses DefaultPredictionBatchSize; notifier may be nil.
func NewPredictionService(store PredictionStore, notifier RunNotifier, batchSize int, log zerolog.Logger) *PredictionService {
	if batchSize < 1 {
		batchSize = DefaultPredictionBatchSize
	}
	return &PredictionService{
		store:     store,
		notifier:  notifier,
		batchSize: batchSize,
		log:       log.With().Str("component", "predictor").Logger(),
	}
}

// ValidateRequest reports ErrInvalidRequest when no selection mode is given.
// processNewStudents wins when both are set.
func ValidateRequest(req model.PredictionRequest) error {
	if req.ProcessNewStudents {
		return nil
	}
	if len(req.StudentIDs) == 0 {
		return ErrInvalidRequest
	}
	return nil
}

// Run selects the requested students, scores each one and writes the
// results batch by batch.
//
// A selection failure fails the whole run with ErrStoreRead. A batch
// write failure only fails the run with ErrStoreWrite when that batch was
// the only one; otherwise the summary reports it in FailedBatches.
func (s *PredictionService) Run(ctx context.Context, trigger model.PredictionTrigger, req model.PredictionRequest) (*model.PredictionSummary, error) {
	start := time.Now()
	log := s.log.With().Str("trigger", string(trigger)).Logger()

	if err := ValidateRequest(req); err != nil {
		metrics.PredictionRuns.WithLabelValues(string(trigger), "invalid").Inc()
		return nil, err
	}

	students, err := s.selectStudents(ctx, req)
	if err != nil {
		metrics.PredictionRuns.WithLabelValues(string(trigger), "read_failed").Inc()
		log.Error().Err(err).Bool("process_new", req.ProcessNewStudents).Msg("Failed to select students")
		return nil, fmt.Errorf("%w: %w", ErrStoreRead, err)
	}

	summary := &model.PredictionSummary{TotalCount: len(students)}
	updates := make([]model.PredictionUpdate, 0, len(students))
	for i := range students {
		st := &students[i]
		if err := checkStoredAttributes(st); err != nil {
			summary.SkippedCount++
			metrics.PredictionRecords.WithLabelValues("skipped").Inc()
			log.Warn().Err(err).Str("student_id", st.ID.String()).Msg("Skipping student with malformed attributes")
			continue
		}
		a := risk.Assess(st.RiskInput())
		updates = append(updates, model.PredictionUpdate{
			ID:      st.ID,
			Score:   a.Score,
			Level:   a.Level,
			Factors: a.Factors,
		})
	}

	batches := 0
	var lastErr error
	for lo := 0; lo < len(updates); lo += s.batchSize {
		hi := min(lo+s.batchSize, len(updates))
		batch := updates[lo:hi]
		batches++

		if err := s.store.UpdatePredictions(ctx, batch); err != nil {
			summary.FailedBatches++
			lastErr = err
			metrics.PredictionBatches.WithLabelValues("failed").Inc()
			metrics.PredictionRecords.WithLabelValues("dropped").Add(float64(len(batch)))
			log.Error().Err(err).Int("batch", batches).Int("size", len(batch)).Msg("Prediction batch write failed, continuing")
			continue
		}

		summary.ProcessedCount += len(batch)
		metrics.PredictionBatches.WithLabelValues("ok").Inc()
		metrics.PredictionRecords.WithLabelValues("scored").Add(float64(len(batch)))
		for _, u := range batch {
			metrics.RiskLevels.WithLabelValues(string(u.Level)).Inc()
		}
	}

	elapsed := time.Since(start)
	metrics.PredictionRunDuration.Observe(elapsed.Seconds())

	if batches == 1 && summary.FailedBatches == 1 {
		metrics.PredictionRuns.WithLabelValues(string(trigger), "write_failed").Inc()
		return nil, fmt.Errorf("%w: %w", ErrStoreWrite, lastErr)
	}

	summary.Message = summarize(summary)
	outcome := "ok"
	if summary.FailedBatches > 0 || summary.SkippedCount > 0 {
		outcome = "partial"
	}
	metrics.PredictionRuns.WithLabelValues(string(trigger), outcome).Inc()

	log.Info().
		Int("total", summary.TotalCount).
		Int("processed", summary.ProcessedCount).
		Int("skipped", summary.SkippedCount).
		Int("failed_batches", summary.FailedBatches).
		Dur("elapsed", elapsed).
		Msg("Prediction run finished")

	if s.notifier != nil {
		s.notifier.PredictionFinished(ctx, model.PredictionEvent{
			Trigger:    trigger,
			Summary:    *summary,
			DurationMS: elapsed.Milliseconds(),
			FinishedAt: time.Now().UTC(),
		})
	}
	return summary, nil
}

func (s *PredictionService) selectStudents(ctx context.Context, req model.PredictionRequest) ([]model.Student, error) {
	if req.ProcessNewStudents {
		return s.store.ListUnscored(ctx)
	}
	return s.store.ListByIDs(ctx, dedupe(req.StudentIDs))
}

func summarize(s *model.PredictionSummary) string {
	if s.TotalCount == 0 {
		return "No students to process"
	}
	return fmt.Sprintf("Processed %d of %d students", s.ProcessedCount, s.TotalCount)
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// checkStoredAttributes rejects records the calculators cannot score
// meaningfully: non-finite or out-of-range numbers and negative counts.
func checkStoredAttributes(st *model.Student) error {
	checks := []struct {
		name     string
		v        float64
		min, max float64
	}{
		{"attendance_percentage", st.AttendancePercentage, 0, 100},
		{"cgpa", st.CGPA, 0, 10},
		{"sgpa", st.SGPA, 0, 10},
	}
	for _, c := range checks {
		if math.IsNaN(c.v) || c.v < c.min || c.v > c.max {
			return fmt.Errorf("%s out of range: %v", c.name, c.v)
		}
	}
	for name, p := range map[string]*float64{"family_income": st.FamilyIncome, "distance_from_home": st.DistanceFromHome} {
		if p != nil && (math.IsNaN(*p) || math.IsInf(*p, 0)) {
			return fmt.Errorf("%s is not a finite number", name)
		}
	}
	if st.DisciplinaryActions < 0 || st.ExtracurricularActivities < 0 {
		return errors.New("negative activity count")
	}
	if st.Semester < 1 {
		return fmt.Errorf("semester must be positive: %d", st.Semester)
	}
	return nil
}
