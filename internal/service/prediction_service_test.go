package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/dropwatch/internal/model"
	"github.com/stemsi/dropwatch/internal/risk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePredictionStore struct {
	students   []model.Student
	readErr    error
	failBatch  map[int]bool // 1-based batch numbers that fail
	batches    [][]model.PredictionUpdate
	listedIDs  []uuid.UUID
	unscoredQs int
}

func (f *fakePredictionStore) ListUnscored(context.Context) ([]model.Student, error) {
	f.unscoredQs++
	if f.readErr != nil {
		return nil, f.readErr
	}
	var out []model.Student
	for _, s := range f.students {
		if s.RiskScore == nil {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakePredictionStore) ListByIDs(_ context.Context, ids []uuid.UUID) ([]model.Student, error) {
	f.listedIDs = ids
	if f.readErr != nil {
		return nil, f.readErr
	}
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []model.Student
	for _, s := range f.students {
		if want[s.ID] {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakePredictionStore) UpdatePredictions(_ context.Context, batch []model.PredictionUpdate) error {
	f.batches = append(f.batches, append([]model.PredictionUpdate(nil), batch...))
	if f.failBatch[len(f.batches)] {
		return errors.New("connection reset")
	}
	return nil
}

type recordingNotifier struct {
	events []model.PredictionEvent
}

func (n *recordingNotifier) PredictionFinished(_ context.Context, ev model.PredictionEvent) {
	n.events = append(n.events, ev)
}

func healthyStudent() model.Student {
	return model.Student{
		ID:                        uuid.New(),
		AttendancePercentage:      85.5,
		CGPA:                      7.2,
		SGPA:                      7.8,
		Scholarship:               true,
		ExtracurricularActivities: 3,
		Semester:                  5,
	}
}

func students(n int) []model.Student {
	out := make([]model.Student, n)
	for i := range out {
		out[i] = healthyStudent()
	}
	return out
}

func newTestPredictor(store PredictionStore, notifier RunNotifier, batchSize int) *PredictionService {
	return NewPredictionService(store, notifier, batchSize, zerolog.Nop())
}

func TestRun_RejectsMissingSelection(t *testing.T) {
	store := &fakePredictionStore{}
	svc := newTestPredictor(store, nil, 50)

	_, err := svc.Run(context.Background(), model.TriggerAPI, model.PredictionRequest{})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = svc.Run(context.Background(), model.TriggerAPI, model.PredictionRequest{StudentIDs: []uuid.UUID{}})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	assert.Zero(t, store.unscoredQs)
	assert.Nil(t, store.listedIDs)
	assert.Empty(t, store.batches)
}

func TestRun_BacklogScoresOnlyUnscored(t *testing.T) {
	scored := healthyStudent()
	score := 0.5
	scored.RiskScore = &score

	store := &fakePredictionStore{students: append(students(3), scored)}
	notifier := &recordingNotifier{}
	svc := newTestPredictor(store, notifier, 50)

	sum, err := svc.Run(context.Background(), model.TriggerAPI, model.PredictionRequest{ProcessNewStudents: true})
	require.NoError(t, err)
	assert.Equal(t, 3, sum.TotalCount)
	assert.Equal(t, 3, sum.ProcessedCount)
	assert.Zero(t, sum.FailedBatches)
	assert.Equal(t, "Processed 3 of 3 students", sum.Message)

	require.Len(t, store.batches, 1)
	for _, u := range store.batches[0] {
		assert.Equal(t, 0.14, u.Score)
		assert.Equal(t, risk.LevelLow, u.Level)
		assert.Equal(t, 0.3, u.Factors.AttendanceImpact)
	}

	require.Len(t, notifier.events, 1)
	assert.Equal(t, model.TriggerAPI, notifier.events[0].Trigger)
	assert.Equal(t, *sum, notifier.events[0].Summary)
}

func TestRun_ProcessNewStudentsWinsOverIDs(t *testing.T) {
	store := &fakePredictionStore{students: students(2)}
	svc := newTestPredictor(store, nil, 50)

	_, err := svc.Run(context.Background(), model.TriggerAPI, model.PredictionRequest{
		ProcessNewStudents: true,
		StudentIDs:         []uuid.UUID{uuid.New()},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, store.unscoredQs)
	assert.Nil(t, store.listedIDs)
}

func TestRun_ExplicitIDsAreDeduplicated(t *testing.T) {
	all := students(3)
	store := &fakePredictionStore{students: all}
	svc := newTestPredictor(store, nil, 50)

	sum, err := svc.Run(context.Background(), model.TriggerAPI, model.PredictionRequest{
		StudentIDs: []uuid.UUID{all[0].ID, all[2].ID, all[0].ID, uuid.New()},
	})
	require.NoError(t, err)
	assert.Len(t, store.listedIDs, 3)
	assert.Equal(t, 2, sum.TotalCount)
	assert.Equal(t, 2, sum.ProcessedCount)
}

func TestRun_SplitsIntoFixedSizeBatches(t *testing.T) {
	store := &fakePredictionStore{students: students(120)}
	svc := newTestPredictor(store, nil, 0) // default size

	sum, err := svc.Run(context.Background(), model.TriggerAPI, model.PredictionRequest{ProcessNewStudents: true})
	require.NoError(t, err)

	require.Len(t, store.batches, 3)
	assert.Len(t, store.batches[0], 50)
	assert.Len(t, store.batches[1], 50)
	assert.Len(t, store.batches[2], 20)
	assert.Equal(t, 120, sum.ProcessedCount)
}

func TestRun_FailedBatchIsDroppedAndRunContinues(t *testing.T) {
	store := &fakePredictionStore{
		students:  students(7),
		failBatch: map[int]bool{2: true},
	}
	svc := newTestPredictor(store, nil, 3)

	sum, err := svc.Run(context.Background(), model.TriggerAPI, model.PredictionRequest{ProcessNewStudents: true})
	require.NoError(t, err)

	// All three batches were attempted in order; the second was not retried.
	require.Len(t, store.batches, 3)
	assert.Equal(t, 7, sum.TotalCount)
	assert.Equal(t, 4, sum.ProcessedCount)
	assert.Equal(t, 1, sum.FailedBatches)
}

func TestRun_OnlyBatchFailingIsAnError(t *testing.T) {
	store := &fakePredictionStore{
		students:  students(2),
		failBatch: map[int]bool{1: true},
	}
	notifier := &recordingNotifier{}
	svc := newTestPredictor(store, notifier, 50)

	sum, err := svc.Run(context.Background(), model.TriggerAPI, model.PredictionRequest{ProcessNewStudents: true})
	assert.ErrorIs(t, err, ErrStoreWrite)
	assert.Nil(t, sum)
	assert.Empty(t, notifier.events)
}

func TestRun_AllOfSeveralBatchesFailingIsReported(t *testing.T) {
	store := &fakePredictionStore{
		students:  students(4),
		failBatch: map[int]bool{1: true, 2: true},
	}
	svc := newTestPredictor(store, nil, 2)

	sum, err := svc.Run(context.Background(), model.TriggerAPI, model.PredictionRequest{ProcessNewStudents: true})
	require.NoError(t, err)
	assert.Equal(t, 4, sum.TotalCount)
	assert.Zero(t, sum.ProcessedCount)
	assert.Equal(t, 2, sum.FailedBatches)
}

func TestRun_ReadFailureIsFatal(t *testing.T) {
	store := &fakePredictionStore{readErr: errors.New("timeout")}
	svc := newTestPredictor(store, nil, 50)

	_, err := svc.Run(context.Background(), model.TriggerAPI, model.PredictionRequest{ProcessNewStudents: true})
	assert.ErrorIs(t, err, ErrStoreRead)
	assert.Contains(t, err.Error(), "timeout")
	assert.Empty(t, store.batches)
}

func TestRun_EmptyBacklog(t *testing.T) {
	store := &fakePredictionStore{}
	svc := newTestPredictor(store, nil, 50)

	sum, err := svc.Run(context.Background(), model.TriggerSweep, model.PredictionRequest{ProcessNewStudents: true})
	require.NoError(t, err)
	assert.Zero(t, sum.TotalCount)
	assert.Zero(t, sum.ProcessedCount)
	assert.Equal(t, "No students to process", sum.Message)
	assert.Empty(t, store.batches)
}

func TestRun_MalformedRecordIsSkipped(t *testing.T) {
	bad := healthyStudent()
	bad.CGPA = math.NaN()
	worse := healthyStudent()
	worse.DisciplinaryActions = -1

	store := &fakePredictionStore{students: append(students(2), bad, worse)}
	svc := newTestPredictor(store, nil, 50)

	sum, err := svc.Run(context.Background(), model.TriggerAPI, model.PredictionRequest{ProcessNewStudents: true})
	require.NoError(t, err)
	assert.Equal(t, 4, sum.TotalCount)
	assert.Equal(t, 2, sum.ProcessedCount)
	assert.Equal(t, 2, sum.SkippedCount)

	require.Len(t, store.batches, 1)
	for _, u := range store.batches[0] {
		assert.NotEqual(t, bad.ID, u.ID)
		assert.NotEqual(t, worse.ID, u.ID)
	}
}

func TestRun_ScoresHighRiskStudent(t *testing.T) {
	st := model.Student{
		ID:                   uuid.New(),
		AttendancePercentage: 40,
		CGPA:                 3,
		SGPA:                 3,
		FeeDefault:           true,
		DisciplinaryActions:  4,
		Semester:             8,
		HostelAccommodation:  true,
		PreviousEducationGap: true,
	}
	store := &fakePredictionStore{students: []model.Student{st}}
	svc := newTestPredictor(store, nil, 50)

	_, err := svc.Run(context.Background(), model.TriggerAPI, model.PredictionRequest{StudentIDs: []uuid.UUID{st.ID}})
	require.NoError(t, err)
	require.Len(t, store.batches, 1)
	assert.Equal(t, risk.LevelHigh, store.batches[0][0].Level)
}
