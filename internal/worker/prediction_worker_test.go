package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stemsi/dropwatch/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	calls []model.PredictionJob
	err   error
}

func (f *fakeRunner) Run(_ context.Context, trigger model.PredictionTrigger, req model.PredictionRequest) (*model.PredictionSummary, error) {
	f.calls = append(f.calls, model.PredictionJob{Trigger: trigger, Request: req})
	if f.err != nil {
		return nil, f.err
	}
	return &model.PredictionSummary{}, nil
}

type fakeBacklog struct {
	n   int
	err error
}

func (f fakeBacklog) CountUnscored(context.Context) (int, error) { return f.n, f.err }

func TestSweepOnce_RunsOnlyWithBacklog(t *testing.T) {
	runner := &fakeRunner{}
	w := NewPredictionWorker(nil, runner, fakeBacklog{n: 0}, 0, zerolog.Nop())
	w.sweepOnce(context.Background())
	assert.Empty(t, runner.calls)

	w.backlog = fakeBacklog{n: 3}
	w.sweepOnce(context.Background())
	require.Len(t, runner.calls, 1)
	assert.Equal(t, model.TriggerSweep, runner.calls[0].Trigger)
	assert.True(t, runner.calls[0].Request.ProcessNewStudents)
}

func TestSweepOnce_CountFailureSkipsRun(t *testing.T) {
	runner := &fakeRunner{}
	w := NewPredictionWorker(nil, runner, fakeBacklog{err: errors.New("db down")}, 0, zerolog.Nop())
	w.sweepOnce(context.Background())
	assert.Empty(t, runner.calls)
}

func TestRunJob_DefaultsTriggerAndSwallowsErrors(t *testing.T) {
	runner := &fakeRunner{err: errors.New("boom")}
	w := NewPredictionWorker(nil, runner, fakeBacklog{}, 0, zerolog.Nop())

	assert.NotPanics(t, func() {
		w.runJob(context.Background(), model.PredictionJob{Request: model.PredictionRequest{ProcessNewStudents: true}})
	})
	require.Len(t, runner.calls, 1)
	assert.Equal(t, model.TriggerQueue, runner.calls[0].Trigger)
}
