package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/dropwatch/internal/config"
	"github.com/stemsi/dropwatch/internal/model"
)

const PredictionPollTimeout = 1 * time.Second

// Runner executes one prediction run.
type Runner interface {
	Run(ctx context.Context, trigger model.PredictionTrigger, req model.PredictionRequest) (*model.PredictionSummary, error)
}

// BacklogCounter reports how many students are still unscored.
type BacklogCounter interface {
	CountUnscored(ctx context.Context) (int, error)
}

// PredictionWorker consumes prediction_requests_queue and runs each job.
// With a sweep period set it also scores the unscored backlog on a timer.
// Jobs run one at a time; a failed job is logged and not requeued.
type PredictionWorker struct {
	rdb     *redis.Client
	runner  Runner
	backlog BacklogCounter
	sweep   time.Duration
	log     zerolog.Logger
}

// NewPredictionWorker creates a new PredictionWorker. sweep <= 0 disables the backlog sweep.
func NewPredictionWorker(rdb *redis.Client, runner Runner, backlog BacklogCounter, sweep time.Duration, log zerolog.Logger) *PredictionWorker {
	return &PredictionWorker{
		rdb:     rdb,
		runner:  runner,
		backlog: backlog,
		sweep:   sweep,
		log:     log.With().Str("component", "prediction_worker").Logger(),
	}
}

// Start begins the worker loop. Call in a goroutine.
func (w *PredictionWorker) Start(ctx context.Context) {
	w.log.Info().Dur("sweep", w.sweep).Msg("Worker started")

	var tick <-chan time.Time
	if w.sweep > 0 {
		ticker := time.NewTicker(w.sweep)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		case <-tick:
			w.sweepOnce(ctx)
		default:
			w.processNext(ctx)
		}
	}
}

func (w *PredictionWorker) processNext(ctx context.Context) {
	item, err := w.rdb.BLPop(ctx, PredictionPollTimeout, config.WorkerKey.PredictionRequestsQueue).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}
	if len(item) < 2 {
		return
	}

	var job model.PredictionJob
	if err := json.Unmarshal([]byte(item[1]), &job); err != nil {
		w.log.Error().Err(err).Msg("Invalid JSON payload")
		return
	}
	w.runJob(ctx, job)
}

func (w *PredictionWorker) runJob(ctx context.Context, job model.PredictionJob) {
	if job.Trigger == "" {
		job.Trigger = model.TriggerQueue
	}
	if _, err := w.runner.Run(ctx, job.Trigger, job.Request); err != nil {
		w.log.Error().Err(err).Str("trigger", string(job.Trigger)).Msg("Queued prediction run failed")
	}
}

// sweepOnce scores the backlog when there is one.
func (w *PredictionWorker) sweepOnce(ctx context.Context) {
	n, err := w.backlog.CountUnscored(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("Failed to count unscored students")
		return
	}
	if n == 0 {
		return
	}
	w.log.Debug().Int("unscored", n).Msg("Sweeping unscored backlog")
	w.runJob(ctx, model.PredictionJob{
		Trigger: model.TriggerSweep,
		Request: model.PredictionRequest{ProcessNewStudents: true},
	})
}

// QueueTrigger enqueues prediction jobs for the PredictionWorker.
type QueueTrigger struct {
	rdb *redis.Client
}

// NewQueueTrigger creates a new QueueTrigger.
func NewQueueTrigger(rdb *redis.Client) *QueueTrigger {
	return &QueueTrigger{rdb: rdb}
}

// Enqueue pushes a job onto prediction_requests_queue.
func (q *QueueTrigger) Enqueue(ctx context.Context, job model.PredictionJob) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode prediction job: %w", err)
	}
	return q.rdb.RPush(ctx, config.WorkerKey.PredictionRequestsQueue, raw).Err()
}
