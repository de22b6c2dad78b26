package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/stemsi/dropwatch/internal/ingest"
	"github.com/stemsi/dropwatch/internal/metrics"
	"github.com/stemsi/dropwatch/internal/model"
)

// DefaultImportBatchSize is the number of rows inserted per round trip.
const DefaultImportBatchSize = 100

// StudentWriter inserts a chunk of students, ignoring duplicates. Rows
// the store refuses are reported per row in the result. An error means
// the rows the result does not account for were never written.
type StudentWriter interface {
	CreateMany(ctx context.Context, students []model.Student) (*model.BulkInsertResult, error)
}

// PredictionTrigger asks for a prediction run to happen.
type PredictionTrigger interface {
	Enqueue(ctx context.Context, job model.PredictionJob) error
}

// ImportService loads student uploads into the record store and then
// asks for the new backlog to be scored.
type ImportService struct {
	writer    StudentWriter
	trigger   PredictionTrigger
	notifier  DashboardInvalidator
	batchSize int
	log       zerolog.Logger
}

// NewImportService creates a new ImportService. trigger and notifier may be nil.
func NewImportService(writer StudentWriter, trigger PredictionTrigger, notifier DashboardInvalidator, batchSize int, log zerolog.Logger) *ImportService {
	if batchSize < 1 {
		batchSize = DefaultImportBatchSize
	}
	return &ImportService{
		writer:    writer,
		trigger:   trigger,
		notifier:  notifier,
		batchSize: batchSize,
		log:       log.With().Str("component", "importer").Logger(),
	}
}

// Import normalizes an upload and inserts its valid rows in chunks. Rows
// the store rejects land in RejectedRows; they and any rows of a chunk
// that could not be written at all are counted in FailedRows, and the
// import goes on.
//
// When the upload has no usable rows Import returns the partial result
// together with ingest.ErrNoValidRecords so callers can show why rows
// were dropped. Once rows were inserted a backlog run is requested; if
// that request fails the upload still succeeds with
// PredictionTriggered=false.
func (s *ImportService) Import(ctx context.Context, filename string, r io.Reader) (*model.ImportResult, error) {
	log := s.log.With().Str("file", filename).Logger()

	reader, err := ingest.Open(filename, r)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	result := &model.ImportResult{Filename: filename, RejectedRows: []model.ImportRowError{}}
	chunk := make([]model.Student, 0, s.batchSize)
	lines := make([]int, 0, s.batchSize)

	flush := func() {
		if len(chunk) == 0 {
			return
		}
		res, err := s.writer.CreateMany(ctx, chunk)
		if res == nil {
			res = &model.BulkInsertResult{}
		}

		for _, rj := range res.Rejected {
			result.RejectedRows = append(result.RejectedRows, model.ImportRowError{Line: lines[rj.Index], Reason: rj.Reason})
			log.Warn().Int("line", lines[rj.Index]).Str("reason", rj.Reason).Msg("Upload row rejected by store")
		}
		unwritten := len(chunk) - res.Inserted - res.Duplicates - len(res.Rejected)
		if err != nil {
			log.Error().Err(err).Int("size", len(chunk)).Int("unwritten", unwritten).Msg("Failed to insert upload chunk, continuing")
		}

		failed := len(res.Rejected) + unwritten
		result.Inserted += res.Inserted
		result.Duplicates += res.Duplicates
		result.FailedRows += failed
		metrics.ImportRows.WithLabelValues("inserted").Add(float64(res.Inserted))
		metrics.ImportRows.WithLabelValues("duplicate").Add(float64(res.Duplicates))
		metrics.ImportRows.WithLabelValues("failed").Add(float64(failed))

		chunk = chunk[:0]
		lines = lines[:0]
	}

	for line, req := range reader.Records() {
		result.ValidRows++
		chunk = append(chunk, *req.ToStudent())
		lines = append(lines, line)
		if len(chunk) == s.batchSize {
			flush()
		}
	}
	flush()

	result.SkippedRows = reader.Skipped()
	if result.SkippedRows == nil {
		result.SkippedRows = []model.ImportRowError{}
	}
	metrics.ImportRows.WithLabelValues("skipped").Add(float64(len(result.SkippedRows)))
	for _, row := range result.SkippedRows {
		log.Warn().Int("line", row.Line).Str("reason", row.Reason).Msg("Dropped upload row")
	}

	if err := reader.Err(); err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if result.ValidRows == 0 {
		return result, ingest.ErrNoValidRecords
	}

	if result.Inserted > 0 {
		s.invalidate(ctx)
		result.PredictionTriggered = s.triggerBacklog(ctx, log)
	}

	log.Info().
		Int("valid", result.ValidRows).
		Int("inserted", result.Inserted).
		Int("duplicates", result.Duplicates).
		Int("failed", result.FailedRows).
		Int("skipped", len(result.SkippedRows)).
		Bool("prediction_triggered", result.PredictionTriggered).
		Msg("Upload imported")
	return result, nil
}

func (s *ImportService) triggerBacklog(ctx context.Context, log zerolog.Logger) bool {
	if s.trigger == nil {
		return false
	}
	err := s.trigger.Enqueue(ctx, model.PredictionJob{
		Trigger: model.TriggerImport,
		Request: model.PredictionRequest{ProcessNewStudents: true},
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to trigger prediction after upload")
		return false
	}
	return true
}

func (s *ImportService) invalidate(ctx context.Context) {
	if s.notifier != nil {
		s.notifier.InvalidateDashboard(ctx)
	}
}

// IsUploadError reports whether err is a problem with the uploaded file
// itself rather than with the service.
func IsUploadError(err error) bool {
	return errors.Is(err, ingest.ErrEmptyFile) ||
		errors.Is(err, ingest.ErrNoValidRecords) ||
		errors.Is(err, ingest.ErrUnsupportedFormat)
}
