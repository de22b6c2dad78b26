package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/dropwatch/internal/model"
	"github.com/stemsi/dropwatch/internal/response"
	"github.com/stemsi/dropwatch/internal/service"
	"github.com/stemsi/dropwatch/internal/validator"
)

// PredictionRunner runs one prediction synchronously.
type PredictionRunner interface {
	Run(ctx context.Context, trigger model.PredictionTrigger, req model.PredictionRequest) (*model.PredictionSummary, error)
}

// PredictionQueue accepts prediction jobs for background processing.
type PredictionQueue interface {
	Enqueue(ctx context.Context, job model.PredictionJob) error
}

// PredictionHandler exposes the prediction trigger.
type PredictionHandler struct {
	runner PredictionRunner
	queue  PredictionQueue
}

// NewPredictionHandler creates a new PredictionHandler.
func NewPredictionHandler(runner PredictionRunner, queue PredictionQueue) *PredictionHandler {
	return &PredictionHandler{runner: runner, queue: queue}
}

// RunPrediction godoc
// POST /api/v1/admin/predictions
// Body: {"processNewStudents": true} or {"studentIds": ["<uuid>", ...]}.
// Scores the selected students and returns the run summary. Partial batch
// failures still answer 200; compare processedCount with totalCount.
func (h *PredictionHandler) RunPrediction(c *gin.Context) {
	req, ok := bindPredictionRequest(c)
	if !ok {
		return
	}

	summary, err := h.runner.Run(c.Request.Context(), model.TriggerAPI, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequest):
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidRequest)
		case errors.Is(err, service.ErrStoreRead):
			response.Fail(c, http.StatusInternalServerError, response.ErrStoreReadFailed)
		case errors.Is(err, service.ErrStoreWrite):
			response.Fail(c, http.StatusInternalServerError, response.ErrStoreWriteFailed)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, summary)
}

// QueuePrediction godoc
// POST /api/v1/admin/predictions/async
// Validates the request and hands it to the prediction worker.
func (h *PredictionHandler) QueuePrediction(c *gin.Context) {
	req, ok := bindPredictionRequest(c)
	if !ok {
		return
	}
	if err := service.ValidateRequest(req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidRequest)
		return
	}

	if err := h.queue.Enqueue(c.Request.Context(), model.PredictionJob{Trigger: model.TriggerQueue, Request: req}); err != nil {
		response.Fail(c, http.StatusServiceUnavailable, response.ErrQueueUnavailable)
		return
	}
	response.Success(c, http.StatusAccepted, gin.H{"message": "prediction queued"})
}

// bindPredictionRequest decodes the body. An empty body is a request with
// no selection mode.
func bindPredictionRequest(c *gin.Context) (model.PredictionRequest, bool) {
	var req model.PredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if errors.Is(err, io.EOF) {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidRequest)
			return req, false
		}
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidPayload, validator.TranslateErrors(err))
		return req, false
	}
	return req, true
}
