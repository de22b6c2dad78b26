package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/dropwatch/internal/ingest"
	"github.com/stemsi/dropwatch/internal/response"
	"github.com/stemsi/dropwatch/internal/service"
)

// ImportHandler handles student spreadsheet uploads.
type ImportHandler struct {
	importService  *service.ImportService
	maxUploadBytes int64
}

// NewImportHandler creates a new ImportHandler.
func NewImportHandler(importService *service.ImportService, maxUploadBytes int64) *ImportHandler {
	return &ImportHandler{importService: importService, maxUploadBytes: maxUploadBytes}
}

// ImportStudents godoc
// POST /api/v1/admin/students/import
// Multipart form with a "file" field holding a .csv or .xlsx sheet.
// Valid rows are inserted, duplicates are ignored and a prediction run for
// the new students is queued.
func (h *ImportHandler) ImportStudents(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge)
			return
		}
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}
	defer file.Close()

	if header.Size > h.maxUploadBytes {
		response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge)
		return
	}

	result, err := h.importService.Import(c.Request.Context(), header.Filename, file)
	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrUnsupportedFormat):
			response.Fail(c, http.StatusBadRequest, response.ErrUnsupportedFile)
		case errors.Is(err, ingest.ErrEmptyFile):
			response.Fail(c, http.StatusBadRequest, response.ErrEmptyFile)
		case errors.Is(err, ingest.ErrNoValidRecords):
			response.FailWithData(c, http.StatusUnprocessableEntity, response.ErrNoValidRecords, result)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, result)
}
