package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/student-dashboard/internal/grading"
	"github.com/stemsi/student-dashboard/internal/response"
	"github.com/stemsi/student-dashboard/internal/service"
	"github.com/stemsi/student-dashboard/internal/transfer"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeJSON = "application/json; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// TransferHandler serves export downloads and file imports.
type TransferHandler struct {
	studentService *service.StudentService
	maxUploadBytes int64
	log            zerolog.Logger
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(studentService *service.StudentService, maxUploadBytes int64, log zerolog.Logger) *TransferHandler {
	return &TransferHandler{
		studentService: studentService,
		maxUploadBytes: maxUploadBytes,
		log:            log.With().Str("component", "transfer_handler").Logger(),
	}
}

// ExportCSV godoc
// GET /api/v1/export/csv
func (h *TransferHandler) ExportCSV(c *gin.Context) {
	h.download(c, "students.csv", contentTypeCSV, h.studentService.ExportCSV)
}

// ExportJSON godoc
// GET /api/v1/export/json
func (h *TransferHandler) ExportJSON(c *gin.Context) {
	h.download(c, "students.json", contentTypeJSON, h.studentService.ExportJSON)
}

// ExportXLSX godoc
// GET /api/v1/export/xlsx
func (h *TransferHandler) ExportXLSX(c *gin.Context) {
	h.download(c, "students.xlsx", contentTypeXLSX, h.studentService.ExportXLSX)
}

// ImportCSV godoc
// POST /api/v1/import/csv
// Merges the uploaded file by roll number.
func (h *TransferHandler) ImportCSV(c *gin.Context) {
	h.upload(c, "csv", h.studentService.ImportCSV)
}

// ImportJSON godoc
// POST /api/v1/import/json
// Replaces every stored student with the uploaded set.
func (h *TransferHandler) ImportJSON(c *gin.Context) {
	h.upload(c, "json", h.studentService.ImportJSON)
}

func (h *TransferHandler) download(c *gin.Context, filename, contentType string, export func(context.Context, io.Writer) error) {
	var buf bytes.Buffer
	if err := export(c.Request.Context(), &buf); err != nil {
		h.log.Error().Err(err).Str("file", filename).Msg("Export failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func (h *TransferHandler) upload(c *gin.Context, format string, importFn func(context.Context, io.Reader) (int, error)) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		if isTooLarge(err) {
			response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge)
			return
		}
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}
	defer file.Close()

	n, err := importFn(c.Request.Context(), file)
	if err != nil {
		if errors.Is(err, transfer.ErrMalformed) || grading.Fields(err) != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrImportFailed, map[string]string{"detail": err.Error()})
			return
		}
		h.log.Error().Err(err).Str("format", format).Msg("Import failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	h.log.Info().Str("format", format).Str("file", header.Filename).Int("count", n).Msg("Upload imported")
	response.Success(c, http.StatusOK, gin.H{"imported": n})
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}
