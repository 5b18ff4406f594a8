package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/student-dashboard/internal/model"
	"github.com/stemsi/student-dashboard/internal/repository"
	"github.com/stemsi/student-dashboard/internal/response"
	"github.com/stemsi/student-dashboard/internal/service"
)

// StatisticsHandler serves the class summary endpoints.
type StatisticsHandler struct {
	studentService *service.StudentService
	log            zerolog.Logger
}

// NewStatisticsHandler creates a new StatisticsHandler.
func NewStatisticsHandler(studentService *service.StudentService, log zerolog.Logger) *StatisticsHandler {
	return &StatisticsHandler{
		studentService: studentService,
		log:            log.With().Str("component", "statistics_handler").Logger(),
	}
}

// GetStatistics godoc
// GET /api/v1/statistics
func (h *StatisticsHandler) GetStatistics(c *gin.Context) {
	stats, err := h.studentService.Statistics(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute statistics")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"statistics": stats})
}

// GetHighestScorer godoc
// GET /api/v1/statistics/highest-scorer
func (h *StatisticsHandler) GetHighestScorer(c *gin.Context) {
	student, err := h.studentService.HighestScorer(c.Request.Context())
	if errors.Is(err, repository.ErrStudentNotFound) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to find highest scorer")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"student": student})
}

// GetSubjectAverages godoc
// GET /api/v1/statistics/subject-averages
func (h *StatisticsHandler) GetSubjectAverages(c *gin.Context) {
	averages, err := h.studentService.SubjectAverages(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute subject averages")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	subjects := h.studentService.Scheme().Subjects
	out := make([]model.SubjectAverage, len(subjects))
	for i, subject := range subjects {
		out[i] = model.SubjectAverage{Subject: subject, Average: averages[i]}
	}
	response.Success(c, http.StatusOK, gin.H{"subject_averages": out})
}
