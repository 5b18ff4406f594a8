package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/student-dashboard/internal/grading"
	"github.com/stemsi/student-dashboard/internal/model"
	"github.com/stemsi/student-dashboard/internal/repository"
	"github.com/stemsi/student-dashboard/internal/response"
	"github.com/stemsi/student-dashboard/internal/service"
	"github.com/stemsi/student-dashboard/internal/validator"
)

// StudentHandler handles student record CRUD and search.
type StudentHandler struct {
	studentService *service.StudentService
	log            zerolog.Logger
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(studentService *service.StudentService, log zerolog.Logger) *StudentHandler {
	return &StudentHandler{
		studentService: studentService,
		log:            log.With().Str("component", "student_handler").Logger(),
	}
}

// GetSubjects godoc
// GET /api/v1/subjects
// Returns the subject order marks must follow and the per-subject maximum.
func (h *StudentHandler) GetSubjects(c *gin.Context) {
	scheme := h.studentService.Scheme()
	response.Success(c, http.StatusOK, gin.H{
		"subjects":              scheme.Subjects,
		"max_marks_per_subject": scheme.MaxMarksPerSubject,
		"genders":               grading.Genders,
		"grades":                grading.GradeLadder,
	})
}

// ListStudents godoc
// GET /api/v1/students?grade=&gender=&q=&sort=
// sort names one column, "-" prefixed for descending (e.g. sort=-total).
func (h *StudentHandler) ListStudents(c *gin.Context) {
	sort, err := service.ParseSort(c.Query("sort"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidSort)
		return
	}
	filter := model.StudentFilter{
		Grade:  c.Query("grade"),
		Gender: c.Query("gender"),
		Name:   c.Query("q"),
		Sort:   sort,
	}
	students, err := h.studentService.List(c.Request.Context(), filter)
	if err != nil {
		h.internal(c, err, "list students")
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"students":           students,
		"count":              len(students),
		"average_percentage": model.AveragePercentage(students),
	})
}

// SearchStudents godoc
// GET /api/v1/students/search?q=
// A numeric query matches a roll number; anything else matches names.
func (h *StudentHandler) SearchStudents(c *gin.Context) {
	students, err := h.studentService.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.internal(c, err, "search students")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"students": students, "count": len(students)})
}

// GetStudent godoc
// GET /api/v1/students/:roll_no
func (h *StudentHandler) GetStudent(c *gin.Context) {
	rollNo, ok := rollNoParam(c)
	if !ok {
		return
	}
	student, err := h.studentService.Get(c.Request.Context(), rollNo)
	if err != nil {
		h.fail(c, err, "get student")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"student": student})
}

// CreateStudent godoc
// POST /api/v1/students
// Accepts JSON or a form post.
func (h *StudentHandler) CreateStudent(c *gin.Context) {
	var req model.CreateStudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, err := h.studentService.Add(c.Request.Context(), req.Input())
	if err != nil {
		h.fail(c, err, "create student")
		return
	}
	response.Created(c, gin.H{"student": student})
}

// UpdateStudent godoc
// PATCH /api/v1/students/:roll_no
// Omitted fields keep their stored values.
func (h *StudentHandler) UpdateStudent(c *gin.Context) {
	rollNo, ok := rollNoParam(c)
	if !ok {
		return
	}

	var req model.UpdateStudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, err := h.studentService.Update(c.Request.Context(), rollNo, req.Input())
	if err != nil {
		h.fail(c, err, "update student")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"student": student})
}

// DeleteStudent godoc
// DELETE /api/v1/students/:roll_no
func (h *StudentHandler) DeleteStudent(c *gin.Context) {
	rollNo, ok := rollNoParam(c)
	if !ok {
		return
	}
	if err := h.studentService.Delete(c.Request.Context(), rollNo); err != nil {
		h.fail(c, err, "delete student")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "student deleted successfully"})
}

// fail maps service errors onto the response envelope.
func (h *StudentHandler) fail(c *gin.Context, err error, op string) {
	switch {
	case errors.Is(err, repository.ErrStudentNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, repository.ErrDuplicateRollNo):
		response.Fail(c, http.StatusConflict, response.ErrConflict)
	case grading.Fields(err) != nil:
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, grading.Fields(err))
	default:
		h.internal(c, err, op)
	}
}

func (h *StudentHandler) internal(c *gin.Context, err error, op string) {
	h.log.Error().Err(err).Str("op", op).Msg("Request failed")
	response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
}

func rollNoParam(c *gin.Context) (int, bool) {
	rollNo, err := strconv.Atoi(c.Param("roll_no"))
	if err != nil || rollNo <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidRollNo)
		return 0, false
	}
	return rollNo, true
}
