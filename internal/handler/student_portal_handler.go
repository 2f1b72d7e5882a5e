package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/certiva/certiva-backend/internal/middleware"
	"github.com/certiva/certiva-backend/internal/model"
	"github.com/certiva/certiva-backend/internal/response"
	"github.com/certiva/certiva-backend/internal/service"
	"github.com/certiva/certiva-backend/internal/validator"
)

// StudentPortalHandler handles student-facing endpoints: browsing published
// exams, taking sessions and reading results and certificates.
type StudentPortalHandler struct {
	catalogService     *service.CatalogService
	sessionService     *service.SessionService
	resultService      *service.ResultService
	certificateService *service.CertificateService
}

// NewStudentPortalHandler creates a new StudentPortalHandler.
func NewStudentPortalHandler(
	catalogService *service.CatalogService,
	sessionService *service.SessionService,
	resultService *service.ResultService,
	certificateService *service.CertificateService,
) *StudentPortalHandler {
	return &StudentPortalHandler{
		catalogService:     catalogService,
		sessionService:     sessionService,
		resultService:      resultService,
		certificateService: certificateService,
	}
}

// examSummary is a published exam without its questions.
type examSummary struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	DurationSeconds int       `json:"duration_seconds"`
	PassingScore    int       `json:"passing_score"`
	QuestionCount   int       `json:"question_count"`
}

// ListExams godoc
// GET /api/v1/student/exams?page=1&per_page=10
// Lists published exams available for taking.
func (h *StudentPortalHandler) ListExams(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	exams, pagination, err := h.catalogService.ListByStatus(c.Request.Context(), model.ExamStatusPublished, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	summaries := make([]examSummary, 0, len(exams))
	for i := range exams {
		summaries = append(summaries, examSummary{
			ID:              exams[i].ID,
			Title:           exams[i].Title,
			Description:     exams[i].Description,
			DurationSeconds: exams[i].DurationSeconds,
			PassingScore:    exams[i].PassingScore,
			QuestionCount:   len(exams[i].Questions),
		})
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"exams": summaries}, pagination)
}

// StartSession godoc
// POST /api/v1/student/exams/:exam_id/sessions
// Starts a session against a published exam. Idempotent: if the student
// already has an active session for this exam, that session is returned.
func (h *StudentPortalHandler) StartSession(c *gin.Context) {
	studentID := middleware.GetCallerID(c)
	if studentID == uuid.Nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	session, err := h.sessionService.Start(c.Request.Context(), examID, studentID)
	if err != nil {
		failFromError(c, err)
		return
	}

	state, err := h.sessionService.GetState(c.Request.Context(), session.ID, studentID)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"session": state})
}

// GetSession godoc
// GET /api/v1/student/sessions/:session_id
// Returns the session state with questions in the student's shuffled order.
func (h *StudentPortalHandler) GetSession(c *gin.Context) {
	studentID := middleware.GetCallerID(c)
	if studentID == uuid.Nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	state, err := h.sessionService.GetState(c.Request.Context(), sessionID, studentID)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": state})
}

// ListSessions godoc
// GET /api/v1/student/sessions
func (h *StudentPortalHandler) ListSessions(c *gin.Context) {
	studentID := middleware.GetCallerID(c)
	if studentID == uuid.Nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessions, err := h.sessionService.ListByStudent(c.Request.Context(), studentID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if sessions == nil {
		sessions = []model.Session{}
	}

	response.Success(c, http.StatusOK, gin.H{"sessions": sessions})
}

// SaveAnswer godoc
// PUT /api/v1/student/sessions/:session_id/answers/:question_id
// Records or replaces one answer. Rejected once the deadline has passed;
// an overdue session is auto-submitted on this touch.
func (h *StudentPortalHandler) SaveAnswer(c *gin.Context) {
	studentID := middleware.GetCallerID(c)
	if studentID == uuid.Nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	questionID, err := uuid.Parse(c.Param("question_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.RecordAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.sessionService.RecordAnswer(c.Request.Context(), sessionID, studentID, questionID, req.Value); err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"saved": true})
}

// SubmitSession godoc
// POST /api/v1/student/sessions/:session_id/submit
// Submits the session and returns the graded (or provisional) result.
// Safe to retry: a second submit returns the already-stored result.
func (h *StudentPortalHandler) SubmitSession(c *gin.Context) {
	studentID := middleware.GetCallerID(c)
	if studentID == uuid.Nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	result, err := h.sessionService.Submit(c.Request.Context(), sessionID, studentID)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// ListResults godoc
// GET /api/v1/student/results
func (h *StudentPortalHandler) ListResults(c *gin.Context) {
	studentID := middleware.GetCallerID(c)
	if studentID == uuid.Nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	results, err := h.resultService.ListForStudent(c.Request.Context(), studentID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if results == nil {
		results = []model.Result{}
	}

	response.Success(c, http.StatusOK, gin.H{"results": results})
}

// GetResult godoc
// GET /api/v1/student/results/:result_id
func (h *StudentPortalHandler) GetResult(c *gin.Context) {
	studentID := middleware.GetCallerID(c)
	if studentID == uuid.Nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	resultID, err := uuid.Parse(c.Param("result_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	result, err := h.resultService.GetForStudent(c.Request.Context(), resultID, studentID)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// GetCertificate godoc
// GET /api/v1/student/results/:result_id/certificate
// Returns the certificate for a passed final result, issuing it on the
// spot if the background issue queue has not caught up yet.
func (h *StudentPortalHandler) GetCertificate(c *gin.Context) {
	studentID := middleware.GetCallerID(c)
	if studentID == uuid.Nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	resultID, err := uuid.Parse(c.Param("result_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	certificate, err := h.certificateService.GetForStudent(c.Request.Context(), resultID, studentID)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"certificate": certificate})
}
