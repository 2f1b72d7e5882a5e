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

// EvaluationHandler handles examiner endpoints for grading subjective answers.
type EvaluationHandler struct {
	evaluationService *service.EvaluationService
}

// NewEvaluationHandler creates a new EvaluationHandler.
func NewEvaluationHandler(evaluationService *service.EvaluationService) *EvaluationHandler {
	return &EvaluationHandler{evaluationService: evaluationService}
}

// ListPending godoc
// GET /api/v1/examiner/evaluations?limit=50
// Lists ungraded subjective answers across provisional results, oldest
// submission first, with their current claim state.
func (h *EvaluationHandler) ListPending(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	pending, err := h.evaluationService.Pending(c.Request.Context(), limit)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if pending == nil {
		pending = []service.PendingAnswer{}
	}

	response.Success(c, http.StatusOK, gin.H{"pending": pending})
}

// Claim godoc
// POST /api/v1/examiner/evaluations/:result_id/answers/:question_id/claim
// Takes an exclusive time-limited claim on one ungraded subjective answer.
// Re-claiming an answer you already hold renews the lease.
func (h *EvaluationHandler) Claim(c *gin.Context) {
	examinerID := middleware.GetCallerID(c)
	if examinerID == uuid.Nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	resultID, err := uuid.Parse(c.Param("result_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	questionID, err := uuid.Parse(c.Param("question_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	claim, err := h.evaluationService.ClaimAnswer(c.Request.Context(), resultID, questionID, examinerID)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"claim": claim})
}

// Grade godoc
// POST /api/v1/examiner/evaluations/:result_id/answers/:question_id/grade
// Records a score and feedback for a claimed answer. When the last
// ungraded answer is scored the result flips to FINAL and, if passed,
// certificate issuance is queued.
func (h *EvaluationHandler) Grade(c *gin.Context) {
	examinerID := middleware.GetCallerID(c)
	if examinerID == uuid.Nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	resultID, err := uuid.Parse(c.Param("result_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	questionID, err := uuid.Parse(c.Param("question_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SubmitGradeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.evaluationService.SubmitGrade(c.Request.Context(), resultID, questionID, examinerID, req.Score, req.Feedback)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}
