package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/certiva/certiva-backend/internal/model"
	"github.com/certiva/certiva-backend/internal/response"
	"github.com/certiva/certiva-backend/internal/service"
	"github.com/certiva/certiva-backend/internal/validator"
)

// ExamHandler handles admin exam authoring endpoints.
type ExamHandler struct {
	catalogService *service.CatalogService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(catalogService *service.CatalogService) *ExamHandler {
	return &ExamHandler{catalogService: catalogService}
}

// Create godoc
// POST /api/v1/admin/exams
// Creates a new exam in DRAFT status.
func (h *ExamHandler) Create(c *gin.Context) {
	var req model.CreateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.catalogService.Create(c.Request.Context(), &req)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"exam": exam})
}

// List godoc
// GET /api/v1/admin/exams?status=DRAFT&page=1&per_page=10
func (h *ExamHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))
	status := model.ExamStatus(c.DefaultQuery("status", string(model.ExamStatusPublished)))

	exams, pagination, err := h.catalogService.ListByStatus(c.Request.Context(), status, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if exams == nil {
		exams = []model.Exam{}
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"exams": exams}, pagination)
}

// Get godoc
// GET /api/v1/admin/exams/:exam_id
// Returns the full exam definition including correct answers.
func (h *ExamHandler) Get(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	exam, err := h.catalogService.GetByID(c.Request.Context(), examID)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// Publish godoc
// POST /api/v1/admin/exams/:exam_id/publish
// Validates the exam and transitions DRAFT -> PUBLISHED.
func (h *ExamHandler) Publish(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	exam, err := h.catalogService.Publish(c.Request.Context(), examID)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// Archive godoc
// POST /api/v1/admin/exams/:exam_id/archive
// Transitions PUBLISHED -> ARCHIVED. New sessions can no longer start;
// in-flight sessions keep running against the frozen definition.
func (h *ExamHandler) Archive(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.catalogService.Archive(c.Request.Context(), examID); err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"archived": true})
}
