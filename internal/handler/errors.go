package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/certiva/certiva-backend/internal/response"
	"github.com/certiva/certiva-backend/internal/service"
)

// failFromError maps domain errors to HTTP status + typed error code.
// Unmapped errors become opaque 500s; the details stay in the server log.
func failFromError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExamNotFound),
		errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrResultNotFound),
		errors.Is(err, service.ErrCertificateNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)

	case errors.Is(err, service.ErrNotSessionOwner),
		errors.Is(err, service.ErrSelfEvaluation):
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)

	case errors.Is(err, service.ErrExamNotPublished):
		response.Fail(c, http.StatusConflict, response.ErrExamNotPublished)
	case errors.Is(err, service.ErrExamNotDraft):
		response.Fail(c, http.StatusConflict, response.ErrExamNotDraft)
	case errors.Is(err, service.ErrInvalidExam):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrInvalidExam)

	case errors.Is(err, service.ErrSessionNotActive):
		response.Fail(c, http.StatusConflict, response.ErrSessionNotActive)
	case errors.Is(err, service.ErrUnknownQuestion):
		response.Fail(c, http.StatusNotFound, response.ErrUnknownQuestion)
	case errors.Is(err, service.ErrAnswerTooLong):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrAnswerTooLong)

	case errors.Is(err, service.ErrAlreadyClaimed):
		response.Fail(c, http.StatusConflict, response.ErrAlreadyClaimed)
	case errors.Is(err, service.ErrNotClaimed):
		response.Fail(c, http.StatusConflict, response.ErrNotClaimed)
	case errors.Is(err, service.ErrAlreadyGraded):
		response.Fail(c, http.StatusConflict, response.ErrConflict)
	case errors.Is(err, service.ErrScoreOutOfRange):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrScoreOutOfRange)

	case errors.Is(err, service.ErrResultNotFinal):
		response.Fail(c, http.StatusConflict, response.ErrResultNotFinal)

	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
