package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/certiva/certiva-backend/internal/response"
	"github.com/certiva/certiva-backend/internal/service"
)

// CertificateHandler handles the public certificate verification endpoint.
type CertificateHandler struct {
	certificateService *service.CertificateService
}

// NewCertificateHandler creates a new CertificateHandler.
func NewCertificateHandler(certificateService *service.CertificateService) *CertificateHandler {
	return &CertificateHandler{certificateService: certificateService}
}

// Verify godoc
// GET /api/v1/public/certificates/:certificate_id/verify
// Unauthenticated lookup of a certificate by its public identifier.
func (h *CertificateHandler) Verify(c *gin.Context) {
	certificateID := strings.TrimSpace(c.Param("certificate_id"))
	if certificateID == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	verification, err := h.certificateService.Verify(c.Request.Context(), certificateID)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"certificate": verification})
}
