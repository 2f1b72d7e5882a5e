package model

import (
	"time"

	"github.com/google/uuid"
)

// Certificate is a uniquely identified, publicly verifiable artifact issued
// at most once per passing final result. Issuance is one-way; there is no
// revocation.
type Certificate struct {
	ID              string     `json:"id"`
	ResultID        uuid.UUID  `json:"result_id"`
	StudentID       uuid.UUID  `json:"student_id"`
	ExamID          uuid.UUID  `json:"exam_id"`
	IssueDate       time.Time  `json:"issue_date"`
	ExpiryDate      *time.Time `json:"expiry_date,omitempty"`
	VerificationURL string     `json:"verification_url"`
}

// Valid reports whether the certificate is still within its validity window.
func (c *Certificate) Valid(now time.Time) bool {
	return c.ExpiryDate == nil || now.Before(*c.ExpiryDate)
}

// CertificateVerification is the public verification view of a certificate.
type CertificateVerification struct {
	Certificate
	Valid bool `json:"valid"`
}
