package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/certiva/certiva-backend/internal/config"
	"github.com/certiva/certiva-backend/internal/model"
	"github.com/certiva/certiva-backend/internal/repository"
)

// Domain errors of certificate issuance.
var (
	ErrResultNotFinal      = errors.New("result is not final")
	ErrCertificateNotFound = errors.New("certificate not found")
)

// CertificateService is the only writer of certificates. Issuance is
// at-most-once per result, guarded by the unique constraint rather than a
// lock, so any number of callers may race and exactly one row appears.
type CertificateService struct {
	certRepo   *repository.CertificateRepository
	resultRepo *repository.ResultRepository
	cfg        *config.Config
	log        zerolog.Logger
}

// NewCertificateService creates a new CertificateService.
func NewCertificateService(
	certRepo *repository.CertificateRepository,
	resultRepo *repository.ResultRepository,
	cfg *config.Config,
	log zerolog.Logger,
) *CertificateService {
	return &CertificateService{
		certRepo:   certRepo,
		resultRepo: resultRepo,
		cfg:        cfg,
		log:        log.With().Str("component", "certificate_service").Logger(),
	}
}

// IssueIfEligible issues the certificate for a passing final result. It is
// safe to call any number of times after grading settles: a result that is
// not passed returns (nil, nil), and a result that already has a
// certificate returns the existing one. Only a result that is still
// PROVISIONAL is an error.
func (s *CertificateService) IssueIfEligible(ctx context.Context, resultID uuid.UUID) (*model.Certificate, error) {
	result, err := s.resultRepo.GetByID(ctx, resultID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("get result: %w", err)
	}

	if result.Status != model.ResultStatusFinal {
		return nil, ErrResultNotFinal
	}
	if !result.Passed {
		return nil, nil // expected steady state, not a failure
	}

	if existing, err := s.certRepo.GetByResultID(ctx, resultID); err == nil {
		return existing, nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("check existing certificate: %w", err)
	}

	cert := &model.Certificate{
		ID:        newCertificateID(),
		ResultID:  result.ID,
		StudentID: result.StudentID,
		ExamID:    result.ExamID,
		IssueDate: time.Now(),
	}
	cert.VerificationURL = fmt.Sprintf("%s/verify/%s", strings.TrimRight(s.cfg.CertBaseURL, "/"), cert.ID)
	if s.cfg.CertValidityDays > 0 {
		expiry := cert.IssueDate.AddDate(0, 0, s.cfg.CertValidityDays)
		cert.ExpiryDate = &expiry
	}

	if err := s.certRepo.Create(ctx, cert); err != nil {
		if errors.Is(err, repository.ErrDuplicateCertificate) {
			// Lost the race: the winner's certificate is the certificate.
			return s.certRepo.GetByResultID(ctx, resultID)
		}
		return nil, fmt.Errorf("create certificate: %w", err)
	}

	s.log.Info().
		Str("certificate_id", cert.ID).
		Str("result_id", resultID.String()).
		Str("student_id", result.StudentID.String()).
		Msg("Certificate issued")
	return cert, nil
}

// GetForStudent retrieves (issuing on demand if needed) the certificate for
// one of the student's own results. Self-heals a lost queue event.
func (s *CertificateService) GetForStudent(ctx context.Context, resultID, studentID uuid.UUID) (*model.Certificate, error) {
	result, err := s.resultRepo.GetByID(ctx, resultID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("get result: %w", err)
	}
	if result.StudentID != studentID {
		return nil, ErrNotSessionOwner
	}

	cert, err := s.IssueIfEligible(ctx, resultID)
	if err != nil {
		return nil, err
	}
	if cert == nil {
		return nil, ErrCertificateNotFound // final but not passed
	}
	return cert, nil
}

// Verify resolves a certificate id for the public verification surface.
// Pure read: no core state changes.
func (s *CertificateService) Verify(ctx context.Context, certificateID string) (*model.CertificateVerification, error) {
	cert, err := s.certRepo.GetByID(ctx, certificateID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCertificateNotFound
		}
		return nil, fmt.Errorf("get certificate: %w", err)
	}
	return &model.CertificateVerification{
		Certificate: *cert,
		Valid:       cert.Valid(time.Now()),
	}, nil
}

// newCertificateID builds a globally unique certificate id from a v4 UUID:
// 128 bits of entropy behind a stable, human-scannable prefix.
func newCertificateID() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "CERT-" + strings.ToUpper(raw)
}
