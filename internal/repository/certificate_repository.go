package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/certiva/certiva-backend/internal/model"
)

// ErrDuplicateCertificate reports that a certificate already exists for the
// result. Callers treat it as a steady state, not a failure.
var ErrDuplicateCertificate = errors.New("certificate already exists for result")

// CertificateRepository handles certificate data access.
type CertificateRepository struct {
	pool *pgxpool.Pool
}

// NewCertificateRepository creates a new CertificateRepository.
func NewCertificateRepository(pool *pgxpool.Pool) *CertificateRepository {
	return &CertificateRepository{pool: pool}
}

const certificateColumns = `id, result_id, student_id, exam_id, issue_date, expiry_date, verification_url`

// Create inserts a certificate. The unique constraint on result_id is the
// at-most-once issuance guard: a concurrent duplicate surfaces as
// ErrDuplicateCertificate instead of a second row.
func (r *CertificateRepository) Create(ctx context.Context, c *model.Certificate) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO certificates (id, result_id, student_id, exam_id, issue_date, expiry_date, verification_url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.ResultID, c.StudentID, c.ExamID, c.IssueDate, c.ExpiryDate, c.VerificationURL)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateCertificate
		}
		return err
	}
	return nil
}

// GetByID retrieves a certificate by its public id.
func (r *CertificateRepository) GetByID(ctx context.Context, id string) (*model.Certificate, error) {
	return r.get(ctx, `SELECT `+certificateColumns+` FROM certificates WHERE id = $1`, id)
}

// GetByResultID retrieves the certificate issued for a result, if any.
func (r *CertificateRepository) GetByResultID(ctx context.Context, resultID uuid.UUID) (*model.Certificate, error) {
	return r.get(ctx, `SELECT `+certificateColumns+` FROM certificates WHERE result_id = $1`, resultID)
}

func (r *CertificateRepository) get(ctx context.Context, query string, arg any) (*model.Certificate, error) {
	c := &model.Certificate{}
	err := r.pool.QueryRow(ctx, query, arg).
		Scan(&c.ID, &c.ResultID, &c.StudentID, &c.ExamID, &c.IssueDate, &c.ExpiryDate, &c.VerificationURL)
	if err != nil {
		return nil, err
	}
	return c, nil
}
