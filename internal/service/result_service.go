package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/certiva/certiva-backend/internal/model"
	"github.com/certiva/certiva-backend/internal/repository"
)

// ResultService is the read surface over graded results for dashboards and
// result views. All mutation happens in the grading path; nothing here
// writes.
type ResultService struct {
	resultRepo *repository.ResultRepository
}

// NewResultService creates a new ResultService.
func NewResultService(resultRepo *repository.ResultRepository) *ResultService {
	return &ResultService{resultRepo: resultRepo}
}

// GetForStudent retrieves one of the student's own results with its
// per-question breakdown.
func (s *ResultService) GetForStudent(ctx context.Context, resultID, studentID uuid.UUID) (*model.Result, error) {
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
	return result, nil
}

// ListForStudent retrieves all of the student's results, newest first.
func (s *ResultService) ListForStudent(ctx context.Context, studentID uuid.UUID) ([]model.Result, error) {
	results, err := s.resultRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	if results == nil {
		results = []model.Result{}
	}
	return results, nil
}
