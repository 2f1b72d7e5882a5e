package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/certiva/certiva-backend/internal/model"
)

// ResultRepository handles graded result data access.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

const resultColumns = `id, session_id, exam_id, student_id, answers, score, passed, status, time_spent_seconds, submitted_at, updated_at`

// GetByID retrieves a result by id.
func (r *ResultRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Result, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+resultColumns+` FROM results WHERE id = $1`, id)
	return scanResult(row)
}

// GetBySessionID retrieves the result of a session (1:1).
func (r *ResultRepository) GetBySessionID(ctx context.Context, sessionID uuid.UUID) (*model.Result, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+resultColumns+` FROM results WHERE session_id = $1`, sessionID)
	return scanResult(row)
}

// ListByStudent retrieves a student's results, newest first.
func (r *ResultRepository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]model.Result, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+resultColumns+`
		 FROM results
		 WHERE student_id = $1
		 ORDER BY submitted_at DESC`, studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectResults(rows)
}

// ListProvisional retrieves results still awaiting subjective grading,
// oldest submission first so the evaluation queue drains fairly.
func (r *ResultRepository) ListProvisional(ctx context.Context, limit int) ([]model.Result, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+resultColumns+`
		 FROM results
		 WHERE status = $1
		 ORDER BY submitted_at ASC
		 LIMIT $2`, model.ResultStatusProvisional, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectResults(rows)
}

// UpdateGraded applies a grading mutation to a result under a row lock and
// persists the recomputed answers, score, passed, and status. The mutate
// callback sees the current row and returns an error to abort the update.
// Two examiners grading different questions of the same result serialize on
// the FOR UPDATE lock, so neither overwrites the other's score.
func (r *ResultRepository) UpdateGraded(ctx context.Context, id uuid.UUID, mutate func(*model.Result) error) (*model.Result, error) {
	var result *model.Result

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`SELECT `+resultColumns+` FROM results WHERE id = $1 FOR UPDATE`, id)
		current, err := scanResult(row)
		if err != nil {
			return err
		}

		if err := mutate(current); err != nil {
			return err
		}

		answers, err := json.Marshal(current.Answers)
		if err != nil {
			return fmt.Errorf("marshal answers: %w", err)
		}
		err = tx.QueryRow(ctx,
			`UPDATE results
			 SET answers = $1, score = $2, passed = $3, status = $4, updated_at = now()
			 WHERE id = $5
			 RETURNING updated_at`,
			answers, current.Score, current.Passed, current.Status, id,
		).Scan(&current.UpdatedAt)
		if err != nil {
			return err
		}
		result = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func scanResult(row pgx.Row) (*model.Result, error) {
	res := &model.Result{}
	var answers []byte
	err := row.Scan(&res.ID, &res.SessionID, &res.ExamID, &res.StudentID, &answers,
		&res.Score, &res.Passed, &res.Status, &res.TimeSpentSeconds, &res.SubmittedAt, &res.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(answers, &res.Answers); err != nil {
		return nil, fmt.Errorf("unmarshal answers: %w", err)
	}
	return res, nil
}

func collectResults(rows pgx.Rows) ([]model.Result, error) {
	var results []model.Result
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *res)
	}
	return results, rows.Err()
}
