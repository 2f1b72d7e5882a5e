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

// ExamRepository handles exam and question data access.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

// Create inserts an exam with its questions in one transaction.
func (r *ExamRepository) Create(ctx context.Context, exam *model.Exam) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO exams (id, title, description, duration_seconds, passing_score, status)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING created_at, updated_at`,
			exam.ID, exam.Title, exam.Description, exam.DurationSeconds, exam.PassingScore, exam.Status,
		).Scan(&exam.CreatedAt, &exam.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert exam: %w", err)
		}

		for i := range exam.Questions {
			q := &exam.Questions[i]
			opts, err := json.Marshal(q.Options)
			if err != nil {
				return fmt.Errorf("marshal options: %w", err)
			}
			_, err = tx.Exec(ctx,
				`INSERT INTO questions (id, exam_id, kind, prompt, options, correct_answer, max_words, max_score, position)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				q.ID, exam.ID, q.Kind, q.Prompt, opts, q.CorrectAnswer, q.MaxWords, q.MaxScore, q.Position,
			)
			if err != nil {
				return fmt.Errorf("insert question: %w", err)
			}
		}
		return nil
	})
}

// GetByID retrieves an exam with its questions in canonical order.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	e := &model.Exam{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, description, duration_seconds, passing_score, status, created_at, updated_at
		 FROM exams
		 WHERE id = $1`, id,
	).Scan(&e.ID, &e.Title, &e.Description, &e.DurationSeconds, &e.PassingScore, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}

	questions, err := r.listQuestions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	e.Questions = questions
	return e, nil
}

// ListByStatus retrieves exams (without questions) filtered by status,
// newest first, paginated.
func (r *ExamRepository) ListByStatus(ctx context.Context, status model.ExamStatus, limit, offset int) ([]model.Exam, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM exams WHERE status = $1`, status,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, title, description, duration_seconds, passing_score, status, created_at, updated_at
		 FROM exams
		 WHERE status = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`, status, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.DurationSeconds, &e.PassingScore, &e.Status, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, 0, err
		}
		exams = append(exams, e)
	}
	return exams, total, rows.Err()
}

// ListPublished retrieves all published exams with their questions, used to
// prewarm the definition cache at startup.
func (r *ExamRepository) ListPublished(ctx context.Context) ([]model.Exam, error) {
	exams, _, err := r.ListByStatus(ctx, model.ExamStatusPublished, 1000, 0)
	if err != nil {
		return nil, err
	}
	for i := range exams {
		questions, err := r.listQuestions(ctx, exams[i].ID)
		if err != nil {
			return nil, fmt.Errorf("list questions: %w", err)
		}
		exams[i].Questions = questions
	}
	return exams, nil
}

// UpdateStatus transitions an exam's lifecycle status.
func (r *ExamRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ExamStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exams SET status = $1, updated_at = now() WHERE id = $2`,
		status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ExamRepository) listQuestions(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, exam_id, kind, prompt, options, correct_answer, max_words, max_score, position
		 FROM questions
		 WHERE exam_id = $1
		 ORDER BY position ASC`, examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		var opts []byte
		if err := rows.Scan(&q.ID, &q.ExamID, &q.Kind, &q.Prompt, &opts, &q.CorrectAnswer, &q.MaxWords, &q.MaxScore, &q.Position); err != nil {
			return nil, err
		}
		if len(opts) > 0 {
			if err := json.Unmarshal(opts, &q.Options); err != nil {
				return nil, fmt.Errorf("unmarshal options: %w", err)
			}
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}
