package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/certiva/certiva-backend/internal/model"
)

// SessionRepository handles exam session data access.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

const sessionColumns = `id, exam_id, student_id, question_order, answers, shuffle_seed, started_at, deadline, status, submitted_at, auto_submitted`

// Create inserts a new session. A partial unique index allows at most one
// IN_PROGRESS session per (exam, student); on conflict nothing is inserted
// and pgx.ErrNoRows is returned so the caller can fetch the existing one.
func (r *SessionRepository) Create(ctx context.Context, s *model.Session) error {
	order, err := json.Marshal(s.QuestionOrder)
	if err != nil {
		return fmt.Errorf("marshal question order: %w", err)
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO exam_sessions (id, exam_id, student_id, question_order, answers, shuffle_seed, started_at, deadline, status)
		 VALUES ($1, $2, $3, $4, '{}', $5, $6, $7, $8)
		 ON CONFLICT (exam_id, student_id) WHERE status = 'IN_PROGRESS' DO NOTHING
		 RETURNING started_at`,
		s.ID, s.ExamID, s.StudentID, order, s.ShuffleSeed, s.StartedAt, s.Deadline, model.SessionStatusInProgress,
	).Scan(&s.StartedAt)
}

// GetByID retrieves a session by id.
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM exam_sessions WHERE id = $1`, id)
	return scanSession(row)
}

// GetActive retrieves the student's IN_PROGRESS session for an exam.
func (r *SessionRepository) GetActive(ctx context.Context, examID, studentID uuid.UUID) (*model.Session, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+`
		 FROM exam_sessions
		 WHERE exam_id = $1 AND student_id = $2 AND status = 'IN_PROGRESS'`,
		examID, studentID)
	return scanSession(row)
}

// SaveAnswer writes one answer into the session's answer map, last write
// wins. The status and deadline guards make the write a no-op once the
// session has been submitted or its deadline has passed, even if no
// force-submit has flipped the status yet; pgx.ErrNoRows reports that case.
func (r *SessionRepository) SaveAnswer(ctx context.Context, sessionID uuid.UUID, questionID uuid.UUID, value string) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal answer: %w", err)
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE exam_sessions
		 SET answers = jsonb_set(answers, ARRAY[$1::text], $2::jsonb)
		 WHERE id = $3 AND status = 'IN_PROGRESS' AND deadline > now()`,
		questionID.String(), encoded, sessionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Submit performs the one-way IN_PROGRESS → SUBMITTED transition and stores
// the result computed by score over the frozen row, all in one transaction.
// The conditional UPDATE is the compare-and-swap: exactly one caller wins;
// losers get pgx.ErrNoRows and should fetch the existing result. Because the
// status flip and the result insert commit together, any observer of a
// SUBMITTED session can read its result.
func (r *SessionRepository) Submit(
	ctx context.Context,
	id uuid.UUID,
	submittedAt time.Time,
	autoSubmitted bool,
	score func(frozen *model.Session) (*model.Result, error),
) (*model.Result, error) {
	var result *model.Result

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`UPDATE exam_sessions
			 SET status = $1, submitted_at = $2, auto_submitted = $3
			 WHERE id = $4 AND status = 'IN_PROGRESS'
			 RETURNING `+sessionColumns,
			model.SessionStatusSubmitted, submittedAt, autoSubmitted, id)

		frozen, err := scanSession(row)
		if err != nil {
			return err // pgx.ErrNoRows: lost the race or unknown session
		}

		result, err = score(frozen)
		if err != nil {
			return fmt.Errorf("score session: %w", err)
		}

		answers, err := json.Marshal(result.Answers)
		if err != nil {
			return fmt.Errorf("marshal result answers: %w", err)
		}
		return tx.QueryRow(ctx,
			`INSERT INTO results (id, session_id, exam_id, student_id, answers, score, passed, status, time_spent_seconds, submitted_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			 RETURNING updated_at`,
			result.ID, result.SessionID, result.ExamID, result.StudentID, answers,
			result.Score, result.Passed, result.Status, result.TimeSpentSeconds, result.SubmittedAt,
		).Scan(&result.UpdatedAt)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListByStudent retrieves all sessions of a student, newest first.
func (r *SessionRepository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]model.Session, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+`
		 FROM exam_sessions
		 WHERE student_id = $1
		 ORDER BY started_at DESC`, studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// ListOverdue returns ids of IN_PROGRESS sessions whose deadline has passed,
// oldest first, for the deadline sweep.
func (r *SessionRepository) ListOverdue(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id
		 FROM exam_sessions
		 WHERE status = 'IN_PROGRESS' AND deadline < $1
		 ORDER BY deadline ASC
		 LIMIT $2`, now, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// scanSession scans one session row including its jsonb columns.
func scanSession(row pgx.Row) (*model.Session, error) {
	s := &model.Session{}
	var order, answers []byte
	err := row.Scan(&s.ID, &s.ExamID, &s.StudentID, &order, &answers, &s.ShuffleSeed,
		&s.StartedAt, &s.Deadline, &s.Status, &s.SubmittedAt, &s.AutoSubmitted)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(order, &s.QuestionOrder); err != nil {
		return nil, fmt.Errorf("unmarshal question order: %w", err)
	}
	if err := json.Unmarshal(answers, &s.Answers); err != nil {
		return nil, fmt.Errorf("unmarshal answers: %w", err)
	}
	return s, nil
}
