package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/certiva/certiva-backend/internal/grading"
	"github.com/certiva/certiva-backend/internal/model"
	"github.com/certiva/certiva-backend/internal/repository"
)

// Domain errors of the session lifecycle.
var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrNotSessionOwner  = errors.New("session belongs to another student")
	ErrSessionNotActive = errors.New("session is not accepting answers")
	ErrUnknownQuestion  = errors.New("question is not part of this session")
	ErrAnswerTooLong    = errors.New("answer exceeds the word limit")
)

// SessionService owns the exam attempt lifecycle: creation with a shuffled
// question order, answer recording under the deadline, and the one-way
// submit transition that triggers grading. The deadline is a property of
// the session row, not of any in-memory timer: expiry is detected lazily on
// access and by the deadline worker's sweep, and both paths funnel into the
// same idempotent submit.
type SessionService struct {
	sessionRepo *repository.SessionRepository
	resultRepo  *repository.ResultRepository
	catalog     *CatalogService
	log         zerolog.Logger
}

// NewSessionService creates a new SessionService.
func NewSessionService(
	sessionRepo *repository.SessionRepository,
	resultRepo *repository.ResultRepository,
	catalog *CatalogService,
	log zerolog.Logger,
) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		resultRepo:  resultRepo,
		catalog:     catalog,
		log:         log.With().Str("component", "session_service").Logger(),
	}
}

// Start creates a session for the student on a published exam. One
// concurrent attempt per exam per student: if an IN_PROGRESS session
// already exists it is returned as-is, so client retries are safe.
// Completed attempts do not block a retake.
func (s *SessionService) Start(ctx context.Context, examID, studentID uuid.UUID) (*model.Session, error) {
	exam, err := s.catalog.GetPublished(ctx, examID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &model.Session{
		ID:          uuid.New(),
		ExamID:      examID,
		StudentID:   studentID,
		ShuffleSeed: rand.Int63(),
		StartedAt:   now,
		Deadline:    now.Add(exam.Duration()),
		Status:      model.SessionStatusInProgress,
		Answers:     map[string]string{},
	}
	session.QuestionOrder = shuffleQuestionIDs(exam.QuestionIDs(), session.ShuffleSeed)

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Concurrent or repeated start: hand back the active session.
			existing, fetchErr := s.sessionRepo.GetActive(ctx, examID, studentID)
			if fetchErr != nil {
				return nil, fmt.Errorf("fetch existing session: %w", fetchErr)
			}
			return existing, nil
		}
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.log.Info().
		Str("session_id", session.ID.String()).
		Str("exam_id", examID.String()).
		Str("student_id", studentID.String()).
		Time("deadline", session.Deadline).
		Msg("Session started")
	return session, nil
}

// GetState returns the student-facing view of a session, forcing submission
// first if the deadline has passed unnoticed.
func (s *SessionService) GetState(ctx context.Context, sessionID, studentID uuid.UUID) (*model.SessionState, error) {
	session, err := s.load(ctx, sessionID, studentID)
	if err != nil {
		return nil, err
	}
	session, err = s.expireIfOverdue(ctx, session)
	if err != nil {
		return nil, err
	}

	exam, err := s.exam(ctx, session.ExamID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	state := &model.SessionState{
		ID:               session.ID,
		ExamID:           session.ExamID,
		ExamTitle:        exam.Title,
		Status:           session.Status,
		StartedAt:        session.StartedAt,
		Deadline:         session.Deadline,
		RemainingSeconds: session.Remaining(now).Seconds(),
		AnsweredCount:    session.AnsweredCount(),
		QuestionCount:    len(session.QuestionOrder),
		Answers:          session.Answers,
	}
	if session.Status == model.SessionStatusSubmitted {
		state.RemainingSeconds = 0
	}

	// Questions in the session's shuffled order, stripped of answers.
	state.Questions = make([]model.StudentQuestion, 0, len(session.QuestionOrder))
	for _, qid := range session.QuestionOrder {
		if q := exam.QuestionByID(qid); q != nil {
			state.Questions = append(state.Questions, q.ForStudent())
		}
	}
	return state, nil
}

// RecordAnswer saves one answer, overwriting any prior value for the same
// question. Rejected once the session is submitted or past its deadline.
func (s *SessionService) RecordAnswer(ctx context.Context, sessionID, studentID, questionID uuid.UUID, value string) error {
	session, err := s.load(ctx, sessionID, studentID)
	if err != nil {
		return err
	}

	now := time.Now()
	if !session.Active(now) {
		if session.Status == model.SessionStatusInProgress {
			// Deadline passed but nobody noticed yet: settle it now.
			if _, err := s.ForceSubmit(ctx, sessionID); err != nil {
				s.log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("Deferred force-submit failed")
			}
		}
		return ErrSessionNotActive
	}

	if !session.HasQuestion(questionID) {
		return ErrUnknownQuestion
	}

	exam, err := s.exam(ctx, session.ExamID)
	if err != nil {
		return err
	}
	if q := exam.QuestionByID(questionID); q != nil && q.Kind == model.QuestionKindSubjective {
		if model.WordCount(value) > q.MaxWords {
			return ErrAnswerTooLong
		}
	}

	if err := s.sessionRepo.SaveAnswer(ctx, sessionID, questionID, value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Lost a race with submit between the load and the write.
			return ErrSessionNotActive
		}
		return fmt.Errorf("save answer: %w", err)
	}
	return nil
}

// Submit performs the InProgress → Submitted transition and returns the
// graded result. Idempotent: a session that is already submitted returns
// its existing result, so duplicate calls never double-process.
func (s *SessionService) Submit(ctx context.Context, sessionID, studentID uuid.UUID) (*model.Result, error) {
	session, err := s.load(ctx, sessionID, studentID)
	if err != nil {
		return nil, err
	}
	return s.submit(ctx, session, false)
}

// ForceSubmit is the deadline-recovery path used by the sweep worker and
// lazy expiry checks. No ownership check: the caller is the server itself.
func (s *SessionService) ForceSubmit(ctx context.Context, sessionID uuid.UUID) (*model.Result, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return s.submit(ctx, session, true)
}

// ListOverdue returns ids of in-progress sessions past their deadline, for
// the sweep worker.
func (s *SessionService) ListOverdue(ctx context.Context, limit int) ([]uuid.UUID, error) {
	return s.sessionRepo.ListOverdue(ctx, time.Now(), limit)
}

// ListByStudent returns all sessions of a student for dashboards.
func (s *SessionService) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]model.Session, error) {
	return s.sessionRepo.ListByStudent(ctx, studentID)
}

func (s *SessionService) submit(ctx context.Context, session *model.Session, forced bool) (*model.Result, error) {
	if session.Status == model.SessionStatusSubmitted {
		return s.existingResult(ctx, session.ID)
	}

	exam, err := s.exam(ctx, session.ExamID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	auto := forced || session.Expired(now)
	submittedAt := now
	if auto && now.After(session.Deadline) {
		// Late answers were already rejected; the attempt ends at the
		// deadline, not at whatever moment the sweep noticed it.
		submittedAt = session.Deadline
	}

	result, err := s.sessionRepo.Submit(ctx, session.ID, submittedAt, auto,
		func(frozen *model.Session) (*model.Result, error) {
			return grading.Score(exam, frozen, submittedAt), nil
		})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Another caller won the race; its result is committed.
			return s.existingResult(ctx, session.ID)
		}
		return nil, fmt.Errorf("submit session: %w", err)
	}

	s.log.Info().
		Str("session_id", session.ID.String()).
		Str("result_id", result.ID.String()).
		Int("score", result.Score).
		Bool("auto_submitted", auto).
		Str("status", string(result.Status)).
		Msg("Session submitted")
	return result, nil
}

func (s *SessionService) existingResult(ctx context.Context, sessionID uuid.UUID) (*model.Result, error) {
	result, err := s.resultRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get result of submitted session: %w", err)
	}
	return result, nil
}

func (s *SessionService) load(ctx context.Context, sessionID, studentID uuid.UUID) (*model.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session.StudentID != studentID {
		return nil, ErrNotSessionOwner
	}
	return session, nil
}

// expireIfOverdue settles an overdue in-progress session and reloads it.
func (s *SessionService) expireIfOverdue(ctx context.Context, session *model.Session) (*model.Session, error) {
	if session.Status != model.SessionStatusInProgress || !session.Expired(time.Now()) {
		return session, nil
	}
	if _, err := s.submit(ctx, session, true); err != nil {
		return nil, err
	}
	return s.sessionRepo.GetByID(ctx, session.ID)
}

// exam resolves the definition a session was built from. Published exams
// come from the cache; archived ones fall back to the database so running
// and submitted sessions keep working.
func (s *SessionService) exam(ctx context.Context, examID uuid.UUID) (*model.Exam, error) {
	exam, err := s.catalog.GetPublished(ctx, examID)
	if errors.Is(err, ErrExamNotPublished) {
		return s.catalog.GetByID(ctx, examID)
	}
	return exam, err
}

// shuffleQuestionIDs returns a seeded uniform permutation of the question
// ids. The seed is stored per session, so two attempts see independent
// orders while one attempt's order is reproducible from its row.
func shuffleQuestionIDs(ids []uuid.UUID, seed int64) []uuid.UUID {
	shuffled := make([]uuid.UUID, len(ids))
	copy(shuffled, ids)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled
}
