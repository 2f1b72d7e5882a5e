package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/certiva/certiva-backend/internal/config"
	"github.com/certiva/certiva-backend/internal/grading"
	"github.com/certiva/certiva-backend/internal/model"
	"github.com/certiva/certiva-backend/internal/repository"
)

// Domain errors of the evaluation queue.
var (
	ErrResultNotFound  = errors.New("result not found")
	ErrAlreadyClaimed  = errors.New("another examiner holds the claim")
	ErrNotClaimed      = errors.New("caller does not hold the claim")
	ErrScoreOutOfRange = errors.New("score outside the allowed range")
	ErrAlreadyGraded   = errors.New("answer is already graded")
	ErrSelfEvaluation  = errors.New("examiners cannot grade their own session")
)

// EvaluationService exposes ungraded subjective answers to examiners and
// enforces single-grader-at-a-time assignment. A claim is a Redis lease on
// one (result, question) pair: SET NX with a TTL, so an examiner who
// abandons mid-review blocks nobody once the lease expires. This is the
// only exclusive-lock-like primitive in the core.
type EvaluationService struct {
	resultRepo *repository.ResultRepository
	catalog    *CatalogService
	rdb        *redis.Client
	claimTTL   time.Duration
	log        zerolog.Logger
}

// NewEvaluationService creates a new EvaluationService.
func NewEvaluationService(
	resultRepo *repository.ResultRepository,
	catalog *CatalogService,
	rdb *redis.Client,
	claimTTL time.Duration,
	log zerolog.Logger,
) *EvaluationService {
	return &EvaluationService{
		resultRepo: resultRepo,
		catalog:    catalog,
		rdb:        rdb,
		claimTTL:   claimTTL,
		log:        log.With().Str("component", "evaluation_service").Logger(),
	}
}

// PendingAnswer is one subjective answer awaiting manual grading.
type PendingAnswer struct {
	ResultID    uuid.UUID `json:"result_id"`
	QuestionID  uuid.UUID `json:"question_id"`
	ExamID      uuid.UUID `json:"exam_id"`
	ExamTitle   string    `json:"exam_title"`
	Prompt      string    `json:"prompt"`
	Answer      string    `json:"answer"`
	MaxScore    float64   `json:"max_score"`
	SubmittedAt time.Time `json:"submitted_at"`
	Claimed     bool      `json:"claimed"`
}

// Claim is an examiner's time-bounded exclusive right to grade one answer.
type Claim struct {
	ResultID   uuid.UUID `json:"result_id"`
	QuestionID uuid.UUID `json:"question_id"`
	ExaminerID uuid.UUID `json:"examiner_id"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Pending lists subjective answers still awaiting a score, oldest
// submission first, with their current claim state.
func (s *EvaluationService) Pending(ctx context.Context, limit int) ([]PendingAnswer, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}
	results, err := s.resultRepo.ListProvisional(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list provisional results: %w", err)
	}

	pending := []PendingAnswer{}
	for i := range results {
		res := &results[i]
		exam, err := s.examOf(ctx, res.ExamID)
		if err != nil {
			s.log.Warn().Err(err).Str("exam_id", res.ExamID.String()).Msg("Skipping result with unresolvable exam")
			continue
		}

		for _, a := range res.UngradedSubjective() {
			entry := PendingAnswer{
				ResultID:    res.ID,
				QuestionID:  a.QuestionID,
				ExamID:      res.ExamID,
				ExamTitle:   exam.Title,
				Answer:      a.Answer,
				MaxScore:    a.MaxScore,
				SubmittedAt: res.SubmittedAt,
			}
			if q := exam.QuestionByID(a.QuestionID); q != nil {
				entry.Prompt = q.Prompt
			}
			key := config.CacheKey.EvaluationClaimKey(res.ID.String(), a.QuestionID.String())
			if holder, err := s.rdb.Get(ctx, key).Result(); err == nil && holder != "" {
				entry.Claimed = true
			}
			pending = append(pending, entry)
		}
	}
	return pending, nil
}

// ClaimAnswer acquires (or renews) the grading lease on one (result,
// question) pair for the examiner.
func (s *EvaluationService) ClaimAnswer(ctx context.Context, resultID, questionID, examinerID uuid.UUID) (*Claim, error) {
	result, err := s.loadResult(ctx, resultID)
	if err != nil {
		return nil, err
	}
	if result.StudentID == examinerID {
		return nil, ErrSelfEvaluation
	}
	answer := result.AnswerFor(questionID)
	if answer == nil || answer.Kind != model.QuestionKindSubjective {
		return nil, ErrUnknownQuestion
	}
	if answer.Score != nil {
		return nil, ErrAlreadyGraded
	}

	key := config.CacheKey.EvaluationClaimKey(resultID.String(), questionID.String())
	ok, err := s.rdb.SetNX(ctx, key, examinerID.String(), s.claimTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire claim: %w", err)
	}
	if !ok {
		holder, err := s.rdb.Get(ctx, key).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("inspect claim: %w", err)
		}
		if holder != examinerID.String() {
			return nil, ErrAlreadyClaimed
		}
		// Re-claim by the holder renews the lease.
		if err := s.rdb.Expire(ctx, key, s.claimTTL).Err(); err != nil {
			return nil, fmt.Errorf("renew claim: %w", err)
		}
	}

	return &Claim{
		ResultID:   resultID,
		QuestionID: questionID,
		ExaminerID: examinerID,
		ExpiresAt:  time.Now().Add(s.claimTTL),
	}, nil
}

// SubmitGrade writes an examiner's score and feedback for one subjective
// answer, releases the claim, and recomputes the result. When the result
// lands FINAL and passed, the result id is queued for certificate issuance.
func (s *EvaluationService) SubmitGrade(ctx context.Context, resultID, questionID, examinerID uuid.UUID, score float64, feedback string) (*model.Result, error) {
	key := config.CacheKey.EvaluationClaimKey(resultID.String(), questionID.String())
	holder, err := s.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotClaimed // never claimed, or the lease expired
		}
		return nil, fmt.Errorf("inspect claim: %w", err)
	}
	if holder != examinerID.String() {
		return nil, ErrNotClaimed
	}

	// Needed for the pass threshold during recompute.
	preloaded, err := s.loadResult(ctx, resultID)
	if err != nil {
		return nil, err
	}
	exam, err := s.examOf(ctx, preloaded.ExamID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	result, err := s.resultRepo.UpdateGraded(ctx, resultID, func(r *model.Result) error {
		return applyGrade(exam, r, questionID, examinerID, score, feedback, now)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrResultNotFound
		}
		return nil, err
	}

	s.rdb.Del(ctx, key)

	if result.Status == model.ResultStatusFinal && result.Passed {
		if err := s.rdb.RPush(ctx, config.WorkerKey.IssueCertificatesQueue, result.ID.String()).Err(); err != nil {
			// The issuer self-heals on the student's certificate fetch.
			s.log.Warn().Err(err).Str("result_id", result.ID.String()).Msg("Failed to enqueue certificate issuance")
		}
	}

	s.log.Info().
		Str("result_id", resultID.String()).
		Str("question_id", questionID.String()).
		Str("examiner_id", examinerID.String()).
		Float64("awarded", score).
		Str("status", string(result.Status)).
		Msg("Subjective answer graded")
	return result, nil
}

// applyGrade writes one examiner's score onto the locked result row and
// recomputes it. The graded check here, not the lease check in SubmitGrade,
// is the authoritative double-grade guard: a grader whose lease expired
// mid-review and was overtaken serializes on the row lock and is rejected
// here instead of overwriting the newer score.
func applyGrade(exam *model.Exam, r *model.Result, questionID, examinerID uuid.UUID, score float64, feedback string, now time.Time) error {
	answer := r.AnswerFor(questionID)
	if answer == nil || answer.Kind != model.QuestionKindSubjective {
		return ErrUnknownQuestion
	}
	if answer.Score != nil {
		return ErrAlreadyGraded
	}
	if score < 0 || score > answer.MaxScore {
		return ErrScoreOutOfRange
	}
	awarded := score
	answer.Score = &awarded
	answer.Feedback = feedback
	grader := examinerID
	answer.GradedBy = &grader
	answer.GradedAt = &now

	grading.Recompute(exam, r)
	return nil
}

func (s *EvaluationService) loadResult(ctx context.Context, id uuid.UUID) (*model.Result, error) {
	result, err := s.resultRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("get result: %w", err)
	}
	return result, nil
}

// examOf resolves an exam definition even after it was archived.
func (s *EvaluationService) examOf(ctx context.Context, examID uuid.UUID) (*model.Exam, error) {
	exam, err := s.catalog.GetPublished(ctx, examID)
	if errors.Is(err, ErrExamNotPublished) {
		return s.catalog.GetByID(ctx, examID)
	}
	return exam, err
}
