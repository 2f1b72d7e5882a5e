package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/certiva/certiva-backend/internal/config"
	"github.com/certiva/certiva-backend/internal/model"
	"github.com/certiva/certiva-backend/internal/repository"
	"github.com/certiva/certiva-backend/internal/response"
)

// Domain errors shared by the catalog surface.
var (
	ErrExamNotFound     = errors.New("exam not found")
	ErrExamNotDraft     = errors.New("exam status is not DRAFT")
	ErrExamNotPublished = errors.New("exam status is not PUBLISHED")
	ErrInvalidExam      = errors.New("invalid exam definition")
)

// CatalogService owns exam and question definitions. Definitions are
// mutable while DRAFT, frozen at publish, and served to the rest of the
// core through a Redis read-through cache.
type CatalogService struct {
	examRepo *repository.ExamRepository
	rdb      *redis.Client
	log      zerolog.Logger
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(examRepo *repository.ExamRepository, rdb *redis.Client, log zerolog.Logger) *CatalogService {
	return &CatalogService{
		examRepo: examRepo,
		rdb:      rdb,
		log:      log.With().Str("component", "catalog_service").Logger(),
	}
}

// Create authors a new DRAFT exam from the request payload. Question
// invariants are enforced here, at the authoring boundary, so malformed
// definitions never reach a session or the grading path.
func (s *CatalogService) Create(ctx context.Context, req *model.CreateExamRequest) (*model.Exam, error) {
	exam := &model.Exam{
		ID:              uuid.New(),
		Title:           req.Title,
		Description:     req.Description,
		DurationSeconds: req.DurationSeconds,
		PassingScore:    req.PassingScore,
		Status:          model.ExamStatusDraft,
	}

	for i, qr := range req.Questions {
		q := model.Question{
			ID:       uuid.New(),
			ExamID:   exam.ID,
			Kind:     model.QuestionKind(qr.Kind),
			Prompt:   qr.Prompt,
			Position: i,
		}
		if q.Kind.Objective() {
			q.Options = qr.Options
			q.CorrectAnswer = qr.CorrectAnswer
		} else {
			q.MaxWords = qr.MaxWords
			if q.MaxWords == 0 {
				q.MaxWords = model.DefaultMaxWords
			}
			q.MaxScore = qr.MaxScore
		}
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("%w: question %d: %s", ErrInvalidExam, i+1, err)
		}
		exam.Questions = append(exam.Questions, q)
	}

	if err := s.examRepo.Create(ctx, exam); err != nil {
		return nil, fmt.Errorf("create exam: %w", err)
	}

	s.log.Info().
		Str("exam_id", exam.ID.String()).
		Int("questions", len(exam.Questions)).
		Msg("Exam created")
	return exam, nil
}

// GetByID retrieves any exam regardless of status, bypassing the cache.
// Admin surface only: the returned exam includes correct answers.
func (s *CatalogService) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	exam, err := s.examRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}
	return exam, nil
}

// GetPublished retrieves a published exam definition through the cache.
// This is the getExam contract the session and grading components consume.
func (s *CatalogService) GetPublished(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	key := config.CacheKey.ExamDefinitionKey(id.String())

	data, err := s.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var exam model.Exam
		if err := json.Unmarshal(data, &exam); err == nil {
			return &exam, nil
		}
		// Corrupt cache entry: fall through to the database.
		s.rdb.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get cached exam: %w", err)
	}

	exam, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if exam.Status != model.ExamStatusPublished {
		return nil, ErrExamNotPublished
	}

	// Self-heal so the next request hits the cache.
	if err := s.cacheDefinition(ctx, exam); err != nil {
		s.log.Warn().Err(err).Str("exam_id", id.String()).Msg("Failed to cache exam definition")
	}
	return exam, nil
}

// ListByStatus lists exams for the admin surface, paginated.
func (s *CatalogService) ListByStatus(ctx context.Context, status model.ExamStatus, page, perPage int) ([]model.Exam, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	exams, total, err := s.examRepo.ListByStatus(ctx, status, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	if exams == nil {
		exams = []model.Exam{}
	}

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	}
	return exams, pagination, nil
}

// Publish freezes a draft exam and makes it available for sessions. The
// full definition invariants are enforced here: a zero-question exam can be
// drafted but never published.
func (s *CatalogService) Publish(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	exam, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if exam.Status != model.ExamStatusDraft {
		return nil, ErrExamNotDraft
	}
	if err := exam.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidExam, err)
	}

	if err := s.examRepo.UpdateStatus(ctx, id, model.ExamStatusPublished); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	exam.Status = model.ExamStatusPublished

	if err := s.cacheDefinition(ctx, exam); err != nil {
		s.log.Warn().Err(err).Str("exam_id", id.String()).Msg("Failed to warm exam cache")
	}

	s.log.Info().Str("exam_id", id.String()).Msg("Exam published")
	return exam, nil
}

// Archive retires a published exam. Existing sessions and results are
// untouched; new sessions can no longer start.
func (s *CatalogService) Archive(ctx context.Context, id uuid.UUID) error {
	exam, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if exam.Status != model.ExamStatusPublished {
		return ErrExamNotPublished
	}

	if err := s.examRepo.UpdateStatus(ctx, id, model.ExamStatusArchived); err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	s.rdb.Del(ctx, config.CacheKey.ExamDefinitionKey(id.String()))

	s.log.Info().Str("exam_id", id.String()).Msg("Exam archived")
	return nil
}

// PrewarmAllCaches loads all published exam definitions into Redis on
// application startup.
func (s *CatalogService) PrewarmAllCaches(ctx context.Context) error {
	exams, err := s.examRepo.ListPublished(ctx)
	if err != nil {
		return fmt.Errorf("list published exams: %w", err)
	}

	warmed := 0
	for i := range exams {
		if err := s.cacheDefinition(ctx, &exams[i]); err != nil {
			s.log.Warn().
				Err(err).
				Str("exam_id", exams[i].ID.String()).
				Msg("Failed to warm exam, skipping")
			continue
		}
		warmed++
	}

	s.log.Info().
		Int("warmed", warmed).
		Int("total", len(exams)).
		Msg("Exam definition prewarm complete")
	return nil
}

func (s *CatalogService) cacheDefinition(ctx context.Context, exam *model.Exam) error {
	data, err := json.Marshal(exam)
	if err != nil {
		return fmt.Errorf("marshal exam: %w", err)
	}
	key := config.CacheKey.ExamDefinitionKey(exam.ID.String())
	if err := s.rdb.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("cache exam: %w", err)
	}
	return nil
}
