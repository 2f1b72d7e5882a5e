package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ExamStatus enumerates the lifecycle states of an exam definition.
type ExamStatus string

const (
	ExamStatusDraft     ExamStatus = "DRAFT"
	ExamStatusPublished ExamStatus = "PUBLISHED"
	ExamStatusArchived  ExamStatus = "ARCHIVED"
)

// Exam is an exam definition, immutable once published. Questions keep the
// canonical authoring order; per-student presentation order lives on the
// session, never here.
type Exam struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	DurationSeconds int        `json:"duration_seconds"`
	PassingScore    int        `json:"passing_score"`
	Status          ExamStatus `json:"status"`
	Questions       []Question `json:"questions,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Duration returns the exam duration as a time.Duration.
func (e *Exam) Duration() time.Duration {
	return time.Duration(e.DurationSeconds) * time.Second
}

// QuestionByID looks up a question by id. Returns nil if absent.
func (e *Exam) QuestionByID(id uuid.UUID) *Question {
	for i := range e.Questions {
		if e.Questions[i].ID == id {
			return &e.Questions[i]
		}
	}
	return nil
}

// QuestionIDs returns the question ids in canonical authoring order.
func (e *Exam) QuestionIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(e.Questions))
	for i, q := range e.Questions {
		ids[i] = q.ID
	}
	return ids
}

// Validate checks the structural invariants of an exam definition.
// Violations here are authoring-boundary errors and must never reach the
// grading path.
func (e *Exam) Validate() error {
	if len(e.Questions) == 0 {
		return ErrExamNoQuestions
	}
	for i := range e.Questions {
		if err := e.Questions[i].Validate(); err != nil {
			return fmt.Errorf("question %d: %w", i+1, err)
		}
	}
	return nil
}

// QuestionKind enumerates supported question types.
type QuestionKind string

const (
	QuestionKindMultipleChoice QuestionKind = "MULTIPLE_CHOICE"
	QuestionKindTrueFalse      QuestionKind = "TRUE_FALSE"
	QuestionKindSubjective     QuestionKind = "SUBJECTIVE"
)

// Objective reports whether the kind is auto-gradable.
func (k QuestionKind) Objective() bool {
	return k == QuestionKindMultipleChoice || k == QuestionKindTrueFalse
}

// DefaultMaxWords bounds subjective answers when authoring omits a limit.
const DefaultMaxWords = 100

// Option is a single selectable choice of an objective question.
type Option struct {
	ID   string `json:"id" binding:"required,max=64"`
	Text string `json:"text" binding:"required,max=1000"`
}

// Question is a single exam question. Objective kinds carry options and a
// correct answer; subjective kinds carry a word bound and a manual-grading
// point maximum instead.
type Question struct {
	ID            uuid.UUID    `json:"id"`
	ExamID        uuid.UUID    `json:"exam_id"`
	Kind          QuestionKind `json:"kind"`
	Prompt        string       `json:"prompt"`
	Options       []Option     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correct_answer,omitempty"`
	MaxWords      int          `json:"max_words,omitempty"`
	MaxScore      float64      `json:"max_score,omitempty"`
	Position      int          `json:"position"`
}

// Exam definition invariant violations.
var (
	ErrExamNoQuestions      = errors.New("exam has no questions")
	ErrTooFewOptions        = errors.New("choice question needs at least two options")
	ErrUnknownCorrectOption = errors.New("correct answer does not reference an option")
	ErrSubjectiveMaxScore   = errors.New("subjective question needs a positive max score")
	ErrUnknownQuestionKind  = errors.New("unknown question kind")
)

// Validate checks the per-question invariants for the question's kind.
func (q *Question) Validate() error {
	switch q.Kind {
	case QuestionKindMultipleChoice, QuestionKindTrueFalse:
		if len(q.Options) < 2 {
			return ErrTooFewOptions
		}
		found := false
		for _, o := range q.Options {
			if o.ID == q.CorrectAnswer {
				found = true
				break
			}
		}
		if !found {
			return ErrUnknownCorrectOption
		}
	case QuestionKindSubjective:
		if q.MaxScore <= 0 {
			return ErrSubjectiveMaxScore
		}
	default:
		return ErrUnknownQuestionKind
	}
	return nil
}

// StudentQuestion is a question as presented to a student: no correct answer.
type StudentQuestion struct {
	ID       uuid.UUID    `json:"id"`
	Kind     QuestionKind `json:"kind"`
	Prompt   string       `json:"prompt"`
	Options  []Option     `json:"options,omitempty"`
	MaxWords int          `json:"max_words,omitempty"`
	MaxScore float64      `json:"max_score,omitempty"`
}

// ForStudent strips grading-only fields from a question.
func (q *Question) ForStudent() StudentQuestion {
	return StudentQuestion{
		ID:       q.ID,
		Kind:     q.Kind,
		Prompt:   q.Prompt,
		Options:  q.Options,
		MaxWords: q.MaxWords,
		MaxScore: q.MaxScore,
	}
}

// CreateExamRequest is the payload for authoring a new exam with questions.
type CreateExamRequest struct {
	Title           string                  `json:"title" binding:"required,min=3,max=255"`
	Description     string                  `json:"description" binding:"omitempty,max=2000"`
	DurationSeconds int                     `json:"duration_seconds" binding:"required,min=30,max=28800"`
	PassingScore    int                     `json:"passing_score" binding:"min=0,max=100"`
	Questions       []CreateQuestionRequest `json:"questions" binding:"omitempty,dive"`
}

// CreateQuestionRequest is a single question inside CreateExamRequest.
type CreateQuestionRequest struct {
	Kind          string   `json:"kind" binding:"required,oneof=MULTIPLE_CHOICE TRUE_FALSE SUBJECTIVE"`
	Prompt        string   `json:"prompt" binding:"required,min=1,max=4000"`
	Options       []Option `json:"options" binding:"omitempty,dive"`
	CorrectAnswer string   `json:"correct_answer" binding:"omitempty,max=64"`
	MaxWords      int      `json:"max_words" binding:"omitempty,min=1,max=10000"`
	MaxScore      float64  `json:"max_score" binding:"omitempty,gt=0"`
}
