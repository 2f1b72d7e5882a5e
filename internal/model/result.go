package model

import (
	"time"

	"github.com/google/uuid"
)

// ResultStatus enumerates grading states. A result is FINAL once every
// subjective question carries a score; until then it is PROVISIONAL and its
// aggregate score must not be treated as authoritative.
type ResultStatus string

const (
	ResultStatusProvisional ResultStatus = "PROVISIONAL"
	ResultStatusFinal       ResultStatus = "FINAL"
)

// ResultAnswer is the graded outcome of one question within a result.
// IsCorrect is set for objective questions only; Score/Feedback/GradedBy are
// set for subjective questions once an examiner has graded them.
type ResultAnswer struct {
	QuestionID uuid.UUID    `json:"question_id"`
	Kind       QuestionKind `json:"kind"`
	Answer     string       `json:"answer,omitempty"`
	IsCorrect  *bool        `json:"is_correct,omitempty"`
	Score      *float64     `json:"score,omitempty"`
	MaxScore   float64      `json:"max_score,omitempty"`
	Feedback   string       `json:"feedback,omitempty"`
	GradedBy   *uuid.UUID   `json:"graded_by,omitempty"`
	GradedAt   *time.Time   `json:"graded_at,omitempty"`
}

// Graded reports whether a subjective answer has received its manual score.
func (a *ResultAnswer) Graded() bool {
	return a.Kind.Objective() || a.Score != nil
}

// Result is the graded outcome of a session, 1:1 with the session. Score is
// the 0–100 aggregate, recomputed whenever a subjective sub-score changes;
// Passed derives from Score vs the exam's passing score and is authoritative
// only once Status is FINAL.
type Result struct {
	ID               uuid.UUID      `json:"id"`
	SessionID        uuid.UUID      `json:"session_id"`
	ExamID           uuid.UUID      `json:"exam_id"`
	StudentID        uuid.UUID      `json:"student_id"`
	Answers          []ResultAnswer `json:"answers"`
	Score            int            `json:"score"`
	Passed           bool           `json:"passed"`
	Status           ResultStatus   `json:"status"`
	TimeSpentSeconds int            `json:"time_spent_seconds"`
	SubmittedAt      time.Time      `json:"submitted_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// AnswerFor returns the result answer row for a question, or nil.
func (r *Result) AnswerFor(questionID uuid.UUID) *ResultAnswer {
	for i := range r.Answers {
		if r.Answers[i].QuestionID == questionID {
			return &r.Answers[i]
		}
	}
	return nil
}

// UngradedSubjective returns the subjective answers still awaiting a score.
func (r *Result) UngradedSubjective() []ResultAnswer {
	var pending []ResultAnswer
	for _, a := range r.Answers {
		if a.Kind == QuestionKindSubjective && a.Score == nil {
			pending = append(pending, a)
		}
	}
	return pending
}

// SubmitGradeRequest is the payload for an examiner scoring one subjective
// answer.
type SubmitGradeRequest struct {
	Score    float64 `json:"score" binding:"min=0"`
	Feedback string  `json:"feedback" binding:"omitempty,max=4000"`
}
