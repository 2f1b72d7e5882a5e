package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SessionStatus enumerates exam session states. The transition is one-way:
// IN_PROGRESS → SUBMITTED, performed exactly once.
type SessionStatus string

const (
	SessionStatusInProgress SessionStatus = "IN_PROGRESS"
	SessionStatusSubmitted  SessionStatus = "SUBMITTED"
)

// Session is one student's single attempt at one exam, bounded by a
// server-anchored deadline. QuestionOrder is a permutation of the exam's
// question ids frozen at creation; Answers maps question id → raw recorded
// value (option id or free text), last write wins.
type Session struct {
	ID            uuid.UUID         `json:"id"`
	ExamID        uuid.UUID         `json:"exam_id"`
	StudentID     uuid.UUID         `json:"student_id"`
	QuestionOrder []uuid.UUID       `json:"question_order"`
	Answers       map[string]string `json:"answers"`
	ShuffleSeed   int64             `json:"-"`
	StartedAt     time.Time         `json:"started_at"`
	Deadline      time.Time         `json:"deadline"`
	Status        SessionStatus     `json:"status"`
	SubmittedAt   *time.Time        `json:"submitted_at,omitempty"`
	AutoSubmitted bool              `json:"auto_submitted"`
}

// Expired reports whether the deadline has passed at the given instant.
// The deadline itself is the last acceptable moment.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.Deadline)
}

// Active reports whether answers may still be recorded.
func (s *Session) Active(now time.Time) bool {
	return s.Status == SessionStatusInProgress && !s.Expired(now)
}

// Remaining returns the time left until the deadline, floored at zero.
func (s *Session) Remaining(now time.Time) time.Duration {
	if r := s.Deadline.Sub(now); r > 0 {
		return r
	}
	return 0
}

// HasQuestion reports whether the question belongs to this session's set.
func (s *Session) HasQuestion(questionID uuid.UUID) bool {
	for _, id := range s.QuestionOrder {
		if id == questionID {
			return true
		}
	}
	return false
}

// AnsweredCount returns the number of questions with a recorded answer.
func (s *Session) AnsweredCount() int {
	return len(s.Answers)
}

// WordCount counts whitespace-separated words, the measure used for
// subjective answer length limits.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// RecordAnswerRequest is the payload for saving one answer.
type RecordAnswerRequest struct {
	Value string `json:"value" binding:"required,max=100000"`
}

// SessionState is the student-facing view of a running or finished session.
type SessionState struct {
	ID               uuid.UUID         `json:"id"`
	ExamID           uuid.UUID         `json:"exam_id"`
	ExamTitle        string            `json:"exam_title"`
	Status           SessionStatus     `json:"status"`
	StartedAt        time.Time         `json:"started_at"`
	Deadline         time.Time         `json:"deadline"`
	RemainingSeconds float64           `json:"remaining_seconds"`
	AnsweredCount    int               `json:"answered_count"`
	QuestionCount    int               `json:"question_count"`
	Questions        []StudentQuestion `json:"questions"`
	Answers          map[string]string `json:"answers"`
}
