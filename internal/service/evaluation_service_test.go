package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certiva/certiva-backend/internal/grading"
	"github.com/certiva/certiva-backend/internal/model"
)

func provisionalResult(t *testing.T) (*model.Exam, *model.Result, uuid.UUID) {
	t.Helper()
	subjective := model.Question{
		ID:       uuid.New(),
		Kind:     model.QuestionKindSubjective,
		Prompt:   "Explain packet fragmentation.",
		MaxWords: model.DefaultMaxWords,
		MaxScore: 10,
	}
	choice := model.Question{
		ID:   uuid.New(),
		Kind: model.QuestionKindMultipleChoice,
		Options: []model.Option{
			{ID: "a", Text: "first"},
			{ID: "b", Text: "second"},
		},
		CorrectAnswer: "a",
	}
	exam := &model.Exam{
		ID:              uuid.New(),
		Title:           "Networking Basics",
		DurationSeconds: 1800,
		PassingScore:    60,
		Status:          model.ExamStatusPublished,
		Questions:       []model.Question{choice, subjective},
	}
	started := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	session := &model.Session{
		ID:            uuid.New(),
		ExamID:        exam.ID,
		StudentID:     uuid.New(),
		QuestionOrder: exam.QuestionIDs(),
		Answers: map[string]string{
			choice.ID.String():     "a",
			subjective.ID.String(): "Large datagrams split across MTU-sized frames.",
		},
		StartedAt: started,
		Deadline:  started.Add(exam.Duration()),
		Status:    model.SessionStatusInProgress,
	}
	result := grading.Score(exam, session, started.Add(20*time.Minute))
	require.Equal(t, model.ResultStatusProvisional, result.Status)
	return exam, result, subjective.ID
}

func TestApplyGradeFinalizesResult(t *testing.T) {
	exam, result, questionID := provisionalResult(t)
	examiner := uuid.New()
	now := time.Now()

	err := applyGrade(exam, result, questionID, examiner, 9, "Solid.", now)
	require.NoError(t, err)

	answer := result.AnswerFor(questionID)
	require.NotNil(t, answer.Score)
	assert.Equal(t, 9.0, *answer.Score)
	assert.Equal(t, examiner, *answer.GradedBy)
	assert.Equal(t, "Solid.", answer.Feedback)
	assert.Equal(t, model.ResultStatusFinal, result.Status)
	assert.True(t, result.Passed)
}

// A grader whose claim lease expired mid-review can still reach the row
// after another examiner graded the answer. The stale write must be
// rejected, leaving the first score untouched.
func TestApplyGradeRejectsAlreadyGradedAnswer(t *testing.T) {
	exam, result, questionID := provisionalResult(t)
	first := uuid.New()
	second := uuid.New()
	now := time.Now()

	require.NoError(t, applyGrade(exam, result, questionID, first, 8, "Good.", now))

	err := applyGrade(exam, result, questionID, second, 2, "Weak.", now.Add(time.Minute))
	assert.ErrorIs(t, err, ErrAlreadyGraded)

	answer := result.AnswerFor(questionID)
	assert.Equal(t, 8.0, *answer.Score)
	assert.Equal(t, first, *answer.GradedBy)
	assert.Equal(t, "Good.", answer.Feedback)
}

func TestApplyGradeScoreOutOfRange(t *testing.T) {
	exam, result, questionID := provisionalResult(t)

	err := applyGrade(exam, result, questionID, uuid.New(), 11, "", time.Now())
	assert.ErrorIs(t, err, ErrScoreOutOfRange)

	err = applyGrade(exam, result, questionID, uuid.New(), -1, "", time.Now())
	assert.ErrorIs(t, err, ErrScoreOutOfRange)
	assert.Nil(t, result.AnswerFor(questionID).Score)
}

func TestApplyGradeRejectsObjectiveQuestion(t *testing.T) {
	exam, result, _ := provisionalResult(t)
	objectiveID := exam.Questions[0].ID

	err := applyGrade(exam, result, objectiveID, uuid.New(), 5, "", time.Now())
	assert.ErrorIs(t, err, ErrUnknownQuestion)
}

func TestApplyGradeUnknownQuestion(t *testing.T) {
	exam, result, _ := provisionalResult(t)

	err := applyGrade(exam, result, uuid.New(), uuid.New(), 5, "", time.Now())
	assert.ErrorIs(t, err, ErrUnknownQuestion)
}
