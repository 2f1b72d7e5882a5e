package model

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validChoice() Question {
	return Question{
		ID:   uuid.New(),
		Kind: QuestionKindMultipleChoice,
		Options: []Option{
			{ID: "a", Text: "yes"},
			{ID: "b", Text: "no"},
		},
		CorrectAnswer: "a",
	}
}

func TestExamValidate(t *testing.T) {
	exam := &Exam{Title: "Empty"}
	assert.ErrorIs(t, exam.Validate(), ErrExamNoQuestions)

	exam.Questions = []Question{validChoice()}
	assert.NoError(t, exam.Validate())
}

func TestQuestionValidateChoice(t *testing.T) {
	q := validChoice()
	assert.NoError(t, q.Validate())

	q.Options = q.Options[:1]
	assert.ErrorIs(t, q.Validate(), ErrTooFewOptions)

	q = validChoice()
	q.CorrectAnswer = "z"
	assert.ErrorIs(t, q.Validate(), ErrUnknownCorrectOption)
}

func TestQuestionValidateSubjective(t *testing.T) {
	q := Question{Kind: QuestionKindSubjective, Prompt: "Explain TCP handshake"}
	assert.ErrorIs(t, q.Validate(), ErrSubjectiveMaxScore)

	q.MaxScore = 10
	assert.NoError(t, q.Validate())
}

func TestQuestionValidateUnknownKind(t *testing.T) {
	q := Question{Kind: "ESSAY"}
	assert.ErrorIs(t, q.Validate(), ErrUnknownQuestionKind)
}

func TestQuestionKindObjective(t *testing.T) {
	assert.True(t, QuestionKindMultipleChoice.Objective())
	assert.True(t, QuestionKindTrueFalse.Objective())
	assert.False(t, QuestionKindSubjective.Objective())
}

func TestForStudentStripsAnswerKey(t *testing.T) {
	q := validChoice()
	sq := q.ForStudent()

	assert.Equal(t, q.ID, sq.ID)
	assert.Equal(t, q.Options, sq.Options)

	// The wire form must carry no trace of the answer key.
	encoded, err := json.Marshal(sq)
	require.NoError(t, err)
	assert.NotContains(t, string(encoded), "correct_answer")
}

func TestQuestionByID(t *testing.T) {
	q1 := validChoice()
	q2 := validChoice()
	exam := &Exam{Questions: []Question{q1, q2}}

	found := exam.QuestionByID(q2.ID)
	require.NotNil(t, found)
	assert.Equal(t, q2.ID, found.ID)

	assert.Nil(t, exam.QuestionByID(uuid.New()))
}
