package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSessionDeadline(t *testing.T) {
	started := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	s := &Session{
		StartedAt: started,
		Deadline:  started.Add(30 * time.Minute),
		Status:    SessionStatusInProgress,
	}

	assert.False(t, s.Expired(started))
	// The deadline instant itself is still acceptable.
	assert.False(t, s.Expired(s.Deadline))
	assert.True(t, s.Expired(s.Deadline.Add(time.Nanosecond)))

	assert.True(t, s.Active(started.Add(29*time.Minute)))
	assert.False(t, s.Active(s.Deadline.Add(time.Second)))

	s.Status = SessionStatusSubmitted
	assert.False(t, s.Active(started))
}

func TestSessionRemaining(t *testing.T) {
	started := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	s := &Session{StartedAt: started, Deadline: started.Add(10 * time.Minute)}

	assert.Equal(t, 10*time.Minute, s.Remaining(started))
	assert.Equal(t, time.Minute, s.Remaining(started.Add(9*time.Minute)))
	assert.Equal(t, time.Duration(0), s.Remaining(started.Add(time.Hour)))
}

func TestSessionHasQuestion(t *testing.T) {
	q1, q2 := uuid.New(), uuid.New()
	s := &Session{QuestionOrder: []uuid.UUID{q1, q2}}

	assert.True(t, s.HasQuestion(q1))
	assert.False(t, s.HasQuestion(uuid.New()))
}

func TestSessionAnsweredCount(t *testing.T) {
	s := &Session{Answers: map[string]string{}}
	assert.Equal(t, 0, s.AnsweredCount())

	s.Answers[uuid.NewString()] = "a"
	s.Answers[uuid.NewString()] = "some text"
	assert.Equal(t, 2, s.AnsweredCount())
}

func TestWordCount(t *testing.T) {
	assert.Equal(t, 0, WordCount(""))
	assert.Equal(t, 0, WordCount("   "))
	assert.Equal(t, 1, WordCount("hello"))
	assert.Equal(t, 4, WordCount("  packets  are routed\nindependently "))
}
