package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShuffleQuestionIDsIsDeterministic(t *testing.T) {
	ids := make([]uuid.UUID, 20)
	for i := range ids {
		ids[i] = uuid.New()
	}

	first := shuffleQuestionIDs(ids, 42)
	second := shuffleQuestionIDs(ids, 42)

	assert.Equal(t, first, second, "same seed must reproduce the same order")
}

func TestShuffleQuestionIDsIsPermutation(t *testing.T) {
	ids := make([]uuid.UUID, 15)
	for i := range ids {
		ids[i] = uuid.New()
	}

	shuffled := shuffleQuestionIDs(ids, 7)

	require.Len(t, shuffled, len(ids))
	assert.ElementsMatch(t, ids, shuffled)
}

func TestShuffleQuestionIDsLeavesInputIntact(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	original := make([]uuid.UUID, len(ids))
	copy(original, ids)

	shuffleQuestionIDs(ids, 99)

	assert.Equal(t, original, ids)
}

func TestShuffleQuestionIDsSeedsDiffer(t *testing.T) {
	ids := make([]uuid.UUID, 30)
	for i := range ids {
		ids[i] = uuid.New()
	}

	a := shuffleQuestionIDs(ids, 1)
	b := shuffleQuestionIDs(ids, 2)

	// 30 elements make an accidental collision vanishingly unlikely.
	assert.NotEqual(t, a, b)
}
