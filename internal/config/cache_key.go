package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ExamDefinitionKey returns the cache key for a published exam definition.
func (r *CacheKeyStruct) ExamDefinitionKey(examID string) string {
	return fmt.Sprintf("exam:%s:def", examID)
}

// EvaluationClaimKey returns the lease key guarding one (result, question)
// pair in the evaluation queue.
func (r *CacheKeyStruct) EvaluationClaimKey(resultID, questionID string) string {
	return fmt.Sprintf("claim:result:%s:question:%s", resultID, questionID)
}

var CacheKey = NewCacheKeyStruct()
