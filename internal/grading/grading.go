// Package grading computes exam scores. Everything here is a deterministic
// function of the session's frozen question set and recorded answers; no I/O
// and no clock reads beyond the timestamps passed in.
package grading

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/certiva/certiva-backend/internal/model"
)

// Score runs the initial scoring pass at submission time and produces a new
// result. Objective questions are compared against the answer key on the
// spot; subjective questions start ungraded, which leaves the result
// PROVISIONAL until every one of them is scored.
func Score(exam *model.Exam, session *model.Session, submittedAt time.Time) *model.Result {
	answers := make([]model.ResultAnswer, 0, len(session.QuestionOrder))

	for _, qid := range session.QuestionOrder {
		q := exam.QuestionByID(qid)
		if q == nil {
			continue // question set is frozen at session creation; should not happen
		}

		ra := model.ResultAnswer{
			QuestionID: q.ID,
			Kind:       q.Kind,
			Answer:     session.Answers[q.ID.String()],
		}
		if q.Kind.Objective() {
			// An unanswered objective question is incorrect, never skipped.
			correct := ra.Answer != "" && ra.Answer == q.CorrectAnswer
			ra.IsCorrect = &correct
		} else {
			ra.MaxScore = q.MaxScore
		}
		answers = append(answers, ra)
	}

	result := &model.Result{
		ID:               uuid.New(),
		SessionID:        session.ID,
		ExamID:           session.ExamID,
		StudentID:        session.StudentID,
		Answers:          answers,
		TimeSpentSeconds: int(submittedAt.Sub(session.StartedAt).Seconds()),
		SubmittedAt:      submittedAt,
	}
	Recompute(exam, result)
	return result
}

// Recompute re-derives the aggregate score, pass flag, and status from the
// result's answer rows. Called once at submission and again after every
// subjective grade. The result is mutated in place; answer rows are not.
func Recompute(exam *model.Exam, result *model.Result) {
	var (
		objCount, subjCount int
		correctCount        int
		awardedPts, maxPts  float64
		ungraded            int
	)

	for i := range result.Answers {
		a := &result.Answers[i]
		if a.Kind.Objective() {
			objCount++
			if a.IsCorrect != nil && *a.IsCorrect {
				correctCount++
			}
			continue
		}
		subjCount++
		maxPts += a.MaxScore
		if a.Score == nil {
			ungraded++
		} else {
			awardedPts += *a.Score
		}
	}

	total := objCount + subjCount
	if total == 0 {
		// Guarded at the authoring boundary; a zero-question result never
		// reaches here through normal flow.
		result.Score = 0
		result.Passed = false
		result.Status = model.ResultStatusFinal
		return
	}

	// Raw sub-scores stay unrounded; rounding happens exactly once at the
	// end to avoid compounding error across groups.
	objRaw := 100.0
	if objCount > 0 {
		objRaw = 100 * float64(correctCount) / float64(objCount)
	}

	var subjRaw float64
	if subjCount > 0 && ungraded == 0 && maxPts > 0 {
		subjRaw = 100 * awardedPts / maxPts
	}

	// Weighted by each group's share of the question count. While grading is
	// pending the subjective share contributes zero, so a provisional score
	// can only rise once grading completes.
	aggregate := (objRaw*float64(objCount) + subjRaw*float64(subjCount)) / float64(total)
	result.Score = roundHalfUp(aggregate)
	result.Passed = result.Score >= exam.PassingScore

	if ungraded == 0 {
		result.Status = model.ResultStatusFinal
	} else {
		result.Status = model.ResultStatusProvisional
	}
}

// roundHalfUp rounds to the nearest integer with .5 rounding away from zero.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
