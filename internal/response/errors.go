package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication / Authorization ────────────────────────────────
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrForbidden          ErrCode = "FORBIDDEN"
	ErrStudentAccessOnly  ErrCode = "STUDENT_ACCESS_ONLY"
	ErrExaminerAccessOnly ErrCode = "EXAMINER_ACCESS_ONLY"
	ErrAdminAccessOnly    ErrCode = "ADMIN_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Exam authoring ────────────────────────────────────────────────
	ErrExamNotPublished ErrCode = "EXAM_NOT_PUBLISHED"
	ErrExamNotDraft     ErrCode = "EXAM_NOT_DRAFT"
	ErrInvalidExam      ErrCode = "INVALID_EXAM"

	// ─── Sessions ──────────────────────────────────────────────────────
	ErrSessionNotActive ErrCode = "SESSION_NOT_ACTIVE"
	ErrUnknownQuestion  ErrCode = "UNKNOWN_QUESTION"
	ErrAnswerTooLong    ErrCode = "ANSWER_TOO_LONG"

	// ─── Evaluation ────────────────────────────────────────────────────
	ErrAlreadyClaimed  ErrCode = "ALREADY_CLAIMED"
	ErrNotClaimed      ErrCode = "NOT_CLAIMED"
	ErrScoreOutOfRange ErrCode = "SCORE_OUT_OF_RANGE"

	// ─── Certificates ──────────────────────────────────────────────────
	ErrResultNotFinal ErrCode = "RESULT_NOT_FINAL"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication / Authorization ────────────────────────────────
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid or expired."
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrStudentAccessOnly:
		return "This resource is restricted to students."
	case ErrExaminerAccessOnly:
		return "This resource is restricted to examiners."
	case ErrAdminAccessOnly:
		return "This resource is restricted to administrators."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid identifier format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "The requested resource was not found."
	case ErrConflict:
		return "The resource already exists."

	// ─── Exam authoring ────────────────────────────────────────────────
	case ErrExamNotPublished:
		return "This exam is not published."
	case ErrExamNotDraft:
		return "This exam is no longer in DRAFT status."
	case ErrInvalidExam:
		return "The exam definition violates an authoring invariant."

	// ─── Sessions ──────────────────────────────────────────────────────
	case ErrSessionNotActive:
		return "This session is no longer accepting answers."
	case ErrUnknownQuestion:
		return "The question does not belong to this session."
	case ErrAnswerTooLong:
		return "The answer exceeds the question's word limit."

	// ─── Evaluation ────────────────────────────────────────────────────
	case ErrAlreadyClaimed:
		return "Another examiner currently holds the claim on this answer."
	case ErrNotClaimed:
		return "You do not hold an active claim on this answer."
	case ErrScoreOutOfRange:
		return "The score is outside the question's allowed range."

	// ─── Certificates ──────────────────────────────────────────────────
	case ErrResultNotFinal:
		return "The result has not been fully graded yet."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
