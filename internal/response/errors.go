package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"
	ErrTokenRevoked       ErrCode = "TOKEN_REVOKED"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation ErrCode = "VALIDATION_ERROR"
	ErrInvalidID  ErrCode = "INVALID_ID"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound   ErrCode = "NOT_FOUND"
	ErrUserExists ErrCode = "USER_EXISTS"

	// ─── Exam sessions ─────────────────────────────────────────────────
	ErrInvalidTime       ErrCode = "INVALID_TIME"
	ErrExamAlreadyTaken  ErrCode = "EXAM_ALREADY_TAKEN"
	ErrSessionExists     ErrCode = "SESSION_EXISTS"
	ErrSessionNotFound   ErrCode = "SESSION_NOT_FOUND"
	ErrResultsNotFound   ErrCode = "RESULTS_NOT_FOUND"
	ErrInvalidAnswer     ErrCode = "INVALID_ANSWER"
	ErrInvalidCorrectOpt ErrCode = "INVALID_CORRECT_OPTION"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMITED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrServer ErrCode = "SERVER_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Invalid email or password."
	case ErrTokenRequired:
		return "Authentication token is required."
	case ErrTokenInvalid:
		return "Authentication token is invalid."
	case ErrTokenExpired:
		return "Authentication token has expired."
	case ErrTokenRevoked:
		return "Authentication token has been logged out."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrUserExists:
		return "A user with this email already exists."

	// ─── Exam sessions ─────────────────────────────────────────────────
	case ErrInvalidTime:
		return "The exam is not available at this time."
	case ErrExamAlreadyTaken:
		return "You have already taken this exam."
	case ErrSessionExists:
		return "An exam session is already in progress."
	case ErrSessionNotFound:
		return "No active exam session found."
	case ErrResultsNotFound:
		return "No results found for this exam."
	case ErrInvalidAnswer:
		return "One or more answers do not belong to this exam."
	case ErrInvalidCorrectOpt:
		return "Every question needs exactly one correct option."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrServer:
		return "Internal server error."
	default:
		return "An unexpected error occurred."
	}
}
