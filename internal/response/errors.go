package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"
	ErrTokenExpired  ErrCode = "TOKEN_EXPIRED"
	ErrTokenRevoked  ErrCode = "TOKEN_REVOKED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrPermissionDenied ErrCode = "PERMISSION_DENIED"
	ErrWrongSchool      ErrCode = "WRONG_SCHOOL"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"
	ErrInvalidDate    ErrCode = "INVALID_DATE"
	ErrInvalidRange   ErrCode = "INVALID_DATE_RANGE"
	ErrInvalidPeriod  ErrCode = "INVALID_PERIOD"
	ErrInvalidImport  ErrCode = "INVALID_IMPORT"
	ErrFileRequired   ErrCode = "FILE_REQUIRED"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Attendance ────────────────────────────────────────────────────
	ErrAttendanceIncomplete     ErrCode = "ATTENDANCE_INCOMPLETE"
	ErrUnknownStudent           ErrCode = "UNKNOWN_STUDENT"
	ErrConfirmationRequired     ErrCode = "CONFIRMATION_REQUIRED"
	ErrResubmitConfirmRequired  ErrCode = "RESUBMIT_CONFIRMATION_REQUIRED"
	ErrAttendanceLoadFailed     ErrCode = "ATTENDANCE_LOAD_FAILED"
	ErrAttendanceCommitFailed   ErrCode = "ATTENDANCE_COMMIT_FAILED"
	ErrAttendanceBusy           ErrCode = "ATTENDANCE_BUSY"
	ErrAttendanceNotLoaded      ErrCode = "ATTENDANCE_NOT_LOADED"
	ErrAttendanceNothingPending ErrCode = "ATTENDANCE_NOTHING_PENDING"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrTokenRequired:
		return "Authentication token is required."
	case ErrTokenInvalid:
		return "Authentication token is invalid."
	case ErrTokenExpired:
		return "Authentication token has expired."
	case ErrTokenRevoked:
		return "Authentication token has been revoked. Please sign in again."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrPermissionDenied:
		return "Permission denied."
	case ErrWrongSchool:
		return "This class belongs to another school."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."
	case ErrInvalidDate:
		return "Dates must use the YYYY-MM-DD format."
	case ErrInvalidRange:
		return "The date range is empty or too long."
	case ErrInvalidPeriod:
		return "Period must be daily, weekly or monthly."
	case ErrFileRequired:
		return "A CSV file is required in the \"file\" form field."
	case ErrInvalidImport:
		return "The file must be a Date,Status CSV with one valid row per day."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "A student already has attendance for this date in another class."

	// ─── Attendance ────────────────────────────────────────────────────
	case ErrAttendanceIncomplete:
		return "Please mark attendance for all students before submitting."
	case ErrUnknownStudent:
		return "A student in the submission is not enrolled in this class."
	case ErrConfirmationRequired:
		return "Please review the summary and confirm the submission."
	case ErrResubmitConfirmRequired:
		return "Attendance for this date was already submitted. Confirm to overwrite it."
	case ErrAttendanceLoadFailed:
		return "Could not load attendance. Please try again."
	case ErrAttendanceCommitFailed:
		return "Could not save attendance. Your marks were kept, please try again."
	case ErrAttendanceBusy:
		return "Attendance is still loading or saving."
	case ErrAttendanceNotLoaded:
		return "Select a class and date first."
	case ErrAttendanceNothingPending:
		return "There is no submission waiting for confirmation."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
