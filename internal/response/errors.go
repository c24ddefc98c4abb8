package response

import (
	"errors"

	"github.com/stemsi/classhub-backend/internal/apperror"
)

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication / Authorization ────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrForbidden          ErrCode = "FORBIDDEN"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Domain state ──────────────────────────────────────────────────
	ErrPrecondition ErrCode = "PRECONDITION_FAILED"
	ErrExhausted    ErrCode = "EXHAUSTED"

	// ─── Upstream / infrastructure ──────────────────────────────────────
	ErrTransient ErrCode = "TRANSIENT_ERROR"
	ErrParse     ErrCode = "LLM_PARSE_ERROR"

	// ─── Rate limiting / server ─────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"
	ErrInternal          ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrInvalidCredentials:
		return "Invalid email or password."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid or expired."
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidPayload:
		return "The request payload is invalid."
	case ErrNotFound:
		return "The requested resource was not found."
	case ErrConflict:
		return "The request conflicts with existing state."
	case ErrPrecondition:
		return "The requested operation is not valid in the current state."
	case ErrExhausted:
		return "No capacity remaining to complete this operation."
	case ErrTransient:
		return "A temporary failure occurred upstream; please retry."
	case ErrParse:
		return "The AI service did not return usable output."
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."
	case ErrInternal:
		return "An unexpected internal error occurred."
	default:
		return "An unexpected error occurred."
	}
}

// FromAppError maps a core *apperror.Error to an HTTP status and ErrCode —
// the thin translation spec.md §7 leaves to "the interface layer".
func FromAppError(err error) (status int, code ErrCode) {
	var ae *apperror.Error
	if !errors.As(err, &ae) {
		return 500, ErrInternal
	}
	switch ae.Kind {
	case apperror.KindNotFound:
		return 404, ErrNotFound
	case apperror.KindAuthz:
		return 403, ErrForbidden
	case apperror.KindPrecondition:
		return 422, ErrPrecondition
	case apperror.KindConflict:
		return 409, ErrConflict
	case apperror.KindValidation:
		return 422, ErrValidation
	case apperror.KindTransient:
		return 503, ErrTransient
	case apperror.KindParseErr:
		return 502, ErrParse
	case apperror.KindExhausted:
		return 409, ErrExhausted
	default:
		return 500, ErrInternal
	}
}
