package errs

import (
	"errors"
	"fmt"
)

var (
	ErrTicketNotFound   = errors.New("ticket not found")
	ErrDocumentNotFound = errors.New("document not found")
	ErrUserNotFound     = errors.New("user not found")

	// ErrForbidden: the actor is authenticated but may not touch this
	// ticket or perform this operation.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidTransition: the ticket or document is in a terminal state
	// and the requested lifecycle change is not permitted.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrConflict: the caller supplied a stale version token.
	ErrConflict = errors.New("version conflict")

	ErrValidation      = errors.New("validation error")
	ErrPayloadTooLarge = errors.New("payload too large")
	ErrUnsupportedType = errors.New("unsupported file type")
)

// Validation wraps ErrValidation with a caller-facing detail message,
// so handlers can match errors.Is(err, ErrValidation) and still surface
// the specific reason.
func Validation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrValidation}, args...)...)
}
