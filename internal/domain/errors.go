package domain

import "errors"

// Sentinel errors for the domain layer.
var (
	ErrNotFound      = errors.New("domain: not found")
	ErrConflict      = errors.New("domain: conflict")
	ErrUnauthorized  = errors.New("domain: unauthorized")
	ErrForbidden     = errors.New("domain: forbidden")
	ErrValidation    = errors.New("domain: validation failed")
	ErrLimitExceeded = errors.New("domain: plan limit exceeded")
)

// Error pairs a sentinel kind with a message that is safe to show to clients.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Kind.Error() + ": " + e.Message }

func (e *Error) Unwrap() error { return e.Kind }

// NewError returns an error that matches kind under errors.Is and carries msg
// for the API boundary.
func NewError(kind error, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

// Message extracts the client-safe message from err, or "" if it has none.
func Message(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}
