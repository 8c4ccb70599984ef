package v1

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskhub/internal/domain"
	"github.com/gosuda/taskhub/internal/server/middleware"
)

const internalErrorMessage = "Internal server error"

// ErrorBody is the {success:false, message} error envelope. It replaces
// huma's problem+json body so handler, validation and middleware errors all
// look the same to clients.
type ErrorBody struct {
	status  int
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (e *ErrorBody) Error() string  { return e.Message }
func (e *ErrorBody) GetStatus() int { return e.status }

func init() {
	huma.NewError = newError
}

// newError builds every error huma returns. Request validation failures
// (422) are reported as 400 and 500s never leak details.
func newError(status int, msg string, errs ...error) huma.StatusError {
	switch {
	case status == http.StatusUnprocessableEntity:
		status = http.StatusBadRequest
		msg = validationMessage(msg, errs)
	case status >= http.StatusInternalServerError:
		if len(errs) > 0 {
			log.Error().Errs("errors", errs).Int("status", status).Msg("api: " + msg)
		}
		msg = internalErrorMessage
	}
	return &ErrorBody{status: status, Message: msg}
}

func validationMessage(msg string, errs []error) string {
	details := make([]string, 0, len(errs))
	for _, err := range errs {
		var d *huma.ErrorDetail
		if errors.As(err, &d) {
			if d.Location != "" {
				details = append(details, d.Location+": "+d.Message)
			} else {
				details = append(details, d.Message)
			}
			continue
		}
		if err != nil {
			details = append(details, err.Error())
		}
	}
	if len(details) == 0 {
		if msg == "" {
			return "Validation failed"
		}
		return msg
	}
	return "Validation failed: " + strings.Join(details, "; ")
}

// apiError maps a service error onto its HTTP status. notFound is used when
// the error carries no client message of its own.
func apiError(ctx context.Context, err error, notFound string) error {
	msg := domain.Message(err)
	or := func(fallback string) string {
		if msg != "" {
			return msg
		}
		return fallback
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		return huma.Error400BadRequest(or("Validation failed"))
	case errors.Is(err, domain.ErrUnauthorized):
		return huma.Error401Unauthorized(or("Unauthorized"))
	case errors.Is(err, domain.ErrForbidden):
		return huma.Error403Forbidden(or("Access denied"))
	case errors.Is(err, domain.ErrLimitExceeded):
		return huma.Error403Forbidden(or("Plan limit reached"))
	case errors.Is(err, domain.ErrNotFound):
		if msg == "" && notFound != "" {
			msg = notFound
		}
		return huma.Error404NotFound(or("Resource not found"))
	case errors.Is(err, domain.ErrConflict):
		return huma.Error409Conflict(or("Resource already exists"))
	}

	ev := log.Error().Err(err)
	if p, found := middleware.PrincipalFromContext(ctx); found {
		ev = ev.Str("user_id", p.UserID.String())
		if p.TenantID != nil {
			ev = ev.Str("tenant_id", p.TenantID.String())
		}
	}
	ev.Msg("api: internal error")

	return huma.Error500InternalServerError(internalErrorMessage)
}
