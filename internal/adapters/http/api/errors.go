package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/perfboard/internal/adapters/upstream"
	service "github.com/okian/perfboard/internal/app"
	"github.com/okian/perfboard/internal/domain/isoweek"
	"github.com/okian/perfboard/internal/domain/model"
	"github.com/okian/perfboard/internal/domain/scorecard"
	"github.com/okian/perfboard/internal/session"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("authentication required")
	ErrForbidden    = errors.New("insufficient role")
	ErrServe        = errors.New("response write failed")
)

// Error tags a failure with the handler operation that produced it.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Kind != nil && e.Err != nil:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// NewKind returns an error of the given kind for op.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// Wrap tags err with op.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// WrapKind tags err with op and classifies it as kind.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// statusFor maps an error to the HTTP status and error code sent to clients.
func statusFor(err error) (int, string) {
	var statusErr *upstream.StatusError
	switch {
	case errors.Is(err, ErrUnauthorized), errors.Is(err, session.ErrNoToken),
		errors.Is(err, session.ErrMalformedToken), errors.Is(err, session.ErrExpired):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, ErrForbidden), errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, service.ErrSuperseded):
		return http.StatusConflict, "superseded"
	case errors.Is(err, ErrBadRequest), errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, isoweek.ErrInvalidFormat), errors.Is(err, isoweek.ErrOutOfRange),
		errors.Is(err, model.ErrUnknownScope), errors.Is(err, scorecard.ErrMissingEmployee),
		errors.Is(err, scorecard.ErrInvalidWeek):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, scorecard.ErrIncomplete):
		return http.StatusUnprocessableEntity, "invalid_scorecard"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.As(err, &statusErr):
		switch statusErr.Code {
		case http.StatusUnauthorized:
			return http.StatusUnauthorized, "unauthorized"
		case http.StatusForbidden:
			return http.StatusForbidden, "forbidden"
		case http.StatusNotFound:
			return http.StatusNotFound, "not_found"
		default:
			return http.StatusBadGateway, "upstream_status"
		}
	case errors.Is(err, upstream.ErrMalformed):
		return http.StatusBadGateway, "malformed_upstream"
	case errors.Is(err, upstream.ErrTooManyPages):
		return http.StatusBadGateway, "too_many_pages"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "upstream_timeout"
	case errors.Is(err, upstream.ErrTransport):
		return http.StatusBadGateway, "upstream_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
