package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation Kind = "validation"
	KindAuth       Kind = "auth"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindUpstream   Kind = "upstream"
	KindTransport  Kind = "transport"
	KindPublish    Kind = "publish"
)

// Error is the single error type crossing layer boundaries. Status carries the
// provider status for upstream and publish errors, zero otherwise.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil && e.Message == "" {
		return e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func Auth(msg string) *Error {
	return &Error{Kind: KindAuth, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

func Upstream(status int, msg string) *Error {
	return &Error{Kind: KindUpstream, Status: status, Message: msg}
}

func Transport(err error) *Error {
	msg := "transport failure"
	if err != nil {
		msg = err.Error()
	}
	return &Error{Kind: KindTransport, Message: msg, Cause: err}
}

func Publish(status int, msg string) *Error {
	return &Error{Kind: KindPublish, Status: status, Message: msg}
}

// Wrap attaches a cause to an existing error value and returns it.
func (e *Error) Wrap(cause error) *Error {
	e.Cause = cause
	return e
}

func Validationf(format string, args ...interface{}) *Error {
	return Validation(fmt.Sprintf(format, args...))
}

// As extracts the *Error from err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func IsKind(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}

// HTTPStatus maps an error to the status code an HTTP boundary responds with.
func HTTPStatus(err error) int {
	appErr, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch appErr.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUpstream:
		if appErr.Status >= 400 && appErr.Status <= 599 {
			return appErr.Status
		}
		return http.StatusInternalServerError
	case KindPublish:
		if appErr.Status == http.StatusUnauthorized {
			return http.StatusUnauthorized
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
