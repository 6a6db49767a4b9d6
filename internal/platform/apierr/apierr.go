package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeEntityNotFound       = "entity_not_found"
	CodeAccessDenied         = "access_denied"
	CodeInvalidConfiguration = "invalid_configuration"
	CodeInvalidArgument      = "invalid_argument"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// NotFound marks a missing environment/deployment/microfrontend reference.
func NotFound(entity string, id any) *Error {
	return New(http.StatusNotFound, CodeEntityNotFound, fmt.Errorf("%s %v not found", entity, id))
}

// AccessDenied marks a caller without access to the named scope.
func AccessDenied(scope string) *Error {
	return New(http.StatusForbidden, CodeAccessDenied, fmt.Errorf("caller cannot access %s", scope))
}

// InvalidConfiguration marks structurally unresolvable registry data.
// Non-retryable: the record has to be fixed, not the request retried.
func InvalidConfiguration(slug string, reason string) *Error {
	return New(http.StatusUnprocessableEntity, CodeInvalidConfiguration,
		fmt.Errorf("microfrontend %q: %s", slug, reason))
}

func InvalidArgument(reason string) *Error {
	return New(http.StatusBadRequest, CodeInvalidArgument, errors.New(reason))
}

// As unwraps err into *Error when possible.
func As(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func IsCode(err error, code string) bool {
	if apiErr, ok := As(err); ok {
		return apiErr.Code == code
	}
	return false
}
