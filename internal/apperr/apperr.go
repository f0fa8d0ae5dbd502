// Package apperr defines the error kinds shared by services and handlers.
//
// Domain errors wrap one of the kind sentinels so callers can classify them
// with errors.Is without knowing every concrete error:
//
//	var ErrSelfRequest = fmt.Errorf("%w: cannot send a friend request to yourself", apperr.ErrValidation)
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrValidation = errors.New("validation error")
	ErrPermission = errors.New("permission denied")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)

// ErrConflictRace 表示并发写入时唯一约束冲突，对外按校验错误处理。
var ErrConflictRace = fmt.Errorf("%w: concurrent modification detected, please retry", ErrValidation)

// Validation wraps a formatted message in ErrValidation.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound wraps a formatted message in ErrNotFound.
func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// HTTPStatus maps an error to the status code the API answers with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrPermission):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// IsKnown reports whether err carries one of the kinds above.
func IsKnown(err error) bool {
	return HTTPStatus(err) != http.StatusInternalServerError
}

// Message returns the client-facing text of err, without the leading kind.
func Message(err error) string {
	msg := err.Error()
	for _, kind := range []error{ErrValidation, ErrPermission, ErrNotFound, ErrConflict} {
		if prefix := kind.Error() + ": "; strings.HasPrefix(msg, prefix) {
			return strings.TrimPrefix(msg, prefix)
		}
	}
	return msg
}
