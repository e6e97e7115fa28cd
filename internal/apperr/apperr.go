// Package apperr defines the typed errors returned by callable API
// endpoints. Each error carries a kind tag that clients can branch on and
// that maps to an HTTP status code.
package apperr

import (
	"errors"
	"net/http"
)

type Kind string

const (
	Unauthenticated   Kind = "unauthenticated"
	InvalidArgument   Kind = "invalid-argument"
	NotFound          Kind = "not-found"
	PermissionDenied  Kind = "permission-denied"
	ResourceExhausted Kind = "resource-exhausted"
	Internal          Kind = "internal"
)

type Error struct {
	Kind    Kind   `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// From returns err as an *Error, wrapping unknown errors as internal.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return &Error{Kind: Internal, Message: "internal error"}
}

// HTTPStatus maps the error kind to an HTTP status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case Unauthenticated:
		return http.StatusUnauthorized
	case InvalidArgument:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case PermissionDenied:
		return http.StatusForbidden
	case ResourceExhausted:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
