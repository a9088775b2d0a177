// Package core defines the response boundary: the JSON success envelope and
// the structured error shape every failure is translated into before it
// reaches a client. Raw errors and driver stack traces never cross this
// boundary outside development.
package core

import "net/http"

// HTTPError carries an HTTP status and a stable machine-readable code.
// Handlers and services return it (or wrap sentinel errors that map onto it)
// and the boundary formatter renders the structured shape.
type HTTPError struct {
	Status int    // HTTP status code
	Code   string // stable error-kind code, e.g. "forbidden"
}

// Error implements the error interface.
func (e HTTPError) Error() string {
	return e.Code
}

var (
	ErrBadRequest          = HTTPError{Status: http.StatusBadRequest, Code: "bad_request"}
	ErrUnauthorized        = HTTPError{Status: http.StatusUnauthorized, Code: "unauthorized"}
	ErrForbidden           = HTTPError{Status: http.StatusForbidden, Code: "forbidden"}
	ErrNotFound            = HTTPError{Status: http.StatusNotFound, Code: "not_found"}
	ErrConflict            = HTTPError{Status: http.StatusConflict, Code: "conflict"}
	ErrUnprocessableEntity = HTTPError{Status: http.StatusUnprocessableEntity, Code: "unprocessable_entity"}
	ErrInternalServerError = HTTPError{Status: http.StatusInternalServerError, Code: "internal_error"}
)

// NewHTTPError creates a custom HTTP error with the given status and code.
func NewHTTPError(status int, code string) HTTPError {
	return HTTPError{Status: status, Code: code}
}
