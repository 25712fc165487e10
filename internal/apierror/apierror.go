// Package apierror defines the error taxonomy shared by the resolvers, the
// auth layer and the data store. Every error is a go-errors value so that the
// category, HTTP status and text code travel with it up to the transport.
package apierror

import (
	"errors"
	"fmt"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes exposed to GraphQL clients under extensions.code.
const (
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeForbidden       = "FORBIDDEN"
	CodeValidation      = "VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodeDataAccess      = "DATA_ACCESS"
	CodeInternal        = "INTERNAL"
)

// Auth reports a missing, invalid or expired credential. It is also used for
// failed logins.
func Auth(message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryAuth).
		WithCode(http.StatusUnauthorized).
		WithTextCode(CodeUnauthenticated)
}

// Forbidden reports an authenticated actor that does not own the resource.
func Forbidden(message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryAuthz).
		WithCode(http.StatusForbidden).
		WithTextCode(CodeForbidden)
}

// Validation reports malformed input.
func Validation(message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryValidation).
		WithCode(http.StatusUnprocessableEntity).
		WithTextCode(CodeValidation)
}

// NotFound reports a missing entity of the given kind.
func NotFound(entity, id string) *goerrors.Error {
	msg := fmt.Sprintf("No %s found for id %q", entity, id)
	if id == "" {
		msg = fmt.Sprintf("No %s found", entity)
	}
	return goerrors.New(msg, goerrors.CategoryNotFound).
		WithCode(http.StatusNotFound).
		WithTextCode(CodeNotFound)
}

// Conflict reports a uniqueness violation.
func Conflict(message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryConflict).
		WithCode(http.StatusConflict).
		WithTextCode(CodeConflict)
}

// DataAccess wraps a failure of the data store. The cause is kept as the
// error source for logging; clients only see a generic message.
func DataAccess(op string, cause error) *goerrors.Error {
	err := goerrors.New("data access failed: "+op, goerrors.CategoryExternal).
		WithCode(http.StatusBadGateway).
		WithTextCode(CodeDataAccess)
	err.Source = cause
	return err
}

// As extracts the go-errors value from err, if any.
func As(err error) (*goerrors.Error, bool) {
	var target *goerrors.Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// Code returns the text code of err, or CodeInternal for errors outside the
// taxonomy.
func Code(err error) string {
	if e, ok := As(err); ok && e.TextCode != "" {
		return e.TextCode
	}
	return CodeInternal
}

// Category returns the category name of err.
func Category(err error) string {
	if e, ok := As(err); ok {
		return fmt.Sprint(e.Category)
	}
	return fmt.Sprint(goerrors.CategoryInternal)
}

// Message returns the client-facing message of err. For DataAccess errors
// this excludes the wrapped cause.
func Message(err error) string {
	if e, ok := As(err); ok && e.Message != "" {
		return e.Message
	}
	return err.Error()
}

// Is reports whether err carries the given text code.
func Is(err error, code string) bool {
	if err == nil {
		return false
	}
	return Code(err) == code
}

func IsNotFound(err error) bool   { return Is(err, CodeNotFound) }
func IsForbidden(err error) bool  { return Is(err, CodeForbidden) }
func IsAuth(err error) bool       { return Is(err, CodeUnauthenticated) }
func IsValidation(err error) bool { return Is(err, CodeValidation) }
func IsConflict(err error) bool   { return Is(err, CodeConflict) }
