// Package apperr defines the domain error taxonomy shared by the matching
// engine, the claim workflow and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the caller.
type Kind string

// Kinds.
const (
	KindValidation    Kind = "validation"
	KindNotFound      Kind = "not_found"
	KindAuthorization Kind = "authorization"
	KindStateConflict Kind = "state_conflict"
	KindInternal      Kind = "internal"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeNotFound     Code = "NOT_FOUND"
	CodeForbidden    Code = "FORBIDDEN"
	CodeInternal     Code = "INTERNAL"

	// Claim errors
	CodeClaimDuplicatePending   Code = "CLAIM_DUPLICATE_PENDING"
	CodeClaimInvalidTransition  Code = "CLAIM_INVALID_TRANSITION"
	CodeClaimItemNotClaimable   Code = "CLAIM_ITEM_NOT_CLAIMABLE"
	CodeClaimOwnItem            Code = "CLAIM_OWN_ITEM"
	CodeClaimAlreadyPickedUp    Code = "CLAIM_ALREADY_PICKED_UP"
	CodeClaimTooManyImages      Code = "CLAIM_TOO_MANY_IMAGES"
	CodeClaimDescriptionTooThin Code = "CLAIM_DESCRIPTION_TOO_SHORT"

	// Match errors
	CodeMatchInvalidTransition Code = "MATCH_INVALID_TRANSITION"

	// Item errors
	CodeItemInvalidTransition Code = "ITEM_INVALID_TRANSITION"
)

// Error is a domain failure with enough structure for callers to branch on.
// Current and Required are set for state conflicts.
type Error struct {
	Kind     Kind
	Code     Code
	Message  string
	Current  string
	Required string
	Err      error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Current != "" || e.Required != "" {
		msg = fmt.Sprintf("%s (current: %s, required: %s)", msg, e.Current, e.Required)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus maps the error onto a response status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindAuthorization:
		return http.StatusForbidden
	case KindStateConflict:
		// A duplicate pending claim is reported like bad input.
		if e.Code == CodeClaimDuplicatePending {
			return http.StatusBadRequest
		}
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Validation returns a validation error.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Code: CodeInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// ValidationCode returns a validation error with a specific code.
func ValidationCode(code Code, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: fmt.Sprintf(format, args...)}
}

// NotFound returns a not-found error for the named entity.
func NotFound(entity string, id int64) *Error {
	return &Error{Kind: KindNotFound, Code: CodeNotFound, Message: fmt.Sprintf("%s %d not found", entity, id)}
}

// Forbidden returns an authorization error.
func Forbidden(format string, args ...any) *Error {
	return &Error{Kind: KindAuthorization, Code: CodeForbidden, Message: fmt.Sprintf(format, args...)}
}

// ForbiddenCode returns an authorization error with a specific code.
func ForbiddenCode(code Code, format string, args ...any) *Error {
	return &Error{Kind: KindAuthorization, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Conflict returns a state conflict carrying the current and required states.
func Conflict(code Code, message, current, required string) *Error {
	return &Error{
		Kind:     KindStateConflict,
		Code:     code,
		Message:  message,
		Current:  current,
		Required: required,
	}
}

// Internal wraps an unexpected failure.
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Code: CodeInternal, Message: message, Err: err}
}

// As extracts an *Error from err.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err is a domain error of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
