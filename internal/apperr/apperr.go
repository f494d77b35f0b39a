// Package apperr defines the canonical error taxonomy for the gateway and its
// mapping onto the Mastodon-compatible error envelope. Every error that crosses
// the HTTP boundary is classified into exactly one Kind.
package apperr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error into one of the closed set of categories the
// HTTP layer knows how to render.
type Kind int

const (
	KindValidation Kind = iota
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindUnprocessable
	KindRateLimited
	KindCancelled
	KindUpstream
	KindInternal
)

// Error is the gateway's domain error. Callers construct it through the
// helpers below so every error carries a Kind.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Validation reports a malformed or missing request field.
func Validation(field, msg string) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf("%s: %s", field, msg)}
}

// Unauthorized reports missing or invalid credentials.
func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

// Forbidden reports a valid identity lacking permission.
func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// NotFound reports a missing resource. The message is rendered verbatim as
// the error description, so callers pass the full Mastodon-style phrase.
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Unprocessable reports a well-formed but semantically unusable request.
func Unprocessable(msg string) *Error {
	return &Error{Kind: KindUnprocessable, Message: msg}
}

// RateLimited reports a denied request under rate limiting.
func RateLimited(msg string) *Error {
	return &Error{Kind: KindRateLimited, Message: msg}
}

// Upstream wraps a failure from the AT Protocol backend.
func Upstream(err error) *Error {
	return &Error{Kind: KindUpstream, Message: "upstream request failed", cause: err}
}

// Internal wraps an unexpected failure.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal error", cause: err}
}

// envelope is the Mastodon-compatible error body.
type envelope struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

// Classify maps an arbitrary error to its Kind. Context cancellation maps to
// KindCancelled, JSON decode failures to KindValidation, everything
// unrecognized to KindInternal.
func Classify(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCancelled
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return KindValidation
	}
	return KindInternal
}

// statusAndCode returns the HTTP status and Mastodon error code for a Kind.
func statusAndCode(k Kind) (int, string) {
	switch k {
	case KindValidation:
		return http.StatusBadRequest, "invalid_request"
	case KindUnauthorized:
		return http.StatusUnauthorized, "unauthorized"
	case KindForbidden:
		return http.StatusForbidden, "forbidden"
	case KindNotFound:
		return http.StatusNotFound, "not_found"
	case KindUnprocessable:
		return http.StatusUnprocessableEntity, "unprocessable_entity"
	case KindRateLimited:
		return http.StatusTooManyRequests, "rate_limit_exceeded"
	default:
		// Cancelled, Upstream and Internal all render as 500.
		return http.StatusInternalServerError, "internal_server_error"
	}
}

// HTTPStatus returns the HTTP status code for an error.
func HTTPStatus(err error) int {
	status, _ := statusAndCode(Classify(err))
	return status
}

// WriteJSON renders err as the Mastodon error envelope on w.
func WriteJSON(w http.ResponseWriter, err error) {
	kind := Classify(err)
	status, code := statusAndCode(kind)

	description := err.Error()
	var e *Error
	if errors.As(err, &e) {
		description = e.Message
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Error: code, Description: description})
}
