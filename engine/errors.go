// Copyright (c) 2025 Davron Karimov.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"errors"
	"fmt"
	"net/http"
)

// Failure classes for core operations. Callers match with errors.Is;
// the message carried by the error is safe to show to the client that
// caused it.
var (
	ErrValidation    = errors.New("validation error")
	ErrConflict      = errors.New("conflict")
	ErrDuplicateVote = errors.New("duplicate vote")
	ErrVotingClosed  = errors.New("voting closed")
	ErrNotFound      = errors.New("not found")
)

type coreError struct {
	kind error
	msg  string
}

func (e *coreError) Error() string { return e.msg }
func (e *coreError) Unwrap() error { return e.kind }

func errValidation(format string, args ...any) error {
	return &coreError{ErrValidation, fmt.Sprintf(format, args...)}
}

func errConflict(format string, args ...any) error {
	return &coreError{ErrConflict, fmt.Sprintf(format, args...)}
}

func errDuplicate(format string, args ...any) error {
	return &coreError{ErrDuplicateVote, fmt.Sprintf(format, args...)}
}

func errClosed(format string, args ...any) error {
	return &coreError{ErrVotingClosed, fmt.Sprintf(format, args...)}
}

func errNotFound(format string, args ...any) error {
	return &coreError{ErrNotFound, fmt.Sprintf(format, args...)}
}

// HTTPStatus maps a core error to an HTTP status code
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict), errors.Is(err, ErrDuplicateVote):
		return http.StatusConflict
	case errors.Is(err, ErrVotingClosed):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// ClientMessage returns the message to send back to the originating
// client. Core failures carry their own text; anything else is an
// internal error and stays opaque.
func ClientMessage(err error) string {
	var ce *coreError
	if errors.As(err, &ce) {
		return ce.msg
	}
	return "Internal error"
}
