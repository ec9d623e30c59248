// Package apperrors centralizes the conversion of transport and API
// failures into the human-readable strings slices record in their error
// fields. Keeps slice code free of error-shape branching.
package apperrors

import (
	"context"
	"errors"
	"net/http"

	"github.com/rishta-app/rishta-client/internal/api"
)

// ValidationError is a client-side validation failure. It never reaches
// the network and is surfaced inline by the view layer.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validation creates a client-side validation failure.
func Validation(msg string) error { return &ValidationError{Msg: msg} }

// IsValidation reports whether err is a client-side validation failure.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// Message extracts the user-facing message for err.
//
// A server-supplied message is surfaced verbatim; anything else falls
// back to the per-operation fallback string.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var v *ValidationError
	if errors.As(err, &v) {
		return v.Msg
	}

	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "Request timed out"
	case errors.Is(err, context.Canceled):
		return "Request was canceled"
	}

	return fallback
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	var apiErr *api.Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}
