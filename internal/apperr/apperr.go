// Package apperr defines the error kinds surfaced to the dashboard.
//
// Packages wrap one of the sentinels with fmt.Errorf("%w: ...") so callers can
// branch with errors.Is while the message keeps the specific detail.
package apperr

import (
	"errors"
	"strings"
)

var (
	ErrMissingCredential = errors.New("missing API key")
	ErrInvalidCredential = errors.New("invalid API key")
	ErrRateLimited       = errors.New("rate limit exceeded")
	ErrAccessDenied      = errors.New("access denied")
	ErrRequestFailed     = errors.New("AI request failed")
	ErrMalformedResponse = errors.New("malformed AI response")
	ErrQuizFormat        = errors.New("quiz format error")
	ErrNoDocumentLoaded  = errors.New("no document loaded")
	ErrInvalidInput      = errors.New("invalid input")
)

var kinds = []error{
	ErrMissingCredential,
	ErrInvalidCredential,
	ErrRateLimited,
	ErrAccessDenied,
	ErrRequestFailed,
	ErrMalformedResponse,
	ErrQuizFormat,
	ErrNoDocumentLoaded,
	ErrInvalidInput,
}

// Kind returns the sentinel err wraps, or nil for errors outside the taxonomy.
func Kind(err error) error {
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// Message renders err as the line shown in the dashboard status bar.
func Message(err error) string {
	if err == nil {
		return ""
	}
	switch Kind(err) {
	case ErrMissingCredential:
		return "Please enter your API key (press k) before generating study material."
	case ErrInvalidCredential:
		return "Invalid API key. Check the key for the selected provider and try again."
	case ErrRateLimited:
		return "Rate limit exceeded. Please try again in a few moments."
	case ErrAccessDenied:
		return "Access denied. Please check your API key permissions."
	case ErrNoDocumentLoaded:
		return "Please load a PDF first."
	case ErrQuizFormat:
		return "Could not build a quiz from the AI response. Press enter to try again."
	}
	msg := err.Error()
	if msg == "" {
		return "unknown error"
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
