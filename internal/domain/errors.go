package domain

import (
	"errors"
	"fmt"
)

var (
	ErrRead               = errors.New("read error")
	ErrServiceRefused     = errors.New("service refused")
	ErrNoImageProduced    = errors.New("no image produced")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrValidation         = errors.New("validation error")
	ErrSessionNotFound    = errors.New("session not found")
)

// ReadError reports a local file read failure.
type ReadError struct {
	Name  string
	Cause error
}

func (e *ReadError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("failed to read image: %v", e.Cause)
	}
	return fmt.Sprintf("failed to read image %q: %v", e.Name, e.Cause)
}

func (e *ReadError) Unwrap() []error { return []error{ErrRead, e.Cause} }

// ServiceRefusedError carries the prose the service returned in place of an image.
type ServiceRefusedError struct {
	Text string
}

func (e *ServiceRefusedError) Error() string {
	return "The AI responded with text instead of an image: \"" + e.Text + "\""
}

func (e *ServiceRefusedError) Is(target error) bool { return target == ErrServiceRefused }

// ServiceUnavailableError wraps transport, auth and rate-limit failures.
type ServiceUnavailableError struct {
	StatusCode int
	Cause      error
}

func (e *ServiceUnavailableError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("image generation service unavailable (status %d): %v", e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("image generation service unavailable: %v", e.Cause)
}

func (e *ServiceUnavailableError) Unwrap() []error { return []error{ErrServiceUnavailable, e.Cause} }

// ValidationError is a user-facing guard message. It never reaches the network.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

const noImageMessage = "The AI did not return an image. Please try a different image or prompt."

// Message renders err as the single human-readable line stored in workflow state.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoImageProduced):
		return noImageMessage
	default:
		return err.Error()
	}
}
