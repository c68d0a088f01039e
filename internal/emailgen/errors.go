package emailgen

import (
	"errors"
	"fmt"
)

var (
	// ErrGenerationFailed is returned once every attempt for an attendee has failed
	ErrGenerationFailed = errors.New("email generation failed")

	// ErrParseFailed means the generator answered but no subject or body could be found
	ErrParseFailed = errors.New("failed to parse generated email: missing subject or body")
)

// GenerationError carries the last underlying cause after retries are exhausted
type GenerationError struct {
	Attempts int
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("failed to generate email after %d attempts: %v", e.Attempts, e.Err)
}

// Unwrap exposes both the sentinel and the last cause to errors.Is/As
func (e *GenerationError) Unwrap() []error {
	return []error{ErrGenerationFailed, e.Err}
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying, e.g. rejected credentials or an open circuit
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}
