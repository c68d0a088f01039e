package ingest

import (
	"errors"
	"fmt"
)

// ErrMalformedInput is matched by every error that rejects a whole export
var ErrMalformedInput = errors.New("malformed input")

// InputError reports an export that could not be read or decoded at all.
// Row-level defects never produce one.
type InputError struct {
	File string // "attendance" or "chat"
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("error parsing %s CSV: %v", e.File, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrMalformedInput) match any InputError
func (e *InputError) Is(target error) bool {
	return target == ErrMalformedInput
}
