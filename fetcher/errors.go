package fetcher

import (
	"errors"
	"fmt"
)

// ErrNotFound marks a source page that does not exist (HTTP 404). It is
// terminal: never retried and never cached.
var ErrNotFound = errors.New("not found")

// TransientError wraps the last cause after exhausting all fetch attempts.
// Callers may retry the whole operation with their own backoff.
type TransientError struct {
	Attempts int
	Err      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("fetch failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is terminal not-found.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
