package backend

import (
	"errors"
	"fmt"
)

// ErrCallFailed is wrapped by every error the Client returns. Transport
// failures, non-2xx responses and undecodable bodies are not told apart by
// callers that only check for it.
var ErrCallFailed = errors.New("backend call failed")

// StatusError reports a non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server responded %d", e.Code)
	}
	return fmt.Sprintf("server responded %d: %s", e.Code, e.Body)
}

func wrapCallErr(method, path string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrCallFailed, method, path, err)
}
