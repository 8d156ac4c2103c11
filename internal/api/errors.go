package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrNotFound means the post or comment is gone. It is terminal for the view.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized means the request needs a logged-in session.
	ErrUnauthorized = errors.New("unauthorized")
)

// TransientError is any failure other than not-found or unauthorized. The
// client does not retry it.
type TransientError struct {
	Op     string
	Status int // zero when no response arrived
	Err    error
}

func (e *TransientError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: HTTP %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err means the requested entity does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsTransient reports whether err is a failure the user may retry by hand.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// statusError maps a non-2xx response. The forum answers 400 for malformed
// ids, which the page treats the same as 404.
func statusError(op string, status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	switch status {
	case http.StatusBadRequest, http.StatusNotFound:
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &TransientError{Op: op, Status: status, Err: errors.New(msg)}
}
