package booking

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized means no valid calendar token is available. The caller
	// is expected to re-authorize and retry.
	ErrUnauthorized = errors.New("calendar authorization required")
	// ErrBackendRequestFailed matches every *BackendError.
	ErrBackendRequestFailed = errors.New("calendar backend request failed")
	// ErrNotFound is returned by a Calendar for an unknown event id.
	ErrNotFound = errors.New("event not found")
	// ErrNotificationFailed wraps a failed email after a successful calendar write.
	ErrNotificationFailed = errors.New("notification failed")
	// ErrInvalidRecord rejects input that cannot be written to the calendar.
	ErrInvalidRecord = errors.New("invalid appointment")
)

// BackendError is a non-2xx answer from the calendar or mail backend.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("calendar backend request failed (%d): %s", e.Status, e.Message)
}

func (e *BackendError) Is(target error) bool {
	return target == ErrBackendRequestFailed
}
