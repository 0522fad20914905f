package syncclient

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated indicates no access token was available; the call
// fails before any network round-trip.
var ErrUnauthenticated = errors.New("sync: not authenticated")

// ErrStorageExceeded indicates a push was refused locally because the
// payload would not fit the token's storage quota plus the grace
// allowance. Nothing is sent.
var ErrStorageExceeded = errors.New("sync: storage quota exceeded")

// ErrorKind classifies a failed sync call so callers can pick a backoff.
type ErrorKind string

const (
	// KindNetwork covers transport-level failures (DNS, connect, reset).
	KindNetwork ErrorKind = "network"
	// KindServer covers non-2xx responses from the sync endpoint.
	KindServer ErrorKind = "server"
	// KindTimeout covers calls aborted by the per-call deadline.
	KindTimeout ErrorKind = "timeout"
)

// SyncError is a failed pull or push. Message carries the server's error
// text when one was provided; Status is the HTTP status for server
// errors, 0 otherwise.
type SyncError struct {
	Kind    ErrorKind
	Message string
	Status  int
	Err     error
}

func (e *SyncError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("sync %s error (HTTP %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("sync %s error: %s", e.Kind, e.Message)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether err is a sync timeout.
func IsTimeout(err error) bool {
	var se *SyncError
	return errors.As(err, &se) && se.Kind == KindTimeout
}
