package camera

import (
	"errors"
	"fmt"
)

// ErrNoCameraURL means acquisition was requested without a configured
// camera base URL. Fatal to starting a session; never retried.
var ErrNoCameraURL = errors.New("camera base url is not configured")

// FetchError aggregates the failure of one snapshot attempt across every
// candidate endpoint. Recoverable: the poller keeps retrying on its
// normal schedule.
type FetchError struct {
	Attempts int   // number of candidates tried
	LastErr  error // last per-candidate failure, may be nil
}

func (e *FetchError) Error() string {
	if e.LastErr == nil {
		return fmt.Sprintf("all %d camera endpoints failed", e.Attempts)
	}
	return fmt.Sprintf("all %d camera endpoints failed, last: %v", e.Attempts, e.LastErr)
}

func (e *FetchError) Unwrap() error { return e.LastErr }

// StreamError means the MJPEG byte stream ended or errored. Non-fatal:
// the session falls back to polling.
type StreamError struct {
	URL string
	Err error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("camera stream %s ended: %v", e.URL, e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }
