package tripgeo

import (
	"errors"
	"fmt"
)

var (
	// ErrQuotaExceeded is returned when a remote search is attempted while
	// the quota tracker is disabled.
	ErrQuotaExceeded = errors.New("geocoder quota exceeded")

	// ErrInvalidConfig marks setup problems no fallback can compensate for.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// RemoteRequestError describes a failed per-language geocoder request.
type RemoteRequestError struct {
	Language   string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *RemoteRequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("geocoder request (%s): status %d: %v", e.Language, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("geocoder request (%s): %v", e.Language, e.Err)
}

func (e *RemoteRequestError) Unwrap() error { return e.Err }
