package weather

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when the requested location is missing or blank.
	ErrInvalidInput = errors.New("location is required and must be a non-empty string")

	// ErrNotFound is returned by geocoders when the upstream search has no match.
	ErrNotFound = errors.New("location not found")

	// ErrUpstream wraps transport failures and non-success responses from providers.
	ErrUpstream = errors.New("upstream provider error")
)

// LookupFailedError is the single user-facing failure of a weather lookup.
// The message never includes the underlying cause; use errors.Unwrap for logging.
type LookupFailedError struct {
	Location string
	Err      error
}

func (e *LookupFailedError) Error() string {
	return fmt.Sprintf("Unable to fetch weather data for %s. Please try again later.", e.Location)
}

func (e *LookupFailedError) Unwrap() error {
	return e.Err
}
