package location

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrGeolocationUnsupported = errors.New("geolocation is not supported on this platform")
	ErrPermissionDenied       = errors.New("location permission denied, enable location access in the device settings")
	ErrPositionUnavailable    = errors.New("location information is unavailable")
	ErrTimeout                = errors.New("location request timed out")
	ErrUnknownAcquisition     = errors.New("an unknown error occurred while getting location")
	ErrNetworkLocation        = errors.New("failed to get location from network")
)

// PositionErrorCode is the closed set of failure codes a Provider may report.
type PositionErrorCode string

const (
	CodePermissionDenied    PositionErrorCode = "permission_denied"
	CodePositionUnavailable PositionErrorCode = "position_unavailable"
	CodeTimeout             PositionErrorCode = "timeout"
	CodeOther               PositionErrorCode = "other"
)

// PositionError is returned by providers when a position request fails.
type PositionError struct {
	Code    PositionErrorCode
	Message string
	Err     error
}

func (e *PositionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PositionError) Unwrap() error {
	return e.Err
}

// AcquisitionError is the typed failure of Resolver.AcquireCurrentLocation.
// Kind is one of the Err* acquisition sentinels and is matched by errors.Is.
type AcquisitionError struct {
	Kind  error
	Cause error
}

func (e *AcquisitionError) Error() string {
	return e.Kind.Error()
}

func (e *AcquisitionError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// NetworkLocationError wraps any failure of the network fallback lookup.
type NetworkLocationError struct {
	Cause error
}

func (e *NetworkLocationError) Error() string {
	return fmt.Sprintf("%v: %v", ErrNetworkLocation, e.Cause)
}

func (e *NetworkLocationError) Is(target error) bool {
	return target == ErrNetworkLocation
}

func (e *NetworkLocationError) Unwrap() error {
	return e.Cause
}

// classify maps a provider failure onto an acquisition error kind.
func classify(err error) *AcquisitionError {
	var posErr *PositionError
	if !errors.As(err, &posErr) {
		if errors.Is(err, context.DeadlineExceeded) {
			return &AcquisitionError{Kind: ErrTimeout, Cause: err}
		}
		return &AcquisitionError{Kind: ErrUnknownAcquisition, Cause: err}
	}

	switch posErr.Code {
	case CodePermissionDenied:
		return &AcquisitionError{Kind: ErrPermissionDenied, Cause: err}
	case CodePositionUnavailable:
		return &AcquisitionError{Kind: ErrPositionUnavailable, Cause: err}
	case CodeTimeout:
		return &AcquisitionError{Kind: ErrTimeout, Cause: err}
	default:
		return &AcquisitionError{Kind: ErrUnknownAcquisition, Cause: err}
	}
}
