package location

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Provider interface defines the methods for platform location providers
type Provider interface {
	GetPosition(ctx context.Context, opts PositionOptions) (Location, error)
}

// PermissionQuerier reports the platform's geolocation permission state.
type PermissionQuerier interface {
	QueryPermission(ctx context.Context) (PermissionState, error)
}

// NetworkLocator resolves a coarse location without a positioning device.
type NetworkLocator interface {
	Locate(ctx context.Context) (NetworkLocation, error)
}

// fixCache holds the provider's last fix so requests with a MaximumAge can reuse it.
type fixCache struct {
	mu   sync.Mutex
	last Location
	at   time.Time
	ok   bool
}

func (c *fixCache) get(maxAge time.Duration, now time.Time) (Location, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.ok || maxAge <= 0 || now.Sub(c.at) > maxAge {
		return Location{}, false
	}
	return c.last, true
}

func (c *fixCache) put(loc Location, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.last = loc
	c.at = now
	c.ok = true
}

// contextError converts an expired or cancelled request context into a PositionError.
func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &PositionError{Code: CodeTimeout, Message: "position request timed out", Err: err}
	}
	return &PositionError{Code: CodeOther, Message: "position request aborted", Err: err}
}
