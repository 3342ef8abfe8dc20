package services

import (
	"context"
	"time"

	"github.com/benmeehan/location-agent/pkg/location"
	"github.com/rs/zerolog"
)

// LocationResolver is the part of location.Resolver the services depend on.
type LocationResolver interface {
	AcquireCurrentLocation(ctx context.Context) (location.Location, error)
	CheckPermission(ctx context.Context) location.PermissionState
	ResolveLocationFromNetwork(ctx context.Context) (location.NetworkLocation, error)
	Persist(loc location.Location)
	LoadCached(maxAge time.Duration) (location.CachedLocation, bool)
}

// LocationTrigger runs one acquire-and-persist cycle on demand and reports the outcome to callbacks.
type LocationTrigger struct {
	resolver LocationResolver
	logger   zerolog.Logger
}

// NewLocationTrigger creates a LocationTrigger around resolver.
func NewLocationTrigger(resolver LocationResolver, logger zerolog.Logger) *LocationTrigger {
	return &LocationTrigger{
		resolver: resolver,
		logger:   logger,
	}
}

// Trigger acquires the current location. On success the sample is persisted and passed to
// onSuccess; on failure the error goes to onError. Either callback may be nil.
func (t *LocationTrigger) Trigger(ctx context.Context, onSuccess func(location.Location), onError func(error)) error {
	state := t.resolver.CheckPermission(ctx)
	switch state {
	case location.PermissionUnsupported:
		t.logger.Warn().Msg("Location permission could not be queried")
	case location.PermissionDenied:
		t.logger.Warn().Msg("Location permission is denied")
	default:
		t.logger.Debug().Str("permission", string(state)).Msg("Location permission checked")
	}

	loc, err := t.resolver.AcquireCurrentLocation(ctx)
	if err != nil {
		t.logger.Error().Err(err).Msg("Location error")
		if onError != nil {
			onError(err)
		}
		return err
	}

	t.resolver.Persist(loc)
	t.logger.Info().
		Float64("latitude", loc.Latitude).
		Float64("longitude", loc.Longitude).
		Float64("accuracy", loc.Accuracy).
		Msg("Location found")

	if onSuccess != nil {
		onSuccess(loc)
	}
	return nil
}
