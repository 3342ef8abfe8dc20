package location

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/benmeehan/location-agent/pkg/storage"
	"github.com/rs/zerolog"
)

const (
	// StorageKey is the store key reserved for the last persisted location.
	StorageKey = "userLocation"

	// DefaultCacheMaxAge is the age past which a persisted location is discarded.
	DefaultCacheMaxAge = time.Hour

	requestTimeout    = 10 * time.Second
	requestMaximumAge = 5 * time.Minute
)

// Resolver obtains, caches and derives information from geographic coordinates.
type Resolver struct {
	provider    Provider
	permissions PermissionQuerier
	network     NetworkLocator
	store       storage.Store
	now         func() time.Time
	logger      zerolog.Logger

	mu              sync.Mutex
	lastKnown       Location
	haveLastKnown   bool
	permissionState PermissionState
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithProvider sets the platform location provider. Without one the platform is treated as
// having no location capability.
func WithProvider(p Provider) Option {
	return func(r *Resolver) { r.provider = p }
}

// WithPermissionQuerier sets the optional permission subsystem.
func WithPermissionQuerier(q PermissionQuerier) Option {
	return func(r *Resolver) { r.permissions = q }
}

// WithNetworkLocator sets the network fallback used by ResolveLocationFromNetwork.
func WithNetworkLocator(n NetworkLocator) Option {
	return func(r *Resolver) { r.network = n }
}

// WithStore sets the key-value store backing Persist and LoadCached.
func WithStore(s storage.Store) Option {
	return func(r *Resolver) { r.store = s }
}

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// WithLogger sets the logger used for cache diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// NewResolver creates a Resolver. Unset dependencies default to no provider, no permission
// subsystem, no network locator and an in-memory store.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		now:    time.Now,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.store == nil {
		r.store = storage.NewMemoryStore()
	}
	return r
}

var (
	defaultResolver     *Resolver
	defaultResolverOnce sync.Once
)

// Default returns the process-wide shared Resolver, creating it on first use.
func Default() *Resolver {
	defaultResolverOnce.Do(func() {
		defaultResolver = NewResolver()
	})
	return defaultResolver
}

// AcquireCurrentLocation issues a single high-accuracy position request to the provider.
// Cancelling ctx does not abort a request already issued; it ends on success, failure or
// the ten second request timeout.
func (r *Resolver) AcquireCurrentLocation(ctx context.Context) (Location, error) {
	if r.provider == nil {
		return Location{}, &AcquisitionError{Kind: ErrGeolocationUnsupported}
	}

	opts := PositionOptions{
		EnableHighAccuracy: true,
		Timeout:            requestTimeout,
		MaximumAge:         requestMaximumAge,
	}

	reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), opts.Timeout)
	defer cancel()

	loc, err := r.provider.GetPosition(reqCtx, opts)
	if err != nil {
		return Location{}, classify(err)
	}

	r.mu.Lock()
	r.lastKnown = loc
	r.haveLastKnown = true
	r.mu.Unlock()

	return loc, nil
}

// LastKnownLocation returns the most recent successfully acquired fix.
func (r *Resolver) LastKnownLocation() (Location, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastKnown, r.haveLastKnown
}

// CheckPermission queries the permission subsystem. Missing subsystems and query failures
// both report PermissionUnsupported.
func (r *Resolver) CheckPermission(ctx context.Context) PermissionState {
	state := PermissionUnsupported
	if r.permissions != nil {
		if s, err := r.permissions.QueryPermission(ctx); err == nil {
			state = s
		}
	}

	r.mu.Lock()
	r.permissionState = state
	r.mu.Unlock()

	return state
}

// LastKnownPermissionState returns the result of the latest CheckPermission call, or the
// empty state if none has been made.
func (r *Resolver) LastKnownPermissionState() PermissionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.permissionState
}

// DistanceBetween is the method form of the package level DistanceBetween.
func (r *Resolver) DistanceBetween(a, b Coordinate) float64 {
	return DistanceBetween(a, b)
}

// FormatDistance is the method form of the package level FormatDistance.
func (r *Resolver) FormatDistance(km float64) string {
	return FormatDistance(km)
}

// ResolveLocationFromNetwork asks the network locator for a coarse location.
func (r *Resolver) ResolveLocationFromNetwork(ctx context.Context) (NetworkLocation, error) {
	if r.network == nil {
		return NetworkLocation{}, &NetworkLocationError{Cause: ErrGeolocationUnsupported}
	}

	loc, err := r.network.Locate(ctx)
	if err != nil {
		return NetworkLocation{}, &NetworkLocationError{Cause: err}
	}
	return loc, nil
}

// Persist stores loc with the current time, replacing any earlier entry.
// Store failures are logged and otherwise ignored.
func (r *Resolver) Persist(loc Location) {
	payload, err := json.Marshal(CachedLocation{Location: loc, SavedAt: millis(r.now())})
	if err != nil {
		r.logger.Warn().Err(err).Msg("Failed to serialize location for storage")
		return
	}

	if err := r.store.Set(StorageKey, string(payload)); err != nil {
		r.logger.Warn().Err(err).Str("key", StorageKey).Msg("Failed to persist location")
	}
}

// LoadCached returns the persisted location if it is no older than maxAge. Non-positive
// values use DefaultCacheMaxAge. Expired and unreadable entries are removed.
func (r *Resolver) LoadCached(maxAge time.Duration) (CachedLocation, bool) {
	if maxAge <= 0 {
		maxAge = DefaultCacheMaxAge
	}

	raw, ok, err := r.store.Get(StorageKey)
	if err != nil {
		r.logger.Error().Err(err).Str("key", StorageKey).Msg("Error reading saved location")
		return CachedLocation{}, false
	}
	if !ok || raw == "" {
		return CachedLocation{}, false
	}

	var cached CachedLocation
	if err := json.Unmarshal([]byte(raw), &cached); err != nil || cached.SavedAt == 0 {
		r.logger.Error().Err(err).Str("key", StorageKey).Msg("Discarding malformed saved location")
		r.evict()
		return CachedLocation{}, false
	}

	if millis(r.now())-cached.SavedAt > maxAge.Milliseconds() {
		r.evict()
		return CachedLocation{}, false
	}

	return cached, true
}

func (r *Resolver) evict() {
	if err := r.store.Remove(StorageKey); err != nil {
		r.logger.Warn().Err(err).Str("key", StorageKey).Msg("Failed to remove saved location")
	}
}
