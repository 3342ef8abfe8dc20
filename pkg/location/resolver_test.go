package location

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benmeehan/location-agent/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	mu          sync.Mutex
	loc         Location
	err         error
	calls       int
	opts        PositionOptions
	hadDeadline bool
	ctxErr      error
}

func (f *fakeProvider) GetPosition(ctx context.Context, opts PositionOptions) (Location, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	f.opts = opts
	_, f.hadDeadline = ctx.Deadline()
	f.ctxErr = ctx.Err()
	return f.loc, f.err
}

type fakePermissions struct {
	state PermissionState
	err   error
}

func (f fakePermissions) QueryPermission(context.Context) (PermissionState, error) {
	return f.state, f.err
}

type fakeNetwork struct {
	loc NetworkLocation
	err error
}

func (f fakeNetwork) Locate(context.Context) (NetworkLocation, error) {
	return f.loc, f.err
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.UnixMilli(1_700_000_000_000)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type failingStore struct{}

func (failingStore) Get(string) (string, bool, error) { return "", false, errors.New("read failed") }
func (failingStore) Set(string, string) error         { return errors.New("write failed") }
func (failingStore) Remove(string) error              { return errors.New("remove failed") }

var sample = Location{Latitude: 40.4168, Longitude: -3.7038, Accuracy: 12.5, Timestamp: 1_700_000_000_000}

// TestResolver_AcquireCurrentLocation_Success tests that a fix is returned and remembered.
func TestResolver_AcquireCurrentLocation_Success(t *testing.T) {
	provider := &fakeProvider{loc: sample}
	r := NewResolver(WithProvider(provider))

	loc, err := r.AcquireCurrentLocation(context.Background())

	require.NoError(t, err)
	assert.Equal(t, sample, loc)
	assert.Equal(t, 1, provider.calls)
	assert.Equal(t, PositionOptions{EnableHighAccuracy: true, Timeout: 10 * time.Second, MaximumAge: 5 * time.Minute}, provider.opts)
	assert.True(t, provider.hadDeadline)

	last, ok := r.LastKnownLocation()
	assert.True(t, ok)
	assert.Equal(t, sample, last)
}

// TestResolver_AcquireCurrentLocation_Unsupported tests the missing provider path.
func TestResolver_AcquireCurrentLocation_Unsupported(t *testing.T) {
	r := NewResolver()

	_, err := r.AcquireCurrentLocation(context.Background())

	assert.ErrorIs(t, err, ErrGeolocationUnsupported)
	var acqErr *AcquisitionError
	assert.ErrorAs(t, err, &acqErr)
	_, ok := r.LastKnownLocation()
	assert.False(t, ok)
}

// TestResolver_AcquireCurrentLocation_ErrorCodes tests mapping of provider failures.
func TestResolver_AcquireCurrentLocation_ErrorCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"permission denied", &PositionError{Code: CodePermissionDenied, Message: "denied"}, ErrPermissionDenied},
		{"position unavailable", &PositionError{Code: CodePositionUnavailable, Message: "no fix"}, ErrPositionUnavailable},
		{"timeout", &PositionError{Code: CodeTimeout, Message: "slow"}, ErrTimeout},
		{"other code", &PositionError{Code: CodeOther, Message: "?"}, ErrUnknownAcquisition},
		{"unrecognised code", &PositionError{Code: "bogus"}, ErrUnknownAcquisition},
		{"plain error", errors.New("boom"), ErrUnknownAcquisition},
		{"deadline", context.DeadlineExceeded, ErrTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeProvider{loc: sample}
			r := NewResolver(WithProvider(provider))

			// Seed a last known location
			_, err := r.AcquireCurrentLocation(context.Background())
			require.NoError(t, err)

			provider.err = tt.err
			_, err = r.AcquireCurrentLocation(context.Background())

			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, tt.want.Error(), err.Error())
			assert.Equal(t, 2, provider.calls)

			last, ok := r.LastKnownLocation()
			assert.True(t, ok)
			assert.Equal(t, sample, last)
		})
	}
}

// TestResolver_AcquireCurrentLocation_IgnoresCancellation tests that a cancelled caller context is not passed on.
func TestResolver_AcquireCurrentLocation_IgnoresCancellation(t *testing.T) {
	provider := &fakeProvider{loc: sample}
	r := NewResolver(WithProvider(provider))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.AcquireCurrentLocation(ctx)

	require.NoError(t, err)
	assert.NoError(t, provider.ctxErr)
}

// TestResolver_CheckPermission tests permission states and failure normalisation.
func TestResolver_CheckPermission(t *testing.T) {
	tests := []struct {
		name    string
		querier PermissionQuerier
		want    PermissionState
	}{
		{"no subsystem", nil, PermissionUnsupported},
		{"granted", fakePermissions{state: PermissionGranted}, PermissionGranted},
		{"denied", fakePermissions{state: PermissionDenied}, PermissionDenied},
		{"prompt", fakePermissions{state: PermissionPrompt}, PermissionPrompt},
		{"query failure", fakePermissions{state: PermissionGranted, err: errors.New("no api")}, PermissionUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(WithPermissionQuerier(tt.querier))

			assert.Equal(t, PermissionState(""), r.LastKnownPermissionState())
			assert.Equal(t, tt.want, r.CheckPermission(context.Background()))
			assert.Equal(t, tt.want, r.LastKnownPermissionState())
		})
	}
}

// TestResolver_CheckPermission_DoesNotGateAcquisition tests that a denied state does not block the provider.
func TestResolver_CheckPermission_DoesNotGateAcquisition(t *testing.T) {
	provider := &fakeProvider{loc: sample}
	r := NewResolver(WithProvider(provider), WithPermissionQuerier(fakePermissions{state: PermissionDenied}))

	assert.Equal(t, PermissionDenied, r.CheckPermission(context.Background()))
	_, err := r.AcquireCurrentLocation(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 1, provider.calls)
}

// TestResolver_ResolveLocationFromNetwork tests the network fallback.
func TestResolver_ResolveLocationFromNetwork(t *testing.T) {
	want := NetworkLocation{Latitude: 41.39, Longitude: 2.17, City: "Barcelona"}
	r := NewResolver(WithNetworkLocator(fakeNetwork{loc: want}))

	got, err := r.ResolveLocationFromNetwork(context.Background())

	require.NoError(t, err)
	assert.Equal(t, want, got)
}

// TestResolver_ResolveLocationFromNetwork_Error tests that failures carry their cause.
func TestResolver_ResolveLocationFromNetwork_Error(t *testing.T) {
	cause := errors.New("connection refused")
	r := NewResolver(WithNetworkLocator(fakeNetwork{err: cause}))

	_, err := r.ResolveLocationFromNetwork(context.Background())

	assert.ErrorIs(t, err, ErrNetworkLocation)
	assert.ErrorIs(t, err, cause)
	var netErr *NetworkLocationError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, cause, netErr.Cause)
}

// TestResolver_ResolveLocationFromNetwork_NotConfigured tests the missing locator path.
func TestResolver_ResolveLocationFromNetwork_NotConfigured(t *testing.T) {
	_, err := NewResolver().ResolveLocationFromNetwork(context.Background())

	assert.ErrorIs(t, err, ErrNetworkLocation)
}

// TestResolver_PersistAndLoadCached tests a round trip through the store.
func TestResolver_PersistAndLoadCached(t *testing.T) {
	clock := newFakeClock()
	store := storage.NewMemoryStore()
	r := NewResolver(WithStore(store), WithClock(clock.Now))

	persistedAt := clock.Now().UnixMilli()
	r.Persist(sample)

	cached, ok := r.LoadCached(time.Hour)

	require.True(t, ok)
	assert.Equal(t, sample, cached.Location)
	assert.GreaterOrEqual(t, cached.SavedAt, persistedAt)

	raw, found, err := store.Get(StorageKey)
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `{"latitude":40.4168,"longitude":-3.7038,"accuracy":12.5,"timestamp":1700000000000,"savedAt":1700000000000}`, raw)
}

// TestResolver_Persist_Overwrites tests that the latest write wins.
func TestResolver_Persist_Overwrites(t *testing.T) {
	clock := newFakeClock()
	r := NewResolver(WithClock(clock.Now))

	r.Persist(sample)
	clock.Advance(time.Second)
	newer := Location{Latitude: 1, Longitude: 2, Accuracy: 3, Timestamp: 4}
	r.Persist(newer)

	cached, ok := r.LoadCached(time.Hour)

	require.True(t, ok)
	assert.Equal(t, newer, cached.Location)
	assert.Equal(t, clock.Now().UnixMilli(), cached.SavedAt)
}

// TestResolver_LoadCached_Expired tests lazy expiry and eviction.
func TestResolver_LoadCached_Expired(t *testing.T) {
	clock := newFakeClock()
	store := storage.NewMemoryStore()
	r := NewResolver(WithStore(store), WithClock(clock.Now))

	r.Persist(sample)
	clock.Advance(10 * time.Millisecond)

	_, ok := r.LoadCached(5 * time.Millisecond)
	assert.False(t, ok)

	_, found, err := store.Get(StorageKey)
	require.NoError(t, err)
	assert.False(t, found)
}

// TestResolver_LoadCached_AgeBoundary tests that an entry exactly maxAge old is still served.
func TestResolver_LoadCached_AgeBoundary(t *testing.T) {
	clock := newFakeClock()
	r := NewResolver(WithClock(clock.Now))

	r.Persist(sample)
	clock.Advance(5 * time.Millisecond)

	_, ok := r.LoadCached(5 * time.Millisecond)
	assert.True(t, ok)
}

// TestResolver_LoadCached_DefaultMaxAge tests the one hour default.
func TestResolver_LoadCached_DefaultMaxAge(t *testing.T) {
	clock := newFakeClock()
	r := NewResolver(WithClock(clock.Now))

	r.Persist(sample)
	clock.Advance(59 * time.Minute)
	_, ok := r.LoadCached(0)
	assert.True(t, ok)

	clock.Advance(2 * time.Minute)
	_, ok = r.LoadCached(0)
	assert.False(t, ok)
}

// TestResolver_LoadCached_Absent tests an empty store.
func TestResolver_LoadCached_Absent(t *testing.T) {
	_, ok := NewResolver().LoadCached(time.Hour)
	assert.False(t, ok)
}

// TestResolver_LoadCached_Malformed tests that corrupt entries are evicted.
func TestResolver_LoadCached_Malformed(t *testing.T) {
	for _, raw := range []string{"not json", `{"latitude":"north"}`, `{"latitude":1,"longitude":2}`, "null"} {
		t.Run(raw, func(t *testing.T) {
			store := storage.NewMemoryStore()
			require.NoError(t, store.Set(StorageKey, raw))
			r := NewResolver(WithStore(store))

			_, ok := r.LoadCached(time.Hour)
			assert.False(t, ok)

			_, found, err := store.Get(StorageKey)
			require.NoError(t, err)
			assert.False(t, found)
		})
	}
}

// TestResolver_StoreFailures tests that store errors never reach the caller.
func TestResolver_StoreFailures(t *testing.T) {
	r := NewResolver(WithStore(failingStore{}))

	assert.NotPanics(t, func() { r.Persist(sample) })
	_, ok := r.LoadCached(time.Hour)
	assert.False(t, ok)
}

// TestDefault tests that the shared resolver is created once.
func TestDefault(t *testing.T) {
	a := Default()
	b := Default()

	require.NotNil(t, a)
	assert.Same(t, a, b)
	assert.NotSame(t, a, NewResolver())
}
