package mocks

import (
	"context"
	"time"

	"github.com/benmeehan/location-agent/pkg/location"
	"github.com/stretchr/testify/mock"
)

// MockLocationResolver is a mock implementation of services.LocationResolver
type MockLocationResolver struct {
	mock.Mock
}

func (m *MockLocationResolver) AcquireCurrentLocation(ctx context.Context) (location.Location, error) {
	args := m.Called(ctx)
	return args.Get(0).(location.Location), args.Error(1)
}

func (m *MockLocationResolver) CheckPermission(ctx context.Context) location.PermissionState {
	args := m.Called(ctx)
	return args.Get(0).(location.PermissionState)
}

func (m *MockLocationResolver) ResolveLocationFromNetwork(ctx context.Context) (location.NetworkLocation, error) {
	args := m.Called(ctx)
	return args.Get(0).(location.NetworkLocation), args.Error(1)
}

func (m *MockLocationResolver) Persist(loc location.Location) {
	m.Called(loc)
}

func (m *MockLocationResolver) LoadCached(maxAge time.Duration) (location.CachedLocation, bool) {
	args := m.Called(maxAge)
	return args.Get(0).(location.CachedLocation), args.Bool(1)
}
