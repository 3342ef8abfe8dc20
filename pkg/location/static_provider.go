package location

import (
	"context"
	"time"
)

// StaticProvider implements Provider with a fixed location.
type StaticProvider struct {
	coordinate Coordinate
	accuracy   float64
	now        func() time.Time
}

// NewStaticProvider creates a provider that always returns the same location.
func NewStaticProvider(lat, lng, accuracy float64) *StaticProvider {
	return &StaticProvider{
		coordinate: Coordinate{Latitude: lat, Longitude: lng},
		accuracy:   accuracy,
		now:        time.Now,
	}
}

// GetPosition returns the fixed location stamped with the current time.
func (s *StaticProvider) GetPosition(ctx context.Context, _ PositionOptions) (Location, error) {
	if err := ctx.Err(); err != nil {
		return Location{}, contextError(err)
	}

	return Location{
		Latitude:  s.coordinate.Latitude,
		Longitude: s.coordinate.Longitude,
		Accuracy:  s.accuracy,
		Timestamp: millis(s.now()),
	}, nil
}
