package location

import "time"

// Coordinate is a latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the coordinate lies inside the WGS84 latitude and longitude ranges.
func (c Coordinate) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

// Location is a single successful position fix.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`  // Meters
	Timestamp int64   `json:"timestamp"` // Epoch milliseconds of the fix
}

// Coordinate returns the position of the fix without accuracy metadata.
func (l Location) Coordinate() Coordinate {
	return Coordinate{Latitude: l.Latitude, Longitude: l.Longitude}
}

// CachedLocation is a Location as written to the persistence store.
type CachedLocation struct {
	Location
	SavedAt int64 `json:"savedAt"` // Epoch milliseconds of the write
}

// NetworkLocation is the coarse position returned by the network fallback endpoint.
type NetworkLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	City      string  `json:"city"`
}

// PermissionState is the platform's answer to a geolocation permission query.
type PermissionState string

const (
	PermissionGranted     PermissionState = "granted"
	PermissionDenied      PermissionState = "denied"
	PermissionPrompt      PermissionState = "prompt"
	PermissionUnsupported PermissionState = "unsupported"
)

// PositionOptions are the hints passed to a Provider with every request.
type PositionOptions struct {
	EnableHighAccuracy bool
	Timeout            time.Duration
	MaximumAge         time.Duration // Oldest provider-side fix that may be returned instead of a new one
}

func millis(t time.Time) int64 {
	return t.UnixMilli()
}
