package location

import (
	"fmt"
	"math"
	"strconv"
)

const earthRadiusKm = 6371.0 // Earth's radius in kilometers

// DistanceBetween returns the great-circle distance between a and b in kilometers,
// rounded to one decimal place.
func DistanceBetween(a, b Coordinate) float64 {
	dLat := toRadians(b.Latitude - a.Latitude)
	dLon := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Latitude))*math.Cos(toRadians(b.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return math.Round(earthRadiusKm*c*10) / 10
}

// FormatDistance renders km for display. Values under one kilometer are shown in whole meters,
// anything else is printed as given.
func FormatDistance(km float64) string {
	if km < 1 {
		return fmt.Sprintf("%d m", int64(math.Round(km*1000)))
	}
	return strconv.FormatFloat(km, 'f', -1, 64) + " km"
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
