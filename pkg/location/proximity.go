package location

import "sort"

// DefaultSearchRadiusKm is the radius used by proximity searches when none is given.
const DefaultSearchRadiusKm = 50.0

// Place is a named point of interest.
type Place struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Coordinate Coordinate `json:"coordinate"`
}

// PlaceDistance pairs a Place with its distance from a search origin.
type PlaceDistance struct {
	Place      Place   `json:"place"`
	DistanceKm float64 `json:"distance_km"`
}

// WithinRadius returns the places no further than radiusKm from origin, nearest first.
// Places with out of range coordinates are skipped. A non-positive radius uses
// DefaultSearchRadiusKm.
func WithinRadius(origin Coordinate, places []Place, radiusKm float64) []PlaceDistance {
	if radiusKm <= 0 {
		radiusKm = DefaultSearchRadiusKm
	}

	var matches []PlaceDistance
	for _, p := range places {
		if !p.Coordinate.Valid() {
			continue
		}
		d := DistanceBetween(origin, p.Coordinate)
		if d <= radiusKm {
			matches = append(matches, PlaceDistance{Place: p, DistanceKm: d})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].DistanceKm < matches[j].DistanceKm
	})
	return matches
}
