// Package geometry implements the great-circle distance and nearest-node
// lookup used to snap request coordinates onto the road graph.
package geometry

import "math"

const earthRadiusMeters = 6371000

// Haversine returns the great-circle distance in metres between two
// points given in degrees. It is symmetric and Haversine(p, p) == 0.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// NearestNode returns the index into coords of the point closest to
// (lat, lon) under a planar squared-distance approximation, which is
// adequate at city scale. Ties are broken by the lowest index. The
// coords slice holds (lat, lon) pairs; callers must not pass an empty
// slice.
func NearestNode(coords [][2]float64, lat, lon float64) int {
	best := 0
	bestDist := math.Inf(1)
	for i, c := range coords {
		dLat := c[0] - lat
		dLon := c[1] - lon
		d := dLat*dLat + dLon*dLon
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}
