// Package geo provides the geodesic math used by split generation and
// race matching: great-circle distances, polyline accumulation, and
// Douglas-Peucker simplification.
package geo

import "math"

const earthRadiusMeters = 6371e3

// Point is a GPS coordinate with optional elevation.
type Point struct {
	Lat float64
	Lon float64
	Ele float64
}

// HaversineDistance returns the great-circle distance in meters between
// two points.
func HaversineDistance(p1, p2 Point) float64 {
	lat1 := p1.Lat * math.Pi / 180
	lat2 := p2.Lat * math.Pi / 180
	dLat := (p2.Lat - p1.Lat) * math.Pi / 180
	dLon := (p2.Lon - p1.Lon) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// TrackDistance returns the sum of consecutive pairwise distances.
// Returns 0 for fewer than 2 points.
func TrackDistance(points []Point) float64 {
	if len(points) < 2 {
		return 0
	}
	var total float64
	for i := 1; i < len(points); i++ {
		total += HaversineDistance(points[i-1], points[i])
	}
	return total
}

// ElevationGain sums positive consecutive elevation deltas. Descents
// contribute zero, never negative.
func ElevationGain(points []Point) float64 {
	var gain float64
	for i := 1; i < len(points); i++ {
		if delta := points[i].Ele - points[i-1].Ele; delta > 0 {
			gain += delta
		}
	}
	return gain
}

// SimplifyTrack reduces a polyline with the Douglas-Peucker algorithm.
// The tolerance is compared against perpendicular offsets in raw
// lat/lon degrees rather than meters, which is a known approximation.
// Tracks of 2 or fewer points are returned unchanged; the first and
// last point are always retained.
func SimplifyTrack(points []Point, tolerance float64) []Point {
	if len(points) <= 2 {
		return points
	}

	// Find the point with the maximum offset from the chord
	var maxDist float64
	var index int
	first, last := points[0], points[len(points)-1]
	for i := 1; i < len(points)-1; i++ {
		d := perpendicularDistance(points[i], first, last)
		if d > maxDist {
			maxDist = d
			index = i
		}
	}

	if maxDist <= tolerance {
		return []Point{first, last}
	}

	left := SimplifyTrack(points[:index+1], tolerance)
	right := SimplifyTrack(points[index:], tolerance)

	merged := make([]Point, 0, len(left)+len(right)-1)
	merged = append(merged, left[:len(left)-1]...)
	merged = append(merged, right...)
	return merged
}

// perpendicularDistance is the offset of p from the line through a and b,
// measured in degree space.
func perpendicularDistance(p, a, b Point) float64 {
	dx := b.Lon - a.Lon
	dy := b.Lat - a.Lat

	length := math.Hypot(dx, dy)
	if length == 0 {
		return math.Hypot(p.Lon-a.Lon, p.Lat-a.Lat)
	}

	return math.Abs(dy*p.Lon-dx*p.Lat+b.Lon*a.Lat-b.Lat*a.Lon) / length
}
