// Package splits derives per-kilometer split records from GPS tracks,
// or synthesizes uniform splits from aggregate totals when no track
// exists.
package splits

import (
	"math"

	"github.com/stridelog/server/pkg/domain/geo"
	"github.com/stridelog/server/pkg/domain/gpx"
	"github.com/stridelog/server/pkg/types"
)

const splitLengthMeters = 1000.0

// Generate walks the track points of a parsed GPX result and closes a
// split each time cumulative distance crosses a 1000 m boundary. Each
// split is computed from the exact sub-array of points since the last
// boundary, not interpolated. The trailing partial kilometer is dropped.
func Generate(result *gpx.Result) []*types.Split {
	var out []*types.Split
	kilometer := 1

	for _, track := range result.Tracks {
		if len(track) < 2 {
			continue
		}

		var cumulative float64
		nextBoundary := splitLengthMeters
		segStart := 0

		for i := 1; i < len(track); i++ {
			cumulative += geo.HaversineDistance(
				geo.Point{Lat: track[i-1].Lat, Lon: track[i-1].Lon},
				geo.Point{Lat: track[i].Lat, Lon: track[i].Lon},
			)
			if cumulative < nextBoundary {
				continue
			}

			segment := track[segStart : i+1]
			out = append(out, buildSplit(kilometer, segment))
			kilometer++
			segStart = i
			nextBoundary += splitLengthMeters
		}
	}

	return out
}

// buildSplit summarizes one closed segment.
func buildSplit(kilometer int, segment gpx.Track) *types.Split {
	geoPoints := make([]geo.Point, len(segment))
	for i, p := range segment {
		geoPoints[i] = geo.Point{Lat: p.Lat, Lon: p.Lon}
	}
	distance := geo.TrackDistance(geoPoints)

	var duration float64
	if first, last := segment[0].Time, segment[len(segment)-1].Time; first != nil && last != nil {
		duration = last.Sub(*first).Seconds()
	}

	var pace float64
	if distance > 0 && duration > 0 {
		pace = duration / (distance / splitLengthMeters)
	}

	split := &types.Split{
		Kilometer:     kilometer,
		Duration:      math.Round(duration),
		Pace:          math.Round(pace),
		Distance:      distance,
		ElevationGain: segmentElevationGain(segment),
	}

	if hr, ok := segmentAverageHR(segment); ok {
		split.AverageHeartRate = hr
	}

	return split
}

// GenerateAverage produces floor(distance/1000) synthetic splits that
// all share the activity-level average duration and pace. Used when an
// activity has totals but no GPX; the absence of per-split variance is
// the caller's signal that this path ran.
func GenerateAverage(totalDistance, totalDuration, averagePace float64) []*types.Split {
	totalKm := int(totalDistance / splitLengthMeters)
	if totalKm <= 0 || totalDuration <= 0 {
		return nil
	}

	splitDuration := math.Round(totalDuration / float64(totalKm))
	out := make([]*types.Split, 0, totalKm)
	for km := 1; km <= totalKm; km++ {
		out = append(out, &types.Split{
			Kilometer: km,
			Duration:  splitDuration,
			Pace:      averagePace,
			Distance:  splitLengthMeters,
		})
	}
	return out
}

// BestPace returns the minimum positive pace over the given splits,
// or 0 when none qualifies.
func BestPace(splits []*types.Split) float64 {
	var best float64
	for _, s := range splits {
		if s.Pace <= 0 {
			continue
		}
		if best == 0 || s.Pace < best {
			best = s.Pace
		}
	}
	return best
}

func segmentElevationGain(segment gpx.Track) float64 {
	var elevated []geo.Point
	for _, p := range segment {
		if p.Ele != nil {
			elevated = append(elevated, geo.Point{Ele: *p.Ele})
		}
	}
	return geo.ElevationGain(elevated)
}

// segmentAverageHR is the arithmetic mean of points carrying a heart
// rate; ok is false when none do.
func segmentAverageHR(segment gpx.Track) (float64, bool) {
	var sum, count float64
	for _, p := range segment {
		if p.HR != nil {
			sum += float64(*p.HR)
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return math.Round(sum / count), true
}
