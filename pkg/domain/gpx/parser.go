// Package gpx parses GPX XML into ordered track points and aggregate
// stats. Parsing is deliberately tolerant: bad points are skipped,
// optional elements are optional per point, and malformed documents
// degrade to an empty result instead of an error. Callers must treat
// an empty Tracks slice as "no GPX available".
package gpx

import (
	"strconv"
	"time"

	"github.com/beevik/etree"

	"github.com/stridelog/server/pkg/domain/geo"
)

// Point is a single timestamped track point. Ele, Time and HR are
// independently optional.
type Point struct {
	Lat  float64
	Lon  float64
	Ele  *float64
	Time *time.Time
	HR   *int
}

// Track is an ordered sequence of points. Ordering is temporal and is
// the sole basis for distance and duration derivation.
type Track []Point

// Result is the aggregate outcome of parsing one GPX document.
type Result struct {
	Tracks        []Track
	TotalDistance float64 // meters
	TotalDuration float64 // seconds
	ElevationGain float64 // meters
	StartTime     *time.Time
	EndTime       *time.Time
}

// Parse converts a GPX XML document into tracks plus aggregate stats.
// Any parse failure yields the zero-value Result, never an error.
func Parse(xmlData string) *Result {
	result := &Result{}

	doc := etree.NewDocument()
	if err := doc.ReadFromString(xmlData); err != nil {
		return result
	}

	root := doc.SelectElement("gpx")
	if root == nil {
		return result
	}

	// etree returns element slices, so a lone trk/trkseg/trkpt needs no
	// singular-vs-array normalization here.
	for _, trk := range root.SelectElements("trk") {
		var track Track
		for _, seg := range trk.SelectElements("trkseg") {
			for _, trkpt := range seg.SelectElements("trkpt") {
				point, ok := parsePoint(trkpt)
				if !ok {
					continue
				}
				track = append(track, point)
			}
		}
		if len(track) == 0 {
			continue
		}
		result.Tracks = append(result.Tracks, track)

		geoPoints := make([]geo.Point, len(track))
		for i, p := range track {
			geoPoints[i] = geo.Point{Lat: p.Lat, Lon: p.Lon}
		}
		result.TotalDistance += geo.TrackDistance(geoPoints)
		result.ElevationGain += trackElevationGain(track)
	}

	// Global start/end are the min/max timestamps across all tracks.
	for _, track := range result.Tracks {
		for _, p := range track {
			if p.Time == nil {
				continue
			}
			if result.StartTime == nil || p.Time.Before(*result.StartTime) {
				t := *p.Time
				result.StartTime = &t
			}
			if result.EndTime == nil || p.Time.After(*result.EndTime) {
				t := *p.Time
				result.EndTime = &t
			}
		}
	}
	if result.StartTime != nil && result.EndTime != nil {
		result.TotalDuration = result.EndTime.Sub(*result.StartTime).Seconds()
	}

	return result
}

// parsePoint extracts one trkpt. A point lacking parseable lat/lon is
// skipped entirely; ele, time and heart rate are each optional.
func parsePoint(trkpt *etree.Element) (Point, bool) {
	lat, err := strconv.ParseFloat(trkpt.SelectAttrValue("lat", ""), 64)
	if err != nil {
		return Point{}, false
	}
	lon, err := strconv.ParseFloat(trkpt.SelectAttrValue("lon", ""), 64)
	if err != nil {
		return Point{}, false
	}

	point := Point{Lat: lat, Lon: lon}

	if eleEl := trkpt.SelectElement("ele"); eleEl != nil {
		if ele, err := strconv.ParseFloat(eleEl.Text(), 64); err == nil {
			point.Ele = &ele
		}
	}

	if timeEl := trkpt.SelectElement("time"); timeEl != nil {
		if ts, err := time.Parse(time.RFC3339, timeEl.Text()); err == nil {
			utc := ts.UTC()
			point.Time = &utc
		}
	}

	if hr, ok := extractHeartRate(trkpt); ok {
		point.HR = &hr
	}

	return point, true
}

// extractHeartRate digs the heart rate out of the vendor extension
// block. Matching is by local element name, which tolerates gpxtpx:,
// ns3:, unprefixed, and any other namespace spelling.
func extractHeartRate(trkpt *etree.Element) (int, bool) {
	ext := trkpt.SelectElement("extensions")
	if ext == nil {
		return 0, false
	}
	if hrEl := findByLocalName(ext, "hr"); hrEl != nil {
		if hr, err := strconv.Atoi(hrEl.Text()); err == nil {
			return hr, true
		}
	}
	return 0, false
}

// findByLocalName walks descendants depth-first for the first element
// whose local tag matches, ignoring namespace prefixes.
func findByLocalName(el *etree.Element, tag string) *etree.Element {
	for _, child := range el.ChildElements() {
		if child.Tag == tag {
			return child
		}
		if found := findByLocalName(child, tag); found != nil {
			return found
		}
	}
	return nil
}

func trackElevationGain(track Track) float64 {
	var elevated []geo.Point
	for _, p := range track {
		if p.Ele != nil {
			elevated = append(elevated, geo.Point{Ele: *p.Ele})
		}
	}
	return geo.ElevationGain(elevated)
}
