package gpx

import (
	"regexp"
	"strconv"

	"github.com/stridelog/server/pkg/domain/geo"
)

// trkptAttrs matches the first trkpt open tag and captures its lat/lon
// attributes in either order.
var (
	latLonPattern = regexp.MustCompile(`<trkpt[^>]*\blat="(-?[\d.]+)"[^>]*\blon="(-?[\d.]+)"`)
	lonLatPattern = regexp.MustCompile(`<trkpt[^>]*\blon="(-?[\d.]+)"[^>]*\blat="(-?[\d.]+)"`)
)

// FirstCoordinate pulls the first track point coordinate straight out
// of raw GPX text with a regex, bypassing the structured parser. This
// is an approximation for the "just get me one point fast" paths (race
// matching, weather): first track point only, no validation beyond
// numeric parseability.
func FirstCoordinate(rawGPX string) (geo.Point, bool) {
	if m := latLonPattern.FindStringSubmatch(rawGPX); m != nil {
		return parseCoordinate(m[1], m[2])
	}
	if m := lonLatPattern.FindStringSubmatch(rawGPX); m != nil {
		return parseCoordinate(m[2], m[1])
	}
	return geo.Point{}, false
}

func parseCoordinate(latStr, lonStr string) (geo.Point, bool) {
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return geo.Point{}, false
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return geo.Point{}, false
	}
	return geo.Point{Lat: lat, Lon: lon}, true
}
