package gpx

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test">
  <trk>
    <name>Morning Run</name>
    <trkseg>
      <trkpt lat="39.9042" lon="116.4074">
        <ele>44.0</ele>
        <time>2024-03-10T08:00:00Z</time>
        <extensions>
          <gpxtpx:TrackPointExtension>
            <gpxtpx:hr>142</gpxtpx:hr>
          </gpxtpx:TrackPointExtension>
        </extensions>
      </trkpt>
      <trkpt lat="39.9052" lon="116.4074">
        <ele>46.0</ele>
        <time>2024-03-10T08:00:30Z</time>
        <extensions>
          <gpxtpx:TrackPointExtension>
            <gpxtpx:hr>150</gpxtpx:hr>
          </gpxtpx:TrackPointExtension>
        </extensions>
      </trkpt>
      <trkpt lat="39.9062" lon="116.4074">
        <ele>43.0</ele>
        <time>2024-03-10T08:01:00Z</time>
      </trkpt>
    </trkseg>
  </trk>
</gpx>`

func TestParse_BasicTrack(t *testing.T) {
	result := Parse(sampleGPX)

	require.Len(t, result.Tracks, 1)
	require.Len(t, result.Tracks[0], 3)

	// Two ~111m hops along a meridian
	assert.InDelta(t, 222, result.TotalDistance, 10)
	assert.Equal(t, 60.0, result.TotalDuration)
	assert.Equal(t, 2.0, result.ElevationGain) // only the 44->46 ascent

	require.NotNil(t, result.StartTime)
	require.NotNil(t, result.EndTime)
	assert.Equal(t, "08:00:00", result.StartTime.Format("15:04:05"))
	assert.Equal(t, "08:01:00", result.EndTime.Format("15:04:05"))

	first := result.Tracks[0][0]
	require.NotNil(t, first.HR)
	assert.Equal(t, 142, *first.HR)
	third := result.Tracks[0][2]
	assert.Nil(t, third.HR)
}

func TestParse_MalformedXMLDegradesToEmpty(t *testing.T) {
	for _, input := range []string{
		"",
		"not xml at all",
		"<gpx><trk><trkseg><trkpt lat=\"1\"", // truncated
		"<html><body>error page</body></html>",
	} {
		result := Parse(input)
		assert.Empty(t, result.Tracks, "input: %q", input)
		assert.Equal(t, 0.0, result.TotalDistance)
		assert.Equal(t, 0.0, result.TotalDuration)
		assert.Equal(t, 0.0, result.ElevationGain)
		assert.Nil(t, result.StartTime)
	}
}

func TestParse_SkipsPointsWithoutCoordinates(t *testing.T) {
	xml := `<gpx><trk><trkseg>
		<trkpt lat="1.0" lon="2.0"></trkpt>
		<trkpt lat="bogus" lon="2.0"></trkpt>
		<trkpt></trkpt>
		<trkpt lat="1.1" lon="2.0"></trkpt>
	</trkseg></trk></gpx>`

	result := Parse(xml)
	require.Len(t, result.Tracks, 1)
	assert.Len(t, result.Tracks[0], 2)
}

func TestParse_HeartRateNamespaceSpellings(t *testing.T) {
	for _, spelling := range []string{
		"<gpxtpx:TrackPointExtension><gpxtpx:hr>130</gpxtpx:hr></gpxtpx:TrackPointExtension>",
		"<TrackPointExtension><hr>130</hr></TrackPointExtension>",
		"<ns3:TrackPointExtension><ns3:hr>130</ns3:hr></ns3:TrackPointExtension>",
	} {
		xml := fmt.Sprintf(`<gpx><trk><trkseg>
			<trkpt lat="1.0" lon="2.0"><extensions>%s</extensions></trkpt>
		</trkseg></trk></gpx>`, spelling)

		result := Parse(xml)
		require.Len(t, result.Tracks, 1, "spelling: %s", spelling)
		require.NotNil(t, result.Tracks[0][0].HR, "spelling: %s", spelling)
		assert.Equal(t, 130, *result.Tracks[0][0].HR)
	}
}

func TestParse_TimesSpanMultipleTracks(t *testing.T) {
	xml := `<gpx>
	<trk><trkseg>
		<trkpt lat="1.0" lon="2.0"><time>2024-05-01T09:30:00Z</time></trkpt>
	</trkseg></trk>
	<trk><trkseg>
		<trkpt lat="1.0" lon="2.1"><time>2024-05-01T09:00:00Z</time></trkpt>
		<trkpt lat="1.0" lon="2.2"><time>2024-05-01T10:00:00Z</time></trkpt>
	</trkseg></trk>
	</gpx>`

	result := Parse(xml)
	require.Len(t, result.Tracks, 2)
	require.NotNil(t, result.StartTime)
	require.NotNil(t, result.EndTime)
	// min/max across both tracks, not just the first
	assert.Equal(t, "09:00:00", result.StartTime.Format("15:04:05"))
	assert.Equal(t, "10:00:00", result.EndTime.Format("15:04:05"))
}

func TestParse_OptionalElementsIndependent(t *testing.T) {
	xml := `<gpx><trk><trkseg>
		<trkpt lat="1.0" lon="2.0"><ele>10</ele></trkpt>
		<trkpt lat="1.1" lon="2.0"><time>2024-05-01T09:00:00Z</time></trkpt>
	</trkseg></trk></gpx>`

	result := Parse(xml)
	require.Len(t, result.Tracks, 1)
	points := result.Tracks[0]
	require.Len(t, points, 2)
	assert.NotNil(t, points[0].Ele)
	assert.Nil(t, points[0].Time)
	assert.Nil(t, points[1].Ele)
	assert.NotNil(t, points[1].Time)
}

func TestFirstCoordinate(t *testing.T) {
	point, ok := FirstCoordinate(sampleGPX)
	require.True(t, ok)
	assert.Equal(t, 39.9042, point.Lat)
	assert.Equal(t, 116.4074, point.Lon)
}

func TestFirstCoordinate_LonBeforeLat(t *testing.T) {
	point, ok := FirstCoordinate(`<trkpt lon="116.4" lat="-39.9">`)
	require.True(t, ok)
	assert.Equal(t, -39.9, point.Lat)
	assert.Equal(t, 116.4, point.Lon)
}

func TestFirstCoordinate_NoTrackPoints(t *testing.T) {
	_, ok := FirstCoordinate("<gpx></gpx>")
	assert.False(t, ok)

	_, ok = FirstCoordinate(strings.Repeat("x", 100))
	assert.False(t, ok)
}
