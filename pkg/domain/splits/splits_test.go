package splits

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stridelog/server/pkg/domain/gpx"
	"github.com/stridelog/server/pkg/types"
)

// trackAlongMeridian builds a constant-speed track heading due north.
// Each step is ~11.12 m and takes stepSeconds.
func trackAlongMeridian(steps int, stepSeconds float64) gpx.Track {
	const stepDegrees = 0.0001 // ~11.12 m at R=6371km
	start := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)

	track := make(gpx.Track, 0, steps+1)
	for i := 0; i <= steps; i++ {
		ts := start.Add(time.Duration(float64(i)*stepSeconds) * time.Second)
		hr := 140 + i%10
		track = append(track, gpx.Point{
			Lat:  39.0 + float64(i)*stepDegrees,
			Lon:  116.0,
			Time: &ts,
			HR:   &hr,
		})
	}
	return track
}

func TestGenerate_FiveKilometerTrack(t *testing.T) {
	// 450 steps * ~11.12 m = ~5004 m
	result := &gpx.Result{Tracks: []gpx.Track{trackAlongMeridian(450, 3)}}

	splits := Generate(result)
	require.Len(t, splits, 5)

	for i, s := range splits {
		assert.Equal(t, i+1, s.Kilometer)
		assert.InDelta(t, 1000, s.Distance, 15)
	}

	// Constant speed: pace near-identical across splits
	for _, s := range splits[1:] {
		assert.InDelta(t, splits[0].Pace, s.Pace, 2)
	}
}

func TestGenerate_TrailingPartialKilometerDropped(t *testing.T) {
	// 477 steps * ~11.12 m = ~5304 m; the ~300 m tail must not emit a 6th split
	result := &gpx.Result{Tracks: []gpx.Track{trackAlongMeridian(477, 3)}}

	splits := Generate(result)
	assert.Len(t, splits, 5)
}

func TestGenerate_ShortTrackYieldsNothing(t *testing.T) {
	// ~556 m total
	result := &gpx.Result{Tracks: []gpx.Track{trackAlongMeridian(50, 3)}}
	assert.Empty(t, Generate(result))

	assert.Empty(t, Generate(&gpx.Result{}))
}

func TestGenerate_AverageHeartRatePerSegment(t *testing.T) {
	result := &gpx.Result{Tracks: []gpx.Track{trackAlongMeridian(450, 3)}}

	splits := Generate(result)
	require.NotEmpty(t, splits)
	for _, s := range splits {
		assert.InDelta(t, 144.5, s.AverageHeartRate, 5)
	}
}

func TestGenerate_NoHeartRateOmitted(t *testing.T) {
	track := trackAlongMeridian(450, 3)
	for i := range track {
		track[i].HR = nil
	}
	splits := Generate(&gpx.Result{Tracks: []gpx.Track{track}})
	require.NotEmpty(t, splits)
	for _, s := range splits {
		assert.Equal(t, 0.0, s.AverageHeartRate)
	}
}

func TestGenerateAverage_Uniform(t *testing.T) {
	splits := GenerateAverage(5000, 1500, 300)
	require.Len(t, splits, 5)

	for i, s := range splits {
		assert.Equal(t, i+1, s.Kilometer)
		assert.Equal(t, 300.0, s.Duration)
		assert.Equal(t, 300.0, s.Pace)
		assert.Equal(t, 1000.0, s.Distance)
	}
}

func TestGenerateAverage_FloorsPartialKilometer(t *testing.T) {
	splits := GenerateAverage(5700, 1710, 300)
	assert.Len(t, splits, 5)
}

func TestGenerateAverage_DegenerateInputs(t *testing.T) {
	assert.Nil(t, GenerateAverage(0, 1500, 300))
	assert.Nil(t, GenerateAverage(900, 300, 333))
	assert.Nil(t, GenerateAverage(5000, 0, 300))
}

func TestBestPace(t *testing.T) {
	assert.Equal(t, 0.0, BestPace(nil))

	in := []*types.Split{
		{Kilometer: 1, Pace: 310},
		{Kilometer: 2, Pace: 0}, // no pace recorded, ignored
		{Kilometer: 3, Pace: 295},
		{Kilometer: 4, Pace: 320},
	}
	assert.Equal(t, 295.0, BestPace(in))
}
