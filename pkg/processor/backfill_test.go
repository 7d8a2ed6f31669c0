package processor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stridelog/server/pkg/enrich/weather"
	"github.com/stridelog/server/pkg/testing/mocks"
	"github.com/stridelog/server/pkg/types"
)

type selectiveWeather struct {
	failLat float64
	calls   int
}

func (f *selectiveWeather) FetchHistorical(ctx context.Context, lat, lon float64, startTime time.Time) (*weather.Snapshot, error) {
	f.calls++
	if lat == f.failLat {
		return nil, assert.AnError
	}
	return &weather.Snapshot{Temperature: 20, WeatherCode: 0, Description: "clear sky"}, nil
}

func outdoorActivity(id, gpxData string) *types.Activity {
	return &types.Activity{
		ID:        id,
		Source:    types.SourceStrava,
		SourceID:  "src-" + id,
		StartTime: time.Date(2024, 5, 1, 6, 0, 0, 0, time.UTC),
		GPXData:   gpxData,
	}
}

func TestBackfillMissingWeather(t *testing.T) {
	db := mocks.NewMemoryDatabase()

	okGPX := `<gpx><trk><trkseg><trkpt lat="39.9" lon="116.4"></trkpt></trkseg></trk></gpx>`
	failGPX := `<gpx><trk><trkseg><trkpt lat="55.5" lon="37.6"></trkpt></trkseg></trk></gpx>`
	noCoordGPX := `<gpx><trk><trkseg></trkseg></trk></gpx>`

	db.Activities["a"] = outdoorActivity("a", okGPX)
	db.Activities["b"] = outdoorActivity("b", failGPX)
	db.Activities["c"] = outdoorActivity("c", noCoordGPX)

	// Already enriched and indoor rows must not be listed at all.
	enriched := outdoorActivity("d", okGPX)
	enriched.WeatherData = `{"temperature":10}`
	db.Activities["d"] = enriched
	indoor := outdoorActivity("e", okGPX)
	indoor.IsIndoor = true
	db.Activities["e"] = indoor

	fetcher := &selectiveWeather{failLat: 55.5}
	p := &Processor{DB: db, Weather: fetcher}

	result, err := p.BackfillMissingWeather(context.Background(), time.Millisecond)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 1, result.Success)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 2, fetcher.calls, "skipped rows never hit the API")

	assert.NotEmpty(t, db.Activities["a"].WeatherData)
	assert.Empty(t, db.Activities["b"].WeatherData)
	assert.Empty(t, db.Activities["c"].WeatherData)
}

func TestBackfillWithoutWeatherClient(t *testing.T) {
	p := &Processor{DB: mocks.NewMemoryDatabase()}
	_, err := p.BackfillMissingWeather(context.Background(), time.Millisecond)
	assert.Error(t, err)
}
