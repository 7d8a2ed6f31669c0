package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stridelog/server/pkg/domain/gpx"
	"github.com/stridelog/server/pkg/infrastructure/oauth"
	"github.com/stridelog/server/pkg/source"
)

type staticTokenSource struct{}

func (staticTokenSource) Token(ctx context.Context) (*oauth.Token, error) {
	return &oauth.Token{AccessToken: "test-token", Expiry: time.Now().Add(time.Hour)}, nil
}

func (staticTokenSource) ForceRefresh(ctx context.Context) (*oauth.Token, error) {
	return &oauth.Token{AccessToken: "test-token", Expiry: time.Now().Add(time.Hour)}, nil
}

func newTestAdapter(baseURL string) *Adapter {
	return &Adapter{
		client: &Client{
			BaseURL:    baseURL,
			httpClient: oauth.NewHTTPClient(staticTokenSource{}),
		},
	}
}

// apiServer fakes the three Strava endpoints the adapter touches.
// activitiesByPage maps page number to the summaries it serves.
func apiServer(t *testing.T, activitiesByPage map[int][]apiActivity) (*httptest.Server, *[]int) {
	t.Helper()
	var pagesRequested []int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		switch {
		case r.URL.Path == "/athlete/activities":
			page, _ := strconv.Atoi(r.URL.Query().Get("page"))
			pagesRequested = append(pagesRequested, page)
			summaries := activitiesByPage[page]
			if summaries == nil {
				summaries = []apiActivity{}
			}
			json.NewEncoder(w).Encode(summaries)

		case strings.HasSuffix(r.URL.Path, "/streams"):
			w.WriteHeader(http.StatusNotFound)

		case strings.HasPrefix(r.URL.Path, "/activities/"):
			id, _ := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/activities/"), 10, 64)
			json.NewEncoder(w).Encode(apiActivity{
				ID:         id,
				Name:       fmt.Sprintf("Run %d", id),
				SportType:  "Run",
				Distance:   10000,
				MovingTime: 3000,
				StartDate:  time.Date(2024, 5, 1, 6, 0, 0, 0, time.UTC),
			})

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	return server, &pagesRequested
}

func runPage(startID int64, count int) []apiActivity {
	page := make([]apiActivity, count)
	for i := range page {
		page[i] = apiActivity{ID: startID + int64(i), SportType: "Run"}
	}
	return page
}

func TestGetActivitiesPaginationHonorsLimit(t *testing.T) {
	server, pages := apiServer(t, map[int][]apiActivity{
		1: runPage(1000, 50),
		2: runPage(2000, 50),
		3: runPage(3000, 50),
		4: runPage(4000, 50),
	})
	defer server.Close()

	adapter := newTestAdapter(server.URL)
	activities, err := adapter.GetActivities(context.Background(), source.Query{Limit: 120})
	require.NoError(t, err)

	assert.Len(t, activities, 120)
	assert.Equal(t, []int{1, 2, 3}, *pages, "should stop fetching once the limit is reached")
}

func TestGetActivitiesStopsOnShortPage(t *testing.T) {
	server, pages := apiServer(t, map[int][]apiActivity{
		1: runPage(1000, 50),
		2: runPage(2000, 7),
	})
	defer server.Close()

	adapter := newTestAdapter(server.URL)
	activities, err := adapter.GetActivities(context.Background(), source.Query{})
	require.NoError(t, err)

	assert.Len(t, activities, 57)
	assert.Equal(t, []int{1, 2}, *pages)
}

func TestGetActivitiesFiltersNonRunning(t *testing.T) {
	server, _ := apiServer(t, map[int][]apiActivity{
		1: {
			{ID: 1, SportType: "Run"},
			{ID: 2, SportType: "Ride"},
			{ID: 3, SportType: "WeightTraining"},
			{ID: 4, SportType: "TrailRun"},
			{ID: 5, SportType: "VirtualRun"},
		},
	})
	defer server.Close()

	adapter := newTestAdapter(server.URL)
	activities, err := adapter.GetActivities(context.Background(), source.Query{})
	require.NoError(t, err)

	require.Len(t, activities, 3)
	assert.Equal(t, "1", activities[0].ID)
	assert.Equal(t, "4", activities[1].ID)
	assert.Equal(t, "5", activities[2].ID)
}

func TestGetActivityDetailStreamFailureIsNonFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/streams") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(apiActivity{ID: 42, Name: "Morning Run", SportType: "Run", Distance: 5000})
	}))
	defer server.Close()

	adapter := newTestAdapter(server.URL)
	raw, err := adapter.GetActivityDetail(context.Background(), "42")
	require.NoError(t, err)

	assert.Equal(t, "42", raw.ID)
	assert.Empty(t, raw.GPXData, "stream failure should degrade to no GPX")
}

func TestConvertActivityDerivesPaceFromSpeed(t *testing.T) {
	raw := convertActivity(&apiActivity{
		ID:           7,
		Name:         "Tempo",
		SportType:    "Run",
		Distance:     10000,
		MovingTime:   2500,
		AverageSpeed: 2.5, // m/s -> 400 sec/km
		MaxSpeed:     4.0, // m/s -> 250 sec/km
	})

	assert.Equal(t, "7", raw.ID)
	assert.InDelta(t, 400.0, raw.AveragePace, 0.001)
	assert.InDelta(t, 250.0, raw.BestPace, 0.001)
	assert.False(t, raw.IsIndoor)

	indoor := convertActivity(&apiActivity{ID: 8, SportType: "Run", Trainer: true})
	assert.True(t, indoor.IsIndoor)
	assert.Zero(t, indoor.AveragePace, "zero speed must not divide")

	virtual := convertActivity(&apiActivity{ID: 9, SportType: "VirtualRun"})
	assert.True(t, virtual.IsIndoor)
}

func TestSynthesizeGPXRoundTrips(t *testing.T) {
	start := time.Date(2024, 5, 1, 6, 0, 0, 0, time.UTC)
	streams := &streamSet{
		Latlng: &coordStream{Data: [][]float64{
			{39.9042, 116.4074},
			{39.9052, 116.4074},
			{39.9062, 116.4074},
		}},
		Time:      &intStream{Data: []int{0, 30, 60}},
		Altitude:  &floatStream{Data: []float64{50.0, 52.0, 51.0}},
		Heartrate: &intStream{Data: []int{140, 145, 150}},
	}

	doc := synthesizeGPX(streams, "Morning Run", start)
	require.NotEmpty(t, doc)

	result := gpx.Parse(doc)
	require.Len(t, result.Tracks, 1)
	require.Len(t, result.Tracks[0], 3)

	point := result.Tracks[0][1]
	assert.InDelta(t, 39.9052, point.Lat, 0.0001)
	require.NotNil(t, point.HR)
	assert.Equal(t, 145, *point.HR)
	require.NotNil(t, point.Time)
	assert.Equal(t, start.Add(30*time.Second), point.Time.UTC())

	assert.Greater(t, result.TotalDistance, 200.0)
	assert.Equal(t, 60.0, result.TotalDuration)
}

func TestSynthesizeGPXWithoutCoordinates(t *testing.T) {
	assert.Empty(t, synthesizeGPX(nil, "x", time.Now()))
	assert.Empty(t, synthesizeGPX(&streamSet{}, "x", time.Now()))
}
