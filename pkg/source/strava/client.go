package strava

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/stridelog/server/pkg/infrastructure/oauth"
)

const defaultBaseURL = "https://www.strava.com/api/v3"

// Client is a thin wrapper over the Strava v3 REST API. Authentication
// is handled entirely by the oauth transport underneath.
type Client struct {
	BaseURL    string
	httpClient *http.Client
}

func newClient(source oauth.TokenSource) *Client {
	return &Client{
		BaseURL:    defaultBaseURL,
		httpClient: oauth.NewHTTPClient(source),
	}
}

// apiActivity covers both the summary shape from the listing endpoint
// and the detailed shape from the single-activity endpoint; detail-only
// fields are simply zero on summaries.
type apiActivity struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	SportType          string    `json:"sport_type"`
	Distance           float64   `json:"distance"`    // meters
	MovingTime         int       `json:"moving_time"` // seconds
	ElapsedTime        int       `json:"elapsed_time"`
	TotalElevationGain float64   `json:"total_elevation_gain"`
	StartDate          time.Time `json:"start_date"`
	AverageSpeed       float64   `json:"average_speed"` // m/s
	MaxSpeed           float64   `json:"max_speed"`
	AverageHeartrate   float64   `json:"average_heartrate"`
	MaxHeartrate       float64   `json:"max_heartrate"`
	Calories           float64   `json:"calories"` // detail only
	Trainer            bool      `json:"trainer"`
}

// streamSet is the key_by_type=true response shape. Absent keys (an
// activity without GPS has no latlng stream) decode to nil.
type streamSet struct {
	Latlng    *coordStream `json:"latlng"`
	Time      *intStream   `json:"time"`
	Altitude  *floatStream `json:"altitude"`
	Heartrate *intStream   `json:"heartrate"`
	Distance  *floatStream `json:"distance"`
}

type coordStream struct {
	Data [][]float64 `json:"data"` // [lat, lon] pairs
}

type intStream struct {
	Data []int `json:"data"`
}

type floatStream struct {
	Data []float64 `json:"data"`
}

func (c *Client) listActivities(ctx context.Context, page, perPage int, after, before time.Time) ([]apiActivity, error) {
	params := url.Values{}
	params.Set("page", fmt.Sprintf("%d", page))
	params.Set("per_page", fmt.Sprintf("%d", perPage))
	if !after.IsZero() {
		params.Set("after", fmt.Sprintf("%d", after.Unix()))
	}
	if !before.IsZero() {
		params.Set("before", fmt.Sprintf("%d", before.Unix()))
	}

	var activities []apiActivity
	if err := c.getJSON(ctx, "/athlete/activities?"+params.Encode(), &activities); err != nil {
		return nil, err
	}
	return activities, nil
}

func (c *Client) getActivity(ctx context.Context, id string) (*apiActivity, error) {
	var activity apiActivity
	if err := c.getJSON(ctx, "/activities/"+id, &activity); err != nil {
		return nil, err
	}
	return &activity, nil
}

// getStreams fetches the GPS/time/altitude/heartrate/distance bundle.
// Returns (nil, nil) when the activity has no streams at all (404).
func (c *Client) getStreams(ctx context.Context, id string) (*streamSet, error) {
	path := "/activities/" + id + "/streams?keys=latlng,time,altitude,heartrate,distance&key_by_type=true"

	var streams streamSet
	err := c.getJSON(ctx, path, &streams)
	if err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &streams, nil
}

type apiError struct {
	StatusCode int
	Body       string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("strava api error: status=%d body=%s", e.StatusCode, e.Body)
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call strava api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &apiError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode strava response: %w", err)
	}
	return nil
}
