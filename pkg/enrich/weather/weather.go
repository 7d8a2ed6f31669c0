// Package weather fetches historical hourly weather for an activity's
// start coordinate and time from the Open-Meteo archive API. Weather is
// optional enrichment: callers must treat any failure here as "no
// weather available", never as a failure of their own.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const defaultBaseURL = "https://archive-api.open-meteo.com/v1/archive"

// fetchTimeout bounds one archive call. A hung fetch must not stall a
// sync session.
const fetchTimeout = 10 * time.Second

// Client calls the Open-Meteo historical archive.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient() *Client {
	return &Client{
		BaseURL:    defaultBaseURL,
		HTTPClient: &http.Client{Timeout: fetchTimeout},
	}
}

// Snapshot is the hourly weather extracted for one activity.
type Snapshot struct {
	Temperature float64
	Humidity    float64
	WindSpeed   float64
	WeatherCode int
	Description string
}

type archiveResponse struct {
	Hourly struct {
		Time        []string  `json:"time"`
		Temperature []float64 `json:"temperature_2m"`
		Humidity    []float64 `json:"relative_humidity_2m"`
		WindSpeed   []float64 `json:"wind_speed_10m"`
		WeatherCode []int     `json:"weather_code"`
	} `json:"hourly"`
}

// FetchHistorical returns the hourly snapshot closest to startTime,
// indexed by the activity's UTC hour clamped to the returned array
// bounds.
func (c *Client) FetchHistorical(ctx context.Context, lat, lon float64, startTime time.Time) (*Snapshot, error) {
	dateStr := startTime.UTC().Format("2006-01-02")
	url := fmt.Sprintf(
		"%s?latitude=%.6f&longitude=%.6f&start_date=%s&end_date=%s&hourly=temperature_2m,relative_humidity_2m,wind_speed_10m,weather_code",
		c.BaseURL, lat, lon, dateStr, dateStr,
	)

	slog.Debug("Fetching weather data", "latitude", lat, "longitude", lon, "date", dateStr)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("weather API returned status %d: %s", resp.StatusCode, string(body))
	}

	var archive archiveResponse
	if err := json.NewDecoder(resp.Body).Decode(&archive); err != nil {
		return nil, fmt.Errorf("decode weather response: %w", err)
	}

	n := len(archive.Hourly.Temperature)
	if n == 0 {
		return nil, fmt.Errorf("weather API returned no hourly data")
	}

	idx := startTime.UTC().Hour()
	if idx >= n {
		idx = n - 1
	}

	code := 0
	if idx < len(archive.Hourly.WeatherCode) {
		code = archive.Hourly.WeatherCode[idx]
	}

	snapshot := &Snapshot{
		Temperature: archive.Hourly.Temperature[idx],
		WeatherCode: code,
		Description: DescribeWeatherCode(code),
	}
	if idx < len(archive.Hourly.Humidity) {
		snapshot.Humidity = archive.Hourly.Humidity[idx]
	}
	if idx < len(archive.Hourly.WindSpeed) {
		snapshot.WindSpeed = archive.Hourly.WindSpeed[idx]
	}

	return snapshot, nil
}

// wmoDescriptions maps WMO present-weather codes to short labels.
var wmoDescriptions = map[int]string{
	0:  "clear",
	1:  "mainly clear",
	2:  "partly cloudy",
	3:  "overcast",
	45: "fog",
	48: "depositing rime fog",
	51: "light drizzle",
	53: "moderate drizzle",
	55: "dense drizzle",
	56: "light freezing drizzle",
	57: "dense freezing drizzle",
	61: "slight rain",
	63: "moderate rain",
	65: "heavy rain",
	66: "light freezing rain",
	67: "heavy freezing rain",
	71: "slight snow",
	73: "moderate snow",
	75: "heavy snow",
	77: "snow grains",
	80: "slight rain showers",
	81: "moderate rain showers",
	82: "violent rain showers",
	85: "slight snow showers",
	86: "heavy snow showers",
	95: "thunderstorm",
	96: "thunderstorm with slight hail",
	99: "thunderstorm with heavy hail",
}

// DescribeWeatherCode maps a WMO weather code to a human-readable
// description; unknown codes map to "unknown".
func DescribeWeatherCode(code int) string {
	if desc, ok := wmoDescriptions[code]; ok {
		return desc
	}
	return "unknown"
}
