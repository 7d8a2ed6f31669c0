package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/stridelog/server/pkg/domain/gpx"
	"github.com/stridelog/server/pkg/types"
)

// defaultBackfillDelay throttles calls against the weather archive.
const defaultBackfillDelay = 1000 * time.Millisecond

// BackfillResult summarizes one weather backfill run.
type BackfillResult struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"` // no extractable coordinate
}

// BackfillMissingWeather enriches every outdoor activity that has GPX
// data but no weather snapshot yet, pacing external calls with a
// minimum delay. Individual failures are counted, not fatal.
func (p *Processor) BackfillMissingWeather(ctx context.Context, delay time.Duration) (*BackfillResult, error) {
	if p.Weather == nil {
		return nil, fmt.Errorf("weather client not configured")
	}
	if delay <= 0 {
		delay = defaultBackfillDelay
	}

	activities, err := p.DB.ListActivitiesMissingWeather(ctx)
	if err != nil {
		return nil, fmt.Errorf("list activities missing weather: %w", err)
	}

	result := &BackfillResult{Total: len(activities)}
	for i, record := range activities {
		if i > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(delay):
			}
		}

		coord, ok := gpx.FirstCoordinate(record.GPXData)
		if !ok {
			result.Skipped++
			continue
		}

		snapshot, err := p.Weather.FetchHistorical(ctx, coord.Lat, coord.Lon, record.StartTime)
		if err != nil {
			slog.Warn("Weather backfill fetch failed", "id", record.ID, "error", err)
			result.Failed++
			continue
		}

		data, err := json.Marshal(types.WeatherData{
			Temperature: snapshot.Temperature,
			Humidity:    snapshot.Humidity,
			WindSpeed:   snapshot.WindSpeed,
			WeatherCode: snapshot.WeatherCode,
			Description: snapshot.Description,
		})
		if err != nil {
			result.Failed++
			continue
		}

		if err := p.DB.UpdateActivity(ctx, record.ID, map[string]interface{}{"weather_data": string(data)}); err != nil {
			slog.Warn("Weather backfill update failed", "id", record.ID, "error", err)
			result.Failed++
			continue
		}
		result.Success++
	}

	slog.Info("Weather backfill complete", "total", result.Total, "success", result.Success,
		"failed", result.Failed, "skipped", result.Skipped)
	return result, nil
}
