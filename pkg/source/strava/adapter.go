// Package strava implements the activity source contract against the
// Strava v3 API. It is the reference adapter: listing with pagination,
// per-activity detail and stream fetch, and GPX synthesis from raw
// streams.
package strava

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	shared "github.com/stridelog/server/pkg"
	"github.com/stridelog/server/pkg/source"
	"github.com/stridelog/server/pkg/types"
)

const listPageSize = 50

// Running subtypes we ingest; everything else is skipped with a log.
var runningSportTypes = map[string]bool{
	"Run":        true,
	"TrailRun":   true,
	"VirtualRun": true,
}

type Adapter struct {
	client *Client
	tokens *tokenSource
}

func NewAdapter(db shared.Database, clientID, clientSecret string) *Adapter {
	tokens := newTokenSource(db, clientID, clientSecret)
	return &Adapter{
		client: newClient(tokens),
		tokens: tokens,
	}
}

func (a *Adapter) Source() types.Source { return types.SourceStrava }

// Authenticate ensures a usable access token exists, refreshing the
// stored one when it is within the expiry buffer.
func (a *Adapter) Authenticate(ctx context.Context) error {
	if _, err := a.tokens.Token(ctx); err != nil {
		return fmt.Errorf("strava authentication failed: %w", err)
	}
	return nil
}

// HealthCheck probes the listing endpoint with a minimal page.
func (a *Adapter) HealthCheck(ctx context.Context) bool {
	_, err := a.client.listActivities(ctx, 1, 1, time.Time{}, time.Time{})
	if err != nil {
		slog.Warn("Strava health check failed", "error", err)
		return false
	}
	return true
}

// GetActivities pages through the athlete's activities until the
// requested limit is reached or a short page signals end-of-data. Only
// running subtypes survive; each survivor is fully hydrated with detail
// and synthesized GPX. A single activity's detail-fetch failure skips
// that activity, not the batch.
func (a *Adapter) GetActivities(ctx context.Context, query source.Query) ([]*types.RawActivity, error) {
	var out []*types.RawActivity

	for page := 1; ; page++ {
		summaries, err := a.client.listActivities(ctx, page, listPageSize, query.StartDate, query.EndDate)
		if err != nil {
			return nil, fmt.Errorf("list strava activities page %d: %w", page, err)
		}

		for _, summary := range summaries {
			id := strconv.FormatInt(summary.ID, 10)

			if !runningSportTypes[summary.SportType] {
				slog.Info("Skipping non-running activity", "id", id, "sport_type", summary.SportType)
				continue
			}

			raw, err := a.GetActivityDetail(ctx, id)
			if err != nil {
				slog.Warn("Failed to fetch activity detail, skipping", "id", id, "error", err)
				continue
			}
			out = append(out, raw)

			if query.Limit > 0 && len(out) >= query.Limit {
				return out, nil
			}
		}

		if len(summaries) < listPageSize {
			return out, nil
		}
	}
}

// GetActivityDetail fetches full detail plus the GPS stream bundle.
// Stream-fetch failure is non-fatal: the activity comes back without
// GPX rather than not at all.
func (a *Adapter) GetActivityDetail(ctx context.Context, sourceID string) (*types.RawActivity, error) {
	detail, err := a.client.getActivity(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("get strava activity %s: %w", sourceID, err)
	}

	raw := convertActivity(detail)

	streams, err := a.client.getStreams(ctx, sourceID)
	if err != nil {
		slog.Warn("Failed to fetch streams, continuing without GPX", "id", sourceID, "error", err)
		return raw, nil
	}
	raw.GPXData = synthesizeGPX(streams, detail.Name, detail.StartDate)
	return raw, nil
}

// DownloadGPX synthesizes the GPX document for one activity, or returns
// empty when it has no GPS streams.
func (a *Adapter) DownloadGPX(ctx context.Context, sourceID string) (string, error) {
	detail, err := a.client.getActivity(ctx, sourceID)
	if err != nil {
		return "", fmt.Errorf("get strava activity %s: %w", sourceID, err)
	}
	streams, err := a.client.getStreams(ctx, sourceID)
	if err != nil {
		return "", fmt.Errorf("get strava streams %s: %w", sourceID, err)
	}
	return synthesizeGPX(streams, detail.Name, detail.StartDate), nil
}

func convertActivity(api *apiActivity) *types.RawActivity {
	raw := &types.RawActivity{
		ID:               strconv.FormatInt(api.ID, 10),
		Source:           types.SourceStrava,
		Title:            api.Name,
		Type:             types.ActivityRunning,
		IsIndoor:         api.Trainer || api.SportType == "VirtualRun",
		StartTime:        api.StartDate,
		Duration:         float64(api.MovingTime),
		Distance:         api.Distance,
		ElevationGain:    api.TotalElevationGain,
		AverageHeartRate: api.AverageHeartrate,
		MaxHeartRate:     api.MaxHeartrate,
		Calories:         api.Calories,
	}
	// Strava reports speeds in m/s; the canonical model wants sec/km.
	if api.AverageSpeed > 0 {
		raw.AveragePace = 1000 / api.AverageSpeed
	}
	if api.MaxSpeed > 0 {
		raw.BestPace = 1000 / api.MaxSpeed
	}
	return raw
}
