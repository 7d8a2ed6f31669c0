// Package processor turns raw adapter output into persisted, enriched
// activities: GPX parsing, race matching, weather enrichment, split
// generation, and idempotent storage.
package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	shared "github.com/stridelog/server/pkg"
	"github.com/stridelog/server/pkg/domain/activity"
	"github.com/stridelog/server/pkg/domain/geo"
	"github.com/stridelog/server/pkg/domain/gpx"
	"github.com/stridelog/server/pkg/domain/splits"
	"github.com/stridelog/server/pkg/enrich/weather"
	"github.com/stridelog/server/pkg/infrastructure/pubsub"
	"github.com/stridelog/server/pkg/types"
)

const raceCandidateDistanceMeters = 20500

// RaceMatcher is the subset of the race-matching session the processor
// needs. ok=false means "no confident match", never an error.
type RaceMatcher interface {
	MatchRace(ctx context.Context, activityDate time.Time, distanceMeters float64, coord *geo.Point) (string, bool)
}

// WeatherFetcher fetches a historical weather snapshot for a point in
// time and space.
type WeatherFetcher interface {
	FetchHistorical(ctx context.Context, lat, lon float64, startTime time.Time) (*weather.Snapshot, error)
}

// Processor wires the enrichment pipeline. Races, Weather, Pub and
// Store are all optional: a nil field disables that enrichment, it
// never fails an activity.
type Processor struct {
	DB      shared.Database
	Races   RaceMatcher
	Weather WeatherFetcher
	Pub     shared.Publisher
	Store   shared.BlobStore
	Bucket  string // GCS bucket for GPX archival, empty disables
}

// SyncActivity persists one raw activity. Idempotent by natural key:
// replaying an already-ingested activity returns its existing ID
// without touching the row. Race match and weather are best-effort;
// only lookup/persistence errors fail the activity.
func (p *Processor) SyncActivity(ctx context.Context, raw *types.RawActivity) (string, error) {
	existing, err := p.DB.GetActivityBySourceID(ctx, raw.Source, raw.ID)
	if err != nil {
		return "", fmt.Errorf("lookup activity %s/%s: %w", raw.Source, raw.ID, err)
	}
	if existing != nil {
		slog.Info("Activity already synced, skipping", "source", raw.Source, "source_id", raw.ID, "id", existing.ID)
		return existing.ID, nil
	}

	// Malformed GPX degrades to "no GPX", never aborts the activity.
	var parsed *gpx.Result
	if raw.GPXData != "" {
		parsed = gpx.Parse(raw.GPXData)
		if len(parsed.Tracks) == 0 {
			slog.Warn("GPX parse yielded no tracks, continuing without", "source_id", raw.ID)
		}
	} else {
		parsed = &gpx.Result{}
	}
	hasGPX := len(parsed.Tracks) > 0

	averagePace := raw.AveragePace
	if averagePace == 0 && raw.Distance > 0 && raw.Duration > 0 {
		averagePace = raw.Duration / (raw.Distance / 1000)
	}

	// First-coordinate extraction uses the cheap regex path on the raw
	// XML rather than the parsed structure.
	var coord *geo.Point
	if point, ok := gpx.FirstCoordinate(raw.GPXData); ok {
		coord = &point
	}

	var raceName string
	if raw.Distance >= raceCandidateDistanceMeters && p.Races != nil {
		if name, ok := p.Races.MatchRace(ctx, raw.StartTime, raw.Distance, coord); ok {
			raceName = name
			slog.Info("Matched race", "source_id", raw.ID, "race", raceName)
		}
	}

	weatherJSON := p.fetchWeatherJSON(ctx, raw, coord)

	elevationGain := raw.ElevationGain
	if elevationGain == 0 && hasGPX {
		elevationGain = parsed.ElevationGain
	}

	record := &types.Activity{
		ID:               uuid.NewString(),
		Source:           raw.Source,
		SourceID:         raw.ID,
		Title:            activity.ResolveTitle(raw.Title, raw.Distance, raceName),
		Type:             raw.Type,
		IsIndoor:         raw.IsIndoor,
		StartTime:        raw.StartTime,
		EndTime:          raw.StartTime.Add(time.Duration(raw.Duration * float64(time.Second))),
		Duration:         raw.Duration,
		Distance:         raw.Distance,
		AveragePace:      averagePace,
		BestPace:         raw.BestPace,
		ElevationGain:    elevationGain,
		AverageHeartRate: raw.AverageHeartRate,
		MaxHeartRate:     raw.MaxHeartRate,
		Calories:         raw.Calories,
		GPXData:          raw.GPXData,
		RaceName:         raceName,
		WeatherData:      weatherJSON,
		CreatedAt:        time.Now().UTC(),
	}

	if uri := p.archiveGPX(ctx, record.ID, raw.GPXData); uri != "" {
		record.GPXArtifactURI = uri
	}

	if err := p.DB.InsertActivity(ctx, record); err != nil {
		return "", fmt.Errorf("insert activity %s/%s: %w", raw.Source, raw.ID, err)
	}

	if err := p.generateAndStoreSplits(ctx, record, parsed, hasGPX, averagePace); err != nil {
		return "", err
	}

	p.publishSynced(ctx, record)

	slog.Info("Synced activity", "id", record.ID, "source", record.Source, "source_id", record.SourceID,
		"distance", record.Distance, "race", record.RaceName)
	return record.ID, nil
}

// SyncActivities runs sequentially; one item's failure is logged and
// skipped, never aborting the batch.
func (p *Processor) SyncActivities(ctx context.Context, raws []*types.RawActivity) []string {
	ids := make([]string, 0, len(raws))
	for _, raw := range raws {
		id, err := p.SyncActivity(ctx, raw)
		if err != nil {
			slog.Error("Failed to sync activity, skipping", "source", raw.Source, "source_id", raw.ID, "error", err)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func (p *Processor) generateAndStoreSplits(ctx context.Context, record *types.Activity, parsed *gpx.Result, hasGPX bool, averagePace float64) error {
	var generated []*types.Split
	gpsDerived := false

	switch {
	case hasGPX:
		generated = splits.Generate(parsed)
		gpsDerived = true
	case record.Distance > 0 && record.Duration > 0:
		generated = splits.GenerateAverage(record.Distance, record.Duration, averagePace)
	}

	if len(generated) == 0 {
		return nil
	}

	for _, split := range generated {
		split.ID = uuid.NewString()
		split.ActivityID = record.ID
	}
	if err := p.DB.InsertSplits(ctx, record.ID, generated); err != nil {
		return fmt.Errorf("insert splits for %s: %w", record.ID, err)
	}

	// Per-kilometer GPS data beats the source's self-reported max
	// speed figure.
	if gpsDerived {
		if best := splits.BestPace(generated); best > 0 {
			record.BestPace = best
			if err := p.DB.UpdateActivity(ctx, record.ID, map[string]interface{}{"best_pace": best}); err != nil {
				return fmt.Errorf("update best pace for %s: %w", record.ID, err)
			}
		}
	}
	return nil
}

func (p *Processor) fetchWeatherJSON(ctx context.Context, raw *types.RawActivity, coord *geo.Point) string {
	if raw.IsIndoor || p.Weather == nil || coord == nil {
		return ""
	}

	snapshot, err := p.Weather.FetchHistorical(ctx, coord.Lat, coord.Lon, raw.StartTime)
	if err != nil {
		slog.Warn("Weather fetch failed, continuing without", "source_id", raw.ID, "error", err)
		return ""
	}

	data, err := json.Marshal(types.WeatherData{
		Temperature: snapshot.Temperature,
		Humidity:    snapshot.Humidity,
		WindSpeed:   snapshot.WindSpeed,
		WeatherCode: snapshot.WeatherCode,
		Description: snapshot.Description,
	})
	if err != nil {
		return ""
	}
	return string(data)
}

// archiveGPX writes the raw document to blob storage. Best-effort: the
// canonical copy lives on the activity row.
func (p *Processor) archiveGPX(ctx context.Context, activityID, gpxData string) string {
	if p.Store == nil || p.Bucket == "" || gpxData == "" {
		return ""
	}
	object := "gpx/" + activityID + ".gpx"
	if err := p.Store.Write(ctx, p.Bucket, object, []byte(gpxData)); err != nil {
		slog.Warn("Failed to archive GPX", "id", activityID, "error", err)
		return ""
	}
	return fmt.Sprintf("gs://%s/%s", p.Bucket, object)
}

func (p *Processor) publishSynced(ctx context.Context, record *types.Activity) {
	if p.Pub == nil {
		return
	}

	e, err := pubsub.NewCloudEvent("processor", "activity.synced", map[string]interface{}{
		"activity_id": record.ID,
		"source":      string(record.Source),
		"source_id":   record.SourceID,
		"distance":    record.Distance,
		"race_name":   record.RaceName,
	})
	if err != nil {
		slog.Warn("Failed to build activity.synced event", "id", record.ID, "error", err)
		return
	}
	if _, err := p.Pub.PublishCloudEvent(ctx, shared.TopicActivitySynced, e); err != nil {
		slog.Warn("Failed to publish activity.synced", "id", record.ID, "error", err)
	}
}
