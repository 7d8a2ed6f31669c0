// Package types holds the canonical activity model shared by every
// pipeline stage. Adapters produce RawActivity; the processor persists
// Activity and Split rows.
package types

import "time"

// Source identifies the platform an activity originated from.
type Source string

const (
	SourceStrava Source = "strava"
	SourceNike   Source = "nike"
	SourceGarmin Source = "garmin"
)

// ActivityType is the canonical sport classification.
type ActivityType string

const (
	ActivityRunning  ActivityType = "running"
	ActivityCycling  ActivityType = "cycling"
	ActivityWalking  ActivityType = "walking"
	ActivitySwimming ActivityType = "swimming"
	ActivityOther    ActivityType = "other"
)

// RawActivity is the source-agnostic adapter output. Field units follow
// the canonical model: meters, seconds, seconds-per-km, bpm.
type RawActivity struct {
	ID               string
	Source           Source
	Title            string
	Type             ActivityType
	IsIndoor         bool
	StartTime        time.Time
	Duration         float64 // moving time, seconds
	Distance         float64 // meters
	AveragePace      float64 // sec/km, 0 when unknown
	BestPace         float64 // sec/km, 0 when unknown
	ElevationGain    float64 // meters, 0 when unknown
	AverageHeartRate float64 // bpm, 0 when unknown
	MaxHeartRate     float64 // bpm, 0 when unknown
	Calories         float64 // 0 when unknown
	GPXData          string  // full GPX XML, empty when unavailable
}

// Activity is the persisted root entity. ID is system-generated; the
// natural key for deduplication is (Source, SourceID).
type Activity struct {
	ID               string    `firestore:"id"`
	Source           Source    `firestore:"source"`
	SourceID         string    `firestore:"source_id"`
	Title            string    `firestore:"title"`
	Type             ActivityType `firestore:"type"`
	IsIndoor         bool      `firestore:"is_indoor"`
	StartTime        time.Time `firestore:"start_time"`
	EndTime          time.Time `firestore:"end_time"`
	Duration         float64   `firestore:"duration"`
	Distance         float64   `firestore:"distance"`
	AveragePace      float64   `firestore:"average_pace"`
	BestPace         float64   `firestore:"best_pace"`
	ElevationGain    float64   `firestore:"elevation_gain"`
	AverageHeartRate float64   `firestore:"average_heart_rate"`
	MaxHeartRate     float64   `firestore:"max_heart_rate"`
	Calories         float64   `firestore:"calories"`
	GPXData          string    `firestore:"gpx_data"`
	GPXArtifactURI   string    `firestore:"gpx_artifact_uri"` // gs:// URI when archived
	RaceName         string    `firestore:"race_name"`        // set once post-match
	WeatherData      string    `firestore:"weather_data"`     // JSON-encoded WeatherData, set once
	CreatedAt        time.Time `firestore:"created_at"`
}

// Split summarizes one kilometer of an activity. Owned by its parent
// Activity and never mutated after creation.
type Split struct {
	ID               string  `firestore:"id"`
	ActivityID       string  `firestore:"activity_id"`
	Kilometer        int     `firestore:"kilometer"` // 1-based, sequential
	Duration         float64 `firestore:"duration"`  // seconds
	Pace             float64 `firestore:"pace"`      // sec/km
	Distance         float64 `firestore:"distance"`  // meters, ~1000 for GPS-derived
	ElevationGain    float64 `firestore:"elevation_gain"`
	AverageHeartRate float64 `firestore:"average_heart_rate"`
}

// WeatherData is the historical weather snapshot attached to an activity.
type WeatherData struct {
	Temperature float64 `json:"temperature"` // °C
	Humidity    float64 `json:"humidity"`    // %
	WindSpeed   float64 `json:"wind_speed"`  // km/h
	WeatherCode int     `json:"weather_code"`
	Description string  `json:"description"`
}

// Credentials is the stored per-source token document.
type Credentials struct {
	Source       Source    `firestore:"source"`
	AccessToken  string    `firestore:"access_token"`
	RefreshToken string    `firestore:"refresh_token"`
	ExpiresAt    time.Time `firestore:"expires_at"`
	UpdatedAt    time.Time `firestore:"updated_at"`
}

// SyncLog is the audit record for one sync session.
type SyncLog struct {
	ID              string    `firestore:"id"`
	Source          Source    `firestore:"source"`
	Status          string    `firestore:"status"` // running | success | failed
	ActivitiesCount int       `firestore:"activities_count"`
	ErrorMessage    string    `firestore:"error_message"`
	StartedAt       time.Time `firestore:"started_at"`
	FinishedAt      time.Time `firestore:"finished_at"`
}

// Sync log statuses.
const (
	SyncStatusRunning = "running"
	SyncStatusSuccess = "success"
	SyncStatusFailed  = "failed"
)
