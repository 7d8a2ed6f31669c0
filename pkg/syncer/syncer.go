// Package syncer orchestrates one sync session against an activity
// source: audit logging, authentication, health check, race-match
// session lifecycle, and the activity batch itself.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	shared "github.com/stridelog/server/pkg"
	"github.com/stridelog/server/pkg/bootstrap"
	"github.com/stridelog/server/pkg/domain/geo"
	"github.com/stridelog/server/pkg/enrich/weather"
	"github.com/stridelog/server/pkg/infrastructure/sentry"
	"github.com/stridelog/server/pkg/processor"
	"github.com/stridelog/server/pkg/racematch"
	"github.com/stridelog/server/pkg/source"
	"github.com/stridelog/server/pkg/source/nike"
	"github.com/stridelog/server/pkg/source/strava"
	"github.com/stridelog/server/pkg/types"
)

// SyncResult is the operator-visible outcome of one session.
// Per-activity failures surface only in logs; the aggregate fails only
// on session-level preconditions (auth, health).
type SyncResult struct {
	Success         bool   `json:"success"`
	ActivitiesCount int    `json:"activities_count"`
	ErrorMessage    string `json:"error_message,omitempty"`
	LogID           string `json:"log_id"`
}

// RaceSession is a session-scoped race matcher that must be closed on
// every exit path.
type RaceSession interface {
	MatchRace(ctx context.Context, activityDate time.Time, distanceMeters float64, coord *geo.Point) (string, bool)
	Close() error
}

// Syncer builds and runs sync sessions. The factory fields exist so
// tests can substitute adapters and race sessions; production wiring
// comes from New.
type Syncer struct {
	DB      shared.Database
	Pub     shared.Publisher
	Store   shared.BlobStore
	Bucket  string
	Weather processor.WeatherFetcher

	NewAdapter     func(src types.Source) (source.Adapter, error)
	NewRaceSession func() RaceSession
}

// New wires a production Syncer from bootstrapped dependencies.
func New(svc *bootstrap.Service) *Syncer {
	cfg := svc.Config
	return &Syncer{
		DB:      svc.DB,
		Pub:     svc.Pub,
		Store:   svc.Store,
		Bucket:  cfg.GCSArtifactBucket,
		Weather: weather.NewClient(),
		NewAdapter: func(src types.Source) (source.Adapter, error) {
			switch src {
			case types.SourceStrava:
				return strava.NewAdapter(svc.DB, cfg.StravaClientID, cfg.StravaClientSecret), nil
			case types.SourceNike:
				return nike.NewAdapter(), nil
			default:
				return nil, fmt.Errorf("unsupported source: %s", src)
			}
		},
		NewRaceSession: func() RaceSession {
			return racematch.NewSession(cfg.RaceFetcherURL)
		},
	}
}

// Sync runs one full session for the given source. Always returns a
// result; the error mirrors ErrorMessage for callers that want it.
func (s *Syncer) Sync(ctx context.Context, src types.Source, query source.Query) (*SyncResult, error) {
	logID := uuid.NewString()
	syncLog := &types.SyncLog{
		ID:        logID,
		Source:    src,
		Status:    types.SyncStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := s.DB.SetSyncLog(ctx, syncLog); err != nil {
		return s.fail(ctx, logID, fmt.Errorf("create sync log: %w", err))
	}

	adapter, err := s.NewAdapter(src)
	if err != nil {
		return s.fail(ctx, logID, err)
	}

	if err := adapter.Authenticate(ctx); err != nil {
		return s.fail(ctx, logID, fmt.Errorf("authentication failed: %w", err))
	}
	if !adapter.HealthCheck(ctx) {
		return s.fail(ctx, logID, fmt.Errorf("%s health check failed", src))
	}

	// The race session holds an external browser session; Close must
	// run on success and failure paths alike.
	var races RaceSession
	if s.NewRaceSession != nil {
		races = s.NewRaceSession()
		defer func() {
			if err := races.Close(); err != nil {
				slog.Warn("Failed to close race session", "error", err)
			}
		}()
	}

	proc := &processor.Processor{
		DB:      s.DB,
		Weather: s.Weather,
		Pub:     s.Pub,
		Store:   s.Store,
		Bucket:  s.Bucket,
	}
	if races != nil {
		proc.Races = races
	}

	activities, err := adapter.GetActivities(ctx, query)
	if err != nil {
		return s.fail(ctx, logID, fmt.Errorf("fetch activities: %w", err))
	}
	slog.Info("Fetched activities", "source", src, "count", len(activities))

	ids := proc.SyncActivities(ctx, activities)

	if err := s.DB.UpdateSyncLog(ctx, logID, map[string]interface{}{
		"status":           types.SyncStatusSuccess,
		"activities_count": len(ids),
		"finished_at":      time.Now().UTC(),
	}); err != nil {
		slog.Warn("Failed to finalize sync log", "log_id", logID, "error", err)
	}

	slog.Info("Sync session complete", "source", src, "synced", len(ids), "log_id", logID)
	return &SyncResult{Success: true, ActivitiesCount: len(ids), LogID: logID}, nil
}

// fail marks the audit log failed and reports the session error.
func (s *Syncer) fail(ctx context.Context, logID string, cause error) (*SyncResult, error) {
	slog.Error("Sync session failed", "log_id", logID, "error", cause)
	sentry.CaptureException(cause, map[string]interface{}{"log_id": logID}, slog.Default())

	if err := s.DB.UpdateSyncLog(ctx, logID, map[string]interface{}{
		"status":        types.SyncStatusFailed,
		"error_message": cause.Error(),
		"finished_at":   time.Now().UTC(),
	}); err != nil {
		slog.Warn("Failed to mark sync log failed", "log_id", logID, "error", err)
	}

	return &SyncResult{Success: false, ErrorMessage: cause.Error(), LogID: logID}, cause
}
