// Package source defines the contract every activity source implements.
// Each source supports listing, detail fetch, and GPX download; the sync
// pipeline is written against this interface only.
package source

import (
	"context"
	"time"

	"github.com/stridelog/server/pkg/types"
)

// Query bounds a GetActivities call. Zero values mean unbounded.
type Query struct {
	StartDate time.Time
	EndDate   time.Time
	Limit     int // max activities to return, 0 = no cap
}

// Adapter is the interface all activity sources must implement.
type Adapter interface {
	// Source returns the source identifier (e.g., "strava", "nike").
	Source() types.Source

	// Authenticate verifies stored credentials, refreshing tokens when
	// needed. Failure here is fatal to the enclosing sync session.
	Authenticate(ctx context.Context) error

	// GetActivities lists running activities matching the query. The
	// returned RawActivity values carry full detail including GPX data
	// where the source provides it.
	GetActivities(ctx context.Context, query Query) ([]*types.RawActivity, error)

	// GetActivityDetail fetches one activity by its source-native ID.
	GetActivityDetail(ctx context.Context, sourceID string) (*types.RawActivity, error)

	// DownloadGPX returns the GPX document for one activity, or empty
	// when the source has no GPS data for it.
	DownloadGPX(ctx context.Context, sourceID string) (string, error)

	// HealthCheck reports whether the source API is reachable with the
	// current credentials.
	HealthCheck(ctx context.Context) bool
}
