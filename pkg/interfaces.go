package shared

import (
	"context"

	"github.com/cloudevents/sdk-go/v2/event"
	"github.com/stridelog/server/pkg/types"
)

// --- Persistence Interfaces ---

type Database interface {
	// Activities. GetActivityBySourceID returns (nil, nil) when no row
	// matches the natural key.
	GetActivity(ctx context.Context, id string) (*types.Activity, error)
	GetActivityBySourceID(ctx context.Context, source types.Source, sourceID string) (*types.Activity, error)
	InsertActivity(ctx context.Context, activity *types.Activity) error
	UpdateActivity(ctx context.Context, id string, data map[string]interface{}) error
	DeleteActivity(ctx context.Context, id string) error // cascades to splits
	ListActivitiesMissingWeather(ctx context.Context) ([]*types.Activity, error)

	// Splits (children of an Activity)
	InsertSplits(ctx context.Context, activityID string, splits []*types.Split) error
	ListSplits(ctx context.Context, activityID string) ([]*types.Split, error)

	// Credentials
	GetCredentials(ctx context.Context, source types.Source) (*types.Credentials, error)
	UpdateCredentials(ctx context.Context, source types.Source, data map[string]interface{}) error

	// Sync audit log
	SetSyncLog(ctx context.Context, log *types.SyncLog) error
	UpdateSyncLog(ctx context.Context, id string, data map[string]interface{}) error
}

// --- Messaging Interfaces ---

type Publisher interface {
	PublishCloudEvent(ctx context.Context, topic string, e event.Event) (string, error)
}

// --- Storage Interfaces ---

type BlobStore interface {
	Write(ctx context.Context, bucket, object string, data []byte) error
	Read(ctx context.Context, bucket, object string) ([]byte, error)
}
