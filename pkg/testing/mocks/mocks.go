// Package mocks provides function-field mocks for the shared
// infrastructure interfaces. Tests set only the funcs they care about;
// unset funcs return benign defaults.
package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cloudevents/sdk-go/v2/event"
	"github.com/stridelog/server/pkg/source"
	"github.com/stridelog/server/pkg/types"
)

// --- Mock Database ---

type MockDatabase struct {
	GetActivityFunc                  func(ctx context.Context, id string) (*types.Activity, error)
	GetActivityBySourceIDFunc        func(ctx context.Context, source types.Source, sourceID string) (*types.Activity, error)
	InsertActivityFunc               func(ctx context.Context, activity *types.Activity) error
	UpdateActivityFunc               func(ctx context.Context, id string, data map[string]interface{}) error
	DeleteActivityFunc               func(ctx context.Context, id string) error
	ListActivitiesMissingWeatherFunc func(ctx context.Context) ([]*types.Activity, error)
	InsertSplitsFunc                 func(ctx context.Context, activityID string, splits []*types.Split) error
	ListSplitsFunc                   func(ctx context.Context, activityID string) ([]*types.Split, error)
	GetCredentialsFunc               func(ctx context.Context, source types.Source) (*types.Credentials, error)
	UpdateCredentialsFunc            func(ctx context.Context, source types.Source, data map[string]interface{}) error
	SetSyncLogFunc                   func(ctx context.Context, log *types.SyncLog) error
	UpdateSyncLogFunc                func(ctx context.Context, id string, data map[string]interface{}) error
}

func (m *MockDatabase) GetActivity(ctx context.Context, id string) (*types.Activity, error) {
	if m.GetActivityFunc != nil {
		return m.GetActivityFunc(ctx, id)
	}
	return nil, fmt.Errorf("activity not found")
}

func (m *MockDatabase) GetActivityBySourceID(ctx context.Context, source types.Source, sourceID string) (*types.Activity, error) {
	if m.GetActivityBySourceIDFunc != nil {
		return m.GetActivityBySourceIDFunc(ctx, source, sourceID)
	}
	return nil, nil
}

func (m *MockDatabase) InsertActivity(ctx context.Context, activity *types.Activity) error {
	if m.InsertActivityFunc != nil {
		return m.InsertActivityFunc(ctx, activity)
	}
	return nil
}

func (m *MockDatabase) UpdateActivity(ctx context.Context, id string, data map[string]interface{}) error {
	if m.UpdateActivityFunc != nil {
		return m.UpdateActivityFunc(ctx, id, data)
	}
	return nil
}

func (m *MockDatabase) DeleteActivity(ctx context.Context, id string) error {
	if m.DeleteActivityFunc != nil {
		return m.DeleteActivityFunc(ctx, id)
	}
	return nil
}

func (m *MockDatabase) ListActivitiesMissingWeather(ctx context.Context) ([]*types.Activity, error) {
	if m.ListActivitiesMissingWeatherFunc != nil {
		return m.ListActivitiesMissingWeatherFunc(ctx)
	}
	return nil, nil
}

func (m *MockDatabase) InsertSplits(ctx context.Context, activityID string, splits []*types.Split) error {
	if m.InsertSplitsFunc != nil {
		return m.InsertSplitsFunc(ctx, activityID, splits)
	}
	return nil
}

func (m *MockDatabase) ListSplits(ctx context.Context, activityID string) ([]*types.Split, error) {
	if m.ListSplitsFunc != nil {
		return m.ListSplitsFunc(ctx, activityID)
	}
	return nil, nil
}

func (m *MockDatabase) GetCredentials(ctx context.Context, source types.Source) (*types.Credentials, error) {
	if m.GetCredentialsFunc != nil {
		return m.GetCredentialsFunc(ctx, source)
	}
	return nil, fmt.Errorf("no credentials stored for %s", source)
}

func (m *MockDatabase) UpdateCredentials(ctx context.Context, source types.Source, data map[string]interface{}) error {
	if m.UpdateCredentialsFunc != nil {
		return m.UpdateCredentialsFunc(ctx, source, data)
	}
	return nil
}

func (m *MockDatabase) SetSyncLog(ctx context.Context, log *types.SyncLog) error {
	if m.SetSyncLogFunc != nil {
		return m.SetSyncLogFunc(ctx, log)
	}
	return nil
}

func (m *MockDatabase) UpdateSyncLog(ctx context.Context, id string, data map[string]interface{}) error {
	if m.UpdateSyncLogFunc != nil {
		return m.UpdateSyncLogFunc(ctx, id, data)
	}
	return nil
}

// --- In-memory Database ---

// MemoryDatabase is a thread-safe in-memory Database for tests that
// need real insert/lookup behavior rather than canned responses.
type MemoryDatabase struct {
	mu          sync.Mutex
	Activities  map[string]*types.Activity
	Splits      map[string][]*types.Split
	Credentials map[types.Source]*types.Credentials
	SyncLogs    map[string]*types.SyncLog
}

func NewMemoryDatabase() *MemoryDatabase {
	return &MemoryDatabase{
		Activities:  make(map[string]*types.Activity),
		Splits:      make(map[string][]*types.Split),
		Credentials: make(map[types.Source]*types.Credentials),
		SyncLogs:    make(map[string]*types.SyncLog),
	}
}

func (m *MemoryDatabase) GetActivity(ctx context.Context, id string) (*types.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	activity, ok := m.Activities[id]
	if !ok {
		return nil, fmt.Errorf("activity %s not found", id)
	}
	return activity, nil
}

func (m *MemoryDatabase) GetActivityBySourceID(ctx context.Context, source types.Source, sourceID string) (*types.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, activity := range m.Activities {
		if activity.Source == source && activity.SourceID == sourceID {
			return activity, nil
		}
	}
	return nil, nil
}

func (m *MemoryDatabase) InsertActivity(ctx context.Context, activity *types.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Activities[activity.ID] = activity
	return nil
}

func (m *MemoryDatabase) UpdateActivity(ctx context.Context, id string, data map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	activity, ok := m.Activities[id]
	if !ok {
		return fmt.Errorf("activity %s not found", id)
	}
	for key, value := range data {
		switch key {
		case "best_pace":
			activity.BestPace = value.(float64)
		case "race_name":
			activity.RaceName = value.(string)
		case "weather_data":
			activity.WeatherData = value.(string)
		case "gpx_artifact_uri":
			activity.GPXArtifactURI = value.(string)
		}
	}
	return nil
}

func (m *MemoryDatabase) DeleteActivity(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Activities, id)
	delete(m.Splits, id)
	return nil
}

func (m *MemoryDatabase) ListActivitiesMissingWeather(ctx context.Context) ([]*types.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*types.Activity
	for _, activity := range m.Activities {
		if activity.WeatherData == "" && !activity.IsIndoor && activity.GPXData != "" {
			out = append(out, activity)
		}
	}
	return out, nil
}

func (m *MemoryDatabase) InsertSplits(ctx context.Context, activityID string, splits []*types.Split) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Splits[activityID] = append(m.Splits[activityID], splits...)
	return nil
}

func (m *MemoryDatabase) ListSplits(ctx context.Context, activityID string) ([]*types.Split, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Splits[activityID], nil
}

func (m *MemoryDatabase) GetCredentials(ctx context.Context, source types.Source) (*types.Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	creds, ok := m.Credentials[source]
	if !ok {
		return nil, fmt.Errorf("no credentials stored for %s", source)
	}
	return creds, nil
}

func (m *MemoryDatabase) UpdateCredentials(ctx context.Context, source types.Source, data map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	creds, ok := m.Credentials[source]
	if !ok {
		creds = &types.Credentials{Source: source}
		m.Credentials[source] = creds
	}
	for key, value := range data {
		switch key {
		case "access_token":
			creds.AccessToken = value.(string)
		case "refresh_token":
			creds.RefreshToken = value.(string)
		case "expires_at":
			creds.ExpiresAt = value.(time.Time)
		case "updated_at":
			creds.UpdatedAt = value.(time.Time)
		}
	}
	return nil
}

func (m *MemoryDatabase) SetSyncLog(ctx context.Context, log *types.SyncLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SyncLogs[log.ID] = log
	return nil
}

func (m *MemoryDatabase) UpdateSyncLog(ctx context.Context, id string, data map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	log, ok := m.SyncLogs[id]
	if !ok {
		return fmt.Errorf("sync log %s not found", id)
	}
	for key, value := range data {
		switch key {
		case "status":
			log.Status = value.(string)
		case "activities_count":
			log.ActivitiesCount = value.(int)
		case "error_message":
			log.ErrorMessage = value.(string)
		}
	}
	return nil
}

// --- Mock Publisher ---

type MockPublisher struct {
	PublishCloudEventFunc func(ctx context.Context, topic string, e event.Event) (string, error)
}

func (m *MockPublisher) PublishCloudEvent(ctx context.Context, topic string, e event.Event) (string, error) {
	if m.PublishCloudEventFunc != nil {
		return m.PublishCloudEventFunc(ctx, topic, e)
	}
	return "msg-id", nil
}

// --- Mock Storage ---

type MockBlobStore struct {
	WriteFunc func(ctx context.Context, bucket, object string, data []byte) error
	ReadFunc  func(ctx context.Context, bucket, object string) ([]byte, error)
}

func (m *MockBlobStore) Write(ctx context.Context, bucket, object string, data []byte) error {
	if m.WriteFunc != nil {
		return m.WriteFunc(ctx, bucket, object, data)
	}
	return nil
}

func (m *MockBlobStore) Read(ctx context.Context, bucket, object string) ([]byte, error) {
	if m.ReadFunc != nil {
		return m.ReadFunc(ctx, bucket, object)
	}
	return []byte("mock-data"), nil
}

// --- Mock Source Adapter ---

type MockAdapter struct {
	SourceValue           types.Source
	AuthenticateFunc      func(ctx context.Context) error
	GetActivitiesFunc     func(ctx context.Context, query source.Query) ([]*types.RawActivity, error)
	GetActivityDetailFunc func(ctx context.Context, sourceID string) (*types.RawActivity, error)
	DownloadGPXFunc       func(ctx context.Context, sourceID string) (string, error)
	HealthCheckFunc       func(ctx context.Context) bool
}

func (m *MockAdapter) Source() types.Source {
	if m.SourceValue != "" {
		return m.SourceValue
	}
	return types.SourceStrava
}

func (m *MockAdapter) Authenticate(ctx context.Context) error {
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(ctx)
	}
	return nil
}

func (m *MockAdapter) GetActivities(ctx context.Context, query source.Query) ([]*types.RawActivity, error) {
	if m.GetActivitiesFunc != nil {
		return m.GetActivitiesFunc(ctx, query)
	}
	return nil, nil
}

func (m *MockAdapter) GetActivityDetail(ctx context.Context, sourceID string) (*types.RawActivity, error) {
	if m.GetActivityDetailFunc != nil {
		return m.GetActivityDetailFunc(ctx, sourceID)
	}
	return nil, fmt.Errorf("activity not found")
}

func (m *MockAdapter) DownloadGPX(ctx context.Context, sourceID string) (string, error) {
	if m.DownloadGPXFunc != nil {
		return m.DownloadGPXFunc(ctx, sourceID)
	}
	return "", nil
}

func (m *MockAdapter) HealthCheck(ctx context.Context) bool {
	if m.HealthCheckFunc != nil {
		return m.HealthCheckFunc(ctx)
	}
	return true
}
