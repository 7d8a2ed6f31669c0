package syncer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stridelog/server/pkg/bootstrap"
	"github.com/stridelog/server/pkg/domain/geo"
	"github.com/stridelog/server/pkg/source"
	"github.com/stridelog/server/pkg/testing/mocks"
	"github.com/stridelog/server/pkg/types"
)

type fakeRaceSession struct {
	closed bool
}

func (f *fakeRaceSession) MatchRace(ctx context.Context, date time.Time, distance float64, coord *geo.Point) (string, bool) {
	return "", false
}

func (f *fakeRaceSession) Close() error {
	f.closed = true
	return nil
}

func rawActivity(id string) *types.RawActivity {
	return &types.RawActivity{
		ID:        id,
		Source:    types.SourceStrava,
		Title:     "Morning Run",
		Type:      types.ActivityRunning,
		StartTime: time.Date(2024, 5, 1, 6, 0, 0, 0, time.UTC),
		Duration:  1500,
		Distance:  5000,
	}
}

func newTestSyncer(db *mocks.MemoryDatabase, adapter source.Adapter, session *fakeRaceSession) *Syncer {
	return &Syncer{
		DB: db,
		NewAdapter: func(src types.Source) (source.Adapter, error) {
			return adapter, nil
		},
		NewRaceSession: func() RaceSession {
			return session
		},
	}
}

func storedLog(t *testing.T, db *mocks.MemoryDatabase, logID string) *types.SyncLog {
	t.Helper()
	log, ok := db.SyncLogs[logID]
	require.True(t, ok, "sync log must exist")
	return log
}

func TestSyncSuccess(t *testing.T) {
	db := mocks.NewMemoryDatabase()
	session := &fakeRaceSession{}
	adapter := &mocks.MockAdapter{
		GetActivitiesFunc: func(ctx context.Context, query source.Query) ([]*types.RawActivity, error) {
			return []*types.RawActivity{rawActivity("a"), rawActivity("b")}, nil
		},
	}

	s := newTestSyncer(db, adapter, session)
	result, err := s.Sync(context.Background(), types.SourceStrava, source.Query{})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 2, result.ActivitiesCount)
	assert.Len(t, db.Activities, 2)
	assert.True(t, session.closed, "race session must be released")

	log := storedLog(t, db, result.LogID)
	assert.Equal(t, types.SyncStatusSuccess, log.Status)
	assert.Equal(t, 2, log.ActivitiesCount)
}

func TestSyncAuthenticationFailureIsFatal(t *testing.T) {
	db := mocks.NewMemoryDatabase()
	sessionCreated := false
	adapter := &mocks.MockAdapter{
		AuthenticateFunc: func(ctx context.Context) error {
			return assert.AnError
		},
	}

	s := newTestSyncer(db, adapter, &fakeRaceSession{})
	s.NewRaceSession = func() RaceSession {
		sessionCreated = true
		return &fakeRaceSession{}
	}

	result, err := s.Sync(context.Background(), types.SourceStrava, source.Query{})
	require.Error(t, err)

	assert.False(t, result.Success)
	assert.Contains(t, result.ErrorMessage, "authentication failed")
	assert.False(t, sessionCreated, "no resources acquired before auth passes")

	log := storedLog(t, db, result.LogID)
	assert.Equal(t, types.SyncStatusFailed, log.Status)
	assert.NotEmpty(t, log.ErrorMessage)
}

func TestSyncHealthCheckFailureIsFatal(t *testing.T) {
	db := mocks.NewMemoryDatabase()
	adapter := &mocks.MockAdapter{
		HealthCheckFunc: func(ctx context.Context) bool { return false },
	}

	s := newTestSyncer(db, adapter, &fakeRaceSession{})
	result, err := s.Sync(context.Background(), types.SourceStrava, source.Query{})
	require.Error(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, types.SyncStatusFailed, storedLog(t, db, result.LogID).Status)
}

func TestSyncReleasesSessionOnFetchFailure(t *testing.T) {
	db := mocks.NewMemoryDatabase()
	session := &fakeRaceSession{}
	adapter := &mocks.MockAdapter{
		GetActivitiesFunc: func(ctx context.Context, query source.Query) ([]*types.RawActivity, error) {
			return nil, assert.AnError
		},
	}

	s := newTestSyncer(db, adapter, session)
	result, err := s.Sync(context.Background(), types.SourceStrava, source.Query{})
	require.Error(t, err)

	assert.False(t, result.Success)
	assert.True(t, session.closed, "race session must be released on failure too")
}

func TestSyncPerActivityFailureDoesNotFailSession(t *testing.T) {
	db := mocks.NewMemoryDatabase()
	adapter := &mocks.MockAdapter{
		GetActivitiesFunc: func(ctx context.Context, query source.Query) ([]*types.RawActivity, error) {
			bad := rawActivity("bad")
			bad.Source = "" // insert lookup still works; force failure below
			return []*types.RawActivity{rawActivity("ok"), bad}, nil
		},
	}

	failing := &mocks.MockDatabase{
		GetActivityBySourceIDFunc: func(ctx context.Context, src types.Source, sourceID string) (*types.Activity, error) {
			if sourceID == "bad" {
				return nil, assert.AnError
			}
			return db.GetActivityBySourceID(ctx, src, sourceID)
		},
		InsertActivityFunc: db.InsertActivity,
		InsertSplitsFunc:   db.InsertSplits,
		SetSyncLogFunc:     db.SetSyncLog,
		UpdateSyncLogFunc:  db.UpdateSyncLog,
	}

	s := &Syncer{
		DB:             failing,
		NewAdapter:     func(src types.Source) (source.Adapter, error) { return adapter, nil },
		NewRaceSession: func() RaceSession { return &fakeRaceSession{} },
	}

	result, err := s.Sync(context.Background(), types.SourceStrava, source.Query{})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 1, result.ActivitiesCount, "failed item is skipped, not fatal")
}

func TestSyncRejectsUnknownSource(t *testing.T) {
	db := mocks.NewMemoryDatabase()
	svc := &bootstrap.Service{DB: db, Config: &bootstrap.Config{}}

	s := New(svc)
	result, err := s.Sync(context.Background(), types.Source("garmin"), source.Query{})
	require.Error(t, err)

	assert.False(t, result.Success)
	assert.Contains(t, result.ErrorMessage, "unsupported source")
}
