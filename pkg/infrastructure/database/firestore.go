package database

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	shared "github.com/stridelog/server/pkg"
	"github.com/stridelog/server/pkg/types"
)

// FirestoreAdapter provides database operations using Firestore.
// Splits live in a sub-collection of their parent activity document so
// that DeleteActivity can cascade without a relational constraint.
type FirestoreAdapter struct {
	Client *firestore.Client
}

func NewFirestoreAdapter(client *firestore.Client) *FirestoreAdapter {
	return &FirestoreAdapter{Client: client}
}

func (a *FirestoreAdapter) activities() *firestore.CollectionRef {
	return a.Client.Collection(shared.CollectionActivities)
}

func (a *FirestoreAdapter) splits(activityID string) *firestore.CollectionRef {
	return a.activities().Doc(activityID).Collection(shared.CollectionSplits)
}

func (a *FirestoreAdapter) GetActivity(ctx context.Context, id string) (*types.Activity, error) {
	snap, err := a.activities().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get activity %s: %w", id, err)
	}
	var activity types.Activity
	if err := snap.DataTo(&activity); err != nil {
		return nil, fmt.Errorf("decode activity %s: %w", id, err)
	}
	return &activity, nil
}

// GetActivityBySourceID looks an activity up by its natural key.
// Returns (nil, nil) when no document matches.
func (a *FirestoreAdapter) GetActivityBySourceID(ctx context.Context, source types.Source, sourceID string) (*types.Activity, error) {
	iter := a.activities().
		Where("source", "==", string(source)).
		Where("source_id", "==", sourceID).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query activity %s/%s: %w", source, sourceID, err)
	}
	var activity types.Activity
	if err := snap.DataTo(&activity); err != nil {
		return nil, fmt.Errorf("decode activity %s/%s: %w", source, sourceID, err)
	}
	return &activity, nil
}

func (a *FirestoreAdapter) InsertActivity(ctx context.Context, activity *types.Activity) error {
	if _, err := a.activities().Doc(activity.ID).Set(ctx, activity); err != nil {
		return fmt.Errorf("insert activity %s: %w", activity.ID, err)
	}
	return nil
}

func (a *FirestoreAdapter) UpdateActivity(ctx context.Context, id string, data map[string]interface{}) error {
	updates := make([]firestore.Update, 0, len(data))
	for path, value := range data {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}
	if _, err := a.activities().Doc(id).Update(ctx, updates); err != nil {
		return fmt.Errorf("update activity %s: %w", id, err)
	}
	return nil
}

// DeleteActivity removes an activity and all of its splits.
func (a *FirestoreAdapter) DeleteActivity(ctx context.Context, id string) error {
	iter := a.splits(id).Documents(ctx)
	defer iter.Stop()
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fmt.Errorf("list splits for delete %s: %w", id, err)
		}
		if _, err := snap.Ref.Delete(ctx); err != nil {
			return fmt.Errorf("delete split %s: %w", snap.Ref.ID, err)
		}
	}
	if _, err := a.activities().Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("delete activity %s: %w", id, err)
	}
	return nil
}

// ListActivitiesMissingWeather returns outdoor activities that carry GPX
// data but no weather snapshot yet. Candidates for the weather backfill.
func (a *FirestoreAdapter) ListActivitiesMissingWeather(ctx context.Context) ([]*types.Activity, error) {
	iter := a.activities().
		Where("weather_data", "==", "").
		Where("is_indoor", "==", false).
		Documents(ctx)
	defer iter.Stop()

	var out []*types.Activity
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list activities missing weather: %w", err)
		}
		var activity types.Activity
		if err := snap.DataTo(&activity); err != nil {
			return nil, fmt.Errorf("decode activity %s: %w", snap.Ref.ID, err)
		}
		// Firestore can't express != "" on a second field in the same
		// query, so the GPX presence check happens here.
		if activity.GPXData == "" {
			continue
		}
		out = append(out, &activity)
	}
	return out, nil
}

func (a *FirestoreAdapter) InsertSplits(ctx context.Context, activityID string, splits []*types.Split) error {
	for _, split := range splits {
		if _, err := a.splits(activityID).Doc(split.ID).Set(ctx, split); err != nil {
			return fmt.Errorf("insert split km %d for %s: %w", split.Kilometer, activityID, err)
		}
	}
	return nil
}

func (a *FirestoreAdapter) ListSplits(ctx context.Context, activityID string) ([]*types.Split, error) {
	iter := a.splits(activityID).OrderBy("kilometer", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var out []*types.Split
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list splits for %s: %w", activityID, err)
		}
		var split types.Split
		if err := snap.DataTo(&split); err != nil {
			return nil, fmt.Errorf("decode split %s: %w", snap.Ref.ID, err)
		}
		out = append(out, &split)
	}
	return out, nil
}

func (a *FirestoreAdapter) GetCredentials(ctx context.Context, source types.Source) (*types.Credentials, error) {
	snap, err := a.Client.Collection(shared.CollectionCredentials).Doc(string(source)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("no credentials stored for %s", source)
		}
		return nil, fmt.Errorf("get credentials %s: %w", source, err)
	}
	var creds types.Credentials
	if err := snap.DataTo(&creds); err != nil {
		return nil, fmt.Errorf("decode credentials %s: %w", source, err)
	}
	return &creds, nil
}

func (a *FirestoreAdapter) UpdateCredentials(ctx context.Context, source types.Source, data map[string]interface{}) error {
	if _, err := a.Client.Collection(shared.CollectionCredentials).Doc(string(source)).Set(ctx, data, firestore.MergeAll); err != nil {
		return fmt.Errorf("update credentials %s: %w", source, err)
	}
	return nil
}

func (a *FirestoreAdapter) SetSyncLog(ctx context.Context, log *types.SyncLog) error {
	if _, err := a.Client.Collection(shared.CollectionSyncLogs).Doc(log.ID).Set(ctx, log); err != nil {
		return fmt.Errorf("set sync log %s: %w", log.ID, err)
	}
	return nil
}

func (a *FirestoreAdapter) UpdateSyncLog(ctx context.Context, id string, data map[string]interface{}) error {
	updates := make([]firestore.Update, 0, len(data))
	for path, value := range data {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}
	if _, err := a.Client.Collection(shared.CollectionSyncLogs).Doc(id).Update(ctx, updates); err != nil {
		return fmt.Errorf("update sync log %s: %w", id, err)
	}
	return nil
}
