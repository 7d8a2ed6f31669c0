package shared

const (
	ProjectID = "stridelog-project" // Can be overridden by env var in main if needed

	TopicActivitySynced = "topic-activity-synced"

	CollectionActivities  = "activities"
	CollectionSplits      = "splits" // sub-collection of activities
	CollectionCredentials = "credentials"
	CollectionSyncLogs    = "sync_logs"
)
