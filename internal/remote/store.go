package remote

import (
	"context"

	"FieldVoice/internal/models"
)

// Store is the durable backend of record. Writes are at-least-once: every
// upsert must land a re-sent entity on the same row.
type Store interface {
	// recordings / feedback
	UpsertRecording(ctx context.Context, rec models.RemoteRecording) error
	UpsertFeedback(ctx context.Context, fb models.RemoteFeedback) error
	GetRecording(ctx context.Context, uid string) (models.RemoteRecording, bool, error)
	RecordingAudio(ctx context.Context, uid string) ([]byte, bool, error)
	GetFeedback(ctx context.Context, uid string) (models.RemoteFeedback, bool, error)
	CountRecordings(ctx context.Context) (int, error)

	// push subscriptions
	UpsertSubscription(ctx context.Context, participantID, subscriptionJSON string) error
	DeleteSubscription(ctx context.Context, participantID string) error
	ListSubscriptions(ctx context.Context, participantIDs []string) ([]models.PushSubscription, error)
	CountSubscriptions(ctx context.Context) (int, error)

	// audit log
	AppendLog(ctx context.Context, entry models.NotificationLog) error
	RecentLogs(ctx context.Context, limit int) ([]models.NotificationLog, error)
}
