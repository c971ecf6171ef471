package remote

import (
	"context"
	"time"

	"FieldVoice/internal/models"
	"FieldVoice/pkg/errors"
	"FieldVoice/pkg/storage"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore implements Store on a gorm database. When a blob store is
// configured, audio payloads go to object storage and only the key is kept
// in the row.
type GormStore struct {
	db    *gorm.DB
	blobs storage.BlobStore
}

func NewGormStore(db *gorm.DB, blobs storage.BlobStore) (*GormStore, error) {
	if err := db.AutoMigrate(
		&models.RemoteRecording{},
		&models.RemoteFeedback{},
		&models.PushSubscription{},
		&models.NotificationLog{},
	); err != nil {
		return nil, errors.Wrap(err, "migrate remote store")
	}
	return &GormStore{db: db, blobs: blobs}, nil
}

// UpsertRecording stores a recording keyed by the client UID. A replay of the
// same UID is a no-op; a different UID reusing a (participant, module,
// sentence) key is refused, the local owner of that key already completed it.
func (s *GormStore) UpsertRecording(ctx context.Context, rec models.RemoteRecording) error {
	rec.ReceivedAt = time.Now().UTC()

	// replay check first: a replay conflicts on both unique indexes, and the
	// conflict clause below only covers the uid one
	if _, ok, err := s.GetRecording(ctx, rec.UID); err != nil {
		return errors.WrapKind(err, errors.KindTransient, "look up recording")
	} else if ok {
		return nil
	}

	if s.blobs != nil && len(rec.Audio) > 0 {
		key := "recordings/" + rec.UID
		if err := s.blobs.Write(ctx, key, rec.Audio); err != nil {
			return errors.WrapKind(err, errors.KindTransient, "store audio payload")
		}
		rec.AudioKey = key
		rec.Audio = nil
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "uid"}},
		DoNothing: true,
	}).Create(&rec).Error
	if err != nil {
		// a distinct UID hitting the composite unique key is not retryable
		return errors.WrapKind(err, errors.KindRemoteRejected, "recording refused")
	}
	return nil
}

// UpsertFeedback stores a feedback entry keyed by the client UID.
func (s *GormStore) UpsertFeedback(ctx context.Context, fb models.RemoteFeedback) error {
	fb.ReceivedAt = time.Now().UTC()
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "uid"}},
		DoNothing: true,
	}).Create(&fb).Error
	if err != nil {
		return errors.WrapKind(err, errors.KindRemoteRejected, "feedback refused")
	}
	return nil
}

func (s *GormStore) GetRecording(ctx context.Context, uid string) (models.RemoteRecording, bool, error) {
	var rec models.RemoteRecording
	if err := s.db.WithContext(ctx).First(&rec, "uid = ?", uid).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return models.RemoteRecording{}, false, nil
		}
		return models.RemoteRecording{}, false, err
	}
	return rec, true, nil
}

// RecordingAudio returns the stored audio payload. Offloaded payloads are
// read back from object storage by the key kept on the row.
func (s *GormStore) RecordingAudio(ctx context.Context, uid string) ([]byte, bool, error) {
	rec, ok, err := s.GetRecording(ctx, uid)
	if err != nil || !ok {
		return nil, false, err
	}
	if rec.AudioKey != "" && s.blobs != nil {
		data, err := s.blobs.Read(ctx, rec.AudioKey)
		if err != nil {
			return nil, false, errors.Wrap(err, "read audio payload")
		}
		return data, true, nil
	}
	return rec.Audio, true, nil
}

func (s *GormStore) GetFeedback(ctx context.Context, uid string) (models.RemoteFeedback, bool, error) {
	var fb models.RemoteFeedback
	if err := s.db.WithContext(ctx).First(&fb, "uid = ?", uid).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return models.RemoteFeedback{}, false, nil
		}
		return models.RemoteFeedback{}, false, err
	}
	return fb, true, nil
}

func (s *GormStore) CountRecordings(ctx context.Context) (int, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.RemoteRecording{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// UpsertSubscription replaces the participant's descriptor. Last registered
// device wins.
func (s *GormStore) UpsertSubscription(ctx context.Context, participantID, subscriptionJSON string) error {
	sub := models.PushSubscription{
		ParticipantID:    participantID,
		SubscriptionJSON: subscriptionJSON,
		UpdatedAt:        time.Now().UTC(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "participant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"subscription_json", "updated_at"}),
	}).Create(&sub).Error
}

func (s *GormStore) DeleteSubscription(ctx context.Context, participantID string) error {
	return s.db.WithContext(ctx).
		Delete(&models.PushSubscription{}, "participant_id = ?", participantID).Error
}

// ListSubscriptions returns the subscriptions for the given participants, or
// all of them when the list is empty.
func (s *GormStore) ListSubscriptions(ctx context.Context, participantIDs []string) ([]models.PushSubscription, error) {
	tx := s.db.WithContext(ctx).Model(&models.PushSubscription{})
	if len(participantIDs) > 0 {
		tx = tx.Where("participant_id IN ?", participantIDs)
	}
	var subs []models.PushSubscription
	if err := tx.Order("participant_id ASC").Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (s *GormStore) CountSubscriptions(ctx context.Context) (int, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.PushSubscription{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func (s *GormStore) AppendLog(ctx context.Context, entry models.NotificationLog) error {
	if entry.SentAt.IsZero() {
		entry.SentAt = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Create(&entry).Error
}

// RecentLogs returns the newest entries first.
func (s *GormStore) RecentLogs(ctx context.Context, limit int) ([]models.NotificationLog, error) {
	var logs []models.NotificationLog
	err := s.db.WithContext(ctx).
		Order("sent_at DESC, id DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}
