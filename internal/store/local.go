package store

import (
	"sync"
	"time"

	"FieldVoice/internal/models"
	"FieldVoice/pkg/errors"
	"FieldVoice/pkg/util"

	"github.com/google/uuid"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// LocalStore is the durable on-device queue for recordings and feedback.
// Writes are serialized through one mutex; the device runs a single logical
// actor and the storage layer enforces that here.
type LocalStore struct {
	db *gorm.DB
	mu sync.Mutex
}

// Open opens (or creates) the sqlite queue at path and migrates its schema.
func Open(path string) (*LocalStore, error) {
	db, err := util.OpenDatabase("", path, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open local store")
	}
	if err := db.AutoMigrate(&models.Recording{}, &models.Feedback{}); err != nil {
		return nil, errors.Wrap(err, "migrate local store")
	}
	return &LocalStore{db: db}, nil
}

// AppendRecording persists a new recording with status pending. The UID and
// CreatedAt are assigned here so they are set before any network is involved.
func (s *LocalStore) AppendRecording(rec *models.Recording) error {
	if rec.ParticipantID == "" || rec.ModuleID == "" || rec.SentenceID == "" {
		return errors.WithKind(errors.KindValidation, "recording requires participantId, moduleId and sentenceId")
	}
	if rec.Dialect != models.DialectYasin && rec.Dialect != models.DialectHunza {
		return errors.WithKindf(errors.KindValidation, "unknown dialect %q", rec.Dialect)
	}
	if len(rec.Audio) == 0 {
		return errors.WithKind(errors.KindValidation, "recording has no audio payload")
	}
	rec.UID = uuid.NewString()
	rec.Status = models.StatusPending
	rec.CreatedAt = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.db.Create(rec).Error; err != nil {
		return errors.Wrap(err, "append recording")
	}
	return nil
}

// AppendFeedback persists a new feedback entry with status pending.
func (s *LocalStore) AppendFeedback(fb *models.Feedback) error {
	if fb.ParticipantID == "" || fb.ModuleID == "" {
		return errors.WithKind(errors.KindValidation, "feedback requires participantId and moduleId")
	}
	if fb.SentenceNumber <= 0 {
		return errors.WithKind(errors.KindValidation, "feedback requires a sentence number")
	}
	if fb.Correction == "" {
		return errors.WithKind(errors.KindValidation, "feedback requires a correction")
	}
	fb.UID = uuid.NewString()
	fb.Status = models.StatusPending
	fb.CreatedAt = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.db.Create(fb).Error; err != nil {
		return errors.Wrap(err, "append feedback")
	}
	return nil
}

// RecordingFilter selects recordings by exact match on any non-zero field.
type RecordingFilter struct {
	ParticipantID string
	ModuleID      string
	SentenceID    string
	Status        string
}

// Recordings returns matching recordings in insertion order.
func (s *LocalStore) Recordings(f RecordingFilter) ([]models.Recording, error) {
	tx := s.db.Model(&models.Recording{})
	if f.ParticipantID != "" {
		tx = tx.Where("participant_id = ?", f.ParticipantID)
	}
	if f.ModuleID != "" {
		tx = tx.Where("module_id = ?", f.ModuleID)
	}
	if f.SentenceID != "" {
		tx = tx.Where("sentence_id = ?", f.SentenceID)
	}
	if f.Status != "" {
		tx = tx.Where("status = ?", f.Status)
	}
	var out []models.Recording
	if err := tx.Order("id ASC").Find(&out).Error; err != nil {
		return nil, errors.Wrap(err, "query recordings")
	}
	return out, nil
}

// FeedbackFilter selects feedback entries by exact match on any non-zero field.
type FeedbackFilter struct {
	ParticipantID  string
	ModuleID       string
	SentenceNumber int
	Status         string
}

// Feedback returns matching feedback entries in insertion order.
func (s *LocalStore) Feedback(f FeedbackFilter) ([]models.Feedback, error) {
	tx := s.db.Model(&models.Feedback{})
	if f.ParticipantID != "" {
		tx = tx.Where("participant_id = ?", f.ParticipantID)
	}
	if f.ModuleID != "" {
		tx = tx.Where("module_id = ?", f.ModuleID)
	}
	if f.SentenceNumber > 0 {
		tx = tx.Where("sentence_number = ?", f.SentenceNumber)
	}
	if f.Status != "" {
		tx = tx.Where("status = ?", f.Status)
	}
	var out []models.Feedback
	if err := tx.Order("id ASC").Find(&out).Error; err != nil {
		return nil, errors.Wrap(err, "query feedback")
	}
	return out, nil
}

// UpdateRecordingStatus flips one recording's status in place.
func (s *LocalStore) UpdateRecordingStatus(id uint, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := s.db.Model(&models.Recording{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return errors.Wrap(res.Error, "update recording status")
	}
	if res.RowsAffected == 0 {
		return errors.WithKindf(errors.KindNotFound, "recording %d not found", id)
	}
	return nil
}

// UpdateFeedbackStatus flips one feedback entry's status in place.
func (s *LocalStore) UpdateFeedbackStatus(id uint, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := s.db.Model(&models.Feedback{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return errors.Wrap(res.Error, "update feedback status")
	}
	if res.RowsAffected == 0 {
		return errors.WithKindf(errors.KindNotFound, "feedback %d not found", id)
	}
	return nil
}

// HasRecording reports whether any recording exists for the key, regardless
// of sync status. A sentence counts as completed once this is true.
func (s *LocalStore) HasRecording(participantID, moduleID, sentenceID string) (bool, error) {
	var count int64
	err := s.db.Model(&models.Recording{}).
		Where("participant_id = ? AND module_id = ? AND sentence_id = ?", participantID, moduleID, sentenceID).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "count recordings")
	}
	return count > 0, nil
}

// CompletedSentences returns the sentenceIds recorded for a module, for
// progress display.
func (s *LocalStore) CompletedSentences(participantID, moduleID string) ([]string, error) {
	var ids []string
	err := s.db.Model(&models.Recording{}).
		Where("participant_id = ? AND module_id = ?", participantID, moduleID).
		Order("id ASC").
		Pluck("sentence_id", &ids).Error
	if err != nil {
		return nil, errors.Wrap(err, "list completed sentences")
	}
	return ids, nil
}

func (s *LocalStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
