package models

import "time"

// Sync status of a locally queued entity.
const (
	StatusPending = "pending"
	StatusSynced  = "synced"
)

// Supported dialects.
const (
	DialectYasin = "yasin"
	DialectHunza = "hunza"
)

// Recording is one attempted audio submission, queued locally until synced.
// The numeric ID preserves insertion order; UID is the client-generated
// identifier the remote dedups on.
type Recording struct {
	ID            uint   `gorm:"primaryKey"`
	UID           string `gorm:"size:64;uniqueIndex;not null"`
	ParticipantID string `gorm:"size:64;not null;index:idx_recording_key"`
	Dialect       string `gorm:"size:16;not null"`
	ModuleID      string `gorm:"size:64;not null;index:idx_recording_key"`
	SentenceID    string `gorm:"size:64;not null;index:idx_recording_key"`
	Audio         []byte `gorm:"type:blob"`
	Status        string `gorm:"size:16;not null;index"`
	CreatedAt     time.Time
}

// Feedback is a participant-reported correction to a sentence's text.
// Multiple entries per sentence are allowed.
type Feedback struct {
	ID             uint   `gorm:"primaryKey"`
	UID            string `gorm:"size:64;uniqueIndex;not null"`
	ParticipantID  string `gorm:"size:64;not null;index"`
	ModuleID       string `gorm:"size:64;not null;index"`
	SentenceID     string `gorm:"size:64"` // optional
	SentenceNumber int    `gorm:"not null"`
	Correction     string `gorm:"type:text;not null"`
	Status         string `gorm:"size:16;not null;index"`
	CreatedAt      time.Time
}
