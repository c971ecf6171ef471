package models

import "time"

// Remote-side tables. The remote keeps the client UID as primary key so a
// re-sent upload lands on the same row instead of creating a duplicate.

type RemoteRecording struct {
	UID           string `gorm:"primaryKey;size:64"`
	ParticipantID string `gorm:"size:64;not null;uniqueIndex:idx_remote_recording_key"`
	Dialect       string `gorm:"size:16;not null"`
	ModuleID      string `gorm:"size:64;not null;uniqueIndex:idx_remote_recording_key"`
	SentenceID    string `gorm:"size:64;not null;uniqueIndex:idx_remote_recording_key"`
	AudioKey      string `gorm:"size:256"` // object storage key when blob store is configured
	Audio         []byte `gorm:"type:blob"`
	CreatedAt     time.Time
	ReceivedAt    time.Time
}

type RemoteFeedback struct {
	UID            string `gorm:"primaryKey;size:64"`
	ParticipantID  string `gorm:"size:64;not null;index"`
	ModuleID       string `gorm:"size:64;not null"`
	SentenceID     string `gorm:"size:64"`
	SentenceNumber int    `gorm:"not null"`
	Correction     string `gorm:"type:text;not null"`
	CreatedAt      time.Time
	ReceivedAt     time.Time
}
