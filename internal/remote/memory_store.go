package remote

import (
	"context"
	"sort"
	"sync"
	"time"

	"FieldVoice/internal/models"
	"FieldVoice/pkg/errors"
)

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu            sync.Mutex
	recordings    map[string]models.RemoteRecording
	recordingKeys map[[3]string]string // (participant, module, sentence) -> uid
	feedback      map[string]models.RemoteFeedback
	subscriptions map[string]models.PushSubscription
	logs          []models.NotificationLog
	nextLogID     uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		recordings:    make(map[string]models.RemoteRecording),
		recordingKeys: make(map[[3]string]string),
		feedback:      make(map[string]models.RemoteFeedback),
		subscriptions: make(map[string]models.PushSubscription),
	}
}

func (s *MemoryStore) UpsertRecording(ctx context.Context, rec models.RemoteRecording) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recordings[rec.UID]; ok {
		return nil // replay of the same upload
	}
	key := [3]string{rec.ParticipantID, rec.ModuleID, rec.SentenceID}
	if _, taken := s.recordingKeys[key]; taken {
		return errors.WithKind(errors.KindRemoteRejected, "recording refused: sentence already recorded")
	}
	rec.ReceivedAt = time.Now().UTC()
	s.recordings[rec.UID] = rec
	s.recordingKeys[key] = rec.UID
	return nil
}

func (s *MemoryStore) UpsertFeedback(ctx context.Context, fb models.RemoteFeedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.feedback[fb.UID]; ok {
		return nil
	}
	fb.ReceivedAt = time.Now().UTC()
	s.feedback[fb.UID] = fb
	return nil
}

func (s *MemoryStore) GetRecording(ctx context.Context, uid string) (models.RemoteRecording, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recordings[uid]
	return rec, ok, nil
}

func (s *MemoryStore) RecordingAudio(ctx context.Context, uid string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recordings[uid]
	if !ok {
		return nil, false, nil
	}
	return rec.Audio, true, nil
}

func (s *MemoryStore) GetFeedback(ctx context.Context, uid string) (models.RemoteFeedback, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fb, ok := s.feedback[uid]
	return fb, ok, nil
}

func (s *MemoryStore) CountRecordings(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.recordings), nil
}

func (s *MemoryStore) UpsertSubscription(ctx context.Context, participantID, subscriptionJSON string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscriptions[participantID] = models.PushSubscription{
		ParticipantID:    participantID,
		SubscriptionJSON: subscriptionJSON,
		UpdatedAt:        time.Now().UTC(),
	}
	return nil
}

func (s *MemoryStore) DeleteSubscription(ctx context.Context, participantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subscriptions, participantID)
	return nil
}

func (s *MemoryStore) ListSubscriptions(ctx context.Context, participantIDs []string) ([]models.PushSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var subs []models.PushSubscription
	if len(participantIDs) == 0 {
		for _, sub := range s.subscriptions {
			subs = append(subs, sub)
		}
	} else {
		for _, id := range participantIDs {
			if sub, ok := s.subscriptions[id]; ok {
				subs = append(subs, sub)
			}
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].ParticipantID < subs[j].ParticipantID })
	return subs, nil
}

func (s *MemoryStore) CountSubscriptions(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscriptions), nil
}

func (s *MemoryStore) AppendLog(ctx context.Context, entry models.NotificationLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextLogID++
	entry.ID = s.nextLogID
	if entry.SentAt.IsZero() {
		entry.SentAt = time.Now().UTC()
	}
	s.logs = append(s.logs, entry)
	return nil
}

func (s *MemoryStore) RecentLogs(ctx context.Context, limit int) ([]models.NotificationLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.NotificationLog, len(s.logs))
	copy(out, s.logs)
	sort.Slice(out, func(i, j int) bool {
		if out[i].SentAt.Equal(out[j].SentAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].SentAt.After(out[j].SentAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Logs returns the raw audit trail, oldest first. Test helper.
func (s *MemoryStore) Logs() []models.NotificationLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.NotificationLog, len(s.logs))
	copy(out, s.logs)
	return out
}
