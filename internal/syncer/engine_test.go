package syncer

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"FieldVoice/internal/models"
	"FieldVoice/internal/remote"
	"FieldVoice/internal/store"
	"FieldVoice/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRemote dedups on UID like the real remote store.
type fakeRemote struct {
	mu             sync.Mutex
	recordings     map[string]models.Recording
	feedback       map[string]models.Feedback
	recordingCalls int
	failRecordings error
	failFeedback   error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		recordings: make(map[string]models.Recording),
		feedback:   make(map[string]models.Feedback),
	}
}

func (f *fakeRemote) UploadRecording(ctx context.Context, rec models.Recording) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recordingCalls++
	if f.failRecordings != nil {
		return f.failRecordings
	}
	f.recordings[rec.UID] = rec
	return nil
}

func (f *fakeRemote) UploadFeedback(ctx context.Context, fb models.Feedback) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFeedback != nil {
		return f.failFeedback
	}
	f.feedback[fb.UID] = fb
	return nil
}

func (f *fakeRemote) setFailRecordings(err error) {
	f.mu.Lock()
	f.failRecordings = err
	f.mu.Unlock()
}

func openTestStore(t *testing.T) *store.LocalStore {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "queue.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func appendRecording(t *testing.T, s *store.LocalStore, sentence string) models.Recording {
	t.Helper()
	rec := models.Recording{
		ParticipantID: "P-001",
		Dialect:       models.DialectYasin,
		ModuleID:      "m1",
		SentenceID:    sentence,
		Audio:         []byte("opus"),
	}
	require.NoError(t, s.AppendRecording(&rec))
	return rec
}

func TestDrainUploadsAndMarksSynced(t *testing.T) {
	s := openTestStore(t)
	rem := newFakeRemote()
	e := New(s, rem)

	appendRecording(t, s, "s1")
	appendRecording(t, s, "s2")
	fb := models.Feedback{ParticipantID: "P-001", ModuleID: "m1", SentenceNumber: 1, Correction: "fix"}
	require.NoError(t, s.AppendFeedback(&fb))

	res := e.Drain(context.Background(), "P-001")
	assert.Equal(t, 3, res.Uploaded)
	assert.Equal(t, 0, res.Failed)

	assert.Len(t, rem.recordings, 2)
	assert.Len(t, rem.feedback, 1)

	pending, err := s.Recordings(store.RecordingFilter{Status: models.StatusPending})
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestDrainTwiceIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	rem := newFakeRemote()
	e := New(s, rem)

	appendRecording(t, s, "s1")

	first := e.Drain(context.Background(), "P-001")
	second := e.Drain(context.Background(), "P-001")

	assert.Equal(t, 1, first.Uploaded)
	assert.Equal(t, 0, second.Uploaded)
	assert.Len(t, rem.recordings, 1)
	assert.Equal(t, 1, rem.recordingCalls, "a synced entity is never re-sent")
}

func TestTransientFailureLeavesPendingForNextTrigger(t *testing.T) {
	s := openTestStore(t)
	rem := newFakeRemote()
	e := New(s, rem)

	appendRecording(t, s, "s1")
	rem.setFailRecordings(errors.WithKind(errors.KindTransient, "remote unreachable"))

	res := e.Drain(context.Background(), "P-001")
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, rem.recordingCalls, "no retry within one drain")

	pending, err := s.Recordings(store.RecordingFilter{Status: models.StatusPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)

	// the next trigger picks it up
	rem.setFailRecordings(nil)
	res = e.Drain(context.Background(), "P-001")
	assert.Equal(t, 1, res.Uploaded)

	pending, err = s.Recordings(store.RecordingFilter{Status: models.StatusPending})
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRemoteRejectionStaysPending(t *testing.T) {
	s := openTestStore(t)
	rem := newFakeRemote()
	e := New(s, rem)

	appendRecording(t, s, "s1")
	rem.setFailRecordings(errors.WithKind(errors.KindRemoteRejected, "malformed payload"))

	res := e.Drain(context.Background(), "P-001")
	assert.Equal(t, 1, res.Failed)

	pending, err := s.Recordings(store.RecordingFilter{Status: models.StatusPending})
	require.NoError(t, err)
	assert.Len(t, pending, 1, "rejected rows stay pending, with no retry path of their own")
}

func TestCrashBetweenRemoteWriteAndLocalUpdate(t *testing.T) {
	s := openTestStore(t)
	rem := newFakeRemote()
	e := New(s, rem)

	rec := appendRecording(t, s, "s1")

	// simulate the earlier crash: the remote row landed but the local
	// status flip never happened
	rem.recordings[rec.UID] = rec

	res := e.Drain(context.Background(), "P-001")
	assert.Equal(t, 1, res.Uploaded)
	assert.Len(t, rem.recordings, 1, "re-sync must not create a second remote row")

	pending, err := s.Recordings(store.RecordingFilter{Status: models.StatusPending})
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestConcurrentDrainsDoNotDuplicate(t *testing.T) {
	s := openTestStore(t)
	rem := newFakeRemote()
	e := New(s, rem)

	for _, sentence := range []string{"s1", "s2", "s3", "s4", "s5"} {
		appendRecording(t, s, sentence)
	}

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.Drain(context.Background(), "P-001")
		}()
	}
	wg.Wait()

	assert.Len(t, rem.recordings, 5, "overlapping drains may resend but never duplicate")

	pending, err := s.Recordings(store.RecordingFilter{Status: models.StatusPending})
	require.NoError(t, err)
	assert.Empty(t, pending)
}

// memUploader adapts the in-memory remote store to the engine, the way the
// HTTP client adapts the real one.
type memUploader struct {
	store *remote.MemoryStore
}

func (u memUploader) UploadRecording(ctx context.Context, rec models.Recording) error {
	return u.store.UpsertRecording(ctx, models.RemoteRecording{
		UID:           rec.UID,
		ParticipantID: rec.ParticipantID,
		Dialect:       rec.Dialect,
		ModuleID:      rec.ModuleID,
		SentenceID:    rec.SentenceID,
		Audio:         rec.Audio,
		CreatedAt:     rec.CreatedAt,
	})
}

func (u memUploader) UploadFeedback(ctx context.Context, fb models.Feedback) error {
	return u.store.UpsertFeedback(ctx, models.RemoteFeedback{
		UID:            fb.UID,
		ParticipantID:  fb.ParticipantID,
		ModuleID:       fb.ModuleID,
		SentenceID:     fb.SentenceID,
		SentenceNumber: fb.SentenceNumber,
		Correction:     fb.Correction,
		CreatedAt:      fb.CreatedAt,
	})
}

func TestFeedbackRoundTrip(t *testing.T) {
	s := openTestStore(t)
	mem := remote.NewMemoryStore()
	e := New(s, memUploader{store: mem})

	fb := models.Feedback{
		ParticipantID:  "P-001",
		ModuleID:       "m1",
		SentenceNumber: 12,
		Correction:     "it should read 'baƚ' not 'bal'",
	}
	require.NoError(t, s.AppendFeedback(&fb))

	res := e.Drain(context.Background(), "P-001")
	require.Equal(t, 1, res.Uploaded)

	got, ok, err := mem.GetFeedback(context.Background(), fb.UID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, fb.Correction, got.Correction)
	assert.Equal(t, 12, got.SentenceNumber)

	synced, err := s.Feedback(store.FeedbackFilter{Status: models.StatusSynced})
	require.NoError(t, err)
	assert.Len(t, synced, 1)
}
