package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"FieldVoice/internal/dispatch"
	"FieldVoice/internal/models"
	"FieldVoice/internal/remote"
	"FieldVoice/pkg/errors"
	"FieldVoice/pkg/notification"
	"FieldVoice/pkg/sse"
	"FieldVoice/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubTransport struct {
	failures map[string]error // endpoint -> error
}

func (t *stubTransport) Send(ctx context.Context, sub notification.Subscription, payload notification.Payload) error {
	if t.failures == nil {
		return nil
	}
	return t.failures[sub.Endpoint]
}

type testEnv struct {
	router    *gin.Engine
	store     *remote.MemoryStore
	transport *stubTransport
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := util.OpenDatabase("sqlite", "", nil)
	require.NoError(t, err)

	store := remote.NewMemoryStore()
	transport := &stubTransport{}
	hub := sse.NewHub(0)
	h := New(db, store, dispatch.New(store, transport, 0, hub), nil, hub)

	r := gin.New()
	h.Register(r, "/api", nil)
	return &testEnv{router: r, store: store, transport: transport}
}

func (e *testEnv) request(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) seedSubscription(t *testing.T, participantID string) {
	t.Helper()
	raw := fmt.Sprintf(`{"endpoint":"https://push.example/%s","keys":{"p256dh":"p","auth":"a"}}`, participantID)
	require.NoError(t, e.store.UpsertSubscription(context.Background(), participantID, raw))
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealthCheck(t *testing.T) {
	e := newTestEnv(t)
	w := e.request(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode(t, w)["status"])
}

func TestSendReminderMissingFields(t *testing.T) {
	e := newTestEnv(t)
	e.seedSubscription(t, "P-001")

	for _, body := range []gin.H{
		{"body": "b"},
		{"title": "t"},
		{},
	} {
		w := e.request(t, http.MethodPost, "/api/send-reminder", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Missing required fields: title and body", decode(t, w)["error"])
	}

	// nothing was attempted or logged
	assert.Empty(t, e.store.Logs())
}

func TestSendReminderBroadcast(t *testing.T) {
	e := newTestEnv(t)
	e.seedSubscription(t, "P-001")
	e.seedSubscription(t, "P-002")

	w := e.request(t, http.MethodPost, "/api/send-reminder",
		gin.H{"title": "Time to Record!", "body": "Record today's sentences."})
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 2, body["sent"])
	assert.EqualValues(t, 0, body["failed"])
	assert.EqualValues(t, 2, body["total"])
}

func TestSendReminderReportsPartialFailure(t *testing.T) {
	e := newTestEnv(t)
	e.seedSubscription(t, "P-001")
	e.seedSubscription(t, "P-002")
	e.transport.failures = map[string]error{
		"https://push.example/P-002": errors.WithKind(errors.KindEndpointGone, "gone"),
	}

	w := e.request(t, http.MethodPost, "/api/send-reminder", gin.H{"title": "t", "body": "b"})
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.EqualValues(t, 1, body["sent"])
	assert.EqualValues(t, 1, body["failed"])

	count, err := e.store.CountSubscriptions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count, "gone endpoint must be pruned")
}

func TestSubscriptionCount(t *testing.T) {
	e := newTestEnv(t)
	e.seedSubscription(t, "P-001")
	e.seedSubscription(t, "P-002")

	w := e.request(t, http.MethodGet, "/api/subscriptions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decode(t, w)["subscribedUsers"])
}

func TestNotificationLogsNewestFirstCapped(t *testing.T) {
	e := newTestEnv(t)
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 55; i++ {
		require.NoError(t, e.store.AppendLog(context.Background(), models.NotificationLog{
			ParticipantID: fmt.Sprintf("P-%03d", i),
			Title:         "t",
			Body:          "b",
			Status:        models.DeliverySent,
			SentAt:        base.Add(time.Duration(i) * time.Minute),
		}))
	}

	w := e.request(t, http.MethodGet, "/api/notification-logs", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.EqualValues(t, 50, body["count"])
	logs := body["logs"].([]any)
	require.Len(t, logs, 50)
	first := logs[0].(map[string]any)
	last := logs[49].(map[string]any)
	assert.Equal(t, "P-054", first["participantId"])
	assert.Equal(t, "P-005", last["participantId"])
}

func recordingBody(uid string) gin.H {
	return gin.H{
		"uid":           uid,
		"participantId": "P-001",
		"dialect":       models.DialectYasin,
		"moduleId":      "m1",
		"sentenceId":    "s1",
		"audio":         []byte("opus"),
		"createdAt":     time.Now().UTC(),
	}
}

func TestUpsertRecordingValidation(t *testing.T) {
	e := newTestEnv(t)

	body := recordingBody("")
	w := e.request(t, http.MethodPost, "/api/recordings", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body = recordingBody("u1")
	body["audio"] = []byte{}
	w = e.request(t, http.MethodPost, "/api/recordings", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpsertRecordingReplayIsIdempotent(t *testing.T) {
	e := newTestEnv(t)

	w := e.request(t, http.MethodPost, "/api/recordings", recordingBody("u1"))
	require.Equal(t, http.StatusOK, w.Code)

	// replaying the same upload succeeds without a second row
	w = e.request(t, http.MethodPost, "/api/recordings", recordingBody("u1"))
	assert.Equal(t, http.StatusOK, w.Code)

	count, err := e.store.CountRecordings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRecordingAudioRoundTrip(t *testing.T) {
	e := newTestEnv(t)

	w := e.request(t, http.MethodPost, "/api/recordings", recordingBody("u1"))
	require.Equal(t, http.StatusOK, w.Code)

	w = e.request(t, http.MethodGet, "/api/recordings/u1/audio", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/octet-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, []byte("opus"), w.Body.Bytes())
}

func TestRecordingAudioUnknownUID(t *testing.T) {
	e := newTestEnv(t)
	w := e.request(t, http.MethodGet, "/api/recordings/nope/audio", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpsertRecordingConflictingSentence(t *testing.T) {
	e := newTestEnv(t)

	w := e.request(t, http.MethodPost, "/api/recordings", recordingBody("u1"))
	require.Equal(t, http.StatusOK, w.Code)

	// a different uid for the same (participant, module, sentence) is refused
	w = e.request(t, http.MethodPost, "/api/recordings", recordingBody("u2"))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUpsertFeedback(t *testing.T) {
	e := newTestEnv(t)

	body := gin.H{
		"uid":            "f1",
		"participantId":  "P-001",
		"moduleId":       "m1",
		"sentenceNumber": 3,
		"correction":     "should be 'baƚ'",
		"createdAt":      time.Now().UTC(),
	}
	w := e.request(t, http.MethodPost, "/api/feedback", body)
	require.Equal(t, http.StatusOK, w.Code)

	got, ok, err := e.store.GetFeedback(context.Background(), "f1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "should be 'baƚ'", got.Correction)

	body["sentenceNumber"] = 0
	w = e.request(t, http.MethodPost, "/api/feedback", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubscriptionLifecycle(t *testing.T) {
	e := newTestEnv(t)

	w := e.request(t, http.MethodPost, "/api/subscriptions", gin.H{
		"participantId":    "P-001",
		"subscriptionJson": `{"endpoint":"https://push.example/P-001","keys":{"p256dh":"p","auth":"a"}}`,
	})
	require.Equal(t, http.StatusOK, w.Code)

	count, err := e.store.CountSubscriptions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	w = e.request(t, http.MethodDelete, "/api/subscriptions/P-001", nil)
	require.Equal(t, http.StatusOK, w.Code)

	count, err = e.store.CountSubscriptions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
