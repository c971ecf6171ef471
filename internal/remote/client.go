package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"FieldVoice/internal/models"
	"FieldVoice/pkg/errors"
	"FieldVoice/pkg/middleware"
)

// Client is the device-side HTTP client for the remote store API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	secret     string
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "http://127.0.0.1:3001"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

// SetSecret enables request signing with the server's shared secret.
func (c *Client) SetSecret(secret string) { c.secret = secret }

func (c *Client) sign(req *http.Request, body []byte) {
	if c.secret == "" {
		return
	}
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	req.Header.Set("X-Timestamp", ts)
	req.Header.Set("X-Signature",
		middleware.Sign(c.secret, req.Method, req.URL.Path, ts, body))
}

// recordingUpload mirrors the local entity on the wire; audio travels
// base64-encoded by encoding/json.
type recordingUpload struct {
	UID           string    `json:"uid"`
	ParticipantID string    `json:"participantId"`
	Dialect       string    `json:"dialect"`
	ModuleID      string    `json:"moduleId"`
	SentenceID    string    `json:"sentenceId"`
	Audio         []byte    `json:"audio"`
	CreatedAt     time.Time `json:"createdAt"`
}

type feedbackUpload struct {
	UID            string    `json:"uid"`
	ParticipantID  string    `json:"participantId"`
	ModuleID       string    `json:"moduleId"`
	SentenceID     string    `json:"sentenceId,omitempty"`
	SentenceNumber int       `json:"sentenceNumber"`
	Correction     string    `json:"correction"`
	CreatedAt      time.Time `json:"createdAt"`
}

type subscriptionUpload struct {
	ParticipantID    string `json:"participantId"`
	SubscriptionJSON string `json:"subscriptionJson"`
}

// UploadRecording sends one recording. The remote dedups on UID, so resending
// after a lost response is safe.
func (c *Client) UploadRecording(ctx context.Context, rec models.Recording) error {
	return c.post(ctx, "/api/recordings", recordingUpload{
		UID:           rec.UID,
		ParticipantID: rec.ParticipantID,
		Dialect:       rec.Dialect,
		ModuleID:      rec.ModuleID,
		SentenceID:    rec.SentenceID,
		Audio:         rec.Audio,
		CreatedAt:     rec.CreatedAt,
	})
}

// UploadFeedback sends one feedback entry.
func (c *Client) UploadFeedback(ctx context.Context, fb models.Feedback) error {
	return c.post(ctx, "/api/feedback", feedbackUpload{
		UID:            fb.UID,
		ParticipantID:  fb.ParticipantID,
		ModuleID:       fb.ModuleID,
		SentenceID:     fb.SentenceID,
		SentenceNumber: fb.SentenceNumber,
		Correction:     fb.Correction,
		CreatedAt:      fb.CreatedAt,
	})
}

// SaveSubscription upserts the participant's push descriptor.
func (c *Client) SaveSubscription(ctx context.Context, participantID, subscriptionJSON string) error {
	return c.post(ctx, "/api/subscriptions", subscriptionUpload{
		ParticipantID:    participantID,
		SubscriptionJSON: subscriptionJSON,
	})
}

// RemoveSubscription deletes the participant's push descriptor.
func (c *Client) RemoveSubscription(ctx context.Context, participantID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+"/api/subscriptions/"+url.PathEscape(participantID), nil)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	c.sign(req, nil)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.WrapKind(err, errors.KindTransient, "remote unreachable")
	}
	defer resp.Body.Close()
	return statusError(resp.StatusCode)
}

// Ping probes remote reachability. The connectivity monitor uses this as its
// platform signal.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.WrapKind(err, errors.KindTransient, "remote unreachable")
	}
	defer resp.Body.Close()
	return statusError(resp.StatusCode)
}

func (c *Client) post(ctx context.Context, path string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "encode request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	c.sign(req, payload)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.WrapKind(err, errors.KindTransient, "remote unreachable")
	}
	defer resp.Body.Close()
	return statusError(resp.StatusCode)
}

func statusError(code int) error {
	switch {
	case code < 300:
		return nil
	case code >= 500:
		return errors.WithKindf(errors.KindTransient, "remote returned status %d", code)
	default:
		return errors.WithKind(errors.KindRemoteRejected, fmt.Sprintf("remote refused request (status %d)", code))
	}
}
