package handlers

import (
	"net/http"
	"time"

	"FieldVoice/internal/models"
	"FieldVoice/pkg/errors"
	"FieldVoice/pkg/response"

	"github.com/gin-gonic/gin"
)

// UpsertRecording accepts one synced recording from a device. Replays of the
// same uid land on the existing row.
func (h *Handlers) UpsertRecording(c *gin.Context) {
	var req struct {
		UID           string    `json:"uid"`
		ParticipantID string    `json:"participantId"`
		Dialect       string    `json:"dialect"`
		ModuleID      string    `json:"moduleId"`
		SentenceID    string    `json:"sentenceId"`
		Audio         []byte    `json:"audio"`
		CreatedAt     time.Time `json:"createdAt"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request", nil)
		return
	}
	if req.UID == "" || req.ParticipantID == "" || req.ModuleID == "" || req.SentenceID == "" {
		response.Fail(c, "missing required fields", nil)
		return
	}
	if len(req.Audio) == 0 {
		response.Fail(c, "recording has no audio payload", nil)
		return
	}

	err := h.store.UpsertRecording(c.Request.Context(), models.RemoteRecording{
		UID:           req.UID,
		ParticipantID: req.ParticipantID,
		Dialect:       req.Dialect,
		ModuleID:      req.ModuleID,
		SentenceID:    req.SentenceID,
		Audio:         req.Audio,
		CreatedAt:     req.CreatedAt,
	})
	if err != nil {
		h.syncError(c, err)
		return
	}
	response.Success(c, "recording stored", gin.H{"uid": req.UID})
}

// RecordingAudio serves a stored recording's audio payload for review,
// reading it back from object storage when the row only carries a key.
func (h *Handlers) RecordingAudio(c *gin.Context) {
	data, ok, err := h.store.RecordingAudio(c.Request.Context(), c.Param("uid"))
	if err != nil {
		response.FailWithStatus(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	if !ok {
		response.FailWithStatus(c, http.StatusNotFound, "recording not found", nil)
		return
	}
	c.Data(http.StatusOK, "application/octet-stream", data)
}

// UpsertFeedback accepts one synced feedback entry from a device.
func (h *Handlers) UpsertFeedback(c *gin.Context) {
	var req struct {
		UID            string    `json:"uid"`
		ParticipantID  string    `json:"participantId"`
		ModuleID       string    `json:"moduleId"`
		SentenceID     string    `json:"sentenceId"`
		SentenceNumber int       `json:"sentenceNumber"`
		Correction     string    `json:"correction"`
		CreatedAt      time.Time `json:"createdAt"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request", nil)
		return
	}
	if req.UID == "" || req.ParticipantID == "" || req.ModuleID == "" {
		response.Fail(c, "missing required fields", nil)
		return
	}
	if req.SentenceNumber <= 0 || req.Correction == "" {
		response.Fail(c, "sentenceNumber and correction are required", nil)
		return
	}

	err := h.store.UpsertFeedback(c.Request.Context(), models.RemoteFeedback{
		UID:            req.UID,
		ParticipantID:  req.ParticipantID,
		ModuleID:       req.ModuleID,
		SentenceID:     req.SentenceID,
		SentenceNumber: req.SentenceNumber,
		Correction:     req.Correction,
		CreatedAt:      req.CreatedAt,
	})
	if err != nil {
		h.syncError(c, err)
		return
	}
	response.Success(c, "feedback stored", gin.H{"uid": req.UID})
}

// UpsertSubscription replaces the participant's push descriptor.
func (h *Handlers) UpsertSubscription(c *gin.Context) {
	var req struct {
		ParticipantID    string `json:"participantId"`
		SubscriptionJSON string `json:"subscriptionJson"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request", nil)
		return
	}
	if req.ParticipantID == "" || req.SubscriptionJSON == "" {
		response.Fail(c, "participantId and subscriptionJson are required", nil)
		return
	}
	if err := h.store.UpsertSubscription(c.Request.Context(), req.ParticipantID, req.SubscriptionJSON); err != nil {
		response.FailWithStatus(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	response.Success(c, "subscription saved", nil)
}

// DeleteSubscription removes the participant's push descriptor.
func (h *Handlers) DeleteSubscription(c *gin.Context) {
	participantID := c.Param("participantId")
	if err := h.store.DeleteSubscription(c.Request.Context(), participantID); err != nil {
		response.FailWithStatus(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	response.Success(c, "subscription removed", nil)
}

func (h *Handlers) syncError(c *gin.Context, err error) {
	switch errors.KindOf(err) {
	case errors.KindRemoteRejected:
		response.FailWithStatus(c, http.StatusConflict, err.Error(), nil)
	case errors.KindTransient:
		response.FailWithStatus(c, http.StatusServiceUnavailable, err.Error(), nil)
	default:
		response.FailWithStatus(c, http.StatusInternalServerError, err.Error(), nil)
	}
}
