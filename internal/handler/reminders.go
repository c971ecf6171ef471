package handlers

import (
	"net/http"
	"time"

	"FieldVoice/pkg/logger"
	"FieldVoice/pkg/notification"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const logLimit = 50

// subscription count changes slowly; cache it briefly
const countCacheKey = "subscriptions:count"
const countCacheTTL = 30 * time.Second

// SendReminder pushes a {title, body} payload to the listed participants,
// or to everyone subscribed when the list is empty.
func (h *Handlers) SendReminder(c *gin.Context) {
	var req struct {
		ParticipantIDs []string `json:"participantIds"`
		Title          string   `json:"title"`
		Body           string   `json:"body"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Title == "" || req.Body == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields: title and body"})
		return
	}

	result, err := h.dispatcher.Send(c.Request.Context(), req.ParticipantIDs, notification.Payload{
		Title: req.Title,
		Body:  req.Body,
	})
	if err != nil {
		logger.Error("reminder run aborted", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"sent":    result.Sent,
		"failed":  result.Failed,
		"total":   result.Total,
	})
}

// SubscriptionCount reports how many participants are subscribed.
func (h *Handlers) SubscriptionCount(c *gin.Context) {
	if h.cache != nil {
		if v, ok := h.cache.Get(c.Request.Context(), countCacheKey); ok {
			if count, ok := v.(int); ok {
				c.JSON(http.StatusOK, gin.H{
					"subscribedUsers": count,
					"timestamp":       time.Now().UTC().Format(time.RFC3339),
				})
				return
			}
		}
	}

	count, err := h.store.CountSubscriptions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if h.cache != nil {
		_ = h.cache.Set(c.Request.Context(), countCacheKey, count, countCacheTTL)
	}
	c.JSON(http.StatusOK, gin.H{
		"subscribedUsers": count,
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
	})
}

// NotificationLogs returns the newest delivery attempts, capped at 50.
func (h *Handlers) NotificationLogs(c *gin.Context) {
	logs, err := h.store.RecentLogs(c.Request.Context(), logLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":     len(logs),
		"logs":      logs,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
