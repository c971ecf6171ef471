package handlers

import (
	"net/http"
	"time"

	"FieldVoice/internal/dispatch"
	"FieldVoice/internal/remote"
	"FieldVoice/pkg/cache"
	"FieldVoice/pkg/sse"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Handlers owns the HTTP surface of the reminder/remote-store service.
type Handlers struct {
	db         *gorm.DB
	store      remote.Store
	dispatcher *dispatch.Dispatcher
	cache      cache.Cache
	events     *sse.Hub
}

// New wires the handler set. events is the hub every reminder run is
// published on; the caller shares it with the dispatcher so cron-triggered
// runs reach /events subscribers too.
func New(db *gorm.DB, store remote.Store, dispatcher *dispatch.Dispatcher, c cache.Cache, events *sse.Hub) *Handlers {
	return &Handlers{db: db, store: store, dispatcher: dispatcher, cache: c, events: events}
}

// Register wires all routes. apiMiddleware guards the whole API group;
// reminderMiddleware guards only the reminder trigger. Device uploads are
// replay-safe through their UID upserts and must not sit behind a
// body-dedup guard.
func (h *Handlers) Register(r *gin.Engine, apiPrefix string, apiMiddleware []gin.HandlerFunc, reminderMiddleware ...gin.HandlerFunc) {
	r.GET("/", h.Banner)
	r.GET("/health", h.HealthCheck)

	api := r.Group(apiPrefix)
	api.Use(apiMiddleware...)
	api.POST("/send-reminder", append(reminderMiddleware, h.SendReminder)...)
	api.GET("/subscriptions", h.SubscriptionCount)
	api.GET("/notification-logs", h.NotificationLogs)
	api.GET("/events", h.Events)
	api.POST("/recordings", h.UpsertRecording)
	api.GET("/recordings/:uid/audio", h.RecordingAudio)
	api.POST("/feedback", h.UpsertFeedback)
	api.POST("/subscriptions", h.UpsertSubscription)
	api.DELETE("/subscriptions/:participantId", h.DeleteSubscription)
}

// Banner lists the service endpoints.
func (h *Handlers) Banner(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"endpoints": gin.H{
			"health":        "GET /health",
			"sendReminder":  "POST /api/send-reminder",
			"subscriptions": "GET /api/subscriptions",
			"logs":          "GET /api/notification-logs",
		},
	})
}

// Events streams reminder-run results to operator dashboards.
func (h *Handlers) Events(c *gin.Context) {
	h.events.Serve(c, uuid.NewString())
}

// HealthCheck pings the database.
func (h *Handlers) HealthCheck(c *gin.Context) {
	sqlDB, err := h.db.DB()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "database connection failed"})
		return
	}
	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "database ping failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now().UTC().Format(time.RFC3339)})
}
