package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RemindersSent counts successful push deliveries.
	RemindersSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fieldvoice_reminders_sent_total",
		Help: "Push reminders delivered successfully.",
	})

	// RemindersFailed counts failed push deliveries.
	RemindersFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fieldvoice_reminders_failed_total",
		Help: "Push reminders that failed to deliver.",
	})

	// SubscriptionsPruned counts subscriptions deleted after a gone endpoint.
	SubscriptionsPruned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fieldvoice_subscriptions_pruned_total",
		Help: "Push subscriptions removed because the endpoint is gone.",
	})

	// SyncUploads counts sync attempts by entity kind and outcome.
	SyncUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fieldvoice_sync_uploads_total",
		Help: "Sync engine upload attempts by kind and outcome.",
	}, []string{"kind", "outcome"})

	// RemoteRejections counts uploads the remote refused permanently. These
	// rows stay pending with no user-facing alert, so operators watch this.
	RemoteRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fieldvoice_remote_rejections_total",
		Help: "Uploads rejected by the remote store as non-retryable.",
	})
)

// Handler exposes the prometheus registry on a gin route.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) { h.ServeHTTP(c.Writer, c.Request) }
}
