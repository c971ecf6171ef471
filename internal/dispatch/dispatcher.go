package dispatch

import (
	"context"
	"sync"

	"FieldVoice/internal/models"
	"FieldVoice/internal/remote"
	"FieldVoice/pkg/errors"
	"FieldVoice/pkg/logger"
	"FieldVoice/pkg/metrics"
	"FieldVoice/pkg/notification"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultWorkers = 8

// Events receives the result of every run, whatever triggered it. The SSE
// hub satisfies it; nil disables publishing.
type Events interface {
	BroadcastJSON(event string, v interface{})
}

// Dispatcher runs one reminder batch: enumerate subscriptions, deliver to
// each, audit every attempt, prune endpoints that are permanently gone.
// Recipients are independent; one failure never aborts the batch. Only a
// failure of the enumeration itself aborts the run.
type Dispatcher struct {
	store     remote.Store
	transport notification.Transport
	workers   int
	events    Events
}

func New(store remote.Store, transport notification.Transport, workers int, events Events) *Dispatcher {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Dispatcher{store: store, transport: transport, workers: workers, events: events}
}

// Result reports one run.
type Result struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
	Total  int `json:"total"`
}

// Send delivers the payload to the given participants, or to every
// subscribed participant when the list is empty.
func (d *Dispatcher) Send(ctx context.Context, participantIDs []string, payload notification.Payload) (Result, error) {
	subs, err := d.store.ListSubscriptions(ctx, participantIDs)
	if err != nil {
		return Result{}, errors.Wrap(err, "list subscriptions")
	}
	if len(subs) == 0 {
		logger.Info("no subscriptions to remind")
		d.announce(Result{})
		return Result{}, nil
	}

	logger.Info("dispatching reminders",
		zap.Int("subscriptions", len(subs)), zap.String("title", payload.Title))

	var (
		mu     sync.Mutex
		result = Result{Total: len(subs)}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	for _, sub := range subs {
		sub := sub
		g.Go(func() error {
			if d.deliver(gctx, sub, payload) {
				mu.Lock()
				result.Sent++
				mu.Unlock()
			} else {
				mu.Lock()
				result.Failed++
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	logger.Info("reminder run finished",
		zap.Int("sent", result.Sent), zap.Int("failed", result.Failed), zap.Int("total", result.Total))
	d.announce(result)
	return result, nil
}

func (d *Dispatcher) announce(result Result) {
	if d.events != nil {
		d.events.BroadcastJSON("reminder-run", result)
	}
}

// deliver pushes to one subscription and audits the outcome. Returns true on
// a successful delivery.
func (d *Dispatcher) deliver(ctx context.Context, sub models.PushSubscription, payload notification.Payload) bool {
	desc, err := notification.ParseSubscription(sub.SubscriptionJSON)
	if err == nil {
		err = d.transport.Send(ctx, desc, payload)
	}

	if err == nil {
		metrics.RemindersSent.Inc()
		d.audit(ctx, models.NotificationLog{
			ParticipantID: sub.ParticipantID,
			Title:         payload.Title,
			Body:          payload.Body,
			Status:        models.DeliverySent,
		})
		return true
	}

	metrics.RemindersFailed.Inc()
	logger.Warn("reminder delivery failed",
		zap.String("participant", sub.ParticipantID), zap.Error(err))
	d.audit(ctx, models.NotificationLog{
		ParticipantID: sub.ParticipantID,
		Title:         payload.Title,
		Body:          payload.Body,
		Status:        models.DeliveryFailed,
		ErrorMessage:  err.Error(),
	})

	// a gone endpoint would fail on every future run; drop it now
	if errors.IsKind(err, errors.KindEndpointGone) {
		if derr := d.store.DeleteSubscription(ctx, sub.ParticipantID); derr != nil {
			logger.Warn("prune dead subscription failed",
				zap.String("participant", sub.ParticipantID), zap.Error(derr))
		} else {
			metrics.SubscriptionsPruned.Inc()
			logger.Info("pruned dead subscription", zap.String("participant", sub.ParticipantID))
		}
	}
	return false
}

func (d *Dispatcher) audit(ctx context.Context, entry models.NotificationLog) {
	if err := d.store.AppendLog(ctx, entry); err != nil {
		logger.Warn("append notification log failed",
			zap.String("participant", entry.ParticipantID), zap.Error(err))
	}
}
