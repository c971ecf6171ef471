package syncer

import (
	"context"
	"sync"

	"FieldVoice/internal/models"
	"FieldVoice/internal/store"
	"FieldVoice/pkg/errors"
	"FieldVoice/pkg/logger"
	"FieldVoice/pkg/metrics"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Uploader is the slice of the remote store the engine needs. Uploads must be
// idempotent: resending the same entity lands on the same remote row.
type Uploader interface {
	UploadRecording(ctx context.Context, rec models.Recording) error
	UploadFeedback(ctx context.Context, fb models.Feedback) error
}

// Engine drains pending local entities to the remote store. Drain is
// re-entrant: overlapping calls skip entities another call is working on,
// and an entity already synced is never re-sent.
type Engine struct {
	store  *store.LocalStore
	remote Uploader

	mu       sync.Mutex
	inflight map[string]bool
}

func New(st *store.LocalStore, remote Uploader) *Engine {
	return &Engine{store: st, remote: remote, inflight: make(map[string]bool)}
}

// Result summarizes one drain pass.
type Result struct {
	Uploaded int
	Failed   int
	Skipped  int
}

func (r *Result) add(o Result) {
	r.Uploaded += o.Uploaded
	r.Failed += o.Failed
	r.Skipped += o.Skipped
}

// Drain uploads every pending recording and feedback entry for the
// participant, in insertion order per kind. A failed upload leaves the entity
// pending for the next trigger; nothing is retried within one pass, and no
// error escapes to the caller.
func (e *Engine) Drain(ctx context.Context, participantID string) Result {
	var (
		resMu sync.Mutex
		total Result
	)

	// kinds target disjoint remote tables, so they drain independently
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r := e.drainRecordings(ctx, participantID)
		resMu.Lock()
		total.add(r)
		resMu.Unlock()
		return nil
	})
	g.Go(func() error {
		r := e.drainFeedback(ctx, participantID)
		resMu.Lock()
		total.add(r)
		resMu.Unlock()
		return nil
	})
	_ = g.Wait()

	if total.Uploaded > 0 || total.Failed > 0 {
		logger.Info("sync drain finished",
			zap.String("participant", participantID),
			zap.Int("uploaded", total.Uploaded),
			zap.Int("failed", total.Failed),
			zap.Int("skipped", total.Skipped))
	}
	return total
}

func (e *Engine) drainRecordings(ctx context.Context, participantID string) Result {
	var res Result
	pending, err := e.store.Recordings(store.RecordingFilter{
		ParticipantID: participantID,
		Status:        models.StatusPending,
	})
	if err != nil {
		logger.Error("list pending recordings failed", zap.Error(err))
		return res
	}

	for _, rec := range pending {
		key := "recording:" + rec.UID
		if !e.claim(key) {
			res.Skipped++
			continue
		}
		e.uploadRecording(ctx, rec, &res)
		e.release(key)
	}
	return res
}

func (e *Engine) uploadRecording(ctx context.Context, rec models.Recording, res *Result) {
	// a concurrent drain may have finished this one while we were queued
	current, err := e.store.Recordings(store.RecordingFilter{
		ParticipantID: rec.ParticipantID,
		ModuleID:      rec.ModuleID,
		SentenceID:    rec.SentenceID,
	})
	if err == nil {
		for _, row := range current {
			if row.ID == rec.ID && row.Status == models.StatusSynced {
				res.Skipped++
				return
			}
		}
	}

	if err := e.remote.UploadRecording(ctx, rec); err != nil {
		e.recordFailure("recording", rec.UID, err)
		res.Failed++
		return
	}
	// remote write first, local flip second: a crash here leaves the row
	// pending, and the next drain resends against the same remote UID
	if err := e.store.UpdateRecordingStatus(rec.ID, models.StatusSynced); err != nil {
		logger.Error("mark recording synced failed", zap.String("uid", rec.UID), zap.Error(err))
		res.Failed++
		return
	}
	metrics.SyncUploads.WithLabelValues("recording", "success").Inc()
	res.Uploaded++
}

func (e *Engine) drainFeedback(ctx context.Context, participantID string) Result {
	var res Result
	pending, err := e.store.Feedback(store.FeedbackFilter{
		ParticipantID: participantID,
		Status:        models.StatusPending,
	})
	if err != nil {
		logger.Error("list pending feedback failed", zap.Error(err))
		return res
	}

	for _, fb := range pending {
		key := "feedback:" + fb.UID
		if !e.claim(key) {
			res.Skipped++
			continue
		}
		e.uploadFeedback(ctx, fb, &res)
		e.release(key)
	}
	return res
}

func (e *Engine) uploadFeedback(ctx context.Context, fb models.Feedback, res *Result) {
	current, err := e.store.Feedback(store.FeedbackFilter{
		ParticipantID:  fb.ParticipantID,
		ModuleID:       fb.ModuleID,
		SentenceNumber: fb.SentenceNumber,
	})
	if err == nil {
		for _, row := range current {
			if row.ID == fb.ID && row.Status == models.StatusSynced {
				res.Skipped++
				return
			}
		}
	}

	if err := e.remote.UploadFeedback(ctx, fb); err != nil {
		e.recordFailure("feedback", fb.UID, err)
		res.Failed++
		return
	}
	if err := e.store.UpdateFeedbackStatus(fb.ID, models.StatusSynced); err != nil {
		logger.Error("mark feedback synced failed", zap.String("uid", fb.UID), zap.Error(err))
		res.Failed++
		return
	}
	metrics.SyncUploads.WithLabelValues("feedback", "success").Inc()
	res.Uploaded++
}

func (e *Engine) recordFailure(kind, uid string, err error) {
	metrics.SyncUploads.WithLabelValues(kind, "failure").Inc()
	if errors.IsKind(err, errors.KindRemoteRejected) {
		// stays pending with no retry path of its own; operators watch the counter
		metrics.RemoteRejections.Inc()
		logger.Warn("remote rejected upload", zap.String("kind", kind), zap.String("uid", uid), zap.Error(err))
		return
	}
	logger.Info("upload failed, will retry on next trigger",
		zap.String("kind", kind), zap.String("uid", uid), zap.Error(err))
}

func (e *Engine) claim(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inflight[key] {
		return false
	}
	e.inflight[key] = true
	return true
}

func (e *Engine) release(key string) {
	e.mu.Lock()
	delete(e.inflight, key)
	e.mu.Unlock()
}
