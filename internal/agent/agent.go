package agent

import (
	"context"
	"time"

	"FieldVoice/internal/connectivity"
	"FieldVoice/internal/models"
	"FieldVoice/internal/store"
	"FieldVoice/internal/syncer"
	"FieldVoice/pkg/errors"
	"FieldVoice/pkg/scheduler"
)

// Agent is the device-side coordinator: it owns the submit flows, feeds the
// sync engine from connectivity transitions, and carries the participant
// identity explicitly into every operation.
type Agent struct {
	participantID string
	store         *store.LocalStore
	engine        *syncer.Engine
	monitor       *connectivity.Monitor
}

func New(participantID string, st *store.LocalStore, engine *syncer.Engine, monitor *connectivity.Monitor) *Agent {
	return &Agent{participantID: participantID, store: st, engine: engine, monitor: monitor}
}

// Start registers the drain handler and begins connectivity probing. The
// monitor fires one unconditional drain at startup, then one per
// offline-to-online edge.
func (a *Agent) Start(ctx context.Context, sched *scheduler.Scheduler, probeInterval time.Duration) {
	a.monitor.OnOnline(func(ctx context.Context) {
		a.engine.Drain(ctx, a.participantID)
	})
	a.monitor.Start(ctx, sched, probeInterval)
}

// SubmitRecording queues one recording. A sentence is completed once any
// recording exists for it, synced or not; re-recording is refused here, in
// the owning flow, not by the store.
func (a *Agent) SubmitRecording(ctx context.Context, dialect, moduleID, sentenceID string, audio []byte) error {
	done, err := a.store.HasRecording(a.participantID, moduleID, sentenceID)
	if err != nil {
		return err
	}
	if done {
		return errors.WithKindf(errors.KindValidation,
			"sentence %s already recorded for module %s", sentenceID, moduleID)
	}

	rec := models.Recording{
		ParticipantID: a.participantID,
		Dialect:       dialect,
		ModuleID:      moduleID,
		SentenceID:    sentenceID,
		Audio:         audio,
	}
	if err := a.store.AppendRecording(&rec); err != nil {
		return err
	}

	// submit-while-online syncs immediately; offline leaves it queued
	if a.monitor.Online() {
		a.engine.Drain(ctx, a.participantID)
	}
	return nil
}

// SubmitFeedback queues one correction.
func (a *Agent) SubmitFeedback(ctx context.Context, moduleID, sentenceID string, sentenceNumber int, correction string) error {
	fb := models.Feedback{
		ParticipantID:  a.participantID,
		ModuleID:       moduleID,
		SentenceID:     sentenceID,
		SentenceNumber: sentenceNumber,
		Correction:     correction,
	}
	if err := a.store.AppendFeedback(&fb); err != nil {
		return err
	}
	if a.monitor.Online() {
		a.engine.Drain(ctx, a.participantID)
	}
	return nil
}

// CompletedSentences lists the recorded sentenceIds of a module for
// progress display.
func (a *Agent) CompletedSentences(moduleID string) ([]string, error) {
	return a.store.CompletedSentences(a.participantID, moduleID)
}

// PendingCount reports how many entities still wait for upload.
func (a *Agent) PendingCount() (int, error) {
	recs, err := a.store.Recordings(store.RecordingFilter{
		ParticipantID: a.participantID, Status: models.StatusPending,
	})
	if err != nil {
		return 0, err
	}
	fbs, err := a.store.Feedback(store.FeedbackFilter{
		ParticipantID: a.participantID, Status: models.StatusPending,
	})
	if err != nil {
		return 0, err
	}
	return len(recs) + len(fbs), nil
}
