package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"FieldVoice/internal/agent"
	"FieldVoice/internal/connectivity"
	"FieldVoice/internal/remote"
	"FieldVoice/internal/store"
	"FieldVoice/internal/subscribe"
	"FieldVoice/internal/syncer"
	"FieldVoice/pkg/backup"
	"FieldVoice/pkg/config"
	"FieldVoice/pkg/logger"
	"FieldVoice/pkg/scheduler"
	"FieldVoice/pkg/util"

	"go.uber.org/zap"
)

// The agent is the device side: it queues recordings and feedback in a local
// sqlite file, drains them to the server whenever connectivity allows, and
// registers this device's push subscription.
func main() {
	var (
		recordModule   = flag.String("record-module", "", "module id to record a sentence for")
		recordSentence = flag.String("record-sentence", "", "sentence id to record")
		dialect        = flag.String("dialect", "yasin", "dialect spoken (yasin or hunza)")
		audioFile      = flag.String("audio", "", "path to the captured audio file")
		fbModule       = flag.String("feedback-module", "", "module id to leave feedback on")
		fbNumber       = flag.Int("feedback-number", 0, "sentence number the correction refers to")
		fbText         = flag.String("feedback-text", "", "correction text")
		unregister     = flag.Bool("unregister", false, "remove this device's push subscription and exit")
	)
	flag.Parse()

	if err := config.Load(); err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg := config.GlobalConfig
	if cfg.ParticipantID == "" {
		log.Fatal("PARTICIPANT_ID is required")
	}

	logger.Init(cfg.Log)
	defer logger.Sync()

	local, err := store.Open(cfg.AgentDBPath)
	if err != nil {
		log.Fatalf("open local queue: %v", err)
	}
	defer local.Close()

	client := remote.NewClient(cfg.ServerURL, nil)
	client.SetSecret(cfg.APISecretKey)
	engine := syncer.New(local, client)
	monitor := connectivity.NewMonitor(client)
	a := agent.New(cfg.ParticipantID, local, engine, monitor)

	platform := &subscribe.FilePlatform{Path: util.GetEnv("SUBSCRIPTION_FILE")}
	manager := subscribe.NewManager(platform, client)

	ctx := context.Background()

	if *unregister {
		manager.Unregister(ctx, cfg.ParticipantID)
		return
	}

	sched := scheduler.New()
	defer sched.Stop()
	a.Start(ctx, sched, cfg.ProbeInterval)

	if _, err := manager.Register(ctx, cfg.ParticipantID); err != nil {
		logger.Warn("push registration failed", zap.Error(err))
	}

	// one-shot submit modes
	if *recordModule != "" && *recordSentence != "" {
		audio, err := os.ReadFile(*audioFile)
		if err != nil {
			log.Fatalf("read audio: %v", err)
		}
		if err := a.SubmitRecording(ctx, *dialect, *recordModule, *recordSentence, audio); err != nil {
			log.Fatalf("submit recording: %v", err)
		}
		reportPending(a)
		return
	}
	if *fbModule != "" {
		if err := a.SubmitFeedback(ctx, *fbModule, "", *fbNumber, *fbText); err != nil {
			log.Fatalf("submit feedback: %v", err)
		}
		reportPending(a)
		return
	}

	if cfg.BackupPath != "" {
		cr := scheduler.NewCron(time.Local)
		snap := backup.NewSnapshotter(cfg.AgentDBPath, cfg.BackupPath)
		if err := snap.Schedule(cr, cfg.BackupCron); err != nil {
			log.Fatalf("schedule queue snapshots: %v", err)
		}
		cr.Start()
		defer cr.Stop()
	}

	logger.Info("fieldvoice agent running",
		zap.String("participant", cfg.ParticipantID), zap.String("server", cfg.ServerURL))

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
}

func reportPending(a *agent.Agent) {
	pending, err := a.PendingCount()
	if err != nil {
		logger.Warn("pending count failed", zap.Error(err))
		return
	}
	logger.Info("submission queued", zap.Int("pending", pending))
}
