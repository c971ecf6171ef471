package main

import (
	"context"
	"log"
	"time"

	"FieldVoice/internal/dispatch"
	handlers "FieldVoice/internal/handler"
	"FieldVoice/internal/remote"
	"FieldVoice/pkg/cache"
	"FieldVoice/pkg/config"
	"FieldVoice/pkg/logger"
	"FieldVoice/pkg/metrics"
	"FieldVoice/pkg/middleware"
	"FieldVoice/pkg/notification"
	"FieldVoice/pkg/scheduler"
	"FieldVoice/pkg/sse"
	"FieldVoice/pkg/storage"
	"FieldVoice/pkg/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	if err := config.Load(); err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg := config.GlobalConfig

	logger.Init(cfg.Log)
	defer logger.Sync()

	db, err := util.OpenDatabase(cfg.DBDriver, cfg.DSN, &gorm.Config{})
	if err != nil {
		logger.Error("open database failed", zap.Error(err))
		log.Fatalf("open database: %v", err)
	}

	var blobs storage.BlobStore
	if cfg.Storage.Enabled {
		ms, err := storage.NewMinioStore(cfg.Storage)
		if err != nil {
			logger.Error("object storage unavailable", zap.Error(err))
			log.Fatalf("object storage: %v", err)
		}
		blobs = ms
	}

	store, err := remote.NewGormStore(db, blobs)
	if err != nil {
		logger.Error("migrate remote store failed", zap.Error(err))
		log.Fatalf("migrate: %v", err)
	}

	c, err := cache.NewCache(cfg.Cache)
	if err != nil {
		logger.Error("cache unavailable", zap.Error(err))
		log.Fatalf("cache: %v", err)
	}
	defer c.Close()

	transport := notification.NewWebPush(cfg.VAPID)

	// one hub for every reminder run, HTTP-triggered or cron-triggered
	hub := sse.NewHub(0)
	dispatcher := dispatch.New(store, transport, cfg.DispatchWorkers, hub)

	gin.SetMode(cfg.Mode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLog())

	rateLimit, err := middleware.RateLimit(cfg.RateLimit)
	if err != nil {
		log.Fatalf("rate limit config: %v", err)
	}
	idem := middleware.Idempotency(middleware.IdempotencyConfig{
		TTL:   time.Minute,
		Store: c,
	})

	h := handlers.New(db, store, dispatcher, c, hub)
	h.Register(r, cfg.APIPrefix,
		[]gin.HandlerFunc{rateLimit, middleware.VerifySignature(cfg.APISecretKey)}, idem)
	metrics.RegisterSystemGauges()
	r.GET("/metrics", metrics.Handler())

	cr := scheduler.NewCron(time.Local)
	if _, err := cr.Add(cfg.ReminderCron, scheduler.FuncJob(func(ctx context.Context) {
		result, err := dispatcher.Send(ctx, nil, notification.Payload{
			Title: cfg.ReminderTitle,
			Body:  cfg.ReminderBody,
		})
		if err != nil {
			logger.Error("daily reminder run failed", zap.Error(err))
			return
		}
		logger.Info("daily reminder run finished",
			zap.Int("sent", result.Sent), zap.Int("failed", result.Failed), zap.Int("total", result.Total))
	})); err != nil {
		log.Fatalf("schedule daily reminder: %v", err)
	}
	cr.Start()
	defer cr.Stop()

	logger.Info("fieldvoice server listening",
		zap.String("addr", cfg.Addr), zap.String("reminderCron", cfg.ReminderCron))
	if err := r.Run(cfg.Addr); err != nil {
		logger.Error("server stopped", zap.Error(err))
		log.Fatalf("server: %v", err)
	}
}
