package config

import (
	"FieldVoice/pkg/cache"
	"FieldVoice/pkg/logger"
	"FieldVoice/pkg/notification"
	"FieldVoice/pkg/storage"
	"FieldVoice/pkg/util"
	"log"
	"os"
	"time"
)

type Config struct {
	Addr      string `env:"ADDR"`
	Mode      string `env:"MODE"`
	APIPrefix string `env:"API_PREFIX"`

	DBDriver string `env:"DB_DRIVER"`
	DSN      string `env:"DSN"`

	Log     logger.LogConfig
	Cache   cache.Config
	VAPID   notification.VAPIDConfig
	Storage storage.Config

	// reminder dispatch
	ReminderCron    string `env:"REMINDER_CRON"`
	ReminderTitle   string `env:"REMINDER_TITLE"`
	ReminderBody    string `env:"REMINDER_BODY"`
	DispatchWorkers int    `env:"DISPATCH_WORKERS"`
	RateLimit       string `env:"RATE_LIMIT"`

	// shared secret for device request signing; empty disables verification
	APISecretKey string `env:"API_SECRET_KEY"`

	// device agent
	AgentDBPath   string        `env:"AGENT_DB_PATH"`
	ServerURL     string        `env:"SERVER_URL"`
	ParticipantID string        `env:"PARTICIPANT_ID"`
	ProbeInterval time.Duration `env:"PROBE_INTERVAL_SECONDS"`

	// local queue snapshots on the device; empty path disables them
	BackupPath string `env:"BACKUP_PATH"`
	BackupCron string `env:"BACKUP_CRON"`
}

var GlobalConfig *Config

func Load() error {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	if err := util.LoadEnv(env); err != nil {
		log.Printf("Failed to load .env file: %v", err)
	}

	GlobalConfig = &Config{
		Addr:      util.GetEnvDefault("ADDR", ":3001"),
		Mode:      util.GetEnvDefault("MODE", "debug"),
		APIPrefix: util.GetEnvDefault("API_PREFIX", "/api"),
		DBDriver:  util.GetEnv("DB_DRIVER"),
		DSN:       util.GetEnv("DSN"),
		Log: logger.LogConfig{
			Level:      util.GetEnv("LOG_LEVEL"),
			Filename:   util.GetEnv("LOG_FILENAME"),
			MaxSize:    int(util.GetIntEnv("LOG_MAX_SIZE")),
			MaxAge:     int(util.GetIntEnv("LOG_MAX_AGE")),
			MaxBackups: int(util.GetIntEnv("LOG_MAX_BACKUPS")),
		},
		Cache: cache.Config{
			Type: util.GetEnvDefault("CACHE_TYPE", "local"),
			Redis: cache.RedisConfig{
				Addr:     util.GetEnvDefault("REDIS_ADDR", "localhost:6379"),
				Password: util.GetEnv("REDIS_PASSWORD"),
				DB:       int(util.GetIntEnv("REDIS_DB")),
			},
		},
		VAPID: notification.VAPIDConfig{
			Subject:    util.GetEnvDefault("VAPID_SUBJECT", "mailto:research@example.com"),
			PublicKey:  util.GetEnv("VAPID_PUBLIC_KEY"),
			PrivateKey: util.GetEnv("VAPID_PRIVATE_KEY"),
		},
		Storage: storage.Config{
			Enabled:   util.GetBoolEnv("STORAGE_ENABLED"),
			Endpoint:  util.GetEnv("STORAGE_ENDPOINT"),
			AccessKey: util.GetEnv("STORAGE_ACCESS_KEY"),
			SecretKey: util.GetEnv("STORAGE_SECRET_KEY"),
			Bucket:    util.GetEnvDefault("STORAGE_BUCKET", "fieldvoice-audio"),
			UseSSL:    util.GetBoolEnv("STORAGE_USE_SSL"),
		},
		ReminderCron:    util.GetEnvDefault("REMINDER_CRON", "0 9 * * *"),
		ReminderTitle:   util.GetEnvDefault("REMINDER_TITLE", "Time to Record!"),
		ReminderBody:    util.GetEnvDefault("REMINDER_BODY", "You have sentences waiting to be recorded. Help preserve the language!"),
		DispatchWorkers: int(util.GetIntEnv("DISPATCH_WORKERS")),
		RateLimit:       util.GetEnvDefault("RATE_LIMIT", "60-M"),
		APISecretKey:    util.GetEnv("API_SECRET_KEY"),
		AgentDBPath:     util.GetEnvDefault("AGENT_DB_PATH", "fieldvoice-agent.db"),
		ServerURL:       util.GetEnvDefault("SERVER_URL", "http://localhost:3001"),
		ParticipantID:   util.GetEnv("PARTICIPANT_ID"),
		ProbeInterval:   probeInterval(),
		BackupPath:      util.GetEnv("BACKUP_PATH"),
		BackupCron:      util.GetEnvDefault("BACKUP_CRON", "0 2 * * *"),
	}
	return nil
}

func probeInterval() time.Duration {
	if s := util.GetIntEnv("PROBE_INTERVAL_SECONDS"); s > 0 {
		return time.Duration(s) * time.Second
	}
	return 15 * time.Second
}
