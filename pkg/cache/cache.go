package cache

import (
	"context"
	"time"
)

// Cache is the small TTL key-value surface the service needs: counters are
// cached briefly and the idempotency middleware claims keys with SetNX.
type Cache interface {
	Get(ctx context.Context, key string) (interface{}, bool)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error

	// SetNX claims the key if absent. Returns true when the claim succeeded.
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)

	Delete(ctx context.Context, key string) error
	Close() error
}

type Config struct {
	// "local" or "redis"
	Type  string      `json:"type" yaml:"type" env:"CACHE_TYPE"`
	Redis RedisConfig `json:"redis" yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `json:"addr" yaml:"addr" env:"REDIS_ADDR"`
	Password string `json:"password" yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `json:"db" yaml:"db" env:"REDIS_DB"`
}
