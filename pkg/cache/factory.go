package cache

import "fmt"

// NewCache builds a cache backend from config.
func NewCache(cfg Config) (Cache, error) {
	switch cfg.Type {
	case "", "local":
		return NewLocalCache(), nil
	case "redis":
		return NewRedisCache(cfg.Redis)
	}
	return nil, fmt.Errorf("unknown cache type: %s", cfg.Type)
}
