package cache

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const localCacheSize = 4096

type localItem struct {
	value      interface{}
	expiration time.Time
}

// localCache backs the Cache interface with a size-bounded in-process LRU.
// Expired entries are dropped lazily on access; the oldest entries are
// evicted once the bound is hit.
type localCache struct {
	c  *lru.Cache[string, localItem]
	mu sync.Mutex // serializes SetNX check-then-set
}

func NewLocalCache() Cache {
	return newLocalCache(localCacheSize)
}

func newLocalCache(size int) *localCache {
	c, _ := lru.New[string, localItem](size)
	return &localCache{c: c}
}

func (lc *localCache) Get(ctx context.Context, key string) (interface{}, bool) {
	item, ok := lc.c.Get(key)
	if !ok {
		return nil, false
	}
	if !item.expiration.IsZero() && time.Now().After(item.expiration) {
		lc.c.Remove(key)
		return nil, false
	}
	return item.value, true
}

func (lc *localCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	var exp time.Time
	if expiration > 0 {
		exp = time.Now().Add(expiration)
	}
	lc.c.Add(key, localItem{value: value, expiration: exp})
	return nil
}

func (lc *localCache) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	if _, ok := lc.Get(ctx, key); ok {
		return false, nil
	}
	return true, lc.Set(ctx, key, value, expiration)
}

func (lc *localCache) Delete(ctx context.Context, key string) error {
	lc.c.Remove(key)
	return nil
}

func (lc *localCache) Close() error {
	lc.c.Purge()
	return nil
}
