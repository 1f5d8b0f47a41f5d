package remotestore

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/relentnet/matchops-sync/internal/domain"
)

// settingsCache is the process-cached copy of settings that cuts repeated
// round-trips for the most frequently read singleton. When a Redis client is
// available the cached copy also lives under "settings:<userID>" with the
// same TTL, so sibling processes serving the same user share one copy; with
// no client the cache degrades to in-process only. SaveSettings and
// UpdateSettings invalidate both layers. Redis failures are logged and
// treated as cache misses, never surfaced to the caller.
type settingsCache struct {
	redis *redis.Client
	key   string

	mu        sync.Mutex
	value     *domain.AppSettings
	expiresAt time.Time
}

func newSettingsCache(client *redis.Client, userID string) *settingsCache {
	return &settingsCache{redis: client, key: "settings:" + userID}
}

func (c *settingsCache) get(ctx context.Context) (domain.AppSettings, bool) {
	c.mu.Lock()
	if c.value != nil && time.Now().Before(c.expiresAt) {
		v := *c.value
		c.mu.Unlock()
		return v, true
	}
	c.mu.Unlock()

	if c.redis == nil {
		return domain.AppSettings{}, false
	}
	raw, err := c.redis.Get(ctx, c.key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[RemoteStore] settings cache read failed: %v", err)
		}
		return domain.AppSettings{}, false
	}
	var s domain.AppSettings
	if err := json.Unmarshal(raw, &s); err != nil {
		return domain.AppSettings{}, false
	}
	c.storeLocal(s)
	return s, true
}

func (c *settingsCache) set(ctx context.Context, s domain.AppSettings) {
	c.storeLocal(s)
	if c.redis == nil {
		return
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, c.key, raw, settingsCacheTTL).Err(); err != nil {
		log.Printf("[RemoteStore] settings cache write failed: %v", err)
	}
}

func (c *settingsCache) storeLocal(s domain.AppSettings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := s
	c.value = &v
	c.expiresAt = time.Now().Add(settingsCacheTTL)
}

func (c *settingsCache) invalidate(ctx context.Context) {
	c.mu.Lock()
	c.value = nil
	c.mu.Unlock()
	if c.redis == nil {
		return
	}
	if err := c.redis.Del(ctx, c.key).Err(); err != nil {
		log.Printf("[RemoteStore] settings cache invalidation failed: %v", err)
	}
}
