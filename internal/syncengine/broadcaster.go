package syncengine

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

// RedisBroadcaster publishes Status transitions to the per-user
// "sync:status:<userID>" Redis channel. Any process subscribed to the
// channel can render the same engine's state; it confers no ordering
// guarantee over writes.
type RedisBroadcaster struct {
	client  *redis.Client
	channel string
}

// NewRedisBroadcaster builds a broadcaster for userID. client may be nil, in
// which case Publish is a no-op — useful for local-mode engines that have no
// Redis connection.
func NewRedisBroadcaster(client *redis.Client, userID string) *RedisBroadcaster {
	return &RedisBroadcaster{client: client, channel: "sync:status:" + userID}
}

func (b *RedisBroadcaster) Publish(status Status) {
	if b == nil || b.client == nil {
		return
	}
	data, err := json.Marshal(status)
	if err != nil {
		log.Printf("[Sync] failed to marshal status for broadcast: %v", err)
		return
	}
	if err := b.client.Publish(context.Background(), b.channel, data).Err(); err != nil {
		log.Printf("[Sync] failed to publish status to %s: %v", b.channel, err)
	}
}
