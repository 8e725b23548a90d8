package broadcast

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher publishes events as JSON to a shared Redis pub/sub
// channel. Every process running a websocket hub subscribes to the same
// channel, so events reach clients of all instances.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher creates a new RedisPublisher.
func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

var _ Publisher = (*RedisPublisher)(nil)

// Publish sends the event to the shared channel. Transport failures are
// logged and swallowed.
func (p *RedisPublisher) Publish(ctx context.Context, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("broadcast: marshal %s event failed: %v", ev.Type, err)
		return
	}
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		log.Printf("broadcast: publish %s event failed: %v", ev.Type, err)
	}
}
