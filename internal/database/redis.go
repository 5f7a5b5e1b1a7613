package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClients holds two connections: Queue carries job queues, refresh
// tokens and caches; PubSub is dedicated to websocket fan-out so blocking
// subscriptions never starve queue commands.
type RedisClients struct {
	Queue  *redis.Client
	PubSub *redis.Client
}

func NewRedisClients(redisURL string) (*RedisClients, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	queueClient, err := dial(opt, "queue")
	if err != nil {
		return nil, err
	}

	pubsubClient, err := dial(opt, "pubsub")
	if err != nil {
		queueClient.Close()
		return nil, err
	}

	return &RedisClients{Queue: queueClient, PubSub: pubsubClient}, nil
}

func dial(opt *redis.Options, name string) (*redis.Client, error) {
	o := *opt
	client := redis.NewClient(&o)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis (%s): %w", name, err)
	}
	return client, nil
}

func (r *RedisClients) Close() {
	r.Queue.Close()
	r.PubSub.Close()
}
