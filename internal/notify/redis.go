package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultQueue is the Redis list that mail workers drain.
const DefaultQueue = "dwharchitect:mail"

// RedisConfig holds connection settings for the Redis outbox.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Queue    string
}

// RedisNotifier pushes messages onto a Redis list as JSON.
type RedisNotifier struct {
	client *redis.Client
	queue  string
}

// NewRedisNotifier connects to Redis with the given settings.
func NewRedisNotifier(cfg RedisConfig) *RedisNotifier {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	queue := cfg.Queue
	if queue == "" {
		queue = DefaultQueue
	}
	return &RedisNotifier{client: client, queue: queue}
}

func (n *RedisNotifier) Send(ctx context.Context, msg Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}
	if err := n.client.LPush(ctx, n.queue, payload).Err(); err != nil {
		return fmt.Errorf("queueing %s message: %w", msg.Kind, err)
	}
	return nil
}

// Ping checks Redis connectivity.
func (n *RedisNotifier) Ping(ctx context.Context) error {
	return n.client.Ping(ctx).Err()
}

// Close releases the Redis connection pool.
func (n *RedisNotifier) Close() error {
	return n.client.Close()
}
