package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wodoo-app/subscription-service/pkg/logger"
)

const (
	webhookEventKeyPrefix = "webhook_event:"

	// Processed event ids are kept long enough to cover provider replay
	// windows.
	defaultEventTTL = 72 * time.Hour
)

// EventDeduper records processed webhook event ids so replayed provider
// callbacks become no-ops.
type EventDeduper interface {
	// MarkProcessed records the event id. Returns false when the id was
	// already recorded.
	MarkProcessed(ctx context.Context, eventID string) (bool, error)
}

// RedisEventDeduper implements EventDeduper on Redis using SET NX with a TTL
type RedisEventDeduper struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewRedisEventDeduper creates a new Redis-backed event deduper
func NewRedisEventDeduper(redisAddr, redisPassword string, redisDB int, log *logger.Logger) (*RedisEventDeduper, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       redisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Errorw("Failed to connect to Redis", "error", err)
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Infow("Connected to Redis successfully", "addr", redisAddr)
	return &RedisEventDeduper{
		client: client,
		ttl:    defaultEventTTL,
		log:    log,
	}, nil
}

// Close closes the Redis connection
func (r *RedisEventDeduper) Close() error {
	return r.client.Close()
}

// MarkProcessed records the event id atomically
func (r *RedisEventDeduper) MarkProcessed(ctx context.Context, eventID string) (bool, error) {
	key := fmt.Sprintf("%s%s", webhookEventKeyPrefix, eventID)

	ok, err := r.client.SetNX(ctx, key, 1, r.ttl).Result()
	if err != nil {
		r.log.Errorw("Failed to record webhook event id in Redis", "error", err, "eventID", eventID)
		return false, fmt.Errorf("failed to record event id: %w", err)
	}

	if !ok {
		r.log.Debugw("Webhook event id already processed", "eventID", eventID)
	}
	return ok, nil
}

// InMemoryEventDeduper implements EventDeduper on a map, for tests and
// single-process dev mode
type InMemoryEventDeduper struct {
	seen  map[string]struct{}
	mutex sync.Mutex
}

// NewInMemoryEventDeduper creates a new in-memory event deduper
func NewInMemoryEventDeduper() *InMemoryEventDeduper {
	return &InMemoryEventDeduper{seen: make(map[string]struct{})}
}

// MarkProcessed records the event id
func (d *InMemoryEventDeduper) MarkProcessed(ctx context.Context, eventID string) (bool, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if _, exists := d.seen[eventID]; exists {
		return false, nil
	}
	d.seen[eventID] = struct{}{}
	return true, nil
}
