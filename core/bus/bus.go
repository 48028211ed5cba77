package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Envelope wraps a published payload with delivery bookkeeping.
// Attempt counts deliveries so poisoned messages eventually stop cycling.
type Envelope struct {
	ID      string          `json:"id"`
	Topic   string          `json:"topic"`
	Attempt int             `json:"attempt"`
	Payload json.RawMessage `json:"payload"`
}

// Handler processes the payload of one delivered message. Returning an error
// re-queues the envelope for another delivery attempt, so handlers must be
// idempotent.
type Handler func(ctx context.Context, payload []byte) error

// Bus is an at-least-once message queue built on Redis lists. Each topic is
// one list; publishers RPUSH JSON envelopes and subscribers BLPOP them.
type Bus struct {
	rdb    *redis.Client
	cfg    Config
	logger *zap.Logger
}

// New connects to Redis and verifies the connection.
func New(cfg Config, logger *zap.Logger) (*Bus, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	if cfg.PollSeconds <= 0 {
		cfg.PollSeconds = 5
	}
	if cfg.MaxDeliveries <= 0 {
		cfg.MaxDeliveries = 5
	}

	return &Bus{rdb: rdb, cfg: cfg, logger: logger}, nil
}

// NewWithClient wraps an existing Redis client. Used by tests.
func NewWithClient(rdb *redis.Client, cfg Config, logger *zap.Logger) *Bus {
	if cfg.PollSeconds <= 0 {
		cfg.PollSeconds = 1
	}
	if cfg.MaxDeliveries <= 0 {
		cfg.MaxDeliveries = 5
	}
	return &Bus{rdb: rdb, cfg: cfg, logger: logger}
}

// Close releases the underlying Redis connection.
func (b *Bus) Close() error {
	return b.rdb.Close()
}

func queueKey(topic string) string {
	return "bus:" + topic
}

func deadLetterKey(topic string) string {
	return "bus:" + topic + ":dead"
}

// Publish serializes the payload and appends it to the topic's queue.
func (b *Bus) Publish(ctx context.Context, topic string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload for topic %s: %w", topic, err)
	}

	env := Envelope{
		ID:      uuid.New().String(),
		Topic:   topic,
		Attempt: 1,
		Payload: raw,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	if err := b.rdb.RPush(ctx, queueKey(topic), data).Err(); err != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, err)
	}

	b.logger.Info("Published message",
		zap.String("topic", topic),
		zap.String("message_id", env.ID))
	return nil
}

// Subscribe blocks, delivering messages from the topic to the handler until
// the context is cancelled. A handler error re-queues the envelope with an
// incremented attempt count; envelopes that exhaust MaxDeliveries are moved
// to the topic's dead-letter list.
func (b *Bus) Subscribe(ctx context.Context, topic string, handler Handler) error {
	poll := time.Duration(b.cfg.PollSeconds) * time.Second
	b.logger.Info("Subscribed to topic", zap.String("topic", topic))

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		res, err := b.rdb.BLPop(ctx, poll, queueKey(topic)).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			b.logger.Warn("Queue pop failed, retrying",
				zap.String("topic", topic), zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		// BLPop returns [key, value].
		b.dispatch(ctx, topic, []byte(res[1]), handler)
	}
}

func (b *Bus) dispatch(ctx context.Context, topic string, data []byte, handler Handler) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		b.logger.Error("Dropping undecodable envelope",
			zap.String("topic", topic), zap.Error(err))
		return
	}

	l := b.logger.With(
		zap.String("topic", topic),
		zap.String("message_id", env.ID),
		zap.Int("attempt", env.Attempt))

	if err := handler(ctx, env.Payload); err != nil {
		l.Error("Handler failed", zap.Error(err))
		b.requeue(ctx, topic, env)
		return
	}
	l.Info("Message processed")
}

func (b *Bus) requeue(ctx context.Context, topic string, env Envelope) {
	env.Attempt++
	data, err := json.Marshal(env)
	if err != nil {
		b.logger.Error("Failed to re-marshal envelope", zap.Error(err))
		return
	}

	key := queueKey(topic)
	if env.Attempt > b.cfg.MaxDeliveries {
		key = deadLetterKey(topic)
		b.logger.Error("Message exhausted deliveries, parking on dead-letter list",
			zap.String("topic", topic),
			zap.String("message_id", env.ID),
			zap.Int("attempts", env.Attempt-1))
	}

	if err := b.rdb.RPush(ctx, key, data).Err(); err != nil {
		b.logger.Error("Failed to re-queue message",
			zap.String("topic", topic),
			zap.String("message_id", env.ID),
			zap.Error(err))
	}
}

// DeadLetters returns the envelopes parked on the topic's dead-letter list.
func (b *Bus) DeadLetters(ctx context.Context, topic string) ([]Envelope, error) {
	items, err := b.rdb.LRange(ctx, deadLetterKey(topic), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read dead-letter list for %s: %w", topic, err)
	}

	envs := make([]Envelope, 0, len(items))
	for _, item := range items {
		var env Envelope
		if err := json.Unmarshal([]byte(item), &env); err != nil {
			continue
		}
		envs = append(envs, env)
	}
	return envs, nil
}
