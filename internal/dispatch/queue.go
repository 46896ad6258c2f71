package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"scribe/internal/config"
)

// Queue is a thin client over the Redis list that carries dispatch messages
// from the producer to worker processes. Delivery is at-least-once and
// unordered across jobs; deduplication is the worker engine's problem.
type Queue struct {
	client *redis.Client
	key    string
}

// New connects a queue client using broker configuration.
func New(cfg *config.Config) *Queue {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Broker.Addr,
		Password: cfg.Broker.Password,
		DB:       cfg.Broker.DB,
	})
	return &Queue{client: client, key: cfg.Broker.Queue}
}

// Close releases the underlying Redis connection.
func (q *Queue) Close() error {
	if q == nil || q.client == nil {
		return nil
	}
	return q.client.Close()
}

// Ping verifies broker connectivity.
func (q *Queue) Ping(ctx context.Context) error {
	if err := q.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping broker: %w", err)
	}
	return nil
}

// Enqueue pushes a dispatch message naming the job. It does not block on
// task completion and surfaces only delivery errors; task-level failures
// are observable exclusively through the job store.
func (q *Queue) Enqueue(ctx context.Context, jobID string) error {
	raw, err := Message{JobID: jobID}.Serialize()
	if err != nil {
		return err
	}
	if err := q.client.LPush(ctx, q.key, raw).Err(); err != nil {
		return fmt.Errorf("enqueue job %s: %w", jobID, err)
	}
	return nil
}

// Delivery is one received dispatch message awaiting acknowledgement.
type Delivery struct {
	Message

	raw      string
	queue    *Queue
	consumer string
}

// Receive blocks up to the given duration for the next dispatch message.
// The message is moved onto the consumer's processing list rather than
// removed outright, so a worker killed mid-task leaves the delivery behind
// for redelivery. Returns (nil, nil) when the wait times out empty.
func (q *Queue) Receive(ctx context.Context, consumer string, block time.Duration) (*Delivery, error) {
	raw, err := q.client.BRPopLPush(ctx, q.key, q.processingKey(consumer), block).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("receive message: %w", err)
	}

	msg, err := DeserializeMessage(raw)
	if err != nil {
		// Malformed payloads are acked away immediately; they can never
		// become processable by redelivery.
		_ = q.client.LRem(ctx, q.processingKey(consumer), 1, raw).Err()
		return nil, err
	}

	return &Delivery{Message: msg, raw: raw, queue: q, consumer: consumer}, nil
}

// Ack removes the delivery from the consumer's processing list. Call it only
// after the task handler has returned; acking before work completes would
// silently drop the job on a worker crash.
func (d *Delivery) Ack(ctx context.Context) error {
	if err := d.queue.client.LRem(ctx, d.queue.processingKey(d.consumer), 1, d.raw).Err(); err != nil {
		return fmt.Errorf("ack job %s: %w", d.JobID, err)
	}
	return nil
}

// Recover moves any unacknowledged deliveries left on the consumer's
// processing list back onto the main queue. Run once at worker startup so
// messages orphaned by a crash are redelivered.
func (q *Queue) Recover(ctx context.Context, consumer string) (int, error) {
	moved := 0
	for {
		_, err := q.client.RPopLPush(ctx, q.processingKey(consumer), q.key).Result()
		if errors.Is(err, redis.Nil) {
			return moved, nil
		}
		if err != nil {
			return moved, fmt.Errorf("recover deliveries: %w", err)
		}
		moved++
	}
}

// Depth reports the number of messages waiting on the main queue.
func (q *Queue) Depth(ctx context.Context) (int64, error) {
	depth, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("queue depth: %w", err)
	}
	return depth, nil
}

func (q *Queue) processingKey(consumer string) string {
	return q.key + ":processing:" + consumer
}
