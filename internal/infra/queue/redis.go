// Package queue wraps Redis for the pending-send queue and the
// unregistered-token feedback store.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/pushgate/internal/core/payload"
)

// Job is one queued send: the notification plus its delivery options.
type Job struct {
	Notification *payload.Notification `json:"notification"`
	Options      *payload.Options      `json:"options,omitempty"`
	EnqueuedAt   time.Time             `json:"enqueued_at"`
}

// Config holds Redis connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
}

// Client wraps Redis operations for the relay.
type Client struct {
	rdb *redis.Client
}

// Key layout. The feedback set is scored by the gateway's rejection
// timestamp so consumers can prune tokens older than their last sync.
const (
	pendingKey  = "pushgate:pending"
	feedbackKey = "pushgate:unregistered"
)

// NewClient creates a new Redis client.
func NewClient(cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks the connection, for health reporting.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Enqueue pushes a job onto the pending queue.
func (c *Client) Enqueue(ctx context.Context, job *Job) error {
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now().UTC()
	}
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	if err := c.rdb.LPush(ctx, pendingKey, data).Err(); err != nil {
		return fmt.Errorf("lpush failed: %w", err)
	}
	return nil
}

// Dequeue pops the oldest pending job, blocking up to timeout. Returns
// nil without error when the queue stays empty.
func (c *Client) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	res, err := c.rdb.BRPop(ctx, timeout, pendingKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("brpop failed: %w", err)
	}

	var job Job
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return &job, nil
}

// Depth returns the number of pending jobs.
func (c *Client) Depth(ctx context.Context) (int64, error) {
	n, err := c.rdb.LLen(ctx, pendingKey).Result()
	if err != nil {
		return 0, fmt.Errorf("llen failed: %w", err)
	}
	return n, nil
}

// RecordUnregistered stores a device token the gateway reported as gone.
// The score is the gateway's timestamp (ms since epoch), or now when the
// rejection carried none.
func (c *Client) RecordUnregistered(ctx context.Context, deviceToken string, timestamp int64) error {
	if timestamp == 0 {
		timestamp = time.Now().UnixMilli()
	}
	err := c.rdb.ZAdd(ctx, feedbackKey, redis.Z{
		Score:  float64(timestamp),
		Member: deviceToken,
	}).Err()
	if err != nil {
		return fmt.Errorf("zadd failed: %w", err)
	}
	return nil
}

// Unregistered lists all device tokens in the feedback store, oldest
// rejection first.
func (c *Client) Unregistered(ctx context.Context) ([]string, error) {
	tokens, err := c.rdb.ZRange(ctx, feedbackKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("zrange failed: %w", err)
	}
	return tokens, nil
}

// ClearUnregistered removes tokens from the feedback store once a
// consumer has synced them.
func (c *Client) ClearUnregistered(ctx context.Context, deviceTokens ...string) error {
	if len(deviceTokens) == 0 {
		return nil
	}
	members := make([]any, len(deviceTokens))
	for i, tok := range deviceTokens {
		members[i] = tok
	}
	if err := c.rdb.ZRem(ctx, feedbackKey, members...).Err(); err != nil {
		return fmt.Errorf("zrem failed: %w", err)
	}
	return nil
}
