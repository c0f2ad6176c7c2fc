// Package redis provides the optional Redis-backed pieces: the freshness
// cache recording when the last reconcile pass finished, and the pub/sub
// channel carrying pass summaries to websocket subscribers. Neither is
// load-bearing for mirror correctness; the daemon runs without Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// KeyLastSync holds the finish time of the most recent reconcile pass.
	KeyLastSync = "vigil:last_sync"

	// ChannelReconcile carries JSON pass summaries.
	ChannelReconcile = "vigil:reconcile"
)

type Client struct {
	rdb *redis.Client
}

func New(ctx context.Context, addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis.New: ping: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

func (c *Client) Close() error {
	if err := c.rdb.Close(); err != nil {
		return fmt.Errorf("redis.Client.Close: %w", err)
	}
	return nil
}

// PutLastSync records the finish time of a reconcile pass.
func (c *Client) PutLastSync(ctx context.Context, t time.Time) error {
	if err := c.rdb.Set(ctx, KeyLastSync, t.UTC().Format(time.RFC3339Nano), 0).Err(); err != nil {
		return fmt.Errorf("redis.Client.PutLastSync: %w", err)
	}
	return nil
}

// LastSync returns the recorded finish time of the most recent pass. The
// second return is false when no pass has been recorded yet.
func (c *Client) LastSync(ctx context.Context) (time.Time, bool, error) {
	v, err := c.rdb.Get(ctx, KeyLastSync).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("redis.Client.LastSync: %w", err)
	}

	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("redis.Client.LastSync: parse %q: %w", v, err)
	}

	return t, true, nil
}

func (c *Client) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := c.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis.Client.Publish: %w", err)
	}
	return nil
}

func (c *Client) Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error) {
	sub := c.rdb.Subscribe(ctx, channel)

	// Wait for subscription confirmation.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("redis.Client.Subscribe: receive confirmation: %w", err)
	}

	out := make(chan []byte, 64)
	redisCh := sub.Channel()

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-redisCh:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	cleanup := func() {
		_ = sub.Close()
	}

	return out, cleanup, nil
}
