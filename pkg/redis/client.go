package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/doniyusdinar/scanfleet/pkg/logger"
)

// Client wraps a go-redis client with the list and pub/sub operations the hub uses
type Client struct {
	rdb *redis.Client
}

// Config holds Redis connection configuration
type Config struct {
	Address  string
	Password string
	DB       int
	Enabled  bool
}

// NewClient creates a new Redis client and verifies the connection.
// A disabled config yields a nil client, which every method tolerates.
func NewClient(ctx context.Context, config Config) (*Client, error) {
	if !config.Enabled {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     config.Address,
		Password: config.Password,
		DB:       config.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", config.Address, err)
	}

	logger.Log.Info("Connected to Redis successfully")

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}

// IsConnected checks if Redis is connected
func (c *Client) IsConnected(ctx context.Context) bool {
	if c == nil {
		return false
	}
	return c.rdb.Ping(ctx).Err() == nil
}

// Publish publishes a payload on a pub/sub channel
func (c *Client) Publish(ctx context.Context, channel string, data []byte) error {
	if c == nil {
		return nil
	}
	return c.rdb.Publish(ctx, channel, data).Err()
}

// PushCapped prepends data to the list at key and trims it to max entries.
// max <= 0 leaves the list untrimmed.
func (c *Client) PushCapped(ctx context.Context, key string, data []byte, max int64) error {
	if c == nil {
		return fmt.Errorf("redis client not configured")
	}

	pipe := c.rdb.TxPipeline()
	pipe.LPush(ctx, key, data)
	if max > 0 {
		pipe.LTrim(ctx, key, 0, max-1)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Range returns list entries from start to stop inclusive, newest first
func (c *Client) Range(ctx context.Context, key string, start, stop int64) ([]string, error) {
	if c == nil {
		return nil, fmt.Errorf("redis client not configured")
	}
	return c.rdb.LRange(ctx, key, start, stop).Result()
}

// Delete removes keys
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	if c == nil {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}
