package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Client wraps the shared Redis connection. It backs durable cart storage
// and the checkout idempotency fast path.
type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// GetCart loads a serialized cart blob for a session. Returns redis.Nil
// via the error when the session has no cart.
func (c *Client) GetCart(ctx context.Context, sessionID string) ([]byte, error) {
	return c.rdb.Get(ctx, fmt.Sprintf("cart:%s", sessionID)).Bytes()
}

// SaveCart stores a serialized cart blob with a TTL.
func (c *Client) SaveCart(ctx context.Context, sessionID string, data []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("cart:%s", sessionID), data, ttl).Err()
}

// DeleteCart removes a session's cart blob.
func (c *Client) DeleteCart(ctx context.Context, sessionID string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("cart:%s", sessionID)).Err()
}

// IsNil reports whether err means "key absent" rather than a storage failure.
func IsNil(err error) bool {
	return err == redis.Nil
}

// SetIdempotencyKey stores an idempotency key with TTL
func (c *Client) SetIdempotencyKey(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("idempotency:%s", key), value, ttl).Err()
}

// CheckIdempotencyKey checks if an idempotency key exists
func (c *Client) CheckIdempotencyKey(ctx context.Context, key string) (bool, error) {
	result, err := c.rdb.Exists(ctx, fmt.Sprintf("idempotency:%s", key)).Result()
	if err != nil {
		return false, err
	}
	return result > 0, nil
}
