package redis

import (
	"context"
	"fmt"
	"time"
)

// RateLimiter is a fixed-window counter. Each Allow call increments the
// window's key; the first hit arms the expiry so the window resets itself.
type RateLimiter struct {
	client *Client
}

func NewRateLimiter(client *Client) *RateLimiter {
	return &RateLimiter{client: client}
}

func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := r.client.Incr(ctx, key)
	if err != nil {
		return false, fmt.Errorf("rate limiter incr %s: %w", key, err)
	}
	if count == 1 {
		if err := r.client.Expire(ctx, key, window); err != nil {
			return false, fmt.Errorf("rate limiter expire %s: %w", key, err)
		}
	}
	return count <= int64(limit), nil
}

// SubmitKey is the window key for photo submissions by one user.
func SubmitKey(userID string) string {
	return "rate_limit:" + userID + ":submit"
}
