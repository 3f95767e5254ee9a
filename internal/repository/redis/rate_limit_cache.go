package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"onboarding-service/internal/client"
	"onboarding-service/internal/util"
)

const submissionRatePrefix = "submission_rate:"

// RateLimitCache tracks submission counts per client bucket in Redis.
type RateLimitCache struct {
	client *client.RedisClient
}

func NewRateLimitCache(client *client.RedisClient) *RateLimitCache {
	return &RateLimitCache{client: client}
}

// IncrementSubmissions bumps the counter for a bucket and returns the new
// count. The window TTL is set atomically with the first increment.
func (c *RateLimitCache) IncrementSubmissions(bucket string, window time.Duration) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	key := submissionRatePrefix + bucket

	count, err := c.client.IncrWithExpire(ctx, key, window)
	if err != nil {
		util.Error("Failed to increment submission counter",
			zap.String("bucket", bucket),
			zap.Error(err))
		return 0, fmt.Errorf("failed to increment submission counter: %w", err)
	}

	util.Debug("Submission counter incremented",
		zap.String("bucket", bucket),
		zap.Int64("count", count))

	return int(count), nil
}

func (c *RateLimitCache) GetSubmissions(bucket string) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	key := submissionRatePrefix + bucket

	countStr, err := c.client.Get(ctx, key)
	if err != nil {
		if errors.Is(err, client.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get submission counter: %w", err)
	}

	count, err := strconv.Atoi(countStr)
	if err != nil {
		return 0, fmt.Errorf("invalid counter format: %w", err)
	}

	return count, nil
}

func (c *RateLimitCache) ResetSubmissions(bucket string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	key := submissionRatePrefix + bucket
	if err := c.client.Del(ctx, key); err != nil {
		return fmt.Errorf("failed to reset submission counter: %w", err)
	}
	return nil
}
