package recommendations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront-acquisition/internal/common/logger"
	"storefront-acquisition/internal/models"
)

const keyPrefix = "acquisition:recommendation:"

// Key is the redis key of a request's recommendation.
func Key(requestID string) string {
	return keyPrefix + requestID
}

type Cache struct {
	client redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewCache(client redis.Cmdable, ttl time.Duration, log logger.Logger) *Cache {
	return &Cache{
		client: client,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "recommendation-cache"}),
	}
}

// Get returns (nil, false, nil) on a miss. A cached entry that no longer
// decodes is treated as a miss.
func (c *Cache) Get(ctx context.Context, requestID string) (*models.Recommendation, bool, error) {
	raw, err := c.client.Get(ctx, Key(requestID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", Key(requestID), err)
	}

	var rec models.Recommendation
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		c.logger.Warn("discarding undecodable cache entry", map[string]interface{}{
			"requestId": requestID,
			"error":     err.Error(),
		})
		return nil, false, nil
	}
	return &rec, true, nil
}

func (c *Cache) Set(ctx context.Context, rec *models.Recommendation) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal recommendation %s: %w", rec.RequestID, err)
	}
	if err := c.client.Set(ctx, Key(rec.RequestID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", Key(rec.RequestID), err)
	}
	return nil
}

func (c *Cache) Invalidate(ctx context.Context, requestID string) error {
	if err := c.client.Del(ctx, Key(requestID)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", Key(requestID), err)
	}
	return nil
}
