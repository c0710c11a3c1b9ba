package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const keyPrefix = "nodewatch:apikey:"

// KeyReader is the lookup being decorated.
type KeyReader interface {
	FindKeyID(ctx context.Context, key string) (int64, error)
}

// CachedKeyReader is a read-through cache in front of the api key lookup on
// the hot check-in path. Unknown keys are never cached, so newly provisioned
// keys are visible immediately; cache failures degrade to the inner lookup.
type CachedKeyReader struct {
	inner  KeyReader
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedKeyReader constructs a cached key reader.
func NewCachedKeyReader(inner KeyReader, client *redis.Client, ttl time.Duration, logger *zap.Logger) (*CachedKeyReader, error) {
	if inner == nil {
		return nil, errors.New("key cache: nil inner reader")
	}
	if client == nil {
		return nil, errors.New("key cache: nil redis client")
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedKeyReader{inner: inner, client: client, ttl: ttl, logger: logger}, nil
}

// FindKeyID resolves an api key, consulting the cache first.
func (c *CachedKeyReader) FindKeyID(ctx context.Context, key string) (int64, error) {
	if c == nil || c.inner == nil {
		return 0, errors.New("key cache: not configured")
	}
	cacheKey := keyPrefix + key
	value, err := c.client.Get(ctx, cacheKey).Result()
	if err == nil {
		if id, parseErr := strconv.ParseInt(value, 10, 64); parseErr == nil {
			return id, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("api key cache read failed", zap.Error(err))
	}

	id, err := c.inner.FindKeyID(ctx, key)
	if err != nil {
		return 0, err
	}
	if err := c.client.Set(ctx, cacheKey, strconv.FormatInt(id, 10), c.ttl).Err(); err != nil {
		c.logger.Warn("api key cache write failed", zap.Error(err))
	}
	return id, nil
}
