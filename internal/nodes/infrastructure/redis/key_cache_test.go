package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nodes "nodewatch/internal/nodes/domain"
)

type countingReader struct {
	id    int64
	err   error
	calls int
}

func (r *countingReader) FindKeyID(ctx context.Context, key string) (int64, error) {
	r.calls++
	if r.err != nil {
		return 0, r.err
	}
	return r.id, nil
}

func setupCache(t *testing.T, inner KeyReader, ttl time.Duration) (*miniredis.Miniredis, *CachedKeyReader) {
	t.Helper()
	server := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: server.Addr()})
	cache, err := NewCachedKeyReader(inner, client, ttl, nil)
	require.NoError(t, err)
	return server, cache
}

func TestCachedKeyReader_HitSkipsInner(t *testing.T) {
	inner := &countingReader{id: 3}
	_, cache := setupCache(t, inner, time.Minute)

	id, err := cache.FindKeyID(context.Background(), "key-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)
	assert.Equal(t, 1, inner.calls)

	id, err = cache.FindKeyID(context.Background(), "key-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)
	assert.Equal(t, 1, inner.calls, "second lookup must be served from cache")
}

func TestCachedKeyReader_UnknownKeyNotCached(t *testing.T) {
	inner := &countingReader{err: nodes.ErrKeyNotFound}
	server, cache := setupCache(t, inner, time.Minute)

	_, err := cache.FindKeyID(context.Background(), "bogus")
	assert.True(t, errors.Is(err, nodes.ErrKeyNotFound))

	// A second lookup hits the inner reader again: negative results are
	// not cached so newly provisioned keys work immediately.
	_, err = cache.FindKeyID(context.Background(), "bogus")
	assert.True(t, errors.Is(err, nodes.ErrKeyNotFound))
	assert.Equal(t, 2, inner.calls)
	assert.False(t, server.Exists(keyPrefix+"bogus"))
}

func TestCachedKeyReader_ExpiredEntryRefetches(t *testing.T) {
	inner := &countingReader{id: 3}
	server, cache := setupCache(t, inner, time.Minute)

	_, err := cache.FindKeyID(context.Background(), "key-1")
	require.NoError(t, err)

	server.FastForward(2 * time.Minute)

	_, err = cache.FindKeyID(context.Background(), "key-1")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedKeyReader_RedisDownFallsThrough(t *testing.T) {
	inner := &countingReader{id: 3}
	server, cache := setupCache(t, inner, time.Minute)
	server.Close()

	id, err := cache.FindKeyID(context.Background(), "key-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)
	assert.Equal(t, 1, inner.calls)
}

func TestNewCachedKeyReaderGuards(t *testing.T) {
	server := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: server.Addr()})

	if _, err := NewCachedKeyReader(nil, client, time.Minute, nil); err == nil {
		t.Fatal("expected error for nil inner reader")
	}
	if _, err := NewCachedKeyReader(&countingReader{}, nil, time.Minute, nil); err == nil {
		t.Fatal("expected error for nil client")
	}
}
