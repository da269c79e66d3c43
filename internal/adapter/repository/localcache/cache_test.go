package localcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheRoundTrip(t *testing.T) {
	c := NewCache(time.Minute)
	ctx := context.Background()

	val, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, val)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	val, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(val))

	// mutating the returned slice must not touch the stored value
	val[0] = 'x'
	again, _ := c.Get(ctx, "k")
	assert.Equal(t, "v", string(again))

	require.NoError(t, c.Delete(ctx, "k"))
	val, _ = c.Get(ctx, "k")
	assert.Nil(t, val)
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache(time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	val, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, val)
}

func TestCacheDeletePrefix(t *testing.T) {
	c := NewCache(time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "statements:t1:a", []byte("1"), time.Minute))
	require.NoError(t, c.Set(ctx, "statements:t2:a", []byte("2"), time.Minute))
	require.NoError(t, c.DeletePrefix(ctx, "statements:t1:"))

	v1, _ := c.Get(ctx, "statements:t1:a")
	v2, _ := c.Get(ctx, "statements:t2:a")
	assert.Nil(t, v1)
	assert.Equal(t, "2", string(v2))
}

func TestIdempotencyStoreClaim(t *testing.T) {
	s := NewIdempotencyStore()
	ctx := context.Background()

	exists, resp, err := s.CheckAndSet(ctx, "key", nil, time.Minute)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Nil(t, resp)

	exists, resp, err = s.CheckAndSet(ctx, "key", nil, time.Minute)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, ProcessingMarker, string(resp))

	require.NoError(t, s.Update(ctx, "key", []byte(`{"ok":true}`), time.Minute))
	_, resp, _ = s.CheckAndSet(ctx, "key", nil, time.Minute)
	assert.Equal(t, `{"ok":true}`, string(resp))

	require.NoError(t, s.Release(ctx, "key"))
	exists, _, _ = s.CheckAndSet(ctx, "key", nil, time.Minute)
	assert.False(t, exists)
}
