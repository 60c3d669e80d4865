package kvstore

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// harness builds a fresh store and a function that moves its clock forward.
type harness func(t *testing.T) (Store, func(time.Duration))

func redisHarness(t *testing.T) (Store, func(time.Duration)) {
	m := miniredis.RunT(t)
	s, err := NewRedis("redis://"+m.Addr(), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s, m.FastForward
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func memoryHarness(_ *testing.T) (Store, func(time.Duration)) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}

	return NewMemory(WithClock(clock.Now)), clock.Advance
}

func TestStores(t *testing.T) {
	for name, h := range map[string]harness{
		"redis":  redisHarness,
		"memory": memoryHarness,
	} {
		t.Run(name, func(t *testing.T) {
			t.Run("set get del", func(t *testing.T) { testSetGetDel(t, h) })
			t.Run("expiry", func(t *testing.T) { testExpiry(t, h) })
			t.Run("take", func(t *testing.T) { testTake(t, h) })
			t.Run("take is exclusive", func(t *testing.T) { testTakeExclusive(t, h) })
		})
	}
}

func testSetGetDel(t *testing.T, h harness) {
	s, _ := h(t)
	ctx := context.Background()

	_, found, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, "k", "v1", 0))
	require.NoError(t, s.Set(ctx, "k", "v2", 0))

	v, found, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v2", v)

	require.NoError(t, s.Del(ctx, "k"))
	require.NoError(t, s.Del(ctx, "k"))

	_, found, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, s.Ping(ctx))
}

func testExpiry(t *testing.T, h harness) {
	s, advance := h(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", "v", time.Hour))
	advance(59 * time.Minute)

	_, found, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)

	advance(2 * time.Minute)

	_, found, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	_, _, found, err = s.Take(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func testTake(t *testing.T, h harness) {
	s, advance := h(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "token", "42", 24*time.Hour))
	advance(time.Hour)

	v, ttl, found, err := s.Take(ctx, "token")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "42", v)
	assert.InDelta(t, (23 * time.Hour).Seconds(), ttl.Seconds(), 1)

	_, _, found, err = s.Take(ctx, "token")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, "forever", "1", 0))
	_, ttl, found, err = s.Take(ctx, "forever")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Zero(t, ttl)
}

func testTakeExclusive(t *testing.T, h harness) {
	s, _ := h(t)
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "token", "1", time.Minute))

	var (
		wg      sync.WaitGroup
		winners atomic.Int32
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, found, err := s.Take(ctx, "token")
			assert.NoError(t, err)
			if found {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, winners.Load())
}

func TestRedisStoreUnavailable(t *testing.T) {
	m := miniredis.RunT(t)
	s, err := NewRedis("redis://"+m.Addr(), 200*time.Millisecond)
	require.NoError(t, err)
	defer s.Close()

	m.Close()

	ctx := context.Background()
	_, _, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrUnavailable)

	_, _, _, err = s.Take(ctx, "k")
	assert.ErrorIs(t, err, ErrUnavailable)

	assert.ErrorIs(t, s.Set(ctx, "k", "v", time.Second), ErrUnavailable)
	assert.ErrorIs(t, s.Ping(ctx), ErrUnavailable)
}

func TestRedisStoreReplyErrorIsNotUnavailable(t *testing.T) {
	m := miniredis.RunT(t)
	s, err := NewRedis("redis://"+m.Addr(), time.Second)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Ping(context.Background()))

	m.SetError("ERR boom")
	defer m.SetError("")

	err = s.Set(context.Background(), "k", "v", 0)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnavailable)
}

func TestNewRedisBadURL(t *testing.T) {
	_, err := NewRedis("http://nope", time.Second)
	assert.Error(t, err)
}

func TestMemoryStoreCancelledContext(t *testing.T) {
	s := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Set(ctx, "k", "v", 0), context.Canceled)
}
