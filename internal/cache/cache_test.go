package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGetAndExpiry(t *testing.T) {
	c := New(time.Minute)

	c.Set("k", "v", 20*time.Millisecond)
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", got)

	time.Sleep(30 * time.Millisecond)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Zero(t, c.Len(), "stale entry must be removed on read")
}

func TestGenerateKeyOrderInvariance(t *testing.T) {
	a := GenerateKey("/posts", map[string]any{"a": 1, "b": 2})
	b := GenerateKey("/posts", map[string]any{"b": 2, "a": 1})
	assert.Equal(t, a, b)

	c := GenerateKey("/posts", map[string]any{"a": 1, "b": 3})
	assert.NotEqual(t, a, c)
}

func TestClearByPrefix(t *testing.T) {
	c := New(time.Minute)
	c.Set("posts?page=1", 1, 0)
	c.Set("posts?page=2", 2, 0)
	c.Set("users?id=1", 3, 0)

	c.ClearByPrefix("posts")

	_, ok := c.Get("posts?page=1")
	assert.False(t, ok)
	_, ok = c.Get("users?id=1")
	assert.True(t, ok)
}

func TestDoCachesSuccess(t *testing.T) {
	c := New(time.Minute)
	var calls int32

	fetch := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		return "fresh", nil
	}

	got, err := c.Do(context.Background(), "k", 0, fetch)
	require.NoError(t, err)
	assert.Equal(t, "fresh", got)

	got, err = c.Do(context.Background(), "k", 0, fetch)
	require.NoError(t, err)
	assert.Equal(t, "fresh", got)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDoDoesNotCacheErrors(t *testing.T) {
	c := New(time.Minute)
	var calls int32

	fail := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		return nil, errors.New("boom")
	}

	_, err := c.Do(context.Background(), "k", 0, fail)
	require.Error(t, err)
	_, err = c.Do(context.Background(), "k", 0, fail)
	require.Error(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestDoSharesInflightCalls(t *testing.T) {
	c := New(time.Minute)
	var calls int32
	release := make(chan struct{})

	slow := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "shared", nil
	}

	const waiters = 8
	var wg sync.WaitGroup
	results := make([]any, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := c.Do(context.Background(), "k", 0, slow)
			require.NoError(t, err)
			results[i] = got
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "concurrent identical calls must share one invocation")
	for _, r := range results {
		assert.Equal(t, "shared", r)
	}
}

func cacheLookups(t *testing.T, outcome string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "breadshare_cache_lookups_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "outcome" && label.GetValue() == outcome {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestDoJoinedFailureCountsAsMiss(t *testing.T) {
	c := New(time.Minute)
	release := make(chan struct{})

	hitsBefore := cacheLookups(t, "hit")
	missesBefore := cacheLookups(t, "miss")

	initiator := make(chan error, 1)
	go func() {
		_, err := c.Do(context.Background(), "k", 0, func(ctx context.Context) (any, error) {
			<-release
			return nil, errors.New("backend down")
		})
		initiator <- err
	}()
	time.Sleep(10 * time.Millisecond)

	waiter := make(chan error, 1)
	go func() {
		_, err := c.Do(context.Background(), "k", 0, func(ctx context.Context) (any, error) { return nil, nil })
		waiter <- err
	}()
	time.Sleep(10 * time.Millisecond)
	close(release)

	require.Error(t, <-initiator)
	require.Error(t, <-waiter, "joined waiter shares the flight's error")

	assert.Equal(t, hitsBefore, cacheLookups(t, "hit"), "joining a failed flight is not a hit")
	assert.Equal(t, missesBefore+2, cacheLookups(t, "miss"))
}

func TestDoWaiterRespectsContext(t *testing.T) {
	c := New(time.Minute)
	release := make(chan struct{})
	defer close(release)

	go c.Do(context.Background(), "k", 0, func(ctx context.Context) (any, error) {
		<-release
		return nil, nil
	})
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Do(ctx, "k", 0, func(ctx context.Context) (any, error) { return nil, nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
