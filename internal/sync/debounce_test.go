package sync

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"breadshare-client/internal/mocks"
)

func TestDebouncerCoalescesBursts(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Stop()

	var runs atomic.Int32
	for i := 0; i < 5; i++ {
		d.Call(func() { runs.Add(1) })
	}

	assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())
}

func TestDebouncerStopCancelsPending(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)

	var runs atomic.Int32
	d.Call(func() { runs.Add(1) })
	d.Stop()

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), runs.Load())
}

func TestAvailabilityCheckerUsesLatestValue(t *testing.T) {
	users := new(mocks.UserAPIMock)
	users.On("UsernameAvailable", mock.Anything, "baker").Return(true, nil)

	checker := NewAvailabilityChecker(users.UsernameAvailable, users.EmailAvailable, 10*time.Millisecond)
	defer checker.Stop()

	stale := make(chan AvailabilityResult, 1)
	results := make(chan AvailabilityResult, 1)
	checker.CheckUsername(context.Background(), "bak", func(r AvailabilityResult) { stale <- r })
	checker.CheckUsername(context.Background(), "baker", func(r AvailabilityResult) { results <- r })

	select {
	case r := <-stale:
		assert.True(t, r.Superseded)
		assert.Equal(t, "bak", r.Value)
	case <-time.After(time.Second):
		t.Fatal("replaced check never resolved")
	}

	select {
	case r := <-results:
		require.Empty(t, r.Err)
		assert.Equal(t, "baker", r.Value)
		assert.True(t, r.Available)
	case <-time.After(time.Second):
		t.Fatal("no availability result delivered")
	}
	users.AssertNumberOfCalls(t, "UsernameAvailable", 1)
}

func TestAvailabilityCheckerStopResolvesWaiter(t *testing.T) {
	users := new(mocks.UserAPIMock)
	checker := NewAvailabilityChecker(users.UsernameAvailable, users.EmailAvailable, time.Hour)

	results := make(chan AvailabilityResult, 1)
	checker.CheckUsername(context.Background(), "bak", func(r AvailabilityResult) { results <- r })
	checker.Stop()

	select {
	case r := <-results:
		assert.True(t, r.Superseded)
	case <-time.After(time.Second):
		t.Fatal("pending check never resolved on stop")
	}
	users.AssertNotCalled(t, "UsernameAvailable", mock.Anything, mock.Anything)
}
