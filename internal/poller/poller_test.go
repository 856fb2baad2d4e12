package poller

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, time.Second, time.Millisecond)
}

func TestSchedulerRunsEveryInterval(t *testing.T) {
	mock := clock.NewMock()
	s := NewScheduler(30*time.Second, mock, nil)

	var runs atomic.Int32
	h := s.Start(context.Background(), func(context.Context) error {
		runs.Add(1)
		return nil
	})
	defer h.Cancel()

	mock.Add(29 * time.Second)
	assert.Equal(t, int32(0), runs.Load())

	mock.Add(time.Second)
	waitFor(t, func() bool { return runs.Load() == 1 })

	mock.Add(30 * time.Second)
	waitFor(t, func() bool { return runs.Load() == 2 })
}

func TestSchedulerContinuesAfterFailure(t *testing.T) {
	mock := clock.NewMock()
	s := NewScheduler(time.Second, mock, nil)

	var runs atomic.Int32
	h := s.Start(context.Background(), func(context.Context) error {
		runs.Add(1)
		return errors.New("rpc unavailable")
	})
	defer h.Cancel()

	for i := 1; i <= 3; i++ {
		mock.Add(time.Second)
		want := int32(i)
		waitFor(t, func() bool { return runs.Load() == want })
	}
	waitFor(t, func() bool {
		cycles, failures := h.Stats()
		return cycles == 3 && failures == 3
	})
}

func TestCancelStopsFurtherCycles(t *testing.T) {
	mock := clock.NewMock()
	s := NewScheduler(time.Second, mock, nil)

	var runs atomic.Int32
	h := s.Start(context.Background(), func(context.Context) error {
		runs.Add(1)
		return nil
	})

	mock.Add(time.Second)
	waitFor(t, func() bool { return runs.Load() == 1 })

	h.Cancel()
	h.Cancel()
	select {
	case <-h.Done():
	default:
		t.Fatal("loop still running after Cancel")
	}

	mock.Add(10 * time.Second)
	assert.Equal(t, int32(1), runs.Load())
}

func TestCancelWaitsForRunningCycle(t *testing.T) {
	mock := clock.NewMock()
	s := NewScheduler(time.Second, mock, nil)

	started := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool
	h := s.Start(context.Background(), func(context.Context) error {
		close(started)
		<-release
		finished.Store(true)
		return nil
	})

	mock.Add(time.Second)
	<-started

	cancelled := make(chan struct{})
	go func() {
		h.Cancel()
		close(cancelled)
	}()

	select {
	case <-cancelled:
		t.Fatal("Cancel returned while a cycle was running")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	<-cancelled
	assert.True(t, finished.Load())
}

func TestContextCancellationStopsLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewScheduler(time.Second, clock.NewMock(), nil)
	h := s.Start(ctx, func(context.Context) error { return nil })

	cancel()
	<-h.Done()
	h.Cancel()
}

func TestDefaultInterval(t *testing.T) {
	assert.Equal(t, DefaultInterval, NewScheduler(0, nil, nil).Interval())
}
