package poller

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// manualWait returns a WaitFunc that advances only when the test sends on
// the returned channel.
func manualWait() (WaitFunc, chan<- struct{}) {
	ticks := make(chan struct{})
	return func(ctx context.Context, d time.Duration) bool {
		select {
		case <-ctx.Done():
			return false
		case <-ticks:
			return true
		}
	}, ticks
}

func TestStartPollsImmediately(t *testing.T) {
	wait, _ := manualWait()
	calls := make(chan struct{}, 10)

	h := New(time.Hour, WithWaitFunc(wait)).Start(context.Background(), func(ctx context.Context) {
		calls <- struct{}{}
	})
	defer h.Cancel()

	select {
	case <-calls:
	case <-time.After(time.Second):
		t.Fatal("Expected an immediate poll")
	}
}

func TestTicksAreFixedDelay(t *testing.T) {
	wait, ticks := manualWait()
	var inFlight, maxInFlight int32
	calls := make(chan struct{}, 10)

	h := New(time.Hour, WithWaitFunc(wait)).Start(context.Background(), func(ctx context.Context) {
		n := atomic.AddInt32(&inFlight, 1)
		if n > atomic.LoadInt32(&maxInFlight) {
			atomic.StoreInt32(&maxInFlight, n)
		}
		atomic.AddInt32(&inFlight, -1)
		calls <- struct{}{}
	})
	defer h.Cancel()

	<-calls
	for i := 0; i < 3; i++ {
		ticks <- struct{}{}
		<-calls
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&maxInFlight))
}

func TestCancelStopsSchedule(t *testing.T) {
	wait, ticks := manualWait()
	var count int32

	h := New(time.Hour, WithWaitFunc(wait)).Start(context.Background(), func(ctx context.Context) {
		atomic.AddInt32(&count, 1)
	})

	// the loop is now parked in wait
	require.Eventually(t, func() bool { return atomic.LoadInt32(&count) == 1 }, time.Second, time.Millisecond)
	h.Cancel()
	h.Cancel()

	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("Schedule goroutine did not exit")
	}

	select {
	case ticks <- struct{}{}:
		t.Fatal("Wait should no longer be consuming ticks")
	default:
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&count))
}

func TestCancelDuringPollSkipsNextTick(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var count int32

	h := New(time.Millisecond).Start(context.Background(), func(ctx context.Context) {
		if atomic.AddInt32(&count, 1) == 1 {
			close(started)
			<-release
		}
	})

	<-started
	h.Cancel()
	close(release)
	<-h.Done()

	assert.Equal(t, int32(1), atomic.LoadInt32(&count))
}

func TestTimerWait(t *testing.T) {
	assert.True(t, timerWait(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, timerWait(ctx, time.Hour))
}
