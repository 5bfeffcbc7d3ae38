// Package poller runs a function on a fixed-delay schedule until cancelled.
// The first call happens immediately; every following call starts one
// interval after the previous call returned, so calls never overlap.
package poller

import (
	"context"
	"sync"
	"time"
)

// WaitFunc blocks for d or until ctx is done. It reports whether the wait
// elapsed normally.
type WaitFunc func(ctx context.Context, d time.Duration) bool

// Poller holds the schedule configuration. A Poller may be started any
// number of times; each Start returns its own Handle.
type Poller struct {
	interval time.Duration
	wait     WaitFunc
}

// Option configures a Poller.
type Option func(*Poller)

// WithWaitFunc replaces the timer-based wait, typically with a channel the
// test controls.
func WithWaitFunc(fn WaitFunc) Option {
	return func(p *Poller) {
		p.wait = fn
	}
}

// New constructs a Poller.
func New(interval time.Duration, opts ...Option) *Poller {
	p := &Poller{
		interval: interval,
		wait:     timerWait,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}


// Handle controls one running schedule.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Cancel stops the schedule. It does not wait for an in-flight call; use
// Done for that. Safe to call more than once.
func (h *Handle) Cancel() {
	h.once.Do(h.cancel)
}

// Done is closed once the schedule goroutine has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Start begins the loop in a goroutine. poll receives a context that is
// cancelled together with the handle.
func (p *Poller) Start(ctx context.Context, poll func(ctx context.Context)) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(h.done)
		defer cancel()

		for {
			// initial tick immediately
			poll(ctx)
			if ctx.Err() != nil {
				return
			}
			if !p.wait(ctx, p.interval) {
				return
			}
		}
	}()

	return h
}

func timerWait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
