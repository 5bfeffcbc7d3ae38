package views

import (
	"context"

	"github.com/google/uuid"
)

// lifecycle tracks one view's mount. It is not safe for concurrent use; the
// owning view guards it with its own mutex.
type lifecycle struct {
	id      string
	gen     uint64
	mounted bool
	ctx     context.Context
	cancel  context.CancelFunc

	settled       chan struct{}
	settledClosed bool
	updates       chan struct{}
}

func newLifecycle() lifecycle {
	return lifecycle{
		settled: make(chan struct{}),
		updates: make(chan struct{}, 1),
	}
}

// mount starts a new generation and returns its context.
func (l *lifecycle) mount(parent context.Context) (context.Context, uint64) {
	if l.cancel != nil {
		l.cancel()
	}
	l.gen++
	l.id = uuid.NewString()
	l.mounted = true
	l.ctx, l.cancel = context.WithCancel(parent)
	if l.settledClosed {
		l.settled = make(chan struct{})
		l.settledClosed = false
	}
	return l.ctx, l.gen
}

// unmount cancels the mount context and invalidates its generation so that
// late responses are dropped.
func (l *lifecycle) unmount() {
	if !l.mounted {
		return
	}
	l.mounted = false
	l.gen++
	l.cancel()
	l.settle()
}

// alive reports whether gen is the current, still-mounted generation.
func (l *lifecycle) alive(gen uint64) bool {
	return l.mounted && l.gen == gen
}

func (l *lifecycle) settle() {
	if !l.settledClosed {
		close(l.settled)
		l.settledClosed = true
	}
}

// changed signals a state replacement without blocking.
func (l *lifecycle) changed() {
	select {
	case l.updates <- struct{}{}:
	default:
	}
}

// done is closed when the current mount ends.
func (l *lifecycle) done() <-chan struct{} {
	if l.ctx == nil {
		return nil
	}
	return l.ctx.Done()
}

// commit replaces *state with next(*state) if gen is still live. The caller
// holds the view lock.
func commit[S any](l *lifecycle, gen uint64, state *S, next func(S) S) bool {
	if !l.alive(gen) {
		return false
	}
	*state = next(*state)
	l.changed()
	return true
}
