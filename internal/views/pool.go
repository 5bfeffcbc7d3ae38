package views

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"ledgerdash.mini/ldm/internal/metrics"
	"ledgerdash.mini/ldm/internal/navigator"
	"ledgerdash.mini/ldm/internal/poller"
	"ledgerdash.mini/ldm/internal/types"
)

// PoolState is the transaction pool snapshot.
//
// Applied is the issue sequence number of the newest poll applied so far.
// Any response issued at or before it is stale.
type PoolState struct {
	Status    Status
	Pool      types.Pool
	Applied   uint64
	UpdatedAt time.Time
	Err       error

	Mining  bool
	Mined   *types.Block
	MineErr error
}

// polled applies the response to poll seq. It returns false and the
// unchanged state when seq is not newer than the last applied poll. A failed
// poll keeps the last good pool on display.
func (s PoolState) polled(seq uint64, txs []types.Transaction, err error, at time.Time) (PoolState, bool) {
	if seq <= s.Applied {
		return s, false
	}
	s.Applied = seq
	if err != nil {
		s.Status, s.Err = StatusFailed, err
		return s, true
	}
	pool, err := types.NewPool(txs)
	if err != nil {
		s.Status, s.Err = StatusFailed, fmt.Errorf("pool integrity: %w", err)
		return s, true
	}
	s.Status, s.Pool, s.Err, s.UpdatedAt = StatusReady, pool, nil, at
	return s, true
}

func (s PoolState) mining() PoolState {
	s.Mining, s.MineErr = true, nil
	return s
}

func (s PoolState) mined(b types.Block) PoolState {
	s.Mining, s.Mined = false, &b
	return s
}

// mineFailed records the failure and leaves the pool display untouched.
func (s PoolState) mineFailed(err error) PoolState {
	s.Mining, s.MineErr = false, err
	return s
}

// PoolView polls the pending transaction pool while mounted and offers the
// mine action.
type PoolView struct {
	src    PoolSource
	nav    navigator.Navigator
	notify Notifier
	poller *poller.Poller
	now    func() time.Time

	mu     sync.Mutex
	lc     lifecycle
	state  PoolState
	issued uint64
	handle *poller.Handle
}

// NewPoolView creates an unmounted pool view that polls on p's schedule.
func NewPoolView(src PoolSource, nav navigator.Navigator, notify Notifier, p *poller.Poller) *PoolView {
	return &PoolView{
		src:    src,
		nav:    nav,
		notify: notify,
		poller: p,
		now:    time.Now,
		lc:     newLifecycle(),
	}
}

// Mount issues an immediate poll and schedules the rest.
func (v *PoolView) Mount(ctx context.Context) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.handle != nil {
		v.handle.Cancel()
	}
	ctx, gen := v.lc.mount(ctx)
	v.state = PoolState{Status: StatusLoading}
	v.handle = v.poller.Start(ctx, func(pctx context.Context) {
		v.poll(pctx, gen)
	})
}

// Unmount cancels the schedule and any poll in flight. A Mine in flight is
// not cancelled: it runs on the caller's context and completes on the
// ledger, but its result is dropped and no navigation happens.
func (v *PoolView) Unmount() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.handle != nil {
		v.handle.Cancel()
		v.handle = nil
	}
	v.lc.unmount()
}

// Refresh issues one poll outside the schedule. It may overlap a scheduled
// poll; issue order decides which response is shown.
func (v *PoolView) Refresh() error {
	v.mu.Lock()
	if !v.lc.mounted {
		v.mu.Unlock()
		return ErrUnmounted
	}
	ctx, gen := v.lc.ctx, v.lc.gen
	v.mu.Unlock()

	go v.poll(ctx, gen)
	return nil
}

// poll issues one GetTransactions call. The sequence number is taken at
// issue time, before the request is sent.
func (v *PoolView) poll(ctx context.Context, gen uint64) {
	v.mu.Lock()
	if !v.lc.alive(gen) {
		v.mu.Unlock()
		return
	}
	v.issued++
	seq := v.issued
	v.mu.Unlock()

	metrics.RecordPoolPoll()
	txs, err := v.src.GetTransactions(ctx)
	v.apply(gen, seq, txs, err)
}

func (v *PoolView) apply(gen, seq uint64, txs []types.Transaction, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.lc.alive(gen) {
		log.Printf("views: pool response dropped after unmount mount=%s seq=%d", v.lc.id, seq)
		return
	}
	next, ok := v.state.polled(seq, txs, err, v.now())
	if !ok {
		metrics.RecordStaleDiscard()
		log.Printf("views: discarded stale pool response mount=%s seq=%d applied=%d", v.lc.id, seq, v.state.Applied)
		return
	}
	v.state = next
	v.lc.changed()
	v.lc.settle()
}

// Mine asks the ledger to mine the pool. On success it moves to the chain
// route; on failure it stays here with the pool display intact. The request
// uses ctx, not the mount context, so Unmount does not abort it.
func (v *PoolView) Mine(ctx context.Context) error {
	v.mu.Lock()
	if !v.lc.mounted {
		v.mu.Unlock()
		return ErrUnmounted
	}
	if v.state.Mining {
		v.mu.Unlock()
		return ErrBusy
	}
	gen := v.lc.gen
	commit(&v.lc, gen, &v.state, PoolState.mining)
	v.mu.Unlock()

	block, err := v.src.Mine(ctx)

	v.mu.Lock()
	applied := commit(&v.lc, gen, &v.state, func(s PoolState) PoolState {
		if err != nil {
			return s.mineFailed(err)
		}
		return s.mined(block)
	})
	mountID := v.lc.id
	v.mu.Unlock()

	if !applied {
		log.Printf("views: pool unmounted during mine mount=%s (err=%v)", mountID, err)
		return ErrUnmounted
	}
	if err != nil {
		v.notify.Error(fmt.Sprintf("Mining failed: %v", err))
		return err
	}

	v.notify.Success(fmt.Sprintf("Success! Mined block #%d (%s) with %d transaction(s)", block.Index, block.Hash, len(block.Data)))
	v.nav.Push(navigator.RouteChain)
	return nil
}

// Snapshot returns the current state.
func (v *PoolView) Snapshot() PoolState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Settled is closed once the first poll has been applied or the view was
// unmounted.
func (v *PoolView) Settled() <-chan struct{} {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lc.settled
}

// Updates receives a value whenever the snapshot changes.
func (v *PoolView) Updates() <-chan struct{} {
	return v.lc.updates
}

// Done is closed when the current mount ends.
func (v *PoolView) Done() <-chan struct{} {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lc.done()
}
