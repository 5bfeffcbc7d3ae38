package views

import (
	"context"
	"fmt"
	"log"
	"sync"

	"ledgerdash.mini/ldm/internal/types"
)

// ChainState is the chain view snapshot. Expanded is keyed by block hash and
// is never mutated in place.
type ChainState struct {
	Status   Status
	Blocks   []types.Block
	Expanded map[string]bool
	Err      error
}

func (s ChainState) loaded(blocks []types.Block, err error) ChainState {
	if err != nil {
		return ChainState{Status: StatusFailed, Err: err}
	}
	chain, err := types.NewChain(blocks)
	if err != nil {
		return ChainState{Status: StatusFailed, Err: fmt.Errorf("chain integrity: %w", err)}
	}
	return ChainState{Status: StatusReady, Blocks: chain, Expanded: map[string]bool{}}
}

// toggled flips the detail flag of the block with the given hash. The second
// result is false when no such block is displayed.
func (s ChainState) toggled(hash string) (ChainState, bool) {
	found := false
	for _, b := range s.Blocks {
		if b.Hash == hash {
			found = true
			break
		}
	}
	if !found {
		return s, false
	}

	expanded := make(map[string]bool, len(s.Expanded)+1)
	for k, v := range s.Expanded {
		expanded[k] = v
	}
	if expanded[hash] {
		delete(expanded, hash)
	} else {
		expanded[hash] = true
	}
	s.Expanded = expanded
	return s, true
}

// IsExpanded reports whether the block's transactions are shown.
func (s ChainState) IsExpanded(hash string) bool {
	return s.Expanded[hash]
}

// Last returns the newest block.
func (s ChainState) Last() (types.Block, bool) {
	if len(s.Blocks) == 0 {
		return types.Block{}, false
	}
	return s.Blocks[len(s.Blocks)-1], true
}

// ChainView fetches the chain once per mount and keeps per-block detail
// toggles locally.
type ChainView struct {
	src ChainFetcher

	mu    sync.Mutex
	lc    lifecycle
	state ChainState
}

// NewChainView creates an unmounted chain view.
func NewChainView(src ChainFetcher) *ChainView {
	return &ChainView{src: src, lc: newLifecycle()}
}

// Mount resets the view to loading and issues the chain request.
func (v *ChainView) Mount(ctx context.Context) {
	v.mu.Lock()
	ctx, gen := v.lc.mount(ctx)
	v.state = ChainState{Status: StatusLoading}
	v.mu.Unlock()

	go func() {
		blocks, err := v.src.GetChain(ctx)

		v.mu.Lock()
		defer v.mu.Unlock()
		if commit(&v.lc, gen, &v.state, func(s ChainState) ChainState { return s.loaded(blocks, err) }) {
			v.lc.settle()
			if v.state.Status == StatusFailed {
				log.Printf("views: chain load failed mount=%s: %v", v.lc.id, v.state.Err)
			}
		} else {
			log.Printf("views: chain response dropped after unmount mount=%s", v.lc.id)
		}
	}()
}

// Unmount stops the view; an outstanding response will be ignored.
func (v *ChainView) Unmount() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lc.unmount()
}

// Toggle flips whether the block's transactions are expanded. It never
// touches the network. It returns false if the view is unmounted or no
// block has that hash.
func (v *ChainView) Toggle(hash string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.lc.mounted {
		return false
	}
	next, ok := v.state.toggled(hash)
	if !ok {
		return false
	}
	v.state = next
	v.lc.changed()
	return true
}

// Snapshot returns the current state.
func (v *ChainView) Snapshot() ChainState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Settled is closed once the first load has been applied or the view was
// unmounted.
func (v *ChainView) Settled() <-chan struct{} {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lc.settled
}
