package views

import (
	"context"
	"log"
	"sync"

	"ledgerdash.mini/ldm/internal/types"
)

// WalletState is the wallet view snapshot.
type WalletState struct {
	Status Status
	Wallet types.Wallet
	Err    error
}

func (s WalletState) loaded(w types.Wallet, err error) WalletState {
	if err != nil {
		return WalletState{Status: StatusFailed, Err: err}
	}
	return WalletState{Status: StatusReady, Wallet: w}
}

// WalletView fetches the wallet once per mount.
type WalletView struct {
	src BalanceFetcher

	mu    sync.Mutex
	lc    lifecycle
	state WalletState
}

// NewWalletView creates an unmounted wallet view.
func NewWalletView(src BalanceFetcher) *WalletView {
	return &WalletView{src: src, lc: newLifecycle()}
}

// Mount resets the view to loading and issues the balance request.
func (v *WalletView) Mount(ctx context.Context) {
	v.mu.Lock()
	ctx, gen := v.lc.mount(ctx)
	v.state = WalletState{Status: StatusLoading}
	v.mu.Unlock()

	go func() {
		w, err := v.src.GetBalance(ctx)

		v.mu.Lock()
		defer v.mu.Unlock()
		if commit(&v.lc, gen, &v.state, func(s WalletState) WalletState { return s.loaded(w, err) }) {
			v.lc.settle()
		} else {
			log.Printf("views: wallet response dropped after unmount mount=%s", v.lc.id)
		}
	}()
}

// Unmount stops the view; an outstanding response will be ignored.
func (v *WalletView) Unmount() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lc.unmount()
}

// Snapshot returns the current state.
func (v *WalletView) Snapshot() WalletState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Settled is closed once the first load has been applied or the view was
// unmounted.
func (v *WalletView) Settled() <-chan struct{} {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lc.settled
}
