package views

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"sync"

	"ledgerdash.mini/ldm/internal/navigator"
	"ledgerdash.mini/ldm/internal/types"
)

// ComposerState is the transaction composer snapshot.
type ComposerState struct {
	AddressStatus Status
	Addresses     []string
	AddressErr    error

	Draft      types.Draft
	Submitting bool
	Confirmed  *types.Transaction
	Err        error
}

func (s ComposerState) addressesLoaded(addrs []string, err error) ComposerState {
	if err != nil {
		s.AddressStatus, s.Addresses, s.AddressErr = StatusFailed, nil, err
		return s
	}
	sorted := append([]string(nil), addrs...)
	sort.Strings(sorted)
	s.AddressStatus, s.Addresses, s.AddressErr = StatusReady, sorted, nil
	return s
}

func (s ComposerState) withRecipient(recipient string) ComposerState {
	s.Draft.Recipient = recipient
	return s
}

func (s ComposerState) withAmount(amount float64) ComposerState {
	s.Draft.Amount = amount
	return s
}

func (s ComposerState) submitting() ComposerState {
	s.Submitting, s.Err = true, nil
	return s
}

func (s ComposerState) submitted(tx types.Transaction) ComposerState {
	s.Submitting, s.Err, s.Confirmed = false, nil, &tx
	return s
}

// rejected records a failed submission. The draft is left as it was.
func (s ComposerState) rejected(err error) ComposerState {
	s.Submitting, s.Err = false, err
	return s
}

// ValidateDraft is the composer's local precondition. Drafts with an empty
// recipient or a non-positive amount are rejected before any request is made.
func ValidateDraft(d types.Draft) error {
	if strings.TrimSpace(d.Recipient) == "" {
		return fmt.Errorf("%w: recipient is required", ErrInvalidDraft)
	}
	if math.IsNaN(d.Amount) || math.IsInf(d.Amount, 0) {
		return fmt.Errorf("%w: amount must be a number", ErrInvalidDraft)
	}
	if d.Amount <= 0 {
		return fmt.Errorf("%w: amount must be greater than zero", ErrInvalidDraft)
	}
	return nil
}

// ComposerView collects a draft transaction and submits it. On success it
// moves to the pool route.
type ComposerView struct {
	src    TransactionSubmitter
	nav    navigator.Navigator
	notify Notifier

	mu    sync.Mutex
	lc    lifecycle
	state ComposerState
}

// NewComposerView creates an unmounted composer.
func NewComposerView(src TransactionSubmitter, nav navigator.Navigator, notify Notifier) *ComposerView {
	return &ComposerView{src: src, nav: nav, notify: notify, lc: newLifecycle()}
}

// Mount resets the draft and fetches the address book.
func (v *ComposerView) Mount(ctx context.Context) {
	v.mu.Lock()
	ctx, gen := v.lc.mount(ctx)
	v.state = ComposerState{AddressStatus: StatusLoading}
	v.mu.Unlock()

	go func() {
		addrs, err := v.src.GetAddresses(ctx)

		v.mu.Lock()
		defer v.mu.Unlock()
		if commit(&v.lc, gen, &v.state, func(s ComposerState) ComposerState { return s.addressesLoaded(addrs, err) }) {
			v.lc.settle()
		} else {
			log.Printf("views: address book dropped after unmount mount=%s", v.lc.id)
		}
	}()
}

// Unmount stops the view. A submission in flight completes on the ledger but
// its result is not applied and no navigation happens.
func (v *ComposerView) Unmount() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lc.unmount()
}

// SetRecipient updates the draft recipient.
func (v *ComposerView) SetRecipient(recipient string) {
	v.edit(func(s ComposerState) ComposerState { return s.withRecipient(recipient) })
}

// SetAmount coerces text to a number and updates the draft amount.
func (v *ComposerView) SetAmount(text string) {
	amount := types.CoerceAmount(text)
	v.edit(func(s ComposerState) ComposerState { return s.withAmount(amount) })
}

func (v *ComposerView) edit(fn func(ComposerState) ComposerState) {
	v.mu.Lock()
	defer v.mu.Unlock()
	commit(&v.lc, v.lc.gen, &v.state, fn)
}

// Submit sends the current draft on ctx; Unmount does not abort it. A
// draft failing ValidateDraft takes the same failure path as a ledger
// rejection: error recorded, notification emitted, draft kept, no
// navigation.
func (v *ComposerView) Submit(ctx context.Context) error {
	v.mu.Lock()
	if !v.lc.mounted {
		v.mu.Unlock()
		return ErrUnmounted
	}
	if v.state.Submitting {
		v.mu.Unlock()
		return ErrBusy
	}
	gen := v.lc.gen
	draft := v.state.Draft
	if err := ValidateDraft(draft); err != nil {
		commit(&v.lc, gen, &v.state, func(s ComposerState) ComposerState { return s.rejected(err) })
		v.mu.Unlock()
		v.notify.Error(fmt.Sprintf("Transaction not sent: %v", err))
		return err
	}
	commit(&v.lc, gen, &v.state, ComposerState.submitting)
	v.mu.Unlock()

	tx, err := v.src.PostTransaction(ctx, draft)

	v.mu.Lock()
	applied := commit(&v.lc, gen, &v.state, func(s ComposerState) ComposerState {
		if err != nil {
			return s.rejected(err)
		}
		return s.submitted(tx)
	})
	mountID := v.lc.id
	v.mu.Unlock()

	if !applied {
		log.Printf("views: composer unmounted during submit to %q mount=%s (err=%v)", draft.Recipient, mountID, err)
		return ErrUnmounted
	}
	if err != nil {
		v.notify.Error(fmt.Sprintf("Transaction failed: %v", err))
		return err
	}

	v.notify.Success(fmt.Sprintf("Success! Transaction %s output: %s", tx.ID, FormatOutput(tx)))
	v.nav.Push(navigator.RoutePool)
	return nil
}

// Snapshot returns the current state.
func (v *ComposerView) Snapshot() ComposerState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Settled is closed once the address book has loaded or the view was
// unmounted.
func (v *ComposerView) Settled() <-chan struct{} {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lc.settled
}

// FormatOutput renders a transaction output as "addr: amount" pairs in
// address order.
func FormatOutput(tx types.Transaction) string {
	parts := make([]string, 0, len(tx.Output))
	for _, addr := range tx.Recipients() {
		parts = append(parts, fmt.Sprintf("%s: %g", addr, tx.Output[addr]))
	}
	return strings.Join(parts, ", ")
}
