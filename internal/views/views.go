// Package views implements the dashboard's four views: wallet, chain,
// transaction composer and transaction pool.
//
// Every view keeps its state as an immutable snapshot replaced whole under
// the view's mutex. Transitions are pure methods on the snapshot type, so the
// ordering rules can be tested without a UI. Network calls never run with a
// view lock held, and a view never calls the Navigator with its lock held.
package views

import (
	"context"
	"errors"

	"ledgerdash.mini/ldm/internal/types"
)

var (
	// ErrUnmounted is returned by actions on a view that is not mounted, or
	// whose mount ended while the action was in flight.
	ErrUnmounted = errors.New("view is not mounted")
	// ErrBusy is returned when a mutating action is already in flight.
	ErrBusy = errors.New("another request is already in progress")
	// ErrInvalidDraft is returned when a draft fails the local precondition
	// check. No request is sent for it.
	ErrInvalidDraft = errors.New("invalid transaction")
)

// Status is the load state shared by every view.
type Status int

const (
	StatusLoading Status = iota
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// BalanceFetcher is the part of the ledger gateway used by WalletView.
type BalanceFetcher interface {
	GetBalance(ctx context.Context) (types.Wallet, error)
}

// ChainFetcher is the part of the ledger gateway used by ChainView.
type ChainFetcher interface {
	GetChain(ctx context.Context) ([]types.Block, error)
}

// TransactionSubmitter is the part of the ledger gateway used by
// ComposerView.
type TransactionSubmitter interface {
	GetAddresses(ctx context.Context) ([]string, error)
	PostTransaction(ctx context.Context, draft types.Draft) (types.Transaction, error)
}

// PoolSource is the part of the ledger gateway used by PoolView.
type PoolSource interface {
	GetTransactions(ctx context.Context) ([]types.Transaction, error)
	Mine(ctx context.Context) (types.Block, error)
}

// Gateway is the full ledger API. *ledgerapi.Client implements it.
type Gateway interface {
	BalanceFetcher
	ChainFetcher
	TransactionSubmitter
	PoolSource
}

// Notifier receives the user-visible outcome of mutating actions.
// *logger.Logger implements it.
type Notifier interface {
	Success(text string)
	Error(text string)
}
