package views

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"ledgerdash.mini/ldm/internal/navigator"
	"ledgerdash.mini/ldm/internal/poller"
	"ledgerdash.mini/ldm/internal/types"
)

// events records notifications and navigation in the order they happen.
type events struct {
	mu  sync.Mutex
	log []string
}

func (e *events) add(s string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.log = append(e.log, s)
}

func (e *events) all() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.log...)
}

type fakeNotifier struct{ ev *events }

func (n fakeNotifier) Success(text string) { n.ev.add("success: " + text) }
func (n fakeNotifier) Error(text string)   { n.ev.add("error: " + text) }

type fakeNav struct {
	ev *events

	mu    sync.Mutex
	route navigator.Route
}

func (n *fakeNav) Push(route navigator.Route) {
	n.mu.Lock()
	n.route = route
	n.mu.Unlock()
	n.ev.add("push " + string(route))
}

func (n *fakeNav) CurrentRoute() navigator.Route {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.route
}

// fakeLedger is an in-memory ledger that answers immediately.
type fakeLedger struct {
	mu sync.Mutex

	wallet    types.Wallet
	walletErr error
	chain     []types.Block
	chainErr  error
	addresses []string
	addrErr   error
	pool      []types.Transaction
	poolErr   error
	postErr   error
	mineErr   error

	posted  []types.Draft
	txCalls int
}

func (l *fakeLedger) GetBalance(ctx context.Context) (types.Wallet, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.wallet, l.walletErr
}

func (l *fakeLedger) GetChain(ctx context.Context) ([]types.Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]types.Block(nil), l.chain...), l.chainErr
}

func (l *fakeLedger) GetAddresses(ctx context.Context) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.addresses, l.addrErr
}

func (l *fakeLedger) GetTransactions(ctx context.Context) ([]types.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.txCalls++
	return append([]types.Transaction(nil), l.pool...), l.poolErr
}

func (l *fakeLedger) PostTransaction(ctx context.Context, d types.Draft) (types.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.posted = append(l.posted, d)
	if l.postErr != nil {
		return types.Transaction{}, l.postErr
	}
	tx := types.Transaction{
		ID:     types.TxID(fmt.Sprintf("tx-%d", len(l.posted))),
		Output: map[string]float64{d.Recipient: d.Amount, l.wallet.Address: l.wallet.Balance - d.Amount},
	}
	l.pool = append(l.pool, tx)
	return tx, nil
}

func (l *fakeLedger) Mine(ctx context.Context) (types.Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.mineErr != nil {
		return types.Block{}, l.mineErr
	}
	b := types.Block{
		Index: int64(len(l.chain)),
		Hash:  fmt.Sprintf("hash-%d", len(l.chain)),
		Data:  l.pool,
	}
	l.chain = append(l.chain, b)
	l.pool = nil
	return b, nil
}

func (l *fakeLedger) postedDrafts() []types.Draft {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]types.Draft(nil), l.posted...)
}

func (l *fakeLedger) transactionCalls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.txCalls
}

type pollReply struct {
	txs []types.Transaction
	err error
}

// pendingPoll is one GetTransactions call held open until the test answers.
type pendingPoll struct {
	reply chan pollReply
}

func (p *pendingPoll) answer(txs []types.Transaction, err error) {
	p.reply <- pollReply{txs: txs, err: err}
}

// gatedPool hands every GetTransactions call to the test and ignores
// cancellation, so responses can arrive after unmount.
type gatedPool struct {
	fakeLedger
	calls chan *pendingPoll
}

func newGatedPool() *gatedPool {
	return &gatedPool{calls: make(chan *pendingPoll, 16)}
}

func (g *gatedPool) GetTransactions(ctx context.Context) ([]types.Transaction, error) {
	p := &pendingPoll{reply: make(chan pollReply, 1)}
	g.calls <- p
	r := <-p.reply
	return r.txs, r.err
}

func (g *gatedPool) next(timeout time.Duration) *pendingPoll {
	select {
	case p := <-g.calls:
		return p
	case <-time.After(timeout):
		return nil
	}
}

// neverTick is a poller that only performs the immediate first poll.
func neverTick() *poller.Poller {
	return poller.New(time.Hour, poller.WithWaitFunc(func(ctx context.Context, d time.Duration) bool {
		<-ctx.Done()
		return false
	}))
}

func waitSettled(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	case <-time.After(2 * time.Second):
		return false
	}
}

// gate holds one call open until released. It ignores cancellation, so the
// response arrives whenever the test says, and records the call context's
// error at release.
type gate struct {
	started chan struct{}
	release chan struct{}

	mu     sync.Mutex
	ctxErr error
}

func newGate() *gate {
	return &gate{started: make(chan struct{}), release: make(chan struct{})}
}

func (g *gate) wait(ctx context.Context) {
	close(g.started)
	<-g.release
	g.mu.Lock()
	g.ctxErr = ctx.Err()
	g.mu.Unlock()
}

func (g *gate) cancelled() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ctxErr
}

// gatedLedger is a fakeLedger whose calls block on the configured gates.
type gatedLedger struct {
	fakeLedger
	balance *gate
	chainG  *gate
	addrs   *gate
	post    *gate
	mine    *gate
}

func (g *gatedLedger) GetBalance(ctx context.Context) (types.Wallet, error) {
	if g.balance != nil {
		g.balance.wait(ctx)
	}
	return g.fakeLedger.GetBalance(ctx)
}

func (g *gatedLedger) GetChain(ctx context.Context) ([]types.Block, error) {
	if g.chainG != nil {
		g.chainG.wait(ctx)
	}
	return g.fakeLedger.GetChain(ctx)
}

func (g *gatedLedger) GetAddresses(ctx context.Context) ([]string, error) {
	if g.addrs != nil {
		g.addrs.wait(ctx)
	}
	return g.fakeLedger.GetAddresses(ctx)
}

func (g *gatedLedger) PostTransaction(ctx context.Context, d types.Draft) (types.Transaction, error) {
	if g.post != nil {
		g.post.wait(ctx)
	}
	return g.fakeLedger.PostTransaction(ctx, d)
}

func (g *gatedLedger) Mine(ctx context.Context) (types.Block, error) {
	if g.mine != nil {
		g.mine.wait(ctx)
	}
	return g.fakeLedger.Mine(ctx)
}

// syncBuffer is a log sink that is safe to read while views write to it.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func captureLog(t *testing.T) *syncBuffer {
	t.Helper()
	buf := &syncBuffer{}
	log.SetOutput(buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	return buf
}
