package web

import (
	"math"
	"time"

	"ledgerdash.mini/ldm/internal/navigator"
	"ledgerdash.mini/ldm/internal/types"
	"ledgerdash.mini/ldm/internal/views"
)

// JSON shapes for /api/state and /ws/pool. View snapshots carry error
// values, which do not encode, so they are flattened to strings here.

type stateMessage struct {
	Route string      `json:"route"`
	View  interface{} `json:"view,omitempty"`
}

type walletMessage struct {
	Status  string  `json:"status"`
	Address string  `json:"address,omitempty"`
	Balance float64 `json:"balance"`
	Error   string  `json:"error,omitempty"`
}

type chainMessage struct {
	Status   string        `json:"status"`
	Blocks   []types.Block `json:"blocks"`
	Expanded []string      `json:"expanded"`
	Error    string        `json:"error,omitempty"`
}

type composerMessage struct {
	AddressStatus string             `json:"address_status"`
	Addresses     []string           `json:"addresses"`
	Recipient     string             `json:"recipient"`
	Amount        *float64           `json:"amount"`
	Submitting    bool               `json:"submitting"`
	Confirmed     *types.Transaction `json:"confirmed,omitempty"`
	Error         string             `json:"error,omitempty"`
}

type poolMessage struct {
	Status       string              `json:"status"`
	Applied      uint64              `json:"applied"`
	UpdatedAt    time.Time           `json:"updated_at"`
	Transactions []types.Transaction `json:"transactions"`
	Error        string              `json:"error,omitempty"`
	Mining       bool                `json:"mining"`
	MineError    string              `json:"mine_error,omitempty"`
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// finite returns nil for amounts JSON cannot carry, such as unparsable input.
func finite(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func viewMessage(view navigator.View) interface{} {
	switch v := view.(type) {
	case *views.WalletView:
		s := v.Snapshot()
		return walletMessage{
			Status:  s.Status.String(),
			Address: s.Wallet.Address,
			Balance: s.Wallet.Balance,
			Error:   errText(s.Err),
		}
	case *views.ChainView:
		s := v.Snapshot()
		expanded := []string{}
		for _, b := range s.Blocks {
			if s.IsExpanded(b.Hash) {
				expanded = append(expanded, b.Hash)
			}
		}
		blocks := s.Blocks
		if blocks == nil {
			blocks = []types.Block{}
		}
		return chainMessage{
			Status:   s.Status.String(),
			Blocks:   blocks,
			Expanded: expanded,
			Error:    errText(s.Err),
		}
	case *views.ComposerView:
		s := v.Snapshot()
		addrs := s.Addresses
		if addrs == nil {
			addrs = []string{}
		}
		errMsg := errText(s.Err)
		if errMsg == "" {
			errMsg = errText(s.AddressErr)
		}
		return composerMessage{
			AddressStatus: s.AddressStatus.String(),
			Addresses:     addrs,
			Recipient:     s.Draft.Recipient,
			Amount:        finite(s.Draft.Amount),
			Submitting:    s.Submitting,
			Confirmed:     s.Confirmed,
			Error:         errMsg,
		}
	case *views.PoolView:
		return newPoolMessage(v.Snapshot())
	}
	return nil
}

func newPoolMessage(s views.PoolState) poolMessage {
	txs := s.Pool.List()
	if txs == nil {
		txs = []types.Transaction{}
	}
	return poolMessage{
		Status:       s.Status.String(),
		Applied:      s.Applied,
		UpdatedAt:    s.UpdatedAt,
		Transactions: txs,
		Error:        errText(s.Err),
		Mining:       s.Mining,
		MineError:    errText(s.MineErr),
	}
}
