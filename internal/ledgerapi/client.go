// Package ledgerapi is the gateway to the ledger service's REST API.
//
// Each operation is a single, independent round trip: no retries, no caching.
// Failures come back as *Error tagged with KindNetwork or KindApplication.
package ledgerapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"ledgerdash.mini/ldm/internal/jsonx"
	"ledgerdash.mini/ldm/internal/metrics"
	"ledgerdash.mini/ldm/internal/types"
)

const (
	defaultBaseURL = "http://localhost:5000"
	defaultTimeout = 10 * time.Second

	// maxErrorBody bounds how much of a rejected response is kept as the
	// error message.
	maxErrorBody = 512
)

// Operation names, also used as metric labels.
const (
	OpGetBalance      = "getBalance"
	OpGetChain        = "getChain"
	OpGetAddresses    = "getAddresses"
	OpGetTransactions = "getTransactions"
	OpPostTransaction = "postTransaction"
	OpMine            = "mine"
)

// Client talks to the ledger service over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a ledger client.
//
// Parameters:
//   - baseURL: ledger service root (e.g., "http://localhost:5000")
//   - timeout: per-request timeout, zero selects the default of 10s
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// BaseURL returns the ledger root the client was configured with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetBalance fetches the local wallet's address and balance.
func (c *Client) GetBalance(ctx context.Context) (types.Wallet, error) {
	var w types.Wallet
	if err := c.do(ctx, OpGetBalance, http.MethodGet, "/balance", nil, &w); err != nil {
		return types.Wallet{}, err
	}
	return w, nil
}

// GetChain fetches the full block sequence as returned by the ledger.
func (c *Client) GetChain(ctx context.Context) ([]types.Block, error) {
	var resp struct {
		Blockchain struct {
			Chain []types.Block `json:"chain"`
		} `json:"blockchain"`
	}
	if err := c.do(ctx, OpGetChain, http.MethodGet, "/blockchain", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Blockchain.Chain, nil
}

// GetAddresses fetches every address the ledger has seen in block outputs.
func (c *Client) GetAddresses(ctx context.Context) ([]string, error) {
	var resp struct {
		Addresses []string `json:"addresses"`
	}
	if err := c.do(ctx, OpGetAddresses, http.MethodGet, "/addresses", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Addresses, nil
}

// GetTransactions fetches the pending transaction pool.
func (c *Client) GetTransactions(ctx context.Context) ([]types.Transaction, error) {
	var resp struct {
		Transactions []types.Transaction `json:"transactions"`
	}
	if err := c.do(ctx, OpGetTransactions, http.MethodGet, "/transactions", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Transactions, nil
}

// PostTransaction submits the draft and returns the transaction the ledger
// created or updated for it.
func (c *Client) PostTransaction(ctx context.Context, draft types.Draft) (types.Transaction, error) {
	var resp struct {
		Transaction types.Transaction `json:"transaction"`
	}
	if err := c.do(ctx, OpPostTransaction, http.MethodPost, "/transact", draft, &resp); err != nil {
		return types.Transaction{}, err
	}
	return resp.Transaction, nil
}

// Mine asks the ledger to package the pool into a new block.
func (c *Client) Mine(ctx context.Context) (types.Block, error) {
	var resp struct {
		Block types.Block `json:"block"`
	}
	if err := c.do(ctx, OpMine, http.MethodGet, "/mine", nil, &resp); err != nil {
		return types.Block{}, err
	}
	return resp.Block, nil
}

// do performs one round trip and decodes a 2xx body into out.
func (c *Client) do(ctx context.Context, op, method, path string, body, out interface{}) (err error) {
	start := time.Now()
	requestID := uuid.NewString()
	defer func() {
		outcome := metrics.OutcomeOK
		switch {
		case IsNetwork(err):
			outcome = metrics.OutcomeNetwork
		case err != nil:
			outcome = metrics.OutcomeApplication
		}
		metrics.RecordGatewayRequest(op, outcome, time.Since(start))
		if err != nil {
			log.Printf("ledgerapi: %s %s%s request_id=%s failed: %v", method, c.baseURL, path, requestID, err)
		}
	}()

	var reader io.Reader
	if body != nil {
		payload, err := jsonx.Marshal(body)
		if err != nil {
			return &Error{Kind: KindApplication, Op: op, Err: fmt.Errorf("failed to marshal request: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Kind: KindNetwork, Op: op, Err: fmt.Errorf("failed to build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &Error{Kind: KindNetwork, Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindNetwork, Op: op, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{
			Kind:    KindApplication,
			Op:      op,
			Status:  resp.StatusCode,
			Message: rejectionMessage(respBytes),
		}
	}

	if err := jsonx.Unmarshal(respBytes, out); err != nil {
		return &Error{Kind: KindApplication, Op: op, Status: resp.StatusCode, Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	return nil
}

// rejectionMessage pulls a human-readable reason out of an error body. The
// reference ledger answers {"detail": ...}; other services use "error" or
// "message".
func rejectionMessage(body []byte) string {
	var parsed map[string]interface{}
	if err := jsonx.Unmarshal(body, &parsed); err == nil {
		for _, key := range []string{"detail", "error", "message"} {
			switch v := parsed[key].(type) {
			case string:
				if v != "" {
					return truncate(v)
				}
			case nil:
			default:
				if b, err := jsonx.Marshal(v); err == nil {
					return truncate(string(b))
				}
			}
		}
	}
	return truncate(strings.TrimSpace(string(body)))
}

// truncate caps s at maxErrorBody bytes without splitting a rune.
func truncate(s string) string {
	if len(s) <= maxErrorBody {
		return s
	}
	n := maxErrorBody
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
