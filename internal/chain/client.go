package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

const (
	// DefaultMaxInflight bounds concurrent RPC calls across all wallets.
	DefaultMaxInflight = 10
	defaultTimeout     = 10 * time.Second
)

// ErrNoSignatures indicates the address has no transaction history upstream.
var ErrNoSignatures = errors.New("chain: no signatures for address")

// FetchError wraps a failed chain call with its method for diagnostics.
type FetchError struct {
	Method string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("chain: %s: %v", e.Method, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Options parameterise the Solana RPC client.
type Options struct {
	RPCURL      string
	MaxInflight int
	Timeout     time.Duration
}

// Client talks JSON-RPC 2.0 to a Solana node. All calls share one weighted
// permit pool so a full cycle never exceeds MaxInflight requests in flight.
type Client struct {
	opts      Options
	logger    zerolog.Logger
	client    *http.Client
	permits   *semaphore.Weighted
	requestID atomic.Uint64
}

// NewClient constructs a chain client.
func NewClient(opts Options, logger zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	inflight := opts.MaxInflight
	if inflight <= 0 {
		inflight = DefaultMaxInflight
	}

	return &Client{
		opts:    opts,
		logger:  logger.With().Str("component", "chain_client").Logger(),
		client:  &http.Client{Timeout: timeout},
		permits: semaphore.NewWeighted(int64(inflight)),
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// call performs one JSON-RPC call under a permit from the shared pool. The
// permit is released unconditionally, including on failure.
func (c *Client) call(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	if c.opts.RPCURL == "" {
		return nil, &FetchError{Method: method, Err: errors.New("rpc url not configured")}
	}

	if err := c.permits.Acquire(ctx, 1); err != nil {
		return nil, &FetchError{Method: method, Err: err}
	}
	defer c.permits.Release(1)

	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &FetchError{Method: method, Err: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.RPCURL, bytes.NewReader(body))
	if err != nil {
		return nil, &FetchError{Method: method, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &FetchError{Method: method, Err: fmt.Errorf("http request: %w", err)}
	}
	defer resp.Body.Close()
	c.logger.Debug().Str("method", method).Int("status", resp.StatusCode).Dur("elapsed", time.Since(start)).Msg("rpc call")

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Method: method, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Method: method, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return nil, &FetchError{Method: method, Err: fmt.Errorf("unmarshal response: %w", err)}
	}
	if rpcResp.Error != nil {
		return nil, &FetchError{Method: method, Err: rpcResp.Error}
	}

	return rpcResp.Result, nil
}

type signatureInfo struct {
	Signature string `json:"signature"`
}

// LatestSignature returns the newest transaction signature for an address.
// ErrNoSignatures means the address has no history; callers skip the wallet
// for this cycle.
func (c *Client) LatestSignature(ctx context.Context, address string) (string, error) {
	params := []any{
		address,
		map[string]any{"limit": 1},
	}

	result, err := c.call(ctx, "getSignaturesForAddress", params)
	if err != nil {
		return "", err
	}

	var infos []signatureInfo
	if err := json.Unmarshal(result, &infos); err != nil {
		return "", &FetchError{Method: "getSignaturesForAddress", Err: fmt.Errorf("unmarshal result: %w", err)}
	}
	if len(infos) == 0 || infos[0].Signature == "" {
		return "", ErrNoSignatures
	}

	return infos[0].Signature, nil
}

// Transaction fetches the full parsed transaction payload for a signature.
// The payload stays opaque; callers search it for token identifiers.
func (c *Client) Transaction(ctx context.Context, signature string) (json.RawMessage, error) {
	params := []any{
		signature,
		map[string]any{
			"encoding":                       "jsonParsed",
			"maxSupportedTransactionVersion": 0,
		},
	}

	result, err := c.call(ctx, "getTransaction", params)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 || string(result) == "null" {
		return nil, &FetchError{Method: "getTransaction", Err: errors.New("transaction not found")}
	}

	return result, nil
}
