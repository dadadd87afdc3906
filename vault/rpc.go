package vault

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

// revertErrorCode is the JSON-RPC error code for an execution revert.
const revertErrorCode = 3

// RPCClient is a minimal JSON-RPC client for read calls and receipt
// lookups against the ledger node.
type RPCClient struct {
	urls       []string
	httpClient *http.Client
	requestID  atomic.Int64
}

// NewRPCClient creates an RPC client for the given endpoint URLs.
// The first URL is primary; the rest are fallbacks.
func NewRPCClient(urls ...string) *RPCClient {
	return &RPCClient{
		urls: urls,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int64         `json:"id"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// IsRevert reports whether err is a contract execution revert.
func IsRevert(err error) bool {
	var re *rpcError
	if errors.As(err, &re) {
		return re.Code == revertErrorCode || strings.Contains(strings.ToLower(re.Message), "revert")
	}
	return false
}

// Call executes a read-only contract call (eth_call) against the latest
// finalized state and returns the raw result bytes.
func (c *RPCClient) Call(ctx context.Context, to string, calldata []byte) ([]byte, error) {
	params := []interface{}{
		map[string]string{
			"to":   to,
			"data": HexEncode(calldata),
		},
		"latest",
	}
	raw, err := c.do(ctx, "eth_call", params)
	if err != nil {
		return nil, err
	}

	var hexResult string
	if err := json.Unmarshal(raw, &hexResult); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return hex.DecodeString(strings.TrimPrefix(hexResult, "0x"))
}

// Receipt holds the subset of a transaction receipt needed to observe
// finalization.
type Receipt struct {
	TransactionHash string `json:"transactionHash"`
	BlockNumber     string `json:"blockNumber"`
	Status          string `json:"status"`
}

// Succeeded reports whether the transaction executed without revert.
func (r *Receipt) Succeeded() bool { return r.Status == "0x1" }

// TransactionReceipt fetches the receipt for txHash. It returns (nil, nil)
// while the transaction is still pending.
func (c *RPCClient) TransactionReceipt(ctx context.Context, txHash string) (*Receipt, error) {
	raw, err := c.do(ctx, "eth_getTransactionReceipt", []interface{}{txHash})
	if err != nil {
		return nil, err
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}
	var rcpt Receipt
	if err := json.Unmarshal(raw, &rcpt); err != nil {
		return nil, fmt.Errorf("unmarshal receipt: %w", err)
	}
	return &rcpt, nil
}

// do runs one JSON-RPC request, trying each endpoint in order until one
// answers. An rpc-level error (including reverts) is returned immediately:
// every healthy node gives the same answer for those.
func (c *RPCClient) do(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	if len(c.urls) == 0 {
		return nil, errors.New("no RPC endpoints configured")
	}

	req := rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.requestID.Add(1),
	}

	var lastErr error
	for _, url := range c.urls {
		result, err := c.doRequest(ctx, url, req)
		if err != nil {
			var re *rpcError
			if errors.As(err, &re) {
				return nil, err
			}
			lastErr = err
			continue
		}
		return result, nil
	}
	return nil, fmt.Errorf("all RPC endpoints failed: %w", lastErr)
}

func (c *RPCClient) doRequest(ctx context.Context, url string, req rpcRequest) (json.RawMessage, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}
	return rpcResp.Result, nil
}
