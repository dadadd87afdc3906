package vault

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// TxSender submits a signed transaction carrying the given calldata to the
// vault contract and returns the transaction hash.
//
// Key management and signing are external: the default implementation
// delegates to a signer sidecar, so no private key ever enters this
// process. The sidecar's signing key is the record's Writer identity,
// which may differ from the Owner the calldata names.
type TxSender interface {
	SendTransaction(ctx context.Context, to string, calldata []byte) (string, error)
}

// HTTPSenderConfig configures an HTTPSender.
type HTTPSenderConfig struct {
	// BaseURL of the signer sidecar, e.g. "http://localhost:9090".
	BaseURL string

	// APIKey authenticates against the sidecar as a bearer token.
	APIKey string

	// Timeout bounds each submission. Defaults to 30s.
	Timeout time.Duration
}

// HTTPSender submits transactions through a signer sidecar's
// POST /transactions endpoint.
type HTTPSender struct {
	cfg  HTTPSenderConfig
	http *http.Client
}

// NewHTTPSender creates an HTTPSender for the given sidecar.
func NewHTTPSender(cfg HTTPSenderConfig) *HTTPSender {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &HTTPSender{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
	}
}

type sendTxRequest struct {
	To   string `json:"to"`
	Data string `json:"data"`
}

type sendTxResponse struct {
	TxHash string `json:"tx_hash"`
	Error  string `json:"error,omitempty"`
}

// SendTransaction posts the calldata to the sidecar and returns the hash
// of the submitted transaction.
func (s *HTTPSender) SendTransaction(ctx context.Context, to string, calldata []byte) (string, error) {
	body, err := json.Marshal(sendTxRequest{To: to, Data: HexEncode(calldata)})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/transactions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	var out sendTxResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("unmarshal response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || out.TxHash == "" {
		msg := out.Error
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return "", fmt.Errorf("signer rejected transaction: %s", msg)
	}
	return out.TxHash, nil
}
