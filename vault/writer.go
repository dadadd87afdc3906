package vault

import (
	"context"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/agentledger/memvault/core"
)

// Appender is the write surface of the memory vault. *Writer implements
// it; the orchestrator and HTTP service consume it.
type Appender interface {
	Store(ctx context.Context, owner core.Address, key core.TopicKey, content string) (string, error)
}

// Writer submits append-only writes to the vault contract.
//
// A returned transaction hash means the write was accepted for inclusion,
// not that it is visible: readers see the record only after finalization.
// There is no automatic retry; a failed submission surfaces as a
// core.WriteError and the caller decides what to do with it.
type Writer struct {
	sender   TxSender
	rpc      *RPCClient
	contract string
	log      zerolog.Logger
}

// NewWriter creates a Writer for the vault contract at the given address.
// rpc is used only for receipt lookups in WaitFinalized and may be shared
// with a Reader.
func NewWriter(sender TxSender, rpc *RPCClient, contract string, log zerolog.Logger) *Writer {
	return &Writer{
		sender:   sender,
		rpc:      rpc,
		contract: contract,
		log:      log,
	}
}

// Store appends content under (owner, key), attributed to the sender's
// signing identity, and returns the transaction hash.
func (w *Writer) Store(ctx context.Context, owner core.Address, key core.TopicKey, content string) (string, error) {
	calldata := EncodeStoreMemoryFor(owner, key, content)
	txHash, err := w.sender.SendTransaction(ctx, w.contract, calldata)
	if err != nil {
		writesTotal.WithLabelValues("error").Inc()
		return "", &core.WriteError{Err: err}
	}
	writesTotal.WithLabelValues("ok").Inc()
	w.log.Debug().
		Str("owner", string(owner)).
		Str("topic_key", key.Hex()).
		Str("tx_hash", txHash).
		Int("content_bytes", len(content)).
		Msg("memory append submitted")
	return txHash, nil
}

// WaitFinalized blocks until the transaction for txHash is included in a
// block, polling the receipt with exponential backoff. It is an explicit
// finality await for callers that need read-after-write, not a retry of
// the submission itself. A reverted transaction is a core.WriteError.
func (w *Writer) WaitFinalized(ctx context.Context, txHash string) error {
	op := func() error {
		rcpt, err := w.rpc.TransactionReceipt(ctx, txHash)
		if err != nil {
			return backoff.Permanent(err)
		}
		if rcpt == nil {
			return fmt.Errorf("transaction %s pending", txHash)
		}
		if !rcpt.Succeeded() {
			return backoff.Permanent(fmt.Errorf("transaction %s reverted", txHash))
		}
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(backoff.NewExponentialBackOff(), ctx)); err != nil {
		return &core.WriteError{Err: err}
	}
	return nil
}
