package vault

import (
	"context"
	"fmt"

	"github.com/dgraph-io/ristretto"
	"github.com/rs/zerolog"

	"github.com/agentledger/memvault/core"
)

// Ledger is the read surface of the memory vault. *Reader implements it;
// the orchestrator and scanner consume it so tests can substitute fakes.
type Ledger interface {
	GetLatest(ctx context.Context, owner core.Address, key core.TopicKey) (*core.Record, error)
	GetCount(ctx context.Context, owner core.Address, key core.TopicKey) (uint64, error)
	GetAt(ctx context.Context, owner core.Address, key core.TopicKey, index uint64) (*core.Record, error)
}

// Reader answers pure queries against the vault contract's latest
// finalized state.
//
// Records are immutable once appended, so GetAt results are cached by
// (owner, key, index). GetLatest and GetCount always hit the ledger:
// another writer may have appended since the last call.
type Reader struct {
	rpc      *RPCClient
	contract string
	cache    *ristretto.Cache
	log      zerolog.Logger
}

// NewReader creates a Reader for the vault contract at the given address.
func NewReader(rpc *RPCClient, contract string, log zerolog.Logger) *Reader {
	// Cache failures are not fatal; a nil cache just disables memoization.
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10_000,
		MaxCost:     1 << 20, // ~1 MiB of record content
		BufferItems: 64,
	})
	if err != nil {
		log.Warn().Err(err).Msg("record cache disabled")
		cache = nil
	}
	return &Reader{
		rpc:      rpc,
		contract: contract,
		cache:    cache,
		log:      log,
	}
}

// GetLatest returns the most recent record for (owner, key), or (nil, nil)
// when the memory set is empty. Absence is not an error.
func (r *Reader) GetLatest(ctx context.Context, owner core.Address, key core.TopicKey) (*core.Record, error) {
	data, err := r.rpc.Call(ctx, r.contract, EncodeGetLatestMemory(owner, key))
	if err != nil {
		readsTotal.WithLabelValues("getLatestMemory", "error").Inc()
		return nil, &core.ReadError{Op: "getLatestMemory", Err: err}
	}
	rec, err := DecodeRecord(data)
	if err != nil {
		readsTotal.WithLabelValues("getLatestMemory", "error").Inc()
		return nil, &core.ReadError{Op: "getLatestMemory", Err: err}
	}
	readsTotal.WithLabelValues("getLatestMemory", "ok").Inc()

	// A real append always carries a block timestamp; zero marks the
	// contract's empty return.
	if rec.Timestamp == 0 {
		return nil, nil
	}
	return rec, nil
}

// GetCount returns the number of records appended for (owner, key).
func (r *Reader) GetCount(ctx context.Context, owner core.Address, key core.TopicKey) (uint64, error) {
	data, err := r.rpc.Call(ctx, r.contract, EncodeGetMemoryCount(owner, key))
	if err != nil {
		readsTotal.WithLabelValues("getMemoryCount", "error").Inc()
		return 0, &core.ReadError{Op: "getMemoryCount", Err: err}
	}
	count, err := DecodeCount(data)
	if err != nil {
		readsTotal.WithLabelValues("getMemoryCount", "error").Inc()
		return 0, &core.ReadError{Op: "getMemoryCount", Err: err}
	}
	readsTotal.WithLabelValues("getMemoryCount", "ok").Inc()
	return count, nil
}

// GetAt returns the record at index for (owner, key). Reading past the end
// of the set returns core.ErrOutOfRange; callers bound iteration with
// GetCount.
func (r *Reader) GetAt(ctx context.Context, owner core.Address, key core.TopicKey, index uint64) (*core.Record, error) {
	cacheKey := fmt.Sprintf("%s|%s|%d", owner, key.Hex(), index)
	if r.cache != nil {
		if v, ok := r.cache.Get(cacheKey); ok {
			if rec, ok := v.(*core.Record); ok {
				return rec, nil
			}
		}
	}

	data, err := r.rpc.Call(ctx, r.contract, EncodeGetMemory(owner, key, index))
	if err != nil {
		if IsRevert(err) {
			readsTotal.WithLabelValues("getMemory", "out_of_range").Inc()
			return nil, fmt.Errorf("index %d: %w", index, core.ErrOutOfRange)
		}
		readsTotal.WithLabelValues("getMemory", "error").Inc()
		return nil, &core.ReadError{Op: "getMemory", Err: err}
	}
	rec, err := DecodeRecord(data)
	if err != nil {
		readsTotal.WithLabelValues("getMemory", "error").Inc()
		return nil, &core.ReadError{Op: "getMemory", Err: err}
	}
	readsTotal.WithLabelValues("getMemory", "ok").Inc()

	if r.cache != nil {
		r.cache.Set(cacheKey, rec, int64(len(rec.Content))+1)
	}
	return rec, nil
}
