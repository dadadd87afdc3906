package vault

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentledger/memvault/core"
)

// Scanner enumerates a fixed topic catalog and flattens every stored
// record into one sequence. It is the read-only counterpart of the
// conversation loop, used by agent variants that never write.
type Scanner struct {
	ledger Ledger
	log    zerolog.Logger
}

// NewScanner creates a Scanner over the given ledger.
func NewScanner(ledger Ledger, log zerolog.Logger) *Scanner {
	return &Scanner{ledger: ledger, log: log}
}

// TopicResult is the outcome of scanning a single topic. Failures are
// data, not control flow: the aggregation step filters them out, so the
// "skip failing topics" policy is explicit and testable.
type TopicResult struct {
	Topic   string
	Records []core.TopicMemory
	Err     error
}

// Scan reads every record for every topic in catalog, preserving
// topic-then-index order in the flattened result. A topic whose reads
// fail, or which holds no records, contributes nothing; the scan itself
// always completes.
//
// Topics are fetched concurrently (reads are independent) and reassembled
// in catalog order.
func (s *Scanner) Scan(ctx context.Context, owner core.Address, catalog []string) []core.TopicMemory {
	results := s.scanAll(ctx, owner, catalog)

	var flat []core.TopicMemory
	for _, res := range results {
		if res.Err != nil {
			s.log.Warn().Err(res.Err).Str("topic", res.Topic).Msg("topic skipped")
			continue
		}
		flat = append(flat, res.Records...)
	}
	return flat
}

// scanAll fetches each topic concurrently, returning one result per
// catalog entry in catalog order.
func (s *Scanner) scanAll(ctx context.Context, owner core.Address, catalog []string) []TopicResult {
	results := make([]TopicResult, len(catalog))
	var wg sync.WaitGroup
	for i, topic := range catalog {
		wg.Add(1)
		go func(i int, topic string) {
			defer wg.Done()
			results[i] = s.scanTopic(ctx, owner, topic)
		}(i, topic)
	}
	wg.Wait()
	return results
}

// scanTopic reads all records for one topic in index order.
func (s *Scanner) scanTopic(ctx context.Context, owner core.Address, topic string) TopicResult {
	key := core.DeriveTopicKey(topic)

	count, err := s.ledger.GetCount(ctx, owner, key)
	if err != nil {
		return TopicResult{Topic: topic, Err: err}
	}

	records := make([]core.TopicMemory, 0, count)
	for index := uint64(0); index < count; index++ {
		rec, err := s.ledger.GetAt(ctx, owner, key, index)
		if err != nil {
			// A partial topic is worse than an omitted one: drop it whole.
			return TopicResult{Topic: topic, Err: err}
		}
		records = append(records, core.TopicMemory{Topic: topic, Record: *rec})
	}
	return TopicResult{Topic: topic, Records: records}
}
