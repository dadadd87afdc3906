// Package engine drives the conversational turn loop: read known
// memories, reply, decide whether to store, and conditionally append to
// the vault. Every per-turn failure degrades to omitting information;
// only startup misconfiguration is fatal, and that happens elsewhere.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agentledger/memvault/core"
	"github.com/agentledger/memvault/llm"
	"github.com/agentledger/memvault/vault"
)

// Decider classifies one utterance against known memories. It never
// fails; unusable model output collapses to "do not store".
type Decider interface {
	Decide(ctx context.Context, userMessage string, known []core.TopicMemory) core.Decision
}

// Engine orchestrates one turn at a time against a single owner's memory
// space. Configuration is fixed at construction; the engine holds no
// mutable state between turns.
type Engine struct {
	llm     llm.Completer
	ledger  vault.Ledger
	writer  vault.Appender // nil for read-only agent variants
	decider Decider

	owner        core.Address
	topics       []string
	systemPrompt string
	model        string
	temperature  float64
	turnTimeout  time.Duration
	sessionID    string
	log          zerolog.Logger
}

// Option configures the engine.
type Option func(*Engine)

// WithTopics overrides the candidate-topic catalog consulted each turn.
func WithTopics(topics []string) Option {
	return func(e *Engine) { e.topics = topics }
}

// WithSystemPrompt overrides the reply system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(e *Engine) { e.systemPrompt = prompt }
}

// WithModel overrides the completer's default model for replies.
func WithModel(model string) Option {
	return func(e *Engine) { e.model = model }
}

// WithTemperature sets the reply sampling temperature.
func WithTemperature(t float64) Option {
	return func(e *Engine) { e.temperature = t }
}

// WithTurnTimeout bounds one full turn including model calls.
func WithTurnTimeout(d time.Duration) Option {
	return func(e *Engine) { e.turnTimeout = d }
}

// WithLogger sets the engine logger.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// New creates an engine for the given owner. writer may be nil, in which
// case decisions are made but never acted on (read-only variant).
func New(completer llm.Completer, ledger vault.Ledger, writer vault.Appender, decider Decider, owner core.Address, opts ...Option) *Engine {
	e := &Engine{
		llm:          completer,
		ledger:       ledger,
		writer:       writer,
		decider:      decider,
		owner:        owner,
		topics:       core.DefaultCatalog,
		systemPrompt: DefaultSystemPrompt,
		temperature:  0.7,
		turnTimeout:  2 * time.Minute,
		sessionID:    uuid.New().String(),
		log:          zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Turn is the outcome of one conversational turn.
type Turn struct {
	// Reply is the natural-language answer shown to the user.
	Reply string

	// Memories are the records the reply was grounded in: one latest
	// record per candidate topic that could be read.
	Memories []core.TopicMemory

	// Decision is the classification outcome for this utterance.
	Decision core.Decision

	// TxHash is set when a new fact was submitted to the vault.
	TxHash string

	// StoreErr records a failed append. The turn still completed; the
	// loop reports the failure and keeps accepting input.
	StoreErr error
}

// Stored reports whether this turn submitted a new fact.
func (t *Turn) Stored() bool { return t.TxHash != "" }

// RunTurn executes Reading, Replying, Deciding, and Writing/Skipping for
// one utterance. Only a failed reply aborts the turn: missing memories
// and failed writes degrade gracefully.
func (e *Engine) RunTurn(ctx context.Context, userMessage string) (*Turn, error) {
	ctx, cancel := context.WithTimeout(ctx, e.turnTimeout)
	defer cancel()

	// Reading: one latest record per candidate topic, fetched
	// concurrently. A failed topic is omitted, never fatal.
	memories := e.readKnownMemories(ctx)

	// Replying: grounded answer, no ledger side effects.
	reply, err := e.llm.Complete(ctx, llm.Request{
		System:      e.systemPrompt + "\n\n" + formatMemories(memories),
		Prompt:      userMessage,
		Temperature: e.temperature,
		Model:       e.model,
	})
	if err != nil {
		return nil, err
	}

	turn := &Turn{Reply: reply, Memories: memories}

	// Deciding: fail-safe classification.
	turn.Decision = e.decider.Decide(ctx, userMessage, memories)

	// Writing or skipping. A write failure is reported, not propagated:
	// the orchestrator returns to Idle and accepts the next turn.
	if turn.Decision.Actionable() && e.writer != nil {
		key := core.DeriveTopicKey(turn.Decision.Topic)
		txHash, err := e.writer.Store(ctx, e.owner, key, turn.Decision.Summary)
		if err != nil {
			e.log.Error().Err(err).
				Str("topic", turn.Decision.Topic).
				Msg("memory store failed")
			turn.StoreErr = err
		} else {
			e.log.Info().
				Str("topic", turn.Decision.Topic).
				Str("tx_hash", txHash).
				Msg("memory stored")
			turn.TxHash = txHash
		}
	}

	return turn, nil
}

// topicRead is the per-topic result of the Reading phase. Failures are
// explicit values the aggregation step filters, not control flow.
type topicRead struct {
	topic string
	rec   *core.Record
	err   error
}

// readKnownMemories fetches the latest record for every candidate topic
// concurrently and aggregates the successes in catalog order.
func (e *Engine) readKnownMemories(ctx context.Context) []core.TopicMemory {
	reads := make([]topicRead, len(e.topics))
	var wg sync.WaitGroup
	for i, topic := range e.topics {
		wg.Add(1)
		go func(i int, topic string) {
			defer wg.Done()
			rec, err := e.ledger.GetLatest(ctx, e.owner, core.DeriveTopicKey(topic))
			reads[i] = topicRead{topic: topic, rec: rec, err: err}
		}(i, topic)
	}
	wg.Wait()

	var memories []core.TopicMemory
	for _, r := range reads {
		if r.err != nil {
			e.log.Warn().Err(r.err).Str("topic", r.topic).Msg("topic read failed, omitting")
			continue
		}
		if r.rec == nil {
			continue // empty memory set, nothing to ground on
		}
		memories = append(memories, core.TopicMemory{Topic: r.topic, Record: *r.rec})
	}
	return memories
}
