// Package decision classifies whether a conversational turn should
// produce a new stored fact.
package decision

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"

	"github.com/agentledger/memvault/core"
	"github.com/agentledger/memvault/llm"
)

// Engine asks the model whether the latest utterance is worth remembering
// and validates the structured answer.
type Engine struct {
	llm   llm.Completer
	model string
	log   zerolog.Logger
}

// New creates a decision engine. model == "" uses the completer's default.
func New(completer llm.Completer, model string, log zerolog.Logger) *Engine {
	return &Engine{llm: completer, model: model, log: log}
}

// Decide runs one classification over userMessage and the currently known
// memories. It never returns an error: a failed completion, unparseable
// output, or a schema violation all collapse to the fail-safe
// Decision{ShouldStore: false}. A bad model answer must neither crash the
// conversation loop nor risk storing malformed content.
func (e *Engine) Decide(ctx context.Context, userMessage string, known []core.TopicMemory) core.Decision {
	raw, err := e.llm.Complete(ctx, llm.Request{
		System:      decisionSystemPrompt,
		Prompt:      buildDecisionPrompt(userMessage, known),
		Temperature: 0.0, // classification, not prose
		Model:       e.model,
	})
	if err != nil {
		e.log.Warn().Err(err).Msg("decision completion failed, defaulting to skip")
		decisionsTotal.WithLabelValues("completion_error").Inc()
		return core.Decision{}
	}

	d, ok := parseDecision(raw)
	if !ok {
		e.log.Warn().Str("raw", truncate(raw, 200)).Msg("unparseable decision, defaulting to skip")
		decisionsTotal.WithLabelValues("parse_error").Inc()
		return core.Decision{}
	}

	if d.Actionable() {
		decisionsTotal.WithLabelValues("store").Inc()
	} else {
		decisionsTotal.WithLabelValues("skip").Inc()
	}
	return d
}

// rawDecision mirrors the schema the model is instructed to emit.
// ShouldStore is a pointer so a missing required field is detectable.
type rawDecision struct {
	ShouldStore *bool  `json:"should_store"`
	Topic       string `json:"topic"`
	Summary     string `json:"summary"`
}

// parseDecision interprets the model's raw text strictly as the Decision
// schema. Models occasionally wrap the object in a code fence or a line of
// prose, so the outermost {...} span is extracted before unmarshalling.
func parseDecision(raw string) (core.Decision, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return core.Decision{}, false
	}

	var d rawDecision
	if err := json.Unmarshal([]byte(raw[start:end+1]), &d); err != nil {
		return core.Decision{}, false
	}
	if d.ShouldStore == nil {
		return core.Decision{}, false
	}
	return core.Decision{
		ShouldStore: *d.ShouldStore,
		Topic:       strings.TrimSpace(d.Topic),
		Summary:     strings.TrimSpace(d.Summary),
	}, true
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
