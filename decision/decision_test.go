package decision

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/agentledger/memvault/core"
	"github.com/agentledger/memvault/llm"
)

type fakeCompleter struct {
	response string
	err      error
	lastReq  llm.Request
}

func (f *fakeCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	f.lastReq = req
	return f.response, f.err
}

func newEngine(f *fakeCompleter) *Engine {
	return New(f, "", zerolog.Nop())
}

func TestDecideStore(t *testing.T) {
	f := &fakeCompleter{response: `{"should_store": true, "topic": "identity_profile", "summary": "User's name is Alex"}`}
	d := newEngine(f).Decide(context.Background(), "My name is Alex, remember that.", nil)

	if !d.Actionable() {
		t.Fatalf("expected actionable decision, got %+v", d)
	}
	if d.Topic != "identity_profile" || d.Summary != "User's name is Alex" {
		t.Errorf("unexpected decision: %+v", d)
	}
	if f.lastReq.Temperature != 0.0 {
		t.Errorf("classification temperature = %v, want 0", f.lastReq.Temperature)
	}
}

func TestDecideFencedJSON(t *testing.T) {
	f := &fakeCompleter{response: "Here is my decision:\n```json\n{\"should_store\": true, \"topic\": \"goals\", \"summary\": \"Training for a marathon\"}\n```"}
	d := newEngine(f).Decide(context.Background(), "I started marathon training", nil)
	if !d.Actionable() {
		t.Fatalf("fenced JSON should parse, got %+v", d)
	}
}

func TestDecideFailSafe(t *testing.T) {
	cases := []struct {
		name     string
		response string
		err      error
	}{
		{"invalid JSON", "sure, storing that!", nil},
		{"truncated object", `{"should_store": tru`, nil},
		{"missing should_store", `{"topic": "goals", "summary": "x"}`, nil},
		{"empty response", "", nil},
		{"completion error", "", errors.New("model timeout")},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := &fakeCompleter{response: c.response, err: c.err}
			d := newEngine(f).Decide(context.Background(), "hello", nil)
			if d.ShouldStore {
				t.Errorf("fail-safe violated: %+v", d)
			}
		})
	}
}

func TestDecideStoreWithoutPayloadIsNotActionable(t *testing.T) {
	f := &fakeCompleter{response: `{"should_store": true}`}
	d := newEngine(f).Decide(context.Background(), "hi", nil)
	if d.Actionable() {
		t.Fatalf("should_store without topic/summary must not be actionable: %+v", d)
	}
	// The parsed value is still faithful: the model did say store.
	if !d.ShouldStore {
		t.Errorf("ShouldStore lost in parsing")
	}
}

func TestDecidePromptCarriesKnownMemories(t *testing.T) {
	f := &fakeCompleter{response: `{"should_store": false}`}
	known := []core.TopicMemory{
		{Topic: "preferences", Record: core.Record{Content: "prefers tea"}},
	}
	newEngine(f).Decide(context.Background(), "I like tea", known)

	if !strings.Contains(f.lastReq.Prompt, "[preferences] prefers tea") {
		t.Errorf("known memories missing from prompt:\n%s", f.lastReq.Prompt)
	}
	if !strings.Contains(f.lastReq.Prompt, "I like tea") {
		t.Errorf("user message missing from prompt")
	}
}
