package decision

import (
	"fmt"
	"strings"

	"github.com/agentledger/memvault/core"
)

const decisionSystemPrompt = `You decide whether the user's latest message contains a durable fact worth storing in long-term memory.

Respond with a single JSON object and nothing else:
{"should_store": <boolean>, "topic": "<topic label>", "summary": "<one-sentence fact>"}

Rules:
- should_store is required. topic and summary are required when should_store is true.
- Store stable facts about the user: identity, preferences, goals, relationships, ongoing projects.
- Do NOT store small talk, questions, transient state, or anything already present in KNOWN MEMORIES.
- topic must be a short snake_case label, reusing an existing topic from KNOWN MEMORIES when one fits.
- summary must be self-contained and understandable without this conversation.`

// buildDecisionPrompt renders the utterance and known memories for the
// classification call.
func buildDecisionPrompt(userMessage string, known []core.TopicMemory) string {
	var b strings.Builder
	b.WriteString("KNOWN MEMORIES:\n")
	if len(known) == 0 {
		b.WriteString("(none)\n")
	}
	for _, mem := range known {
		fmt.Fprintf(&b, "- [%s] %s\n", mem.Topic, mem.Content)
	}
	b.WriteString("\nUSER MESSAGE:\n")
	b.WriteString(userMessage)
	return b.String()
}
