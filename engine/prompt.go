package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/agentledger/memvault/core"
)

// DefaultSystemPrompt is used for replies unless overridden.
const DefaultSystemPrompt = `You are a helpful assistant with durable memory of the user.

GUIDELINES:
- Be conversational and concise.
- Ground your answers in the KNOWN USER MEMORY section when it is relevant.
- Never claim to remember something that is not in that section.
- Do not mention the memory system unless the user asks about it.`

// formatMemories renders retrieved memories for prompt injection.
func formatMemories(memories []core.TopicMemory) string {
	if len(memories) == 0 {
		return "KNOWN USER MEMORY: (none yet)"
	}
	var b strings.Builder
	b.WriteString("KNOWN USER MEMORY:\n")
	for _, mem := range memories {
		when := time.Unix(mem.Timestamp, 0).UTC().Format("2006-01-02")
		fmt.Fprintf(&b, "- [%s, %s] %s\n", mem.Topic, when, mem.Content)
	}
	return b.String()
}
