// Package core defines the domain types shared by the vault client,
// the decision engine, and the conversation orchestrator.
package core

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Address is a 20-byte ledger identity rendered as a 0x-prefixed hex string.
// Owner and Writer are both Addresses; they may differ (delegated writes).
type Address string

// Valid reports whether a is a well-formed 0x-prefixed 20-byte hex address.
func (a Address) Valid() bool {
	s := string(a)
	if len(s) != 42 || !strings.HasPrefix(s, "0x") {
		return false
	}
	_, err := hex.DecodeString(s[2:])
	return err == nil
}

// TopicKey is the 32-byte ledger-side identifier for a topic.
type TopicKey [32]byte

// Hex returns the 0x-prefixed hex encoding of the key.
func (k TopicKey) Hex() string {
	return "0x" + hex.EncodeToString(k[:])
}

// DeriveTopicKey maps a human-readable topic label to its ledger slot.
// Keccak-256 over the exact UTF-8 bytes: no trimming, no case folding.
// Two byte-distinct labels address two distinct memory sets, so any
// normalization here would silently remap existing topics.
func DeriveTopicKey(topic string) TopicKey {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(topic))
	var key TopicKey
	copy(key[:], h.Sum(nil))
	return key
}

// Record is one immutable memory entry as stored on the ledger.
type Record struct {
	// Timestamp is the ledger time of the append, in seconds.
	Timestamp int64 `json:"timestamp"`

	// Writer is the identity that submitted the record. It may differ
	// from the owner of the memory set it was appended to.
	Writer Address `json:"writer"`

	// Content is the stored fact, verbatim.
	Content string `json:"content"`
}

// TopicMemory is a Record tagged with the topic label it was read under.
// The ledger only knows topic keys; the label travels with the record so
// prompts and scan output stay human-readable.
type TopicMemory struct {
	Topic string `json:"topic"`
	Record
}

// Decision is the output of one memory-worthiness classification.
type Decision struct {
	ShouldStore bool   `json:"should_store"`
	Topic       string `json:"topic,omitempty"`
	Summary     string `json:"summary,omitempty"`
}

// Actionable reports whether the decision carries everything a write
// needs. ShouldStore without a topic and summary is treated as "skip".
func (d Decision) Actionable() bool {
	return d.ShouldStore && d.Topic != "" && d.Summary != ""
}
