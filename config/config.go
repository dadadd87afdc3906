// Package config loads process configuration once at startup. Components
// never read ambient environment state; they receive values from here via
// constructors.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"

	"github.com/agentledger/memvault/core"
)

// Config is the immutable process configuration, loaded from MEMVAULT_*
// environment variables.
type Config struct {
	// Ledger access.
	RPCURLs       []string `envconfig:"RPC_URLS" default:"https://arb1.arbitrum.io/rpc,https://rpc.ankr.com/arbitrum"`
	VaultContract string   `envconfig:"CONTRACT"`

	// Identities. Owner is whose memory space this process serves;
	// the signer sidecar's key is the Writer and may differ.
	OwnerAddress  string `envconfig:"OWNER"`
	WriterAddress string `envconfig:"WRITER"`

	// Signer sidecar for write submission.
	SignerURL    string `envconfig:"SIGNER_URL"`
	SignerAPIKey string `envconfig:"SIGNER_API_KEY"`

	// Language model.
	AnthropicAPIKey string  `envconfig:"ANTHROPIC_API_KEY"`
	Model           string  `envconfig:"MODEL"`
	Temperature     float64 `envconfig:"TEMPERATURE" default:"0.7"`

	// Candidate topics consulted each turn; empty uses the default
	// catalog.
	Topics []string `envconfig:"TOPICS"`

	// HTTP service.
	Port string `envconfig:"PORT" default:"8080"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads the environment. It does not validate capability-specific
// fields; call the Require* methods from the command that needs them.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("memvault", &cfg); err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return &cfg, nil
}

// RequireLedger validates the fields every ledger-touching command needs.
func (c *Config) RequireLedger() error {
	if len(c.RPCURLs) == 0 {
		return fmt.Errorf("MEMVAULT_RPC_URLS is required")
	}
	if c.VaultContract == "" {
		return fmt.Errorf("MEMVAULT_CONTRACT is required")
	}
	if c.OwnerAddress == "" {
		return fmt.Errorf("MEMVAULT_OWNER is required")
	}
	if !core.Address(c.OwnerAddress).Valid() {
		return fmt.Errorf("MEMVAULT_OWNER is not a valid address: %q", c.OwnerAddress)
	}
	return nil
}

// RequireWriter validates the fields needed to submit writes.
func (c *Config) RequireWriter() error {
	if c.SignerURL == "" {
		return fmt.Errorf("MEMVAULT_SIGNER_URL is required")
	}
	if c.WriterAddress != "" && !core.Address(c.WriterAddress).Valid() {
		return fmt.Errorf("MEMVAULT_WRITER is not a valid address: %q", c.WriterAddress)
	}
	return nil
}

// RequireModel validates the fields needed for model calls.
func (c *Config) RequireModel() error {
	if c.AnthropicAPIKey == "" {
		return fmt.Errorf("MEMVAULT_ANTHROPIC_API_KEY is required")
	}
	return nil
}

// Catalog returns the configured candidate topics, or the default
// catalog when none are set.
func (c *Config) Catalog() []string {
	if len(c.Topics) > 0 {
		return c.Topics
	}
	return core.DefaultCatalog
}
