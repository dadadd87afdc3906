package main

import (
	"github.com/rs/zerolog/log"

	"github.com/agentledger/memvault/config"
	"github.com/agentledger/memvault/core"
	"github.com/agentledger/memvault/decision"
	"github.com/agentledger/memvault/engine"
	"github.com/agentledger/memvault/llm"
	"github.com/agentledger/memvault/vault"
)

// buildReader wires the ledger read path from configuration.
func buildReader(cfg *config.Config) (*vault.Reader, *vault.RPCClient) {
	rpc := vault.NewRPCClient(cfg.RPCURLs...)
	reader := vault.NewReader(rpc, cfg.VaultContract, log.With().Str("component", "reader").Logger())
	return reader, rpc
}

// buildWriter wires the write path through the signer sidecar.
func buildWriter(cfg *config.Config, rpc *vault.RPCClient) *vault.Writer {
	sender := vault.NewHTTPSender(vault.HTTPSenderConfig{
		BaseURL: cfg.SignerURL,
		APIKey:  cfg.SignerAPIKey,
	})
	return vault.NewWriter(sender, rpc, cfg.VaultContract, log.With().Str("component", "writer").Logger())
}

// buildEngine wires the full conversation orchestrator. writer may be
// nil for read-only variants.
func buildEngine(cfg *config.Config, reader *vault.Reader, writer vault.Appender) *engine.Engine {
	completer := llm.NewAnthropic(cfg.AnthropicAPIKey, cfg.Model)
	decider := decision.New(completer, cfg.Model, log.With().Str("component", "decision").Logger())
	return engine.New(
		completer,
		reader,
		writer,
		decider,
		core.Address(cfg.OwnerAddress),
		engine.WithTopics(cfg.Catalog()),
		engine.WithTemperature(cfg.Temperature),
		engine.WithModel(cfg.Model),
		engine.WithLogger(log.With().Str("component", "engine").Logger()),
	)
}
