package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/agentledger/memvault/engine"
	"github.com/agentledger/memvault/server"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose the vault client over HTTP",
		Long: `Serves the store-memory/get-memory endpoints, Prometheus metrics,
and, when a model key is configured, a websocket chat surface driven by
the same conversation engine.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequireLedger(); err != nil {
				return err
			}
			if err := cfg.RequireWriter(); err != nil {
				return err
			}

			reader, rpc := buildReader(cfg)
			writer := buildWriter(cfg, rpc)

			// Chat over websocket only when a model is configured; the
			// REST surface works without one.
			var eng *engine.Engine
			if cfg.AnthropicAPIKey != "" {
				eng = buildEngine(cfg, reader, writer)
			} else {
				log.Info().Msg("no model key configured, websocket chat disabled")
			}

			srv := server.New(server.Config{
				Reader: reader,
				Writer: writer,
				Engine: eng,
				Log:    log.With().Str("component", "server").Logger(),
			})
			if addr == "" {
				addr = ":" + cfg.Port
			}
			return srv.Run(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to :$MEMVAULT_PORT)")
	return cmd
}
