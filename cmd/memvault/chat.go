package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentledger/memvault/vault"
)

func newChatCmd() *cobra.Command {
	var readOnly bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive conversation loop with durable memory",
		Long: `Reads one utterance per line from stdin, replies grounded in the
owner's stored memories, and appends new facts the decision step finds
worth keeping. Runs until stdin closes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequireLedger(); err != nil {
				return err
			}
			if err := cfg.RequireModel(); err != nil {
				return err
			}
			if !readOnly {
				if err := cfg.RequireWriter(); err != nil {
					return err
				}
			}

			reader, rpc := buildReader(cfg)
			var writer vault.Appender
			if !readOnly {
				writer = buildWriter(cfg, rpc)
			}
			eng := buildEngine(cfg, reader, writer)

			fmt.Fprintln(os.Stdout, "memvault chat (Ctrl+D to exit)")
			return eng.Loop(cmd.Context(), os.Stdin, os.Stdout)
		},
	}

	cmd.Flags().BoolVar(&readOnly, "read-only", false, "Never write to the ledger, even when the decision step says store")
	return cmd
}
