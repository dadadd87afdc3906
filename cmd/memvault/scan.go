package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/agentledger/memvault/core"
	"github.com/agentledger/memvault/vault"
)

func newScanCmd() *cobra.Command {
	var topics []string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Dump every stored record across the topic catalog",
		Long: `Read-only: derives each topic's key, reads its record count, and
prints every record in topic-then-index order. Topics that fail to read
or hold no records are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequireLedger(); err != nil {
				return err
			}

			catalog := cfg.Catalog()
			if len(topics) > 0 {
				catalog = topics
			}

			reader, _ := buildReader(cfg)
			scanner := vault.NewScanner(reader, log.With().Str("component", "scanner").Logger())
			records := scanner.Scan(cmd.Context(), core.Address(cfg.OwnerAddress), catalog)

			if asJSON {
				return json.NewEncoder(os.Stdout).Encode(records)
			}
			if len(records) == 0 {
				fmt.Println("no records found")
				return nil
			}
			for _, rec := range records {
				when := time.Unix(rec.Timestamp, 0).UTC().Format(time.RFC3339)
				fmt.Printf("[%s] %s  (writer %s, %s)\n", rec.Topic, rec.Content, rec.Writer, when)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&topics, "topics", nil, "Topics to scan (defaults to the configured catalog)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit records as JSON")
	return cmd
}
