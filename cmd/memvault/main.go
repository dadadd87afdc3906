// Command memvault is the memory-vault agent CLI: an interactive chat
// loop that persists durable facts to the ledger, a read-only scanner,
// and an HTTP service deployment.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/agentledger/memvault/config"
)

var debug bool

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// NewRootCmd constructs the root CLI command; exposed for unit testing.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "memvault",
		Short: "Ledger-backed durable memory for conversational agents",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()
			config.InitLogger()
			if debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
				log.Debug().Msg("debug logging enabled")
			}
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable verbose debug output")

	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newServeCmd())

	return rootCmd
}

// loadConfig reads the environment and applies the configured log level
// unless --debug already raised it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if !debug {
		config.SetLogLevel(cfg.LogLevel)
	}
	return cfg, nil
}
