package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/framebus/framebus/internal/config"
	"github.com/framebus/framebus/internal/logger"
)

var (
	// CLI flags
	logLevel  string
	logFormat string
	logOutput string

	// Global variables
	rootLog *logger.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "framebus",
	Short: "Framebus - origin-gated message bus between a host and embedded children",
	Long: `Framebus is a bidirectional message bus between a host context and one
or more embedded child contexts. The host keeps an allow-list of trusted
origins and a registry of announced peers; each child trusts exactly one
host and dispatches inbound actions to per-type subscribers.

The host and child subcommands run the two roles over a websocket
transport so the full handshake can be exercised from two terminals.`,
}

// setup initializes the logger and loads the configuration shared by all
// subcommands
func setup() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	// Apply CLI overrides
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	if logOutput != "" {
		cfg.Logging.Output = logOutput
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, err
	}
	rootLog = log
	logger.SetGlobal(log)

	return cfg, nil
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level: debug, info, warn, error (default: from config or env)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Log format: json, text (default: from config or env)")
	rootCmd.PersistentFlags().StringVar(&logOutput, "log-output", "",
		"Log output: stdout, stderr, or file path (default: from config or env)")
}
