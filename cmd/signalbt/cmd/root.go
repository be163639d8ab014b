package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/signalbt/config"
	"github.com/rustyeddy/signalbt/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "signalbt",
	Short: "Signal driven backtester for daily price series",
	Long: `signalbt replays price series that already carry buy, sell and hold
signals and reports how the account would have performed.

It provides tools for:
  - Backtesting one symbol with the risk or the execution policy
  - Running an equally weighted multi symbol portfolio
  - Journaling runs to CSV or SQLite
  - Browsing recorded runs from the command line or over HTTP`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = log.Sync()
	},
}

var (
	cfgFile   string
	logLevel  string
	logFormat string

	cfg = config.Default()
	log = zap.NewNop()
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log encoding (console or json)")
}

// setup loads the config file, if any, and builds the logger. Commands
// apply their own flag overrides afterwards.
func setup(cmd *cobra.Command, args []string) error {
	if cfgFile != "" {
		c, err := config.LoadFromFile(cfgFile)
		if err != nil {
			return err
		}
		cfg = c
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	l, err := logger.New(cfg.Logging.Level, logFormat)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	log = l
	return nil
}
