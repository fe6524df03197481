// Command strata is the reference caller for the escalation engine: it owns
// configuration, persistence, and presentation, and feeds events through the
// engine's pure functions.
package main

import (
	"encoding/json"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/veilborne/strata/internal/config"
	"github.com/veilborne/strata/internal/storage"
)

var (
	// Global flags
	verbose bool
	output  string
	cfgFile string
	dbFile  string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "strata",
	Short: "Escalation engine for multi-channel behavior progression",
	Long: `strata tracks your standing across independent channels, advances or
regresses each one from logged events, enforces cooldowns and suspensions,
detects cross-channel cascades, and derives a time-decayed consequence tier
that resets on any compliance action.

Core Commands:
  init      Create the config file and database
  log       Log a response event against a channel
  advance   Advance a channel past its gate
  status    Composite score, cascades, and per-channel state
  tier      Show the current consequence tier
  comply    Record a compliance action (resets the tier)`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(
			tint.NewHandler(os.Stderr, &tint.Options{
				Level:      level,
				TimeFormat: "15:04:05",
			}),
		))
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "strata.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().StringVar(&dbFile, "db", "strata.db", "Path to the state database")
}

func main() {
	Execute()
}

// loadConfig loads the configured file, falling back to built-in defaults
// when it does not exist.
func loadConfig() (*config.File, error) {
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		slog.Debug("config file missing, using defaults", "path", cfgFile)
		return config.Default(), nil
	}
	return config.Load(cfgFile)
}

// openStore opens the state database, creating and migrating it as needed.
func openStore() (*storage.Store, error) {
	return storage.Open(dbFile)
}

// encode writes v to stdout in the selected structured format. Returns
// false when the format is "table" so callers render their own view.
func encode(v any) (bool, error) {
	switch output {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close()
		return true, enc.Encode(v)
	default:
		return false, nil
	}
}
