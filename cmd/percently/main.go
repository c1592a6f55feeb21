// Command percently is the command-line front end of the percentage
// calculator. It keeps its history and form state in a local SQLite file so
// consecutive invocations behave like one long-lived page.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"percently/internal/app"
	"percently/internal/config"
	"percently/internal/format"
	"percently/internal/percent"
	"percently/internal/storage"
)

var (
	// Global flags
	configPath string
	dbPath     string
	clientID   string
	locale     string
	verbose    bool

	logger = zap.NewNop()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "percently",
	Short: "Percentage calculator",
	Long: `percently answers everyday percentage questions:

  percent-of      X% of Y
  increase-by     Y increased by X%
  decrease-by     Y decreased by X%
  percent-diff    percent difference between A and B
  what-percent    X is what percent of Y
  percent-change  change from an old value to a new one

Successful calculations are kept in a bounded history. A calculation is
recorded once the next one succeeds.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(); err != nil {
			return err
		}

		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		l, err := cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("PERCENTLY_CONFIG"), "YAML config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite file for history and form state (default history.path)")
	rootCmd.PersistentFlags().StringVar(&clientID, "client", "cli", "client whose history and state are used")
	rootCmd.PersistentFlags().StringVar(&locale, "locale", "", "BCP 47 locale for results (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(calcCmd, modesCmd, linkCmd, openCmd, historyCmd)
	historyCmd.AddCommand(historyListCmd, historyClearCmd, historyLoadCmd)
}

// openController opens the controller of the --client over the --db file.
// Both history and session state live in that file.
func openController(ctx context.Context) (*app.Controller, func() error, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if locale != "" {
		cfg.Locale = locale
	}
	path := cfg.History.Path
	if dbPath != "" {
		path = dbPath
	}

	db, err := storage.OpenSQLite(ctx, path)
	if err != nil {
		return nil, nil, err
	}

	svc := app.NewService(percent.NewEngine(format.New(cfg.Locale)), db, storage.Scoped(db, "session"), app.Options{
		HistoryCapacity: cfg.History.Capacity,
		PermalinkBase:   cfg.PermalinkBase,
		Logger:          logger,
	})
	return svc.Open(ctx, clientID), db.Close, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
