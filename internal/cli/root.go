package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/headline-goat/intent-goat/internal/config"
	"github.com/headline-goat/intent-goat/internal/logging"
)

var (
	dbPath     string
	configPath string
	verbose    bool

	cfg    = config.Default()
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "igt",
	Short: "Intent Goat - tracks whether a help widget variant turns intents into tickets",
	Long: `Intent Goat runs the intent tracking widget against a host page and
collects the impression, resolution and ticket_created events it sends.

Each intent is assigned variant A or B once and keeps it across page loads.
A tracked intent either turns into a ticket or resolves after a quiet window.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", cfg.DBPath, "database path (IGT_DB_PATH)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("db") {
		loaded.DBPath = dbPath
	}
	cfg = loaded

	l, err := logging.New(verbose)
	if err != nil {
		return err
	}
	logger = l
	return nil
}

func teardown(cmd *cobra.Command, args []string) error {
	// Sync fails on terminals; nothing useful to report.
	_ = logger.Sync()
	return nil
}
