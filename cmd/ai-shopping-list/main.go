package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ai-shopping-list/internal/app"
	"ai-shopping-list/internal/config"
	"ai-shopping-list/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	debug bool

	logger      *zap.Logger
	application *app.App
)

var rootCmd = &cobra.Command{
	Use:   "ai-shopping-list",
	Short: "Manage shopping lists from the terminal",
	Long: `ai-shopping-list signs in to the shopping list API and lets you
browse, create, generate and edit lists.

Configuration is read from the environment (and a .env file when present).
Run "ai-shopping-list dev-server" for a local in-memory API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.NewFromEnv()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if debug {
			cfg.Debug = true
		}
		logger, err = logging.NewConsole(cfg.Debug)
		if err != nil {
			return err
		}
		application, err = app.New(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(
		registerCmd,
		loginCmd,
		logoutCmd,
		whoamiCmd,
		profileCmd,
		listsCmd,
		showCmd,
		createCmd,
		generateCmd,
		deleteCmd,
		editCmd,
		suggestCmd,
		devServerCmd,
		metricsCmd,
		metricsCleanupCmd,
	)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	shutdown()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// shutdown runs after every command, failed ones included.
func shutdown() {
	if application != nil {
		if err := application.Close(); err != nil {
			logger.Warn("failed to close application", zap.Error(err))
		}
	}
	if logger != nil {
		_ = logger.Sync()
	}
}
