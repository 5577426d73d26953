package main

import (
	"fmt"
	"net"

	"github.com/spf13/cobra"
)

var (
	devServerAddr string
	metricsDays   int
	cleanupDays   int
)

var devServerCmd = &cobra.Command{
	Use:   "dev-server",
	Short: "Run an in-memory shopping list API for local use",
	Long: `Serve the shopping list API from memory. Data is lost on exit.
Point SHOPPING_API_URL at the printed address to use it from the CLI or bot.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := devServerAddr
		if addr == "" {
			addr = application.Config().DevServerAddr
		}
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", addr, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Dev API listening on http://%s\n", ln.Addr())
		return application.ServeDevAPI(cmd.Context(), ln)
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show request and token usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		return application.PrintMetrics(cmd.Context(), metricsDays)
	},
}

var metricsCleanupCmd = &cobra.Command{
	Use:   "metrics-cleanup",
	Short: "Remove old metric records and expired sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return application.CleanupMetrics(cmd.Context(), cleanupDays)
	},
}

func init() {
	devServerCmd.Flags().StringVar(&devServerAddr, "addr", "", "Listen address (defaults to DEV_SERVER_ADDR)")
	metricsCmd.Flags().IntVar(&metricsDays, "days", 7, "Number of days to report")
	metricsCleanupCmd.Flags().IntVar(&cleanupDays, "days", 30, "Keep records for the last N days")
}
