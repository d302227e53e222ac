package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

const (
	appName = "signaldesk"
	version = "v1.0.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Trading-signal reconciliation and scoring engine",
		Version: version,
		Long: `signaldesk reconciles chat-posted trading signals into a canonical log
and scores fresh opportunities against historical winrates and the news calendar.`,
		SilenceUsage: true,
	}
	bindGlobalFlags(rootCmd.PersistentFlags())

	monitorCmd := &cobra.Command{
		Use:   "monitor",
		Short: "Run the live monitor loop",
		Long:  "Watches the chat stream, scores live entry signals, and schedules delayed reconciliation passes",
		RunE:  runMonitor,
	}
	monitorCmd.Flags().String("chat-replay", "", "JSON file of chat messages to replay instead of a live stream")

	reconcileCmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Run one reconciliation pass",
		Long:  "Fetches recent chat messages, reconciles them into the canonical log, and prunes old rows",
		RunE:  runReconcile,
	}
	reconcileCmd.Flags().String("chat-replay", "", "JSON file of chat messages to replay instead of a live stream")

	scoreCmd := &cobra.Command{
		Use:   "score",
		Short: "Score one (asset, time) opportunity",
		RunE:  runScore,
	}
	scoreCmd.Flags().String("asset", "", "Asset symbol, e.g. EURUSD-OTC (required)")
	scoreCmd.Flags().String("time", "", "Entry time HH:MM:SS (required)")

	calendarCmd := &cobra.Command{
		Use:   "calendar",
		Short: "Refresh the daily news calendar snapshot",
		Long:  "Runs the once-per-day calendar refresh gate and reports whether a fetch happened",
		RunE:  runCalendarRefresh,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only HTTP API",
		Long:  "Starts the HTTP server with /health, /score, and /metrics endpoints",
		RunE:  runServe,
	}

	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(calendarCmd)
	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func bindGlobalFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to yaml config file (defaults apply when empty)")
	fs.String("log-level", "", "Override log level (trace|debug|info|warn|error)")
	fs.String("stats-file", "", "JSON stats snapshot file standing in for the live sheet")
}
