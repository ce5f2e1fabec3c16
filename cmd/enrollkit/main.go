package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:     "enrollkit",
	Short:   "enrollkit - school application forms with subscription billing",
	Version: Version,
	// Running the bare binary starts the server, matching the container
	// entrypoint.
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

var remindersCmd = &cobra.Command{
	Use:   "billing-reminders",
	Short: "Scan billing records and report upcoming and overdue cancellations",
	Long: `Scans active billing records for scheduled subscription ends. Schools
ending within the reminder window are reported as warnings, schools whose
subscription already ended but are still unlocked as errors. The scan is
read-only; it never mutates billing records. Meant to run daily from cron.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReminders(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(remindersCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
