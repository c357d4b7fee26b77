package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"dronefleet-sim/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "dronefleet-sim",
	Short: "Autonomous delivery fleet simulator",
	Long:  "dronefleet-sim simulates an autonomous drone delivery fleet: weather-aware routing, battery and maintenance management, and delivery dispatch.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Optional .env for endpoint and cluster settings.
		_ = godotenv.Load()
		slog.SetDefault(logging.New())
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(replayCmd)
}
