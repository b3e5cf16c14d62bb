// Command respoolsrv is a demonstration server for the respool library: it
// pools outbound TCP connections to a configured target and exposes pool
// occupancy over HTTP for scraping and manual inspection.
//
// # Basic Usage
//
// Start the server:
//
//	respoolsrv serve --config respool.yaml
//
// Print a one-shot occupancy snapshot:
//
//	respoolsrv stats --config respool.yaml
//
// # Environment Variables
//
//   - RESPOOL_CONFIG: path to the configuration file (default: respool.yaml)
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	rootCmd := buildRootCmd()
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "respoolsrv",
		Short:        "Demo server for the respool generic resource pool",
		Version:      fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage: true,
	}

	rootCmd.AddCommand(buildServeCmd(), buildStatsCmd())
	return rootCmd
}

func defaultConfigPath() string {
	if v := os.Getenv("RESPOOL_CONFIG"); v != "" {
		return v
	}
	return "respool.yaml"
}
