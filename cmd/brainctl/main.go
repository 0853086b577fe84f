package main

import (
	"fmt"
	"os"

	"github.com/reelworks/brain/internal/cli"
	"github.com/reelworks/brain/internal/cli/client"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "brainctl",
		Short: "Brain CLI - Semantic knowledge store for content pipelines",
		Long: `Brain CLI provides commands to ingest, query, and analyze pipeline content.

Environment variables:
  BRAIN_API_KEY   API key for authentication
  BRAIN_API_URL   API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-key", "", "API key for authentication (overrides env)")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.IngestCmd())
	rootCmd.AddCommand(client.DedupeCmd())
	rootCmd.AddCommand(client.ContextCmd())
	rootCmd.AddCommand(client.CoverageCmd())
	rootCmd.AddCommand(client.NodesCmd())
	rootCmd.AddCommand(client.ProfileCmd())
	rootCmd.AddCommand(client.StatsCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
