package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

// rootCmd runs the server when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "getnotes",
	Short: "Hierarchical markdown notes over MongoDB",
	Long: `getnotes serves a web UI, a JSON API and an MCP endpoint for notes
organized as categories, subcategories and notes.`,
	SilenceUsage: true,
	RunE:         runServe,
}

// Execute is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of getnotes",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "getnotes version %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
