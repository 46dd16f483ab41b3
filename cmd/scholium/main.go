// Package main provides the scholium CLI entry point.
package main

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

// verbose enables debug logging
var verbose bool

// dataDirFlag overrides the library location
var dataDirFlag string

// logger is shared by all commands.
var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: false,
})

func main() {
	// Missing .env is fine; it only supplies optional overrides.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "scholium",
	Short: "Literature review engine for local PDF collections",
	Long: `scholium ingests directories of academic PDFs into a searchable
library: metadata and full text in SQLite, semantic vectors in a local
index, and a citation graph linking papers that cite each other.

All commands output JSON by default for easy integration with other
tools; pass --human for readable output.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logger.SetLevel(log.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "Library directory (default ~/.scholium)")
	rootCmd.Version = Version
}
