package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show library statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	a := mustOpenApp()
	defer a.close()

	stats, err := a.store.Stats(cmd.Context())
	if err != nil {
		exitWithError(ExitError, "loading stats: %v", err)
	}

	if humanOutput {
		fmt.Printf("documents:            %d\n", stats.DocumentCount)
		fmt.Printf("authors:              %d\n", stats.AuthorCount)
		fmt.Printf("citations resolved:   %d\n", stats.ResolvedCitations)
		fmt.Printf("citations unresolved: %d\n", stats.UnresolvedCitations)
		fmt.Printf("duplicates recorded:  %d\n", stats.DuplicateCount)
		fmt.Printf("ingest failures:      %d\n", stats.FailedCount)
		fmt.Printf("indexed vectors:      %d\n", a.index.Len())
	} else {
		type statsResponse struct {
			Documents           int `json:"documents"`
			Authors             int `json:"authors"`
			ResolvedCitations   int `json:"resolved_citations"`
			UnresolvedCitations int `json:"unresolved_citations"`
			Duplicates          int `json:"duplicates"`
			Failures            int `json:"ingest_failures"`
			IndexedVectors      int `json:"indexed_vectors"`
		}
		outputJSON(statsResponse{
			Documents:           stats.DocumentCount,
			Authors:             stats.AuthorCount,
			ResolvedCitations:   stats.ResolvedCitations,
			UnresolvedCitations: stats.UnresolvedCitations,
			Duplicates:          stats.DuplicateCount,
			Failures:            stats.FailedCount,
			IndexedVectors:      a.index.Len(),
		})
	}
	return nil
}
