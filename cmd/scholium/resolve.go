package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(resolveCmd)
}

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Match unresolved references against the library",
	Long: `Sweep all unresolved citation references and link each one to a
stored document when first-author surname, year, and title agree.
Already-resolved citations are never touched, so the sweep is safe to
run any number of times.`,
	Args: cobra.NoArgs,
	RunE: runResolve,
}

// ResolveResponse is the resolve command output.
type ResolveResponse struct {
	Resolved int `json:"resolved"`
}

func runResolve(cmd *cobra.Command, args []string) error {
	a := mustOpenApp()
	defer a.close()

	resolved, err := a.graph.ResolveAll(cmd.Context())
	if err != nil {
		exitWithError(ExitError, "resolving citations: %v", err)
	}

	if humanOutput {
		fmt.Printf("Resolved %d citations\n", resolved)
	} else {
		outputJSON(ResolveResponse{Resolved: resolved})
	}
	return nil
}
