package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scholium/scholium/internal/store"
)

func init() {
	authorCmd.AddCommand(authorShowCmd)
	authorCmd.AddCommand(authorMergeCmd)
	rootCmd.AddCommand(authorCmd)
}

var authorCmd = &cobra.Command{
	Use:   "author",
	Short: "Inspect and manage authors",
}

var authorShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show an author's documents, co-authors, and citation totals",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuthorShow,
}

func runAuthorShow(cmd *cobra.Command, args []string) error {
	a := mustOpenApp()
	defer a.close()

	profile, err := a.graph.AuthorProfile(cmd.Context(), args[0])
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			exitWithError(ExitDataError, "author not found: %s", args[0])
		}
		exitWithError(ExitError, "loading author: %v", err)
	}

	if humanOutput {
		fmt.Printf("%s\n", profile.Author.Display)
		fmt.Printf("  documents: %d\n", len(profile.Documents))
		fmt.Printf("  cited:     %d times\n", profile.CitationCount)
		if len(profile.CoAuthors) > 0 {
			fmt.Println("  co-authors:")
			for _, c := range profile.CoAuthors {
				fmt.Printf("    %s (%d shared)\n", c.Display, c.SharedDocuments)
			}
		}
		if len(profile.Documents) > 0 {
			fmt.Println("\nDocuments:")
			for i, d := range profile.Documents {
				fmt.Printf("  [%d] %s", i+1, truncateString(d.Title, SummaryTitleLen))
				if d.Year > 0 {
					fmt.Printf(" (%d)", d.Year)
				}
				fmt.Println()
			}
		}
	} else {
		outputJSON(profile)
	}
	return nil
}

var authorMergeCmd = &cobra.Command{
	Use:   "merge <loser-id> <survivor-id>",
	Short: "Merge two author records, repointing all authorships",
	Long: `Merge duplicate author records. All documents and name variants of
the first author move to the second; the first record is removed. The
operation is recorded in the merge log and is safe to repeat.`,
	Args: cobra.ExactArgs(2),
	RunE: runAuthorMerge,
}

func runAuthorMerge(cmd *cobra.Command, args []string) error {
	a := mustOpenApp()
	defer a.close()

	if err := a.store.MergeAuthors(cmd.Context(), args[0], args[1]); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			exitWithError(ExitDataError, "author not found: %v", err)
		}
		exitWithError(ExitError, "merging authors: %v", err)
	}

	if humanOutput {
		fmt.Printf("Merged %s into %s\n", args[0], args[1])
	} else {
		outputJSON(StatusResponse{Status: "merged"})
	}
	return nil
}
