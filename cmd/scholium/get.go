package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scholium/scholium/internal/document"
	"github.com/scholium/scholium/internal/store"
)

var getCitations bool

func init() {
	getCmd.Flags().BoolVar(&getCitations, "citations", false, "Include incoming and outgoing citations")
	rootCmd.AddCommand(getCmd)
}

var getCmd = &cobra.Command{
	Use:   "get <document-id>",
	Short: "Show one document",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

// DocumentResponse is the get command output.
type DocumentResponse struct {
	*document.Document
	Citing   []store.Citation `json:"citing,omitempty"`
	CitedBy  []store.Citation `json:"cited_by,omitempty"`
	CitedByN int              `json:"cited_by_count"`
}

func runGet(cmd *cobra.Command, args []string) error {
	a := mustOpenApp()
	defer a.close()

	ctx := cmd.Context()
	doc, err := a.store.GetDocument(ctx, args[0])
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			exitWithError(ExitDataError, "document not found: %s", args[0])
		}
		exitWithError(ExitError, "loading document: %v", err)
	}

	count, err := a.store.CitationCount(ctx, doc.ID)
	if err != nil {
		exitWithError(ExitError, "counting citations: %v", err)
	}

	resp := DocumentResponse{Document: doc, CitedByN: count}
	resp.Document.Body = "" // full text stays out of command output

	if getCitations {
		if resp.Citing, err = a.store.CitationsFrom(ctx, doc.ID); err != nil {
			exitWithError(ExitError, "loading citations: %v", err)
		}
		if resp.CitedBy, err = a.store.CitationsTo(ctx, doc.ID); err != nil {
			exitWithError(ExitError, "loading citations: %v", err)
		}
	}

	if humanOutput {
		fmt.Printf("%s\n", doc.Title)
		fmt.Printf("  id:       %s\n", doc.ID)
		if authors := formatAuthorsShort(doc.Authors); authors != "" {
			fmt.Printf("  authors:  %s\n", authors)
		}
		if doc.Year > 0 {
			fmt.Printf("  year:     %d\n", doc.Year)
		}
		if doc.DOI != "" {
			fmt.Printf("  doi:      %s\n", doc.DOI)
		}
		fmt.Printf("  status:   %s\n", doc.Status)
		fmt.Printf("  cited by: %d\n", count)
		if doc.Abstract != "" {
			fmt.Printf("\n%s\n", doc.Abstract)
		}
		if getCitations {
			fmt.Printf("\nReferences (%d):\n", len(resp.Citing))
			for _, c := range resp.Citing {
				marker := " "
				if c.CitedID != "" {
					marker = "*"
				}
				fmt.Printf("  %s %s\n", marker, truncateString(c.Raw, SummaryTitleLen))
			}
		}
	} else {
		outputJSON(resp)
	}
	return nil
}
